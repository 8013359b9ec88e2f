// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/unibot-tui/internal/model"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Context is the slice of application state handlers may consult.
// The UI populates it before executing a command.
type Context struct {
	// SessionID of the open chat, empty before the backend allocates
	// one.
	SessionID string

	// Streaming is true while an answer is being generated.
	Streaming bool

	// LastAssistantID is the id of the newest finalized answer, empty
	// when the transcript has none.
	LastAssistantID string

	// Authenticated reports whether a token is present.
	Authenticated bool
}

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// Handlers return these as tea.Msg; the UI layer executes them.

// ShowHelpMsg triggers the help display.
type ShowHelpMsg struct {
	Topic string
}

// NewSessionMsg starts a fresh chat.
type NewSessionMsg struct{}

// ShowSessionsMsg opens the session browser.
type ShowSessionsMsg struct{}

// RenameSessionMsg renames the open session.
type RenameSessionMsg struct {
	Title string
}

// DeleteSessionMsg deletes a session (the open one when ID is empty).
type DeleteSessionMsg struct {
	ID string
}

// RateMsg rates the last answer.
type RateMsg struct {
	MessageID string
	Type      model.FeedbackType
	Comment   string
}

// BookmarkMsg bookmarks the last question/answer pair.
type BookmarkMsg struct {
	Tags []string
}

// ShowBookmarksMsg lists or searches bookmarks.
type ShowBookmarksMsg struct {
	Query string
}

// ExportMsg exports the open chat.
type ExportMsg struct {
	Path string
}

// ModeSwitchMsg changes the thinking mode.
type ModeSwitchMsg struct {
	Mode string
}

// AttachMsg stages a file for the next question.
type AttachMsg struct {
	Path string
}

// VoiceQueryMsg submits an audio recording as a question.
type VoiceQueryMsg struct {
	Path string
}

// LoginMsg starts the login flow.
type LoginMsg struct{}

// LogoutMsg signs out.
type LogoutMsg struct{}

// StopMsg stops the streaming answer.
type StopMsg struct{}

// ErrorMsg reports a command error to the user.
type ErrorMsg struct {
	Err error
}

// =============================================================================
// HANDLERS
// =============================================================================

func msgCmd(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func errCmd(format string, args ...any) tea.Cmd {
	return msgCmd(ErrorMsg{Err: fmt.Errorf(format, args...)})
}

// HandleHelp shows command help, optionally for one command.
func HandleHelp(ctx *Context, args []string) tea.Cmd {
	topic := ""
	if len(args) > 0 {
		topic = args[0]
	}
	return msgCmd(ShowHelpMsg{Topic: topic})
}

// HandleQuit exits the client.
func HandleQuit(ctx *Context, args []string) tea.Cmd {
	return tea.Quit
}

// HandleNew starts a fresh chat.
func HandleNew(ctx *Context, args []string) tea.Cmd {
	return msgCmd(NewSessionMsg{})
}

// HandleSessions opens the session browser.
func HandleSessions(ctx *Context, args []string) tea.Cmd {
	return msgCmd(ShowSessionsMsg{})
}

// HandleRename renames the open session.
func HandleRename(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return errCmd("usage: /rename <title>")
	}
	if ctx.SessionID == "" {
		return errCmd("no session to rename yet; send a message first")
	}
	return msgCmd(RenameSessionMsg{Title: strings.Join(args, " ")})
}

// HandleDelete deletes a session.
func HandleDelete(ctx *Context, args []string) tea.Cmd {
	id := ctx.SessionID
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		return errCmd("no session to delete")
	}
	return msgCmd(DeleteSessionMsg{ID: id})
}

// HandleRate rates the last answer.
func HandleRate(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return errCmd("usage: /rate <helpful|not_helpful> [comment]")
	}
	if ctx.Streaming {
		return errCmd("wait for the answer to finish before rating")
	}
	if ctx.LastAssistantID == "" {
		return errCmd("nothing to rate yet")
	}
	ftype := model.FeedbackType(args[0])
	if !ftype.Valid() {
		return errCmd("unknown rating %q (use helpful or not_helpful)", args[0])
	}
	return msgCmd(RateMsg{
		MessageID: ctx.LastAssistantID,
		Type:      ftype,
		Comment:   strings.Join(args[1:], " "),
	})
}

// HandleBookmark bookmarks the last question/answer pair.
func HandleBookmark(ctx *Context, args []string) tea.Cmd {
	if ctx.Streaming {
		return errCmd("wait for the answer to finish before bookmarking")
	}
	if ctx.LastAssistantID == "" {
		return errCmd("nothing to bookmark yet")
	}
	return msgCmd(BookmarkMsg{Tags: args})
}

// HandleBookmarks lists or searches bookmarks.
func HandleBookmarks(ctx *Context, args []string) tea.Cmd {
	return msgCmd(ShowBookmarksMsg{Query: strings.Join(args, " ")})
}

// HandleExport exports the open chat.
func HandleExport(ctx *Context, args []string) tea.Cmd {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	return msgCmd(ExportMsg{Path: path})
}

// HandleMode changes the thinking mode.
func HandleMode(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return errCmd("usage: /mode <fast|balanced|thorough>")
	}
	mode := strings.ToLower(args[0])
	switch mode {
	case "fast", "balanced", "thorough":
		return msgCmd(ModeSwitchMsg{Mode: mode})
	}
	return errCmd("unknown mode %q (use fast, balanced, or thorough)", args[0])
}

// HandleAttach stages a file for the next question.
func HandleAttach(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return errCmd("usage: /attach <file>")
	}
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return errCmd("cannot attach %s: %v", path, err)
	}
	return msgCmd(AttachMsg{Path: path})
}

// HandleVoice submits an audio recording as a question.
func HandleVoice(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return errCmd("usage: /voice <file>")
	}
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return errCmd("cannot read %s: %v", path, err)
	}
	return msgCmd(VoiceQueryMsg{Path: path})
}

// HandleLogin starts the login flow.
func HandleLogin(ctx *Context, args []string) tea.Cmd {
	return msgCmd(LoginMsg{})
}

// HandleLogout signs out.
func HandleLogout(ctx *Context, args []string) tea.Cmd {
	if !ctx.Authenticated {
		return errCmd("not signed in")
	}
	return msgCmd(LogoutMsg{})
}

// HandleStop stops the streaming answer.
func HandleStop(ctx *Context, args []string) tea.Cmd {
	if !ctx.Streaming {
		return errCmd("nothing is streaming")
	}
	return msgCmd(StopMsg{})
}
