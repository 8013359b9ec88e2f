// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/unibot-tui/internal/commands"
	"github.com/morganforge/unibot-tui/internal/export"
	"github.com/morganforge/unibot-tui/internal/feedback"
	"github.com/morganforge/unibot-tui/internal/model"
	"github.com/morganforge/unibot-tui/internal/turn"
	"github.com/morganforge/unibot-tui/internal/ui/components"
)

// Update handles all Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case StreamTickMsg:
		return m.handleStreamTick()

	case TurnEventMsg:
		return m.handleTurnEvent(msg.Event)

	case components.ToastExpiredMsg:
		if m.toast != nil && m.toast.ID == msg.ID {
			m.toast = nil
		}
		return m, nil
	}

	if model, cmd, handled := m.handleCommandMsg(msg); handled {
		return model, cmd
	}
	if model, cmd, handled := m.handleResultMsg(msg); handled {
		return model, cmd
	}
	return m, nil
}

// =============================================================================
// KEYBOARD
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		if m.controller.Streaming() {
			m.controller.Cancel()
			return m, nil
		}
		return m, tea.Quit
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Sessions):
		return m.openSessions()
	}

	if m.state == viewSessions {
		return m.handleSessionsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.controller.Streaming() {
			m.controller.Cancel()
			return m, nil
		}
		m.completions = nil
		m.helpText = ""
		return m, nil

	case key.Matches(msg, m.keys.Complete):
		return m.cycleCompletion()

	case key.Matches(msg, m.keys.Submit):
		if len(m.completions) > 0 {
			return m.acceptCompletion()
		}
		return m.submitInput()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	}

	// alt+1..alt+9 submits the numbered follow-up suggestion.
	if s := msg.String(); strings.HasPrefix(s, "alt+") && len(s) == 5 && s[4] >= '1' && s[4] <= '9' {
		suggestions := m.controller.Suggestions()
		idx := int(s[4] - '1')
		if idx < len(suggestions) {
			return m.submitText(suggestions[idx])
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.updateCompletions()
	return m, cmd
}

// =============================================================================
// COMPLETIONS
// =============================================================================

func (m *Model) updateCompletions() {
	value := m.input.Value()
	if !commands.IsCommand(value) {
		m.completions = nil
		return
	}
	m.completions = m.completer.Complete(value)
	if m.completionIdx >= len(m.completions) {
		m.completionIdx = 0
	}
}

func (m *Model) cycleCompletion() (tea.Model, tea.Cmd) {
	if len(m.completions) == 0 {
		m.updateCompletions()
		return m, nil
	}
	m.completionIdx = (m.completionIdx + 1) % len(m.completions)
	return m, nil
}

func (m *Model) acceptCompletion() (tea.Model, tea.Cmd) {
	c := m.completions[m.completionIdx]
	m.input.SetValue(c.Text + " ")
	m.input.CursorEnd()
	m.completions = nil
	m.completionIdx = 0
	return m, nil
}

// =============================================================================
// SUBMIT
// =============================================================================

func (m *Model) submitInput() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	if commands.IsCommand(value) {
		result := m.parser.Parse(value)
		m.input.Reset()
		m.completions = nil
		if result.Command == nil {
			return m, m.showToast(components.ToastError, fmt.Sprintf("unknown command %s, try /help", result.CommandName))
		}
		return m, result.Command.Handler(m.commandContext(), result.Args)
	}
	return m.submitText(value)
}

// submitText starts a turn. The composition buffer is only cleared
// when the controller accepts the submission.
func (m *Model) submitText(text string) (tea.Model, tea.Cmd) {
	err := m.controller.Submit(context.Background(), text, m.attachments)
	switch {
	case errors.Is(err, turn.ErrEmptySubmit):
		return m, nil
	case errors.Is(err, turn.ErrTurnActive):
		return m, m.showToast(components.ToastInfo, "an answer is already being generated, Esc to stop it")
	case err != nil:
		return m, m.showToast(components.ToastError, err.Error())
	}

	m.input.Reset()
	m.attachments = nil
	m.completions = nil
	m.helpText = ""
	m.streamBuf.Reset()
	m.refreshTranscript(true)
	return m, streamTickCmd()
}

// =============================================================================
// STREAMING
// =============================================================================

func (m *Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if _, ok := m.streamBuf.Flush(); ok {
		m.refreshTranscript(true)
	}
	if m.controller.Streaming() {
		return m, streamTickCmd()
	}
	return m, nil
}

func (m *Model) handleTurnEvent(ev turn.Event) (tea.Model, tea.Cmd) {
	switch ev := ev.(type) {
	case turn.TranscriptChanged, turn.ToolProgressApplied:
		m.refreshTranscript(true)
		return m, nil

	case turn.TurnFinished:
		m.streamBuf.ForceFlush()
		m.refreshTranscript(true)
		var cmd tea.Cmd
		if ev.Failed && ev.Err != nil {
			cmd = m.showToast(components.ToastError, ev.Err.Error())
		}
		return m, cmd

	case turn.SessionAllocated:
		// The backend just created the session; pull it into the
		// directory so the browser and completions see it.
		return m, m.refreshSessionsCmd()
	}
	return m, nil
}

// =============================================================================
// SESSION BROWSER
// =============================================================================

func (m *Model) openSessions() (tea.Model, tea.Cmd) {
	m.state = viewSessions
	m.sessionList = components.NewSessionList(m.dir.Groups(timeNow()), m.theme)
	m.sessionList.Width = m.width
	return m, m.refreshSessionsCmd()
}

func (m *Model) handleSessionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.state = viewChat
		return m, nil
	case "up", "k":
		m.sessionList.MoveSelection(-1)
		return m, nil
	case "down", "j":
		m.sessionList.MoveSelection(1)
		return m, nil
	case "enter":
		if s := m.sessionList.SessionAt(m.sessionList.Selected); s != nil {
			return m.openSession(s.ID)
		}
		return m, nil
	case "d":
		if s := m.sessionList.SessionAt(m.sessionList.Selected); s != nil {
			return m, m.deleteSessionCmd(s.ID)
		}
		return m, nil
	}
	return m, nil
}

// openSession switches the chat to an existing session. History is
// server-side; the local transcript restarts from the switch point.
func (m *Model) openSession(id string) (tea.Model, tea.Cmd) {
	if m.controller.Streaming() {
		m.controller.Cancel()
	}
	m.controller = turn.NewController(m.client,
		turn.WithSession(id),
		turn.WithThinkingMode(m.cfg.Chat.ThinkingMode),
		turn.WithLanguage(m.cfg.Chat.Language),
		turn.WithNotify(m.notify),
	)
	m.mdCache = map[string]string{}
	m.state = viewChat
	m.refreshTranscript(true)
	title := id
	if s := m.dir.Find(id); s != nil {
		title = s.DisplayTitle()
	}
	return m, m.showToast(components.ToastInfo, "switched to "+title)
}

// =============================================================================
// COMMAND MESSAGES
// =============================================================================

func (m *Model) handleCommandMsg(msg tea.Msg) (tea.Model, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case commands.ShowHelpMsg:
		m.helpText = m.renderHelp(msg.Topic)
		return m, nil, true

	case commands.NewSessionMsg:
		return m.startNewSession()

	case commands.ShowSessionsMsg:
		model, cmd := m.openSessions()
		return model, cmd, true

	case commands.RenameSessionMsg:
		return m, m.renameSessionCmd(m.controller.SessionID(), msg.Title), true

	case commands.DeleteSessionMsg:
		id := msg.ID
		if id == "" {
			id = m.controller.SessionID()
		}
		return m, m.deleteSessionCmd(id), true

	case commands.RateMsg:
		return m, m.rateCmd(msg), true

	case commands.BookmarkMsg:
		return m, m.bookmarkCmd(msg.Tags), true

	case commands.ShowBookmarksMsg:
		return m, m.bookmarksCmd(msg.Query), true

	case commands.ExportMsg:
		return m, m.exportCmd(msg.Path), true

	case commands.ModeSwitchMsg:
		m.controller.SetThinkingMode(msg.Mode)
		m.cfg.Chat.ThinkingMode = msg.Mode
		return m, m.showToast(components.ToastSuccess, "thinking mode: "+msg.Mode), true

	case commands.AttachMsg:
		return m.stageAttachment(msg.Path)

	case commands.VoiceQueryMsg:
		return m, m.voiceCmd(msg.Path), true

	case commands.LoginMsg:
		return m, m.showToast(components.ToastInfo, "run `unibot login` from a shell to sign in"), true

	case commands.LogoutMsg:
		return m, m.logoutCmd(), true

	case commands.StopMsg:
		m.controller.Cancel()
		return m, nil, true

	case commands.ErrorMsg:
		return m, m.showToast(components.ToastError, msg.Err.Error()), true
	}
	return m, nil, false
}

func (m *Model) startNewSession() (tea.Model, tea.Cmd, bool) {
	if m.controller.Streaming() {
		m.controller.Cancel()
	}
	m.controller = turn.NewController(m.client,
		turn.WithThinkingMode(m.cfg.Chat.ThinkingMode),
		turn.WithLanguage(m.cfg.Chat.Language),
		turn.WithNotify(m.notify),
	)
	m.mdCache = map[string]string{}
	m.attachments = nil
	m.refreshTranscript(true)
	return m, m.showToast(components.ToastInfo, "started a new conversation"), true
}

func (m *Model) stageAttachment(path string) (tea.Model, tea.Cmd, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return m, m.showToast(components.ToastError, "cannot attach: "+err.Error()), true
	}
	name := info.Name()
	m.attachments = append(m.attachments, model.Attachment{
		Kind: model.KindForFile(name),
		Name: name,
		Path: path,
		Size: info.Size(),
	})
	return m, m.showToast(components.ToastSuccess, "attached "+name), true
}

// =============================================================================
// ASYNC RESULTS
// =============================================================================

func (m *Model) handleResultMsg(msg tea.Msg) (tea.Model, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case SessionsRefreshedMsg:
		if msg.Err != nil {
			m.online = false
			return m, nil, true
		}
		m.online = true
		if m.state == viewSessions && m.sessionList != nil {
			selected := m.sessionList.Selected
			m.sessionList = components.NewSessionList(m.dir.Groups(timeNow()), m.theme)
			m.sessionList.Width = m.width
			m.sessionList.Selected = selected
			m.sessionList.MoveSelection(0)
		}
		return m, nil, true

	case SessionRenamedMsg:
		if msg.Err != nil {
			return m, m.showToast(components.ToastError, "rename failed: "+msg.Err.Error()), true
		}
		return m, tea.Batch(
			m.showToast(components.ToastSuccess, "renamed to "+msg.Title),
			m.refreshSessionsCmd(),
		), true

	case SessionDeletedMsg:
		if msg.Err != nil {
			return m, m.showToast(components.ToastError, "delete failed: "+msg.Err.Error()), true
		}
		var extra tea.Cmd
		if msg.ID == m.controller.SessionID() {
			_, extra, _ = m.startNewSession()
		}
		return m, tea.Batch(extra, m.refreshSessionsCmd()), true

	case RateDoneMsg:
		if msg.Err != nil {
			return m, m.showToast(components.ToastError, "rating failed: "+msg.Err.Error()), true
		}
		m.refreshTranscript(false)
		return m, m.showToast(components.ToastSuccess, "thanks for the feedback"), true

	case BookmarkDoneMsg:
		if msg.Err != nil {
			return m, m.showToast(components.ToastError, "bookmark failed: "+msg.Err.Error()), true
		}
		return m, m.showToast(components.ToastSuccess, "bookmarked"), true

	case BookmarksLoadedMsg:
		if msg.Err != nil {
			return m, m.showToast(components.ToastError, msg.Err.Error()), true
		}
		m.helpText = msg.Listing
		return m, nil, true

	case ExportDoneMsg:
		if msg.Err != nil {
			return m, m.showToast(components.ToastError, "export failed: "+msg.Err.Error()), true
		}
		return m, m.showToast(components.ToastSuccess, "exported to "+msg.Path), true

	case VoiceDoneMsg:
		return m.handleVoiceDone(msg)

	case LoggedOutMsg:
		if msg.Err != nil {
			return m, m.showToast(components.ToastError, "logout failed: "+msg.Err.Error()), true
		}
		return m, m.showToast(components.ToastSuccess, "signed out"), true
	}
	return m, nil, false
}

func (m *Model) handleVoiceDone(msg VoiceDoneMsg) (tea.Model, tea.Cmd, bool) {
	if msg.Err != nil {
		return m, m.showToast(components.ToastError, "voice query failed: "+msg.Err.Error()), true
	}
	m.helpText = fmt.Sprintf("Heard: %s\n\n%s", msg.Response.Transcription, msg.Response.Response)
	return m, m.showToast(components.ToastSuccess, "voice query answered"), true
}

// =============================================================================
// ASYNC COMMANDS
// =============================================================================

func (m *Model) refreshSessionsCmd() tea.Cmd {
	dir := m.dir
	return func() tea.Msg {
		return SessionsRefreshedMsg{Err: dir.Refresh(context.Background())}
	}
}

func (m *Model) renameSessionCmd(id, title string) tea.Cmd {
	dir := m.dir
	return func() tea.Msg {
		return SessionRenamedMsg{ID: id, Title: title, Err: dir.Rename(context.Background(), id, title)}
	}
}

func (m *Model) deleteSessionCmd(id string) tea.Cmd {
	dir := m.dir
	return func() tea.Msg {
		return SessionDeletedMsg{ID: id, Err: dir.Delete(context.Background(), id)}
	}
}

func (m *Model) rateCmd(msg commands.RateMsg) tea.Cmd {
	rec := m.recorder
	target := m.controller.LastAssistantMessage()
	return func() tea.Msg {
		if target == nil || target.ID != msg.MessageID {
			return RateDoneMsg{MessageID: msg.MessageID, Err: fmt.Errorf("no finalized answer to rate")}
		}
		fb := model.Feedback{Type: msg.Type, Comment: msg.Comment}
		return RateDoneMsg{MessageID: msg.MessageID, Err: rec.RateMessage(context.Background(), target, fb)}
	}
}

func (m *Model) bookmarkCmd(tags []string) tea.Cmd {
	rec := m.recorder
	question := m.controller.LastUserMessage()
	answer := m.controller.LastAssistantMessage()
	return func() tea.Msg {
		if question == nil || answer == nil {
			return BookmarkDoneMsg{Err: fmt.Errorf("nothing to bookmark yet")}
		}
		_, err := rec.Bookmark(context.Background(), question.Content, answer.Content, tags)
		return BookmarkDoneMsg{Err: err}
	}
}

func (m *Model) bookmarksCmd(query string) tea.Cmd {
	rec := m.recorder
	return func() tea.Msg {
		var (
			marks []model.Bookmark
			err   error
		)
		if query == "" {
			marks, err = rec.Bookmarks(context.Background())
		} else {
			marks, err = rec.SearchBookmarks(context.Background(), query, nil)
		}
		if err != nil {
			return BookmarksLoadedMsg{Err: err}
		}
		if query != "" {
			// Backend search is diacritic-sensitive; re-filter locally
			// so "hoc phi" matches "Học phí".
			marks = feedback.Filter(marks, query, nil)
		}
		return BookmarksLoadedMsg{Listing: formatBookmarks(marks)}
	}
}

func formatBookmarks(marks []model.Bookmark) string {
	if len(marks) == 0 {
		return "No bookmarks yet. Use /bookmark after an answer to save it."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d bookmark(s)\n\n", len(marks)))
	for _, bm := range marks {
		b.WriteString("* " + bm.Query + "\n")
		if len(bm.Tags) > 0 {
			b.WriteString("  tags: " + strings.Join(bm.Tags, ", ") + "\n")
		}
	}
	return b.String()
}

func (m *Model) exportCmd(path string) tea.Cmd {
	t := export.NewTranscript(m.controller.SessionID(), m.sessionTitle(), m.controller.Messages())
	return func() tea.Msg {
		if len(t.Messages) == 0 {
			return ExportDoneMsg{Err: fmt.Errorf("nothing to export yet")}
		}
		if path == "" {
			path = export.DefaultPath(".", t)
		}
		written, err := export.WriteFile(t, path)
		return ExportDoneMsg{Path: written, Err: err}
	}
}

func (m *Model) voiceCmd(path string) tea.Cmd {
	client := m.client
	sessionID := m.controller.SessionID()
	language := m.cfg.Chat.Language
	return func() tea.Msg {
		resp, err := client.VoiceQuery(context.Background(), path, sessionID, language)
		return VoiceDoneMsg{Response: resp, Err: err}
	}
}

func (m *Model) logoutCmd() tea.Cmd {
	authCtx := m.authCtx
	return func() tea.Msg {
		return LoggedOutMsg{Err: authCtx.Logout()}
	}
}
