// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the chat
// client: parsing, a registry of known commands, tab completion, and
// handlers that translate commands into application messages.
package commands

import (
	"sort"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/rate <helpful|not_helpful>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler executes the command
	Handler func(ctx *Context, args []string) tea.Cmd

	// Hidden commands don't appear in help
	Hidden bool

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	// Name of the argument
	Name string

	// Required indicates if the argument must be provided
	Required bool

	// Type determines completion behavior
	Type ArgType

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString  ArgType = iota // Free-form string
	ArgTypeSession                // Session id from the directory
	ArgTypeFile                   // File path
	ArgTypeEnum                   // One of predefined values
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns visible commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// registerBuiltins installs the built-in command set.
func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name: "/help", Aliases: []string{"/h", "/?"},
		Description: "Show available commands",
		Usage:       "/help [command]",
		Category:    "General",
		Handler:     HandleHelp,
	})
	r.Register(&Command{
		Name: "/quit", Aliases: []string{"/q", "/exit"},
		Description: "Exit the client",
		Category:    "General",
		Handler:     HandleQuit,
	})
	r.Register(&Command{
		Name: "/new", Aliases: []string{"/n"},
		Description: "Start a new chat",
		Category:    "Sessions",
		Handler:     HandleNew,
	})
	r.Register(&Command{
		Name: "/sessions", Aliases: []string{"/ls"},
		Description: "Browse previous chats",
		Category:    "Sessions",
		Handler:     HandleSessions,
	})
	r.Register(&Command{
		Name:        "/rename",
		Description: "Rename the open chat",
		Usage:       "/rename <title>",
		Args:        []ArgDef{{Name: "title", Required: true}},
		Category:    "Sessions",
		Handler:     HandleRename,
	})
	r.Register(&Command{
		Name:        "/delete",
		Description: "Delete a chat (the open one by default)",
		Usage:       "/delete [session-id]",
		Args:        []ArgDef{{Name: "session-id", Type: ArgTypeSession}},
		Category:    "Sessions",
		Handler:     HandleDelete,
	})
	r.Register(&Command{
		Name:        "/rate",
		Description: "Rate the last answer",
		Usage:       "/rate <helpful|not_helpful> [comment]",
		Args: []ArgDef{
			{Name: "rating", Required: true, Type: ArgTypeEnum, Values: []string{"helpful", "not_helpful"}},
			{Name: "comment"},
		},
		Category: "Feedback",
		Handler:  HandleRate,
	})
	r.Register(&Command{
		Name: "/bookmark", Aliases: []string{"/bm"},
		Description: "Bookmark the last question and answer",
		Usage:       "/bookmark [tag ...]",
		Category:    "Feedback",
		Handler:     HandleBookmark,
	})
	r.Register(&Command{
		Name:        "/bookmarks",
		Description: "List or search bookmarks",
		Usage:       "/bookmarks [query]",
		Category:    "Feedback",
		Handler:     HandleBookmarks,
	})
	r.Register(&Command{
		Name: "/export", Aliases: []string{"/save"},
		Description: "Export the open chat to a file (.md or .json)",
		Usage:       "/export [path]",
		Args:        []ArgDef{{Name: "path", Type: ArgTypeFile}},
		Category:    "Sessions",
		Handler:     HandleExport,
	})
	r.Register(&Command{
		Name:        "/mode",
		Description: "Set the answer thinking mode",
		Usage:       "/mode <fast|balanced|thorough>",
		Args:        []ArgDef{{Name: "mode", Required: true, Type: ArgTypeEnum, Values: []string{"fast", "balanced", "thorough"}}},
		Category:    "Chat",
		Handler:     HandleMode,
	})
	r.Register(&Command{
		Name:        "/attach",
		Description: "Attach a file to the next question",
		Usage:       "/attach <file>",
		Args:        []ArgDef{{Name: "file", Required: true, Type: ArgTypeFile}},
		Category:    "Chat",
		Handler:     HandleAttach,
	})
	r.Register(&Command{
		Name:        "/voice",
		Description: "Ask by uploading an audio recording",
		Usage:       "/voice <file>",
		Args:        []ArgDef{{Name: "file", Required: true, Type: ArgTypeFile}},
		Category:    "Chat",
		Handler:     HandleVoice,
	})
	r.Register(&Command{
		Name:        "/login",
		Description: "Sign in to the assistant backend",
		Category:    "Account",
		Handler:     HandleLogin,
	})
	r.Register(&Command{
		Name:        "/logout",
		Description: "Sign out and forget the stored token",
		Category:    "Account",
		Handler:     HandleLogout,
	})
	r.Register(&Command{
		Name:        "/stop",
		Description: "Stop the streaming answer",
		Category:    "Chat",
		Handler:     HandleStop,
	})
}
