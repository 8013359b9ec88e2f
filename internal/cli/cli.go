// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command routing for unibot.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/morganforge/unibot-tui/internal/api"
	"github.com/morganforge/unibot-tui/internal/auth"
	"github.com/morganforge/unibot-tui/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdLogin
	CmdLogout
	CmdSessions
	CmdBookmarks
	CmdConfig
	CmdVersion
	CmdHelp
)

const usageText = `unibot - university Q&A assistant for the terminal

Ask about tuition, scholarships, course registration and student
services. Answers stream in and cite the official documents they come
from.

Usage:
  unibot                       Start the TUI (default)
  unibot ask "question"        Ask a single question and exit
  unibot chat                  Interactive chat in the current shell
  unibot login                 Sign in with your student account
  unibot logout                Sign out and clear the saved token
  unibot sessions [subcommand] Manage saved conversations
  unibot bookmarks [search]    List or search saved Q&A pairs
  unibot config [show|path]    Show configuration
  unibot version               Show version information

Ask flags:
  --session ID        Continue an existing conversation
  --mode MODE         Thinking mode: fast, balanced, thorough
  --lang CODE         Answer language (vi, en)
  --json              Print the raw response as JSON
  --no-markdown       Disable markdown rendering

Session subcommands:
  unibot sessions                    List conversations by recency
  unibot sessions rename <id> <new title>
  unibot sessions delete <id>

Examples:
  unibot ask "Học phí kỳ này bao nhiêu?"
  unibot ask --mode thorough "Điều kiện xét học bổng?"
  unibot bookmarks "hoc phi"
`

// Parse reads os.Args and returns the command plus its remaining
// arguments.
func Parse() (Command, []string) {
	args := os.Args[1:]
	if len(args) == 0 {
		return CmdTUI, nil
	}

	switch args[0] {
	case "ask":
		return CmdAsk, args[1:]
	case "chat":
		return CmdChat, args[1:]
	case "login":
		return CmdLogin, args[1:]
	case "logout":
		return CmdLogout, args[1:]
	case "session", "sessions":
		return CmdSessions, args[1:]
	case "bookmark", "bookmarks":
		return CmdBookmarks, args[1:]
	case "config":
		return CmdConfig, args[1:]
	case "version", "-v", "--version":
		return CmdVersion, nil
	case "help", "-h", "--help":
		return CmdHelp, nil
	default:
		// Bare question: `unibot "Học phí bao nhiêu?"`
		return CmdAsk, args
	}
}

// PrintUsage writes the help text to stdout.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion writes version information to stdout.
func PrintVersion() {
	fmt.Printf("unibot %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}

// HandleConfig implements `unibot config`.
func HandleConfig(args []string) {
	parser := NewArgParser(args)
	switch parser.Subcommand() {
	case "path":
		path, err := config.Path()
		if err != nil {
			fail(err)
		}
		fmt.Println(path)
	case "", "show":
		cfg := loadConfig()
		fmt.Printf("server:   %s (timeout %s, retries %d)\n", cfg.Server.BaseURL, cfg.Timeout(), cfg.Server.MaxRetries)
		fmt.Printf("chat:     mode=%s lang=%s suggestions=%v\n", cfg.Chat.ThinkingMode, cfg.Chat.Language, cfg.Chat.Suggestions)
		fmt.Printf("cache:    enabled=%v\n", cfg.Cache.Enabled)
		fmt.Printf("ui:       theme=%s markdown=%v\n", cfg.UI.Theme, cfg.UI.Markdown)
	default:
		fail(fmt.Errorf("unknown config subcommand %q", parser.Subcommand()))
	}
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig loads the config file, falling back to defaults when it
// is missing or broken.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, using defaults\n", err)
		cfg = config.Default()
	}
	config.SetGlobal(cfg)
	return cfg
}

// newClient builds the API client with the saved token restored.
func newClient(cfg *config.Config) (*api.Client, *auth.Context, error) {
	store, err := auth.NewTokenStore()
	if err != nil {
		return nil, nil, err
	}
	authCtx := auth.NewContext(store)
	if err := authCtx.Restore(); err != nil && !errors.Is(err, auth.ErrNotLoggedIn) {
		fmt.Fprintf(os.Stderr, "warning: saved login unusable: %v\n", err)
	}
	client := api.NewClient(cfg.Server.BaseURL, authCtx).
		WithMaxRetries(cfg.Server.MaxRetries)
	return client, authCtx, nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
