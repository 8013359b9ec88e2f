// unibot - a terminal client for the university Q&A assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/unibot-tui/internal/api"
	"github.com/morganforge/unibot-tui/internal/auth"
	"github.com/morganforge/unibot-tui/internal/cli"
	"github.com/morganforge/unibot-tui/internal/config"
	"github.com/morganforge/unibot-tui/internal/directory"
	"github.com/morganforge/unibot-tui/internal/feedback"
	"github.com/morganforge/unibot-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI()
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdLogin:
		cli.HandleLogin(args)
	case cli.CmdLogout:
		cli.HandleLogout(args)
	case cli.CmdSessions:
		cli.HandleSessions(args)
	case cli.CmdBookmarks:
		cli.HandleBookmarks(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	}
}

func runTUI() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, using defaults\n", err)
		cfg = config.Default()
	}
	config.SetGlobal(cfg)

	store, err := auth.NewTokenStore()
	if err != nil {
		fatal(err)
	}
	authCtx := auth.NewContext(store)
	if err := authCtx.Restore(); err != nil && !errors.Is(err, auth.ErrNotLoggedIn) {
		fmt.Fprintf(os.Stderr, "warning: saved login unusable: %v\n", err)
	}

	client := api.NewClient(cfg.Server.BaseURL, authCtx).
		WithMaxRetries(cfg.Server.MaxRetries)

	var cache *directory.Cache
	if cfg.Cache.Enabled {
		if path, err := cfg.CachePath(); err == nil {
			if c, err := directory.OpenCache(path); err == nil {
				cache = c
				defer cache.Close()
			}
		}
	}
	dir := directory.New(client, cache)
	dir.LoadCached()

	recorder := feedback.NewRecorder(client)

	m := chat.New(cfg, client, authCtx, dir, recorder)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	m.SetProgram(p)

	// Live-reload config edits while the TUI runs. Only request-level
	// settings apply mid-session; theme changes need a restart.
	if path, err := config.Path(); err == nil {
		if w, err := config.NewWatcher(path, func(next *config.Config) {
			config.SetGlobal(next)
			cfg.Chat = next.Chat
			cfg.Server = next.Server
		}); err == nil {
			defer w.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
