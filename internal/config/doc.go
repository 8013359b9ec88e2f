// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading for unibot.
//
// TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// # Configuration Precedence
//
// Settings are resolved from (in order of precedence):
//   - Environment variables (UNIBOT_*)
//   - ~/.unibot/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    cfg = config.Default()
//	}
//
// Access settings:
//
//	baseURL := cfg.Server.BaseURL
//	timeout := cfg.Timeout()
//
// Watcher (watcher.go) re-reads the file when it changes on disk so a
// running TUI picks up edits without a restart.
package config
