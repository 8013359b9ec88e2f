// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete unibot client configuration.
type Config struct {
	Version string `toml:"version"`

	// Server is the backend connection configuration.
	Server ServerConfig `toml:"server"`

	// Chat controls request defaults for the query endpoints.
	Chat ChatConfig `toml:"chat"`

	// Cache controls the local session list cache.
	Cache CacheConfig `toml:"cache"`

	// UI configuration.
	UI UIConfig `toml:"ui"`
}

// ServerConfig contains backend connection settings.
type ServerConfig struct {
	// BaseURL is the origin of the Q&A backend, e.g. "https://api.uni.example".
	BaseURL string `toml:"base_url"`
	// TimeoutSecs is the timeout for non-streaming requests.
	TimeoutSecs int `toml:"timeout_secs"`
	// MaxRetries is the retry budget for transient errors.
	MaxRetries int `toml:"max_retries"`
}

// ChatConfig contains request defaults.
type ChatConfig struct {
	// ThinkingMode is the default reasoning intensity: "fast",
	// "balanced" or "thorough".
	ThinkingMode string `toml:"thinking_mode"`
	// Language is the preferred answer language code ("vi", "en").
	Language string `toml:"language"`
	// Suggestions toggles follow-up suggestions after each answer.
	Suggestions bool `toml:"suggestions"`
}

// CacheConfig contains the local cache settings.
type CacheConfig struct {
	// Enabled controls whether the sqlite cache is used at all.
	Enabled bool `toml:"enabled"`
	// Path is the sqlite database location (empty = ~/.unibot/cache.db).
	Path string `toml:"path"`
}

// UIConfig contains TUI preferences.
type UIConfig struct {
	// Theme selects the color theme: "auto", "dark", "light".
	Theme string `toml:"theme"`
	// Markdown toggles glamour rendering of answers.
	Markdown bool `toml:"markdown"`
	// ShowSources toggles the citation panel after answers.
	ShowSources bool `toml:"show_sources"`
	// ShowToolProgress toggles the tool activity panel while streaming.
	ShowToolProgress bool `toml:"show_tool_progress"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// ValidThinkingModes lists the accepted thinking_mode values.
var ValidThinkingModes = []string{"fast", "balanced", "thorough"}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			BaseURL:     "http://localhost:8000",
			TimeoutSecs: 60,
			MaxRetries:  3,
		},
		Chat: ChatConfig{
			ThinkingMode: "balanced",
			Language:     "vi",
			Suggestions:  true,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		UI: UIConfig{
			Theme:            "auto",
			Markdown:         true,
			ShowSources:      true,
			ShowToolProgress: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the unibot configuration directory (~/.unibot).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".unibot"), nil
}

// Path returns the config file path (~/.unibot/config.toml).
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from the default location, applies
// environment overrides and validates the result. A missing file is
// not an error; defaults are used.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies UNIBOT_* environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("UNIBOT_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("UNIBOT_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Server.TimeoutSecs = n
		}
	}
	if v := os.Getenv("UNIBOT_THINKING_MODE"); v != "" {
		c.Chat.ThinkingMode = v
	}
	if v := os.Getenv("UNIBOT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("UNIBOT_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Cache.Enabled = b
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ErrInvalidConfig wraps all validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks the configuration for consistency, clamping values
// where a safe bound exists and failing where it does not.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: server.base_url %q is not a valid http(s) URL", ErrInvalidConfig, c.Server.BaseURL)
	}

	if c.Server.TimeoutSecs <= 0 {
		c.Server.TimeoutSecs = 60
	}
	if c.Server.MaxRetries < 0 {
		c.Server.MaxRetries = 0
	}

	valid := false
	for _, m := range ValidThinkingModes {
		if c.Chat.ThinkingMode == m {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: chat.thinking_mode %q (valid: fast, balanced, thorough)", ErrInvalidConfig, c.Chat.ThinkingMode)
	}

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("%w: ui.theme %q (valid: auto, dark, light)", ErrInvalidConfig, c.UI.Theme)
	}

	return nil
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSecs) * time.Second
}

// CachePath returns the sqlite cache path, resolving the default.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache.db"), nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default location.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to an explicit path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".config-")
	if err != nil {
		return fmt.Errorf("cannot create temp config: %w", err)
	}
	tempPath := f.Name()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(c); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("cannot encode config: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("cannot write config: %w", err)
	}
	return nil
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// SetGlobal installs the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = cfg
}

// Global returns the process-wide configuration, or nil before Load.
func Global() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}
