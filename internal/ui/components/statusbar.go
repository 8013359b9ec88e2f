// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/unibot-tui/internal/ui/styles"
	"github.com/morganforge/unibot-tui/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Status is the coarse application state shown at the left edge.
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusLoading
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusStreaming:
		return "Answering..."
	case StatusLoading:
		return "Loading..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns an icon for the status.
// ACCESSIBILITY: distinct shapes alongside colors for colorblind users.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusStreaming:
		return styles.StatusIndicators.Active
	case StatusLoading:
		return styles.StatusIndicators.Pending
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// StatusBar is the bottom status bar: state, thinking mode, session
// title, auth identity and the key hints.
type StatusBar struct {
	Status       Status
	ThinkingMode string
	SessionTitle string
	UserName     string
	Width        int

	theme *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// View renders the bar at the configured width.
func (b *StatusBar) View() string {
	left := b.Status.Icon() + " " + b.Status.String()
	left += "  " + b.theme.StatusMode.Render(strings.ToUpper(b.ThinkingMode))
	if b.SessionTitle != "" {
		left += "  " + util.TruncateWidth(b.SessionTitle, 28)
	}

	right := b.hints()
	if b.UserName != "" {
		right = b.UserName + "  " + right
	}

	gap := b.Width - util.StringWidth(left) - util.StringWidth(right) - 2
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return b.theme.StatusBar.Width(b.Width).Render(util.TruncateWidth(bar, b.Width-2))
}

func (b *StatusBar) hints() string {
	pairs := [][2]string{
		{"Enter", "send"},
		{"Esc", "stop"},
		{"^S", "sessions"},
		{"/help", "commands"},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, b.theme.ShortcutKey.Render(p[0])+" "+b.theme.ShortcutDesc.Render(p[1]))
	}
	return strings.Join(parts, "  ")
}

// =============================================================================
// HEADER
// =============================================================================

// Header renders the one-line application header.
func Header(theme *styles.Theme, width int, sessionTitle string, online bool) string {
	title := theme.HeaderTitle.Render("UniBot")
	meta := sessionTitle
	if meta == "" {
		meta = "new conversation"
	}
	state := styles.StatusIndicators.Success + " online"
	if !online {
		state = styles.StatusIndicators.Error + " offline"
	}
	line := title + "  " + theme.HeaderMeta.Render(meta)
	right := theme.HeaderMeta.Render(state)

	gap := width - lipgloss.Width(line) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return theme.Header.Width(width).Render(line + strings.Repeat(" ", gap) + right)
}
