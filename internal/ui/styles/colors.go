// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// COLOR PALETTE
// =============================================================================

// Adaptive colors pick the light or dark variant based on the detected
// terminal background. The palette degrades to the nearest ANSI color
// on terminals without truecolor support; lipgloss handles the mapping.
var (
	// Brand accent: header, active selection, the input prompt.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}

	// Secondary accent: follow-up suggestions, stage labels.
	ColorAccent = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}

	// Body text.
	ColorText = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"}

	// De-emphasized text: timestamps, counts, placeholders, hints.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

	// Tool finished, rating saved, bookmark created.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}

	// Cancelled turns, unsaved state.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}

	// Failed turns, error toasts.
	ColorError = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}

	// Panel and bubble borders.
	ColorBorder = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"}

	// Subtle fill behind the status bar and selected rows.
	ColorSurface = lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#1F2937"}

	// User bubble tones.
	ColorUserBubbleBg = lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1E3A5F"}
	ColorUserBubbleFg = lipgloss.AdaptiveColor{Light: "#1E3A8A", Dark: "#BFDBFE"}
)

// StatusIndicators are ASCII status glyphs.
// ACCESSIBILITY: distinct shapes alongside colors for colorblind users.
var StatusIndicators = struct {
	Success string
	Error   string
	Pending string
	Active  string
}{
	Success: "+",
	Error:   "x",
	Pending: "o",
	Active:  "~",
}
