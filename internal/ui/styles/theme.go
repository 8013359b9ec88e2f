// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application. It detects
// the terminal's color capability once at startup and the rest of the
// UI renders through its styles.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SystemNote      lipgloss.Style
	RoleLabel       lipgloss.Style
	Timestamp       lipgloss.Style
	FailedNote      lipgloss.Style
	CancelledNote   lipgloss.Style
	FeedbackMark    lipgloss.Style

	// ==========================================================================
	// TOOL PROGRESS PANEL
	// ==========================================================================

	ToolPanel    lipgloss.Style
	ToolRunning  lipgloss.Style
	ToolDone     lipgloss.Style
	ToolFailed   lipgloss.Style
	StageLabel   lipgloss.Style
	ProcessStep  lipgloss.Style
	ThinkingText lipgloss.Style

	// ==========================================================================
	// SOURCES AND SUGGESTIONS
	// ==========================================================================

	SourcePanel     lipgloss.Style
	SourceTitle     lipgloss.Style
	SourceURL       lipgloss.Style
	SuggestionChip  lipgloss.Style
	SuggestionIndex lipgloss.Style

	// ==========================================================================
	// SESSION LIST
	// ==========================================================================

	SessionBucket       lipgloss.Style
	SessionItem         lipgloss.Style
	SessionItemSelected lipgloss.Style
	SessionMeta         lipgloss.Style

	// ==========================================================================
	// INPUT AREA
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style
	AttachmentTag    lipgloss.Style

	// ==========================================================================
	// STATUS BAR AND TOASTS
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusMode   lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	ToastError   lipgloss.Style
	ToastInfo    lipgloss.Style
	ToastSuccess lipgloss.Style

	// ==========================================================================
	// COMPLETION POPUP
	// ==========================================================================

	CompletionPopup    lipgloss.Style
	CompletionItem     lipgloss.Style
	CompletionSelected lipgloss.Style
	CompletionDesc     lipgloss.Style

	// Spinner accent
	Spinner lipgloss.Style
}

// NewTheme builds a theme for the current terminal. The mode argument
// comes from config ("auto", "dark", "light"); auto defers to termenv
// background detection.
func NewTheme(mode string) *Theme {
	output := termenv.DefaultOutput()
	profile := output.ColorProfile()

	var dark bool
	switch mode {
	case "dark":
		dark = true
	case "light":
		dark = false
	default:
		dark = output.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(dark)

	t := &Theme{
		IsDark:       dark,
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.build()
	return t
}

func (t *Theme) build() {
	t.Header = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(ColorMuted)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(ColorUserBubbleFg).
		Background(ColorUserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)
	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(ColorText).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)
	t.SystemNote = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Italic(true)
	t.RoleLabel = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Italic(true)
	t.Timestamp = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Faint(true)
	t.FailedNote = lipgloss.NewStyle().
		Foreground(ColorError)
	t.CancelledNote = lipgloss.NewStyle().
		Foreground(ColorWarning)
	t.FeedbackMark = lipgloss.NewStyle().
		Foreground(ColorSuccess)

	t.ToolPanel = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)
	t.ToolRunning = lipgloss.NewStyle().Foreground(ColorAccent)
	t.ToolDone = lipgloss.NewStyle().Foreground(ColorSuccess)
	t.ToolFailed = lipgloss.NewStyle().Foreground(ColorError)
	t.StageLabel = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	t.ProcessStep = lipgloss.NewStyle().Foreground(ColorMuted)
	t.ThinkingText = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)

	t.SourcePanel = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderTop(false).
		BorderRight(false).
		BorderBottom(false).
		BorderForeground(ColorAccent).
		PaddingLeft(1)
	t.SourceTitle = lipgloss.NewStyle().Foreground(ColorText)
	t.SourceURL = lipgloss.NewStyle().Foreground(ColorMuted).Underline(true)
	t.SuggestionChip = lipgloss.NewStyle().
		Foreground(ColorAccent).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)
	t.SuggestionIndex = lipgloss.NewStyle().Foreground(ColorMuted)

	t.SessionBucket = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Bold(true).
		MarginTop(1)
	t.SessionItem = lipgloss.NewStyle().
		Foreground(ColorText).
		PaddingLeft(2)
	t.SessionItemSelected = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Background(ColorSurface).
		Bold(true).
		PaddingLeft(1)
	t.SessionMeta = lipgloss.NewStyle().Foreground(ColorMuted)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.InputPlaceholder = lipgloss.NewStyle().Foreground(ColorMuted)
	t.AttachmentTag = lipgloss.NewStyle().
		Foreground(ColorAccent).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)

	t.StatusBar = lipgloss.NewStyle().
		Background(ColorSurface).
		Foreground(ColorMuted).
		Padding(0, 1)
	t.StatusMode = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(ColorMuted)
	t.ToastError = lipgloss.NewStyle().
		Foreground(ColorError).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(0, 1)
	t.ToastInfo = lipgloss.NewStyle().
		Foreground(ColorAccent).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(0, 1)
	t.ToastSuccess = lipgloss.NewStyle().
		Foreground(ColorSuccess).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorSuccess).
		Padding(0, 1)

	t.CompletionPopup = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)
	t.CompletionItem = lipgloss.NewStyle().Foreground(ColorText)
	t.CompletionSelected = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Background(ColorSurface).
		Bold(true)
	t.CompletionDesc = lipgloss.NewStyle().Foreground(ColorMuted)

	t.Spinner = lipgloss.NewStyle().Foreground(ColorAccent)
}
