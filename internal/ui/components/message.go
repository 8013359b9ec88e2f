// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/unibot-tui/internal/model"
	"github.com/morganforge/unibot-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE
// =============================================================================

// MessageBubble renders one transcript message.
type MessageBubble struct {
	Message *model.Message
	Width   int

	// Rendered, when set, replaces Message.Content as the body. The
	// chat view sets it to the glamour-rendered markdown of finalized
	// answers; streaming messages always render raw.
	Rendered string

	ShowTimestamp bool
	ShowSources   bool

	theme *styles.Theme
}

// NewMessageBubble creates a bubble with display defaults.
func NewMessageBubble(msg *model.Message, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		ShowSources:   true,
		theme:         theme,
	}
}

// SetWidth sets the available render width.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the message bubble.
func (b *MessageBubble) View() string {
	if b.Message == nil {
		return ""
	}
	switch b.Message.Role {
	case model.RoleUser:
		return b.renderUser()
	case model.RoleAssistant:
		return b.renderAssistant()
	default:
		return b.theme.SystemNote.Render(b.Message.DisplayContent())
	}
}

func (b *MessageBubble) body() string {
	if b.Rendered != "" {
		return strings.TrimRight(b.Rendered, "\n")
	}
	return b.Message.DisplayContent()
}

// ==========================================================================
// USER BUBBLE
// ==========================================================================

func (b *MessageBubble) renderUser() string {
	content := b.body()
	if content == "" && len(b.Message.Attachments) > 0 {
		content = "(attachment)"
	}

	maxContent := b.Width - 8
	if maxContent < 20 {
		maxContent = 20
	}
	wrapped := wordWrap(content, maxContent)
	contentWidth := minInt(maxLineWidth(wrapped)+2, b.Width-4)

	bubble := b.theme.UserBubble.Width(contentWidth).Render(wrapped)

	parts := []string{bubble}
	if tags := b.renderAttachments(); tags != "" {
		parts = append(parts, tags)
	}
	parts = append(parts, b.footer("you"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (b *MessageBubble) renderAttachments() string {
	if len(b.Message.Attachments) == 0 {
		return ""
	}
	tags := make([]string, 0, len(b.Message.Attachments))
	for _, a := range b.Message.Attachments {
		tags = append(tags, b.theme.AttachmentTag.Render("@ "+a.Name))
	}
	return strings.Join(tags, " ")
}

// ==========================================================================
// ASSISTANT BUBBLE
// ==========================================================================

func (b *MessageBubble) renderAssistant() string {
	content := b.body()
	if content == "" && b.Message.Streaming() {
		content = b.theme.ThinkingText.Render("...")
	}

	maxContent := b.Width - 8
	if maxContent < 20 {
		maxContent = 20
	}
	// Glamour output is already wrapped; only wrap raw content.
	if b.Rendered == "" {
		content = wordWrap(content, maxContent)
	}

	bubble := b.theme.AssistantBubble.Width(minInt(b.Width-4, maxContent+2)).Render(content)

	parts := []string{bubble}
	if b.ShowSources && !b.Message.Streaming() && len(b.Message.Sources) > 0 {
		parts = append(parts, RenderSources(b.theme, b.Message.Sources, b.Width-4))
	}
	parts = append(parts, b.footer("unibot"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (b *MessageBubble) footer(role string) string {
	parts := []string{b.theme.RoleLabel.Render(role)}
	if b.ShowTimestamp && !b.Message.Timestamp.IsZero() {
		parts = append(parts, b.theme.Timestamp.Render(b.Message.Timestamp.Format("15:04")))
	}
	if b.Message.HasFailed() {
		parts = append(parts, b.theme.FailedNote.Render(styles.StatusIndicators.Error+" failed"))
	}
	if fb := b.Message.Rating(); fb != nil {
		mark := "+1"
		if fb.Type == model.FeedbackNotHelpful {
			mark = "-1"
		}
		parts = append(parts, b.theme.FeedbackMark.Render("rated "+mark))
	}
	return strings.Join(parts, "  ")
}

// =============================================================================
// SOURCES
// =============================================================================

// RenderSources renders the citation block shown under finalized
// answers.
func RenderSources(theme *styles.Theme, sources []model.Source, width int) string {
	if len(sources) == 0 {
		return ""
	}
	var lines []string
	for _, s := range sources {
		title := s.Title
		if title == "" {
			title = s.URL
		}
		line := theme.SourceTitle.Render(title)
		if s.URL != "" && s.Title != "" {
			line += " " + theme.SourceURL.Render(s.URL)
		}
		lines = append(lines, wordWrap(line, width-2))
	}
	return theme.SourcePanel.Render(strings.Join(lines, "\n"))
}
