// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/unibot-tui/internal/model"
	"github.com/morganforge/unibot-tui/internal/ui/components"
)

// Test seam for recency bucketing.
var timeNow = time.Now

// View renders the full frame.
func (m *Model) View() string {
	if !m.ready {
		return "starting..."
	}

	header := components.Header(m.theme, m.width, m.sessionTitle(), m.online)

	var body string
	if m.state == viewSessions {
		body = m.viewSessionBrowser()
	} else {
		body = m.viewChat()
	}

	status := m.statusBar()

	frame := lipgloss.JoinVertical(lipgloss.Left, header, body, status)
	if m.toast != nil {
		// Toast overlays the bottom-right corner above the status bar.
		toast := m.toast.View(m.theme, m.width/2)
		frame = lipgloss.JoinVertical(lipgloss.Left, frame, toast)
	}
	return frame
}

func (m *Model) viewChat() string {
	sections := []string{m.viewport.View()}

	// Tool activity while the answer streams.
	if m.cfg.UI.ShowToolProgress && m.controller.Streaming() {
		if last := lastStreamingMessage(m); last != nil {
			panel := components.NewToolProgressPanel(last, m.theme)
			panel.Width = m.width - 2
			panel.Spinner = m.spin.View()
			if v := panel.View(); v != "" {
				sections = append(sections, v)
			}
		}
	}

	// Help / bookmark / voice overlay text.
	if m.helpText != "" {
		sections = append(sections, m.theme.SystemNote.Render(m.helpText))
	}

	// Follow-up suggestions under the latest answer.
	if m.cfg.Chat.Suggestions && !m.controller.Streaming() {
		if v := components.RenderSuggestions(m.theme, m.controller.Suggestions(), m.width); v != "" {
			sections = append(sections, v)
		}
	}

	sections = append(sections, m.viewInput())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) viewInput() string {
	var parts []string
	if len(m.attachments) > 0 {
		tags := make([]string, 0, len(m.attachments))
		for _, a := range m.attachments {
			tags = append(tags, m.theme.AttachmentTag.Render("@ "+a.Name))
		}
		parts = append(parts, strings.Join(tags, " "))
	}
	if len(m.completions) > 0 {
		parts = append(parts, m.viewCompletions())
	}
	parts = append(parts, m.theme.InputContainer.Width(m.width-2).Render(m.input.View()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) viewCompletions() string {
	var lines []string
	for i, c := range m.completions {
		line := c.Display
		if c.Description != "" {
			line += "  " + m.theme.CompletionDesc.Render(c.Description)
		}
		if i == m.completionIdx {
			lines = append(lines, m.theme.CompletionSelected.Render("> "+line))
		} else {
			lines = append(lines, m.theme.CompletionItem.Render("  "+line))
		}
	}
	return m.theme.CompletionPopup.Render(strings.Join(lines, "\n"))
}

func (m *Model) viewSessionBrowser() string {
	title := m.theme.HeaderTitle.Render("Sessions")
	hint := m.theme.ShortcutDesc.Render("Enter open  d delete  Esc back")
	list := m.sessionList.View()
	return lipgloss.JoinVertical(lipgloss.Left, title, list, "", hint)
}

func (m *Model) statusBar() string {
	bar := components.NewStatusBar(m.theme)
	bar.Width = m.width
	bar.ThinkingMode = m.cfg.Chat.ThinkingMode
	bar.SessionTitle = m.sessionTitle()
	bar.UserName = m.authCtx.Name()
	switch {
	case m.controller.Streaming():
		bar.Status = components.StatusStreaming
	case !m.online:
		bar.Status = components.StatusError
	default:
		bar.Status = components.StatusReady
	}
	return bar.View()
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshTranscript re-renders the transcript into the viewport.
func (m *Model) refreshTranscript(gotoBottom bool) {
	if !m.ready {
		return
	}
	messages := m.controller.Messages()
	if len(messages) == 0 {
		m.viewport.SetContent(m.welcome())
		return
	}

	blocks := make([]string, 0, len(messages))
	for _, msg := range messages {
		bubble := components.NewMessageBubble(msg, m.theme)
		bubble.SetWidth(m.width - 2)
		bubble.ShowSources = m.cfg.UI.ShowSources
		bubble.Rendered = m.renderedMarkdown(msg)
		blocks = append(blocks, bubble.View())
	}
	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
	if gotoBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) welcome() string {
	lines := []string{
		m.theme.HeaderTitle.Render("UniBot"),
		"",
		"Ask anything about tuition, scholarships, course registration",
		"or student services. Answers cite the official documents they",
		"came from.",
		"",
		m.theme.SystemNote.Render("Type a question, or /help for commands."),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) sessionTitle() string {
	id := m.controller.SessionID()
	if id == "" {
		return ""
	}
	if s := m.dir.Find(id); s != nil {
		return s.DisplayTitle()
	}
	return id
}

// lastStreamingMessage returns the in-flight assistant message, nil
// when idle.
func lastStreamingMessage(m *Model) *model.Message {
	messages := m.controller.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Streaming() {
			return messages[i]
		}
	}
	return nil
}

// =============================================================================
// HELP
// =============================================================================

func (m *Model) renderHelp(topic string) string {
	if topic != "" {
		if cmd := m.registry.Get(topic); cmd != nil {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			return fmt.Sprintf("%s\n  %s", usage, cmd.Description)
		}
		return fmt.Sprintf("no such command %q", topic)
	}

	var b strings.Builder
	b.WriteString("Commands\n")
	byCat := m.registry.ByCategory()
	for _, cat := range sortedKeys(byCat) {
		b.WriteString("\n" + cat + "\n")
		for _, cmd := range byCat[cat] {
			if cmd.Hidden {
				continue
			}
			b.WriteString(fmt.Sprintf("  %-12s %s\n", cmd.Name, cmd.Description))
		}
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
