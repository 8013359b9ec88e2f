// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/morganforge/unibot-tui/internal/model"
	"github.com/morganforge/unibot-tui/internal/ui/styles"
	"github.com/morganforge/unibot-tui/internal/util"
)

// =============================================================================
// TOOL PROGRESS PANEL
// =============================================================================

// ToolProgressPanel shows backend tool activity while an answer
// streams: the current pipeline stage, each tool invocation with its
// status, and the completed process steps.
type ToolProgressPanel struct {
	Message *model.Message
	Width   int
	Spinner string

	theme *styles.Theme
}

// NewToolProgressPanel creates a panel for the streaming message.
func NewToolProgressPanel(msg *model.Message, theme *styles.Theme) *ToolProgressPanel {
	return &ToolProgressPanel{Message: msg, Width: 80, theme: theme}
}

// View renders the panel, or "" when there is nothing to show.
func (p *ToolProgressPanel) View() string {
	m := p.Message
	if m == nil || !m.Streaming() {
		return ""
	}
	stage, steps, tools := m.Progress()
	if stage == "" && len(tools) == 0 && len(steps) == 0 {
		return ""
	}

	var lines []string
	if stage != "" {
		line := p.theme.StageLabel.Render(stage)
		if p.Spinner != "" {
			line = p.Spinner + " " + line
		}
		lines = append(lines, line)
	}
	for _, step := range steps {
		lines = append(lines, p.theme.ProcessStep.Render("  "+styles.StatusIndicators.Success+" "+step))
	}
	for _, tp := range tools {
		lines = append(lines, p.renderTool(tp))
	}
	return p.theme.ToolPanel.Render(strings.Join(lines, "\n"))
}

func (p *ToolProgressPanel) renderTool(tp model.ToolProgress) string {
	label := tp.Type.DisplayName()
	maxReason := p.Width - util.StringWidth(label) - 10
	if maxReason < 10 {
		maxReason = 10
	}

	switch tp.Status {
	case model.ToolFailed:
		line := styles.StatusIndicators.Error + " " + label
		if tp.Error != "" {
			line += ": " + util.TruncateWidth(tp.Error, maxReason)
		}
		return p.theme.ToolFailed.Render(line)
	case model.ToolSuccess:
		return p.theme.ToolDone.Render(styles.StatusIndicators.Success + " " + label)
	case model.ToolSkipped:
		return p.theme.ProcessStep.Render("- " + label + " (skipped)")
	default:
		line := styles.StatusIndicators.Active + " " + label
		if tp.Reasoning != "" {
			line += " " + util.TruncateWidth(tp.Reasoning, maxReason)
		}
		return p.theme.ToolRunning.Render(line)
	}
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

// RenderSuggestions renders the follow-up suggestion chips shown
// under the latest answer. Each chip is numbered; alt+N submits it.
func RenderSuggestions(theme *styles.Theme, suggestions []string, width int) string {
	if len(suggestions) == 0 {
		return ""
	}
	maxChip := width - 8
	if maxChip < 16 {
		maxChip = 16
	}
	var lines []string
	for i, s := range suggestions {
		idx := theme.SuggestionIndex.Render(strconv.Itoa(i+1) + ".")
		chip := theme.SuggestionChip.Render(util.TruncateWidth(s, maxChip))
		lines = append(lines, idx+" "+chip)
	}
	return strings.Join(lines, "\n")
}
