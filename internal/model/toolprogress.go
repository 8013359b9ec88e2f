// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// TOOL TYPE
// =============================================================================

// ToolType enumerates the backend sub-operations surfaced during a turn.
type ToolType string

const (
	ToolRetrieval     ToolType = "retrieval"
	ToolWebSearch     ToolType = "web_search"
	ToolDirectAnswer  ToolType = "direct_answer"
	ToolFormFill      ToolType = "form_fill"
	ToolClarification ToolType = "clarification"
	ToolImageAnalysis ToolType = "image_analysis"
)

// DisplayName returns a short label for the tool type.
func (t ToolType) DisplayName() string {
	switch t {
	case ToolRetrieval:
		return "Knowledge search"
	case ToolWebSearch:
		return "Web search"
	case ToolDirectAnswer:
		return "Direct answer"
	case ToolFormFill:
		return "Form fill"
	case ToolClarification:
		return "Clarification"
	case ToolImageAnalysis:
		return "Image analysis"
	default:
		return string(t)
	}
}

// =============================================================================
// TOOL STATUS
// =============================================================================

// ToolStatus is the lifecycle state of one tool invocation.
// Transitions are monotonic: pending -> running -> {success, failed, skipped}.
type ToolStatus string

const (
	ToolPending ToolStatus = "pending"
	ToolRunning ToolStatus = "running"
	ToolSuccess ToolStatus = "success"
	ToolFailed  ToolStatus = "failed"
	ToolSkipped ToolStatus = "skipped"
)

// Terminal reports whether the status is a final one.
func (s ToolStatus) Terminal() bool {
	switch s {
	case ToolSuccess, ToolFailed, ToolSkipped:
		return true
	}
	return false
}

// rank orders statuses along the allowed transition path so upserts
// can refuse backward movement.
func (s ToolStatus) rank() int {
	switch s {
	case ToolPending:
		return 0
	case ToolRunning:
		return 1
	case ToolSuccess, ToolFailed, ToolSkipped:
		return 2
	default:
		return 0
	}
}

// =============================================================================
// TOOL PROGRESS
// =============================================================================

// ToolProgress is one backend tool invocation surfaced during a turn.
type ToolProgress struct {
	ID        string     `json:"id"`
	Type      ToolType   `json:"type"`
	Status    ToolStatus `json:"status"`
	Reasoning string     `json:"reasoning,omitempty"`
	Error     string     `json:"error,omitempty"`
}
