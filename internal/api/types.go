// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"github.com/morganforge/unibot-tui/internal/model"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// QueryRequest is the body of POST /smart-query and its streaming
// variant.
type QueryRequest struct {
	Query        string             `json:"query"`
	SessionID    string             `json:"session_id,omitempty"`
	ThinkingMode string             `json:"thinking_mode,omitempty"`
	Language     string             `json:"language,omitempty"`
	Attachments  []model.Attachment `json:"attachments,omitempty"`
}

// Validate rejects requests that must never reach the network.
func (r *QueryRequest) Validate() error {
	if r.Query == "" && len(r.Attachments) == 0 {
		return ErrInvalidRequest
	}
	return nil
}

// QueryResponse is the single-shot answer payload.
type QueryResponse struct {
	Content     string            `json:"content"`
	Intent      string            `json:"intent,omitempty"`
	Artifacts   []Artifact        `json:"artifacts,omitempty"`
	Sources     []model.Source    `json:"sources,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
	SessionID   string            `json:"session_id,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Artifact is a structured attachment in an answer (a form link, a
// table, a generated document).
type Artifact struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
}

// VoiceResponse is the payload of POST /multimodal/voice-query.
type VoiceResponse struct {
	Transcription   string         `json:"transcription"`
	Response        string         `json:"response"`
	Sources         []model.Source `json:"sources,omitempty"`
	Confidence      float64        `json:"confidence"`
	DurationSeconds float64        `json:"duration_seconds"`
	SessionID       string         `json:"session_id,omitempty"`
}

// StreamResult is what a finished stream produced: the terminal
// event's payload plus the accumulated content.
type StreamResult struct {
	Content     string
	Sources     []model.Source
	Suggestions []string
	SessionID   string
}

// streamFrame is one decoded JSON frame off the wire. Raw-text frames
// never reach this type.
type streamFrame struct {
	Content      string               `json:"content"`
	ToolCalls    []model.ToolProgress `json:"tool_calls,omitempty"`
	CurrentStage string               `json:"current_stage,omitempty"`
	Suggestions  []string             `json:"suggestions,omitempty"`
	Sources      []model.Source       `json:"sources,omitempty"`
	SessionID    string               `json:"session_id,omitempty"`
	Done         bool                 `json:"done,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// sessionRequest is the body of session create/rename calls.
type sessionRequest struct {
	Title string `json:"title,omitempty"`
}

// sessionListResponse wraps GET /chat/sessions.
type sessionListResponse struct {
	Sessions []model.Session `json:"sessions"`
}

// feedbackRequest is the body of the message rating call.
type feedbackRequest struct {
	Type       model.FeedbackType `json:"type"`
	Comment    string             `json:"comment,omitempty"`
	Categories []string           `json:"categories,omitempty"`
}

// bookmarkRequest is the body of POST /bookmarks.
type bookmarkRequest struct {
	Query    string   `json:"query"`
	Response string   `json:"response"`
	Tags     []string `json:"tags,omitempty"`
}

// bookmarkListResponse wraps bookmark list/search responses.
type bookmarkListResponse struct {
	Bookmarks []model.Bookmark `json:"bookmarks"`
}

// apiErrorResponse is the backend's error envelope.
type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	} `json:"error"`
	// Some endpoints use a flat shape instead.
	Detail  string `json:"detail"`
	Message string `json:"message"`
}
