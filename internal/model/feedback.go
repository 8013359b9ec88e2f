// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// FEEDBACK TYPE
// =============================================================================

// FeedbackType is the rating attached to an assistant message.
type FeedbackType string

const (
	FeedbackHelpful    FeedbackType = "helpful"
	FeedbackNotHelpful FeedbackType = "not_helpful"
)

// Valid reports whether t is a known rating type.
func (t FeedbackType) Valid() bool {
	return t == FeedbackHelpful || t == FeedbackNotHelpful
}

// Feedback is one rating for one message. At most one exists per
// message; a later submission overwrites rather than appends.
type Feedback struct {
	Type       FeedbackType `json:"type"`
	Comment    string       `json:"comment,omitempty"`
	Categories []string     `json:"categories,omitempty"`
}

// =============================================================================
// BOOKMARK TYPE
// =============================================================================

// Bookmark is a saved query/response pair.
type Bookmark struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
