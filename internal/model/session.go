// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// SESSION TYPE
// =============================================================================

// UntitledSessionLabel is the display fallback for sessions whose
// title is null server-side.
const UntitledSessionLabel = "New chat"

// Session is the metadata for one persisted conversation. Messages
// live server-side; the client only caches this metadata and refetches
// it, never merges.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id,omitempty"`
	Title        *string   `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayTitle returns the title or the untitled fallback label.
func (s *Session) DisplayTitle() string {
	if s.Title == nil || *s.Title == "" {
		return UntitledSessionLabel
	}
	return *s.Title
}

// LastActive returns updated_at, falling back to created_at when the
// session was never touched after creation.
func (s *Session) LastActive() time.Time {
	if s.UpdatedAt.IsZero() {
		return s.CreatedAt
	}
	return s.UpdatedAt
}

// =============================================================================
// RECENCY BUCKETS
// =============================================================================

// RecencyBucket groups sessions for display by how recently they were
// active.
type RecencyBucket int

const (
	BucketToday RecencyBucket = iota
	BucketYesterday
	BucketOlder
)

// String returns the display label for the bucket.
func (b RecencyBucket) String() string {
	switch b {
	case BucketToday:
		return "Today"
	case BucketYesterday:
		return "Yesterday"
	default:
		return "Older"
	}
}

// Bucket computes the recency bucket for a session relative to now.
// Bucket boundaries are local-midnight boundaries, not 24h windows.
func (s *Session) Bucket(now time.Time) RecencyBucket {
	last := s.LastActive().In(now.Location())
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case !last.Before(startOfToday):
		return BucketToday
	case !last.Before(startOfToday.AddDate(0, 0, -1)):
		return BucketYesterday
	default:
		return BucketOlder
	}
}
