// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feedback records message ratings and manages bookmarks.
//
// Ratings are idempotent per message: a later submission overwrites,
// it never appends. Identical consecutive repeats inside the debounce
// window are acknowledged locally without hitting the backend.
package feedback

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/morganforge/unibot-tui/internal/model"
)

// debounceWindow is how long an identical repeat rating is absorbed
// locally before it is allowed through to the backend again.
const debounceWindow = 2 * time.Second

// Backend is the slice of the transport adapter the recorder needs.
// *api.Client satisfies it.
type Backend interface {
	SubmitFeedback(ctx context.Context, messageID string, fb model.Feedback) error
	CreateBookmark(ctx context.Context, query, response string, tags []string) (*model.Bookmark, error)
	ListBookmarks(ctx context.Context) ([]model.Bookmark, error)
	DeleteBookmark(ctx context.Context, id string) error
	SearchBookmarks(ctx context.Context, query string, tags []string) ([]model.Bookmark, error)
}

// Recorder sends ratings and bookmark operations to the backend.
type Recorder struct {
	mu      sync.Mutex
	backend Backend
	ratings map[string]*ratingEntry
}

type ratingEntry struct {
	last    model.Feedback
	limiter *rate.Limiter
}

// NewRecorder creates a recorder over the given backend.
func NewRecorder(backend Backend) *Recorder {
	return &Recorder{
		backend: backend,
		ratings: make(map[string]*ratingEntry),
	}
}

// =============================================================================
// RATINGS
// =============================================================================

// Rate records a rating for a message. Overwrite semantics: the
// backend keeps at most one rating per message id. An identical
// repeat inside the debounce window returns success without a network
// call.
func (r *Recorder) Rate(ctx context.Context, messageID string, fb model.Feedback) error {
	if messageID == "" {
		return fmt.Errorf("message id required")
	}
	if !fb.Type.Valid() {
		return fmt.Errorf("unknown feedback type %q", fb.Type)
	}

	r.mu.Lock()
	if entry, ok := r.ratings[messageID]; ok && sameFeedback(entry.last, fb) && !entry.limiter.Allow() {
		r.mu.Unlock()
		return nil // debounced repeat, already recorded
	}
	r.mu.Unlock()

	if err := r.backend.SubmitFeedback(ctx, messageID, fb); err != nil {
		return err
	}

	r.mu.Lock()
	limiter := rate.NewLimiter(rate.Every(debounceWindow), 1)
	limiter.Allow() // consume the initial token; repeats wait out the window
	r.ratings[messageID] = &ratingEntry{last: fb, limiter: limiter}
	r.mu.Unlock()
	return nil
}

// RateMessage rates and, on success, attaches the rating to the
// message. Rating the same message again replaces the attached
// Feedback; exactly one exists afterwards.
func (r *Recorder) RateMessage(ctx context.Context, msg *model.Message, fb model.Feedback) error {
	if msg == nil {
		return fmt.Errorf("message required")
	}
	if msg.Streaming() {
		return fmt.Errorf("cannot rate a streaming message")
	}
	if err := r.Rate(ctx, msg.ID, fb); err != nil {
		return err
	}
	msg.SetFeedback(fb)
	return nil
}

func sameFeedback(a, b model.Feedback) bool {
	return a.Type == b.Type && a.Comment == b.Comment && slices.Equal(a.Categories, b.Categories)
}

// =============================================================================
// BOOKMARKS
// =============================================================================

// Bookmark saves a query/response pair. Both sides are required.
func (r *Recorder) Bookmark(ctx context.Context, query, response string, tags []string) (*model.Bookmark, error) {
	return r.backend.CreateBookmark(ctx, query, response, tags)
}

// Bookmarks lists all saved bookmarks.
func (r *Recorder) Bookmarks(ctx context.Context) ([]model.Bookmark, error) {
	return r.backend.ListBookmarks(ctx)
}

// DeleteBookmark removes a bookmark by id. Missing ids surface the
// backend's not-found error.
func (r *Recorder) DeleteBookmark(ctx context.Context, id string) error {
	return r.backend.DeleteBookmark(ctx, id)
}

// SearchBookmarks queries the backend index. When the backend search
// is unavailable the caller can fall back to Filter over a local
// list.
func (r *Recorder) SearchBookmarks(ctx context.Context, query string, tags []string) ([]model.Bookmark, error) {
	return r.backend.SearchBookmarks(ctx, query, tags)
}
