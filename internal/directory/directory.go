// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package directory maintains the user's session list: backend CRUD,
// recency grouping for display, and a local sqlite cache so the list
// renders instantly on startup.
package directory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/morganforge/unibot-tui/internal/model"
)

// Backend is the slice of the transport adapter the directory needs.
// *api.Client satisfies it.
type Backend interface {
	ListSessions(ctx context.Context) ([]model.Session, error)
	CreateSession(ctx context.Context, title string) (*model.Session, error)
	RenameSession(ctx context.Context, id, title string) error
	DeleteSession(ctx context.Context, id string) error
}

// Directory holds the in-memory session list. Metadata only; the
// transcript of the open session lives in the turn controller.
type Directory struct {
	mu       sync.Mutex
	backend  Backend
	cache    *Cache
	sessions []model.Session
}

// New creates a directory. cache may be nil to run without local
// persistence.
func New(backend Backend, cache *Cache) *Directory {
	return &Directory{backend: backend, cache: cache}
}

// LoadCached populates the list from the local cache for instant
// startup rendering. A broken cache is dropped, not surfaced: the
// next Refresh repopulates it.
func (d *Directory) LoadCached() {
	if d.cache == nil {
		return
	}
	sessions, err := d.cache.Load()
	if err != nil {
		_ = d.cache.Reset()
		return
	}
	d.mu.Lock()
	d.sessions = sessions
	d.mu.Unlock()
}

// Refresh fetches the authoritative list from the backend. On success
// the in-memory list and the cache are replaced wholesale; stale
// local rows never survive a refetch. On failure the previous list is
// kept and the error surfaces to the caller.
func (d *Directory) Refresh(ctx context.Context) error {
	sessions, err := d.backend.ListSessions(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.sessions = sessions
	d.mu.Unlock()

	if d.cache != nil {
		// Cache write failures are invisible to the user; the
		// in-memory list is already correct.
		_ = d.cache.ReplaceAll(sessions)
	}
	return nil
}

// Sessions returns a snapshot sorted by most recent activity.
func (d *Directory) Sessions() []model.Session {
	d.mu.Lock()
	out := make([]model.Session, len(d.sessions))
	copy(out, d.sessions)
	d.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActive().After(out[j].LastActive())
	})
	return out
}

// Find returns the session with the given id, nil when absent.
func (d *Directory) Find(id string) *model.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.sessions {
		if d.sessions[i].ID == id {
			sess := d.sessions[i]
			return &sess
		}
	}
	return nil
}

// Len returns the number of known sessions.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// =============================================================================
// RECENCY GROUPS
// =============================================================================

// Group is one recency bucket of the session list, newest first.
type Group struct {
	Bucket   model.RecencyBucket
	Sessions []model.Session
}

// Groups partitions the sessions into today/yesterday/older buckets
// relative to now, in display order. Empty buckets are omitted.
func (d *Directory) Groups(now time.Time) []Group {
	sessions := d.Sessions()

	byBucket := map[model.RecencyBucket][]model.Session{}
	for _, sess := range sessions {
		b := sess.Bucket(now)
		byBucket[b] = append(byBucket[b], sess)
	}

	var groups []Group
	for _, b := range []model.RecencyBucket{model.BucketToday, model.BucketYesterday, model.BucketOlder} {
		if list := byBucket[b]; len(list) > 0 {
			groups = append(groups, Group{Bucket: b, Sessions: list})
		}
	}
	return groups
}

// =============================================================================
// CRUD
// =============================================================================

// Create makes a new session on the backend and adds it locally.
func (d *Directory) Create(ctx context.Context, title string) (*model.Session, error) {
	sess, err := d.backend.CreateSession(ctx, title)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.sessions = append(d.sessions, *sess)
	d.mu.Unlock()

	if d.cache != nil {
		_ = d.cache.ReplaceAll(d.Sessions())
	}
	return sess, nil
}

// Rename updates a session title. A missing id surfaces the
// backend's not-found error; the local list is untouched on failure.
func (d *Directory) Rename(ctx context.Context, id, title string) error {
	if err := d.backend.RenameSession(ctx, id, title); err != nil {
		return err
	}

	now := time.Now()
	d.mu.Lock()
	for i := range d.sessions {
		if d.sessions[i].ID == id {
			t := title
			d.sessions[i].Title = &t
			d.sessions[i].UpdatedAt = now
			break
		}
	}
	d.mu.Unlock()

	if d.cache != nil {
		_ = d.cache.Rename(id, title, now)
	}
	return nil
}

// Delete removes a session. A missing id surfaces the backend's
// not-found error; the local list is untouched on failure.
func (d *Directory) Delete(ctx context.Context, id string) error {
	if err := d.backend.DeleteSession(ctx, id); err != nil {
		return err
	}

	d.mu.Lock()
	for i := range d.sessions {
		if d.sessions[i].ID == id {
			d.sessions = append(d.sessions[:i], d.sessions[i+1:]...)
			break
		}
	}
	d.mu.Unlock()

	if d.cache != nil {
		_ = d.cache.Delete(id)
	}
	return nil
}
