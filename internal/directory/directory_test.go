// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package directory

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/morganforge/unibot-tui/internal/api"
	"github.com/morganforge/unibot-tui/internal/model"
)

// fakeBackend is an in-memory session API.
type fakeBackend struct {
	sessions []model.Session
	listErr  error
	nextID   int
}

func (f *fakeBackend) ListSessions(ctx context.Context) ([]model.Session, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Session, len(f.sessions))
	copy(out, f.sessions)
	return out, nil
}

func (f *fakeBackend) CreateSession(ctx context.Context, title string) (*model.Session, error) {
	f.nextID++
	sess := model.Session{ID: fmt.Sprintf("sess_%d", f.nextID), CreatedAt: time.Now()}
	if title != "" {
		sess.Title = &title
	}
	f.sessions = append(f.sessions, sess)
	return &sess, nil
}

func (f *fakeBackend) RenameSession(ctx context.Context, id, title string) error {
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			f.sessions[i].Title = &title
			return nil
		}
	}
	return fmt.Errorf("%w: session %s", api.ErrNotFound, id)
}

func (f *fakeBackend) DeleteSession(ctx context.Context, id string) error {
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: session %s", api.ErrNotFound, id)
}

func sessionAt(id string, title string, last time.Time) model.Session {
	sess := model.Session{ID: id, CreatedAt: last, UpdatedAt: last}
	if title != "" {
		sess.Title = &title
	}
	return sess
}

func TestRefreshReplacesList(t *testing.T) {
	now := time.Now()
	fb := &fakeBackend{sessions: []model.Session{
		sessionAt("a", "Tuition", now.Add(-1*time.Hour)),
		sessionAt("b", "", now.Add(-48*time.Hour)),
	}}
	d := New(fb, nil)

	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if d.Len() != 2 {
		t.Fatalf("len = %d", d.Len())
	}

	// Backend changed out from under us; refetch wins.
	fb.sessions = []model.Session{sessionAt("c", "Only one", now)}
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if d.Len() != 1 || d.Find("a") != nil || d.Find("c") == nil {
		t.Error("refetch did not replace the list")
	}
}

func TestRefreshFailureKeepsPreviousList(t *testing.T) {
	now := time.Now()
	fb := &fakeBackend{sessions: []model.Session{sessionAt("a", "Keep", now)}}
	d := New(fb, nil)
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	fb.listErr = errors.New("backend down")
	if err := d.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if d.Len() != 1 {
		t.Error("failed refresh corrupted the list")
	}
}

func TestGroupsRecencyBuckets(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.Local)
	fb := &fakeBackend{sessions: []model.Session{
		sessionAt("today1", "Morning", time.Date(2025, 3, 10, 8, 0, 0, 0, time.Local)),
		sessionAt("today2", "Noon", time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)),
		sessionAt("yesterday", "Yesterday", time.Date(2025, 3, 9, 23, 30, 0, 0, time.Local)),
		sessionAt("older", "Last week", time.Date(2025, 3, 3, 10, 0, 0, 0, time.Local)),
	}}
	d := New(fb, nil)
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	groups := d.Groups(now)
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	if groups[0].Bucket != model.BucketToday || len(groups[0].Sessions) != 2 {
		t.Errorf("today group = %+v", groups[0])
	}
	// Newest first within a bucket.
	if groups[0].Sessions[0].ID != "today2" {
		t.Errorf("today order = %s first", groups[0].Sessions[0].ID)
	}
	if groups[1].Bucket != model.BucketYesterday || groups[1].Sessions[0].ID != "yesterday" {
		t.Errorf("yesterday group = %+v", groups[1])
	}
	if groups[2].Bucket != model.BucketOlder || groups[2].Sessions[0].ID != "older" {
		t.Errorf("older group = %+v", groups[2])
	}
}

func TestUntitledSessionFallback(t *testing.T) {
	fb := &fakeBackend{}
	d := New(fb, nil)

	sess, err := d.Create(context.Background(), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Title != nil {
		t.Error("untitled session has a title")
	}
	if sess.DisplayTitle() != model.UntitledSessionLabel {
		t.Errorf("display title = %q", sess.DisplayTitle())
	}
	// A session created just now lands in the today bucket.
	if sess.Bucket(time.Now()) != model.BucketToday {
		t.Errorf("bucket = %v", sess.Bucket(time.Now()))
	}
}

func TestRenameAndDeleteMissingSurfaceNotFound(t *testing.T) {
	fb := &fakeBackend{}
	d := New(fb, nil)

	if err := d.Rename(context.Background(), "ghost", "x"); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("rename err = %v", err)
	}
	if err := d.Delete(context.Background(), "ghost"); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("delete err = %v", err)
	}
}

func TestCacheRoundTripAndRefetchWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	cache, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()

	now := time.Now().Truncate(time.Second)
	fb := &fakeBackend{sessions: []model.Session{
		sessionAt("a", "Cached", now),
		sessionAt("b", "", now.Add(-time.Hour)),
	}}
	d := New(fb, cache)
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// A fresh directory over the same cache starts warm.
	d2 := New(fb, cache)
	d2.LoadCached()
	if d2.Len() != 2 {
		t.Fatalf("cached len = %d", d2.Len())
	}
	got := d2.Find("a")
	if got == nil || got.DisplayTitle() != "Cached" {
		t.Errorf("cached session = %+v", got)
	}
	if b := d2.Find("b"); b == nil || b.Title != nil {
		t.Errorf("nil title not preserved: %+v", b)
	}

	// Backend shrinks; refetch replaces cache, no merge.
	fb.sessions = fb.sessions[:1]
	if err := d2.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	d3 := New(fb, cache)
	d3.LoadCached()
	if d3.Len() != 1 || d3.Find("b") != nil {
		t.Error("stale session survived refetch in cache")
	}
}

func TestDeleteUpdatesCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	cache, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()

	now := time.Now()
	fb := &fakeBackend{sessions: []model.Session{sessionAt("a", "Gone soon", now)}}
	d := New(fb, cache)
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if err := d.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	d2 := New(fb, cache)
	d2.LoadCached()
	if d2.Len() != 0 {
		t.Error("deleted session still cached")
	}
}
