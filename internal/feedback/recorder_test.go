// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package feedback

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morganforge/unibot-tui/internal/model"
)

type fakeBackend struct {
	submits   []model.Feedback
	bookmarks []model.Bookmark
	nextID    int
}

func (f *fakeBackend) SubmitFeedback(ctx context.Context, messageID string, fb model.Feedback) error {
	f.submits = append(f.submits, fb)
	return nil
}

func (f *fakeBackend) CreateBookmark(ctx context.Context, query, response string, tags []string) (*model.Bookmark, error) {
	if query == "" || response == "" {
		return nil, fmt.Errorf("query and response required")
	}
	f.nextID++
	bm := model.Bookmark{ID: fmt.Sprintf("bm_%d", f.nextID), Query: query, Response: response, Tags: tags}
	f.bookmarks = append(f.bookmarks, bm)
	return &bm, nil
}

func (f *fakeBackend) ListBookmarks(ctx context.Context) ([]model.Bookmark, error) {
	return f.bookmarks, nil
}

func (f *fakeBackend) DeleteBookmark(ctx context.Context, id string) error {
	for i := range f.bookmarks {
		if f.bookmarks[i].ID == id {
			f.bookmarks = append(f.bookmarks[:i], f.bookmarks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("bookmark %s not found", id)
}

func (f *fakeBackend) SearchBookmarks(ctx context.Context, query string, tags []string) ([]model.Bookmark, error) {
	return Filter(f.bookmarks, query, tags), nil
}

func TestRateIdempotentOverwrite(t *testing.T) {
	fb := &fakeBackend{}
	r := NewRecorder(fb)
	ctx := context.Background()

	helpful := model.Feedback{Type: model.FeedbackHelpful}
	notHelpful := model.Feedback{Type: model.FeedbackNotHelpful, Comment: "sai thông tin"}

	require.NoError(t, r.Rate(ctx, "msg_1", helpful))
	// A different rating goes through immediately (overwrite).
	require.NoError(t, r.Rate(ctx, "msg_1", notHelpful))
	assert.Len(t, fb.submits, 2)
}

func TestRateDebouncesIdenticalRepeat(t *testing.T) {
	fb := &fakeBackend{}
	r := NewRecorder(fb)
	ctx := context.Background()

	helpful := model.Feedback{Type: model.FeedbackHelpful}
	require.NoError(t, r.Rate(ctx, "msg_1", helpful))
	// Identical repeats inside the window are absorbed but still
	// report success.
	require.NoError(t, r.Rate(ctx, "msg_1", helpful))
	require.NoError(t, r.Rate(ctx, "msg_1", helpful))
	assert.Len(t, fb.submits, 1, "identical repeat hit the network")

	// A different message is independent.
	require.NoError(t, r.Rate(ctx, "msg_2", helpful))
	assert.Len(t, fb.submits, 2)
}

func TestRateRejectsInvalidInput(t *testing.T) {
	r := NewRecorder(&fakeBackend{})
	ctx := context.Background()

	assert.Error(t, r.Rate(ctx, "", model.Feedback{Type: model.FeedbackHelpful}))
	assert.Error(t, r.Rate(ctx, "msg_1", model.Feedback{Type: "shrug"}))
}

func TestRateMessageAttachesExactlyOneFeedback(t *testing.T) {
	fb := &fakeBackend{}
	r := NewRecorder(fb)
	ctx := context.Background()

	msg := model.NewAssistantPlaceholder()
	msg.AppendDelta("answer")
	msg.Finalize(nil)

	require.NoError(t, r.RateMessage(ctx, msg, model.Feedback{Type: model.FeedbackHelpful}))
	require.NotNil(t, msg.Rating())
	assert.Equal(t, model.FeedbackHelpful, msg.Rating().Type)

	// Rating again with the same type stays idempotent: one Feedback,
	// same value.
	require.NoError(t, r.RateMessage(ctx, msg, model.Feedback{Type: model.FeedbackHelpful}))
	assert.Equal(t, model.FeedbackHelpful, msg.Rating().Type)

	// A changed rating overwrites in place.
	require.NoError(t, r.RateMessage(ctx, msg, model.Feedback{Type: model.FeedbackNotHelpful}))
	assert.Equal(t, model.FeedbackNotHelpful, msg.Rating().Type)
	assert.Len(t, fb.submits, 2)
}

func TestRateMessageRejectsStreaming(t *testing.T) {
	r := NewRecorder(&fakeBackend{})
	msg := model.NewAssistantPlaceholder()
	assert.Error(t, r.RateMessage(context.Background(), msg, model.Feedback{Type: model.FeedbackHelpful}))
	assert.Nil(t, msg.Rating())
}

func TestBookmarkCRUD(t *testing.T) {
	fb := &fakeBackend{}
	r := NewRecorder(fb)
	ctx := context.Background()

	bm, err := r.Bookmark(ctx, "Học phí kỳ này?", "12 triệu đồng.", []string{"tuition"})
	require.NoError(t, err)
	assert.NotEmpty(t, bm.ID)

	list, err := r.Bookmarks(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, r.DeleteBookmark(ctx, bm.ID))
	assert.Error(t, r.DeleteBookmark(ctx, bm.ID))
}

func TestFoldStripsVietnameseDiacritics(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Học phí", "hoc phi"},
		{"Đăng ký học phần", "dang ky hoc phan"},
		{"TRƯỜNG ĐẠI HỌC", "truong dai hoc"},
		{"already plain", "already plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), "Fold(%q)", tt.in)
	}
}

func TestFilterDiacriticInsensitive(t *testing.T) {
	bookmarks := []model.Bookmark{
		{ID: "1", Query: "Học phí kỳ này là bao nhiêu?", Response: "12 triệu đồng", Tags: []string{"tuition"}},
		{ID: "2", Query: "Lịch thi cuối kỳ", Response: "Tuần 15", Tags: []string{"exams"}},
		{ID: "3", Query: "Đăng ký học phần", Response: "Qua cổng thông tin", Tags: []string{"registration"}},
	}

	got := Filter(bookmarks, "hoc phi", nil)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	// Accented query matches too.
	got = Filter(bookmarks, "học phí", nil)
	require.Len(t, got, 1)

	// đ folds to d.
	got = Filter(bookmarks, "dang ky", nil)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)

	// Tag filter composes with the query.
	got = Filter(bookmarks, "", []string{"exams"})
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	// Response text is searched as well.
	got = Filter(bookmarks, "trieu dong", nil)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}
