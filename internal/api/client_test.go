// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/morganforge/unibot-tui/internal/auth"
	"github.com/morganforge/unibot-tui/internal/model"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, nil), srv
}

func TestQuerySingleShot(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/smart-query" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "Học phí kỳ này là bao nhiêu?" {
			t.Errorf("query = %q", req.Query)
		}
		json.NewEncoder(w).Encode(QueryResponse{
			Content:   "Học phí kỳ này là 12 triệu đồng.",
			Intent:    "tuition_inquiry",
			Sources:   []model.Source{{ID: "1", Title: "Thông báo học phí", Score: 0.92}},
			SessionID: "sess_new",
		})
	}))

	resp, err := client.Query(context.Background(), QueryRequest{Query: "Học phí kỳ này là bao nhiêu?"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if resp.Content == "" || resp.SessionID != "sess_new" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Score != 0.92 {
		t.Errorf("sources = %+v", resp.Sources)
	}
}

func TestQueryValidatesBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := client.Query(context.Background(), QueryRequest{Query: ""})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
	if calls.Load() != 0 {
		t.Error("empty query reached the network")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrAuthFailed},
		{"forbidden", http.StatusForbidden, ErrAuthFailed},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"detail":"nope"}`))
			}))

			_, err := client.Query(context.Background(), QueryRequest{Query: "hi"})
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("err = %v, want sentinel %v", err, tt.sentinel)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err is not *APIError: %v", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Message != "nope" {
				t.Errorf("apiErr = %+v", apiErr)
			}
		})
	}
}

func TestRetryOn5xxNotOn4xx(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(QueryResponse{Content: "ok"})
	}))

	resp, err := client.Query(context.Background(), QueryRequest{Query: "hi"})
	if err != nil {
		t.Fatalf("Query failed after retries: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("content = %q", resp.Content)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}

	calls.Store(0)
	client4xx, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	_, err = client4xx.Query(context.Background(), QueryRequest{Query: "hi"})
	if err == nil {
		t.Fatal("expected error on 400")
	}
	if calls.Load() != 1 {
		t.Errorf("400 was retried: %d calls", calls.Load())
	}
}

func TestAuthHeaderInjected(t *testing.T) {
	authCtx := auth.NewContext(nil)
	if err := authCtx.Login("u1", "Linh", "tok-xyz"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-xyz" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(sessionListResponse{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, authCtx)
	if _, err := client.ListSessions(context.Background()); err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
}

func TestSessionCRUD(t *testing.T) {
	title := "Tuition questions"
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/sessions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.Session{ID: "sess_1", Title: &title})
	})
	mux.HandleFunc("PUT /chat/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "sess_1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /chat/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"session not found"}`))
	})

	client, _ := testClient(t, mux)
	ctx := context.Background()

	sess, err := client.CreateSession(ctx, "Tuition questions")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.ID != "sess_1" || sess.DisplayTitle() != "Tuition questions" {
		t.Errorf("session = %+v", sess)
	}

	if err := client.RenameSession(ctx, "sess_1", "Renamed"); err != nil {
		t.Errorf("RenameSession: %v", err)
	}
	if err := client.RenameSession(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rename missing = %v, want ErrNotFound", err)
	}
	if err := client.DeleteSession(ctx, "sess_1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing = %v, want ErrNotFound", err)
	}
}

func TestSubmitFeedback(t *testing.T) {
	var got feedbackRequest
	var path string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))

	fb := model.Feedback{Type: model.FeedbackNotHelpful, Comment: "wrong campus", Categories: []string{"incorrect"}}
	if err := client.SubmitFeedback(context.Background(), "msg_7", fb); err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if path != "/chat/messages/msg_7/feedback" {
		t.Errorf("path = %q", path)
	}
	if got.Type != model.FeedbackNotHelpful || got.Comment != "wrong campus" {
		t.Errorf("body = %+v", got)
	}

	err := client.SubmitFeedback(context.Background(), "msg_7", model.Feedback{Type: "meh"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("invalid type err = %v", err)
	}
}

func TestBookmarkValidation(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := client.CreateBookmark(context.Background(), "", "answer", nil)
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
	if calls.Load() != 0 {
		t.Error("invalid bookmark reached the network")
	}
}

func TestSearchBookmarksQueryEncoding(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bookmarks/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if q := r.URL.Query().Get("q"); q != "học phí" {
			t.Errorf("q = %q", q)
		}
		if tags := r.URL.Query().Get("tags"); tags != "tuition,fees" {
			t.Errorf("tags = %q", tags)
		}
		json.NewEncoder(w).Encode(bookmarkListResponse{Bookmarks: []model.Bookmark{{ID: "bm_1"}}})
	}))

	got, err := client.SearchBookmarks(context.Background(), "học phí", []string{"tuition", "fees"})
	if err != nil {
		t.Fatalf("SearchBookmarks: %v", err)
	}
	if len(got) != 1 || got[0].ID != "bm_1" {
		t.Errorf("bookmarks = %+v", got)
	}
}
