// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// sseServer streams the given frames, flushing each one.
func sseServer(t *testing.T, frames []string, perFrameDelay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("response writer does not support flushing")
		}
		for _, frame := range frames {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(perFrameDelay):
			}
			fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// collector gathers handler callbacks for assertions.
type collector struct {
	mu          sync.Mutex
	deltas      []string
	tools       []ToolEvent
	result      *StreamResult
	err         error
	terminated  chan struct{}
	terminateMu sync.Once
}

func newCollector() *collector {
	return &collector{terminated: make(chan struct{})}
}

func (c *collector) handler() StreamHandler {
	return StreamHandler{
		OnDelta: func(text string) {
			c.mu.Lock()
			c.deltas = append(c.deltas, text)
			c.mu.Unlock()
		},
		OnTool: func(tp ToolEvent) {
			c.mu.Lock()
			c.tools = append(c.tools, tp)
			c.mu.Unlock()
		},
		OnDone: func(res StreamResult) {
			c.mu.Lock()
			c.result = &res
			c.mu.Unlock()
			c.terminateMu.Do(func() { close(c.terminated) })
		},
		OnError: func(err error) {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			c.terminateMu.Do(func() { close(c.terminated) })
		},
	}
}

func (c *collector) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.terminated:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not terminate")
	}
}

func (c *collector) content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.deltas, "")
}

func TestStreamTextAndJSONFrames(t *testing.T) {
	srv := sseServer(t, []string{
		"Chào",
		`{"content":" bạn"}`,
		`{"tool_calls":[{"id":"t1","type":"retrieval","status":"running"}],"current_stage":"Đang tìm kiếm"}`,
		`{"content":"!"}`,
		`{"done":true,"sources":[{"id":"1","title":"X","score":0.9}],"suggestions":["Còn lệ phí thi?"],"session_id":"sess_9"}`,
	}, 0)

	client := NewClient(srv.URL, nil)
	col := newCollector()
	_, err := client.Stream(context.Background(), QueryRequest{Query: "hi"}, col.handler())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	col.wait(t)

	if got := col.content(); got != "Chào bạn!" {
		t.Errorf("content = %q, want %q", got, "Chào bạn!")
	}
	if len(col.tools) != 1 || col.tools[0].ID != "t1" || col.tools[0].Stage != "Đang tìm kiếm" {
		t.Errorf("tools = %+v", col.tools)
	}
	if col.result == nil {
		t.Fatal("no done callback")
	}
	if col.result.Content != "Chào bạn!" {
		t.Errorf("result content = %q", col.result.Content)
	}
	if len(col.result.Sources) != 1 || col.result.Sources[0].Score != 0.9 {
		t.Errorf("sources = %+v", col.result.Sources)
	}
	if col.result.SessionID != "sess_9" {
		t.Errorf("session id = %q", col.result.SessionID)
	}
	if len(col.result.Suggestions) != 1 {
		t.Errorf("suggestions = %+v", col.result.Suggestions)
	}
}

func TestStreamDoneSignal(t *testing.T) {
	srv := sseServer(t, []string{"hello", "[DONE]"}, 0)

	client := NewClient(srv.URL, nil)
	col := newCollector()
	if _, err := client.Stream(context.Background(), QueryRequest{Query: "hi"}, col.handler()); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	col.wait(t)

	if col.result == nil || col.result.Content != "hello" {
		t.Errorf("result = %+v", col.result)
	}
}

func TestStreamSkipsEmptyDataFrames(t *testing.T) {
	srv := sseServer(t, []string{"", "xin", "", " chào", "[DONE]"}, 0)

	client := NewClient(srv.URL, nil)
	col := newCollector()
	if _, err := client.Stream(context.Background(), QueryRequest{Query: "hi"}, col.handler()); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	col.wait(t)

	col.mu.Lock()
	deltas := col.deltas
	col.mu.Unlock()
	if len(deltas) != 2 {
		t.Fatalf("deltas = %q, want the two non-empty fragments", deltas)
	}
	for _, d := range deltas {
		if d == "" {
			t.Error("empty fragment delivered")
		}
	}
	if col.result == nil || col.result.Content != "xin chào" {
		t.Errorf("result = %+v", col.result)
	}
}

func TestStreamCancelStopsCallbacks(t *testing.T) {
	frames := []string{"a", "b", "c", "d", "e", `{"done":true}`}
	srv := sseServer(t, frames, 50*time.Millisecond)

	client := NewClient(srv.URL, nil)

	var mu sync.Mutex
	var afterCancel bool
	cancelled := false

	h := StreamHandler{
		OnDelta: func(string) {
			mu.Lock()
			if cancelled {
				afterCancel = true
			}
			mu.Unlock()
		},
		OnDone: func(StreamResult) {
			mu.Lock()
			if cancelled {
				afterCancel = true
			}
			mu.Unlock()
		},
		OnError: func(error) {
			mu.Lock()
			if cancelled {
				afterCancel = true
			}
			mu.Unlock()
		},
	}

	handle, err := client.Stream(context.Background(), QueryRequest{Query: "hi"}, h)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	time.Sleep(120 * time.Millisecond)
	handle.Cancel()
	handle.Cancel() // idempotent
	// Once Cancel has returned, no further callback may start.
	mu.Lock()
	cancelled = true
	mu.Unlock()

	// Give the read loop time to observe any late frames.
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if afterCancel {
		t.Error("callback fired after Cancel returned")
	}
	if !handle.Cancelled() {
		t.Error("handle does not report cancelled")
	}
}

func TestStreamErrorPreservesPartial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: partial answer\n\n")
		fmt.Fprint(w, `data: {"error":"retrieval backend unavailable"}`+"\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	col := newCollector()
	if _, err := client.Stream(context.Background(), QueryRequest{Query: "hi"}, col.handler()); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	col.wait(t)

	var streamErr *StreamError
	if !errors.As(col.err, &streamErr) {
		t.Fatalf("err = %v, want *StreamError", col.err)
	}
	if streamErr.Partial != "partial answer" {
		t.Errorf("partial = %q", streamErr.Partial)
	}
}

func TestStreamNon2xxDeliversAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"detail":"slow down"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	col := newCollector()
	if _, err := client.Stream(context.Background(), QueryRequest{Query: "hi"}, col.handler()); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	col.wait(t)

	if !errors.Is(col.err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", col.err)
	}
	if col.result != nil {
		t.Error("done fired alongside error")
	}
}

func TestStreamRejectsEmptyQuerySynchronously(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", nil)
	_, err := client.Stream(context.Background(), QueryRequest{}, StreamHandler{})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestSSEReaderMultiLineData(t *testing.T) {
	input := "data: line one\ndata: line two\n\ndata: [DONE]\n\n"
	reader := NewSSEReader(strings.NewReader(input))

	data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent: %v", err)
	}
	if string(data) != "line one\nline two" {
		t.Errorf("data = %q", data)
	}

	data, err = reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent: %v", err)
	}
	if string(data) != "[DONE]" {
		t.Errorf("data = %q", data)
	}
}
