// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// STREAMING: Robust SSE parsing with partial-content preservation

// MaxChunkSize is the maximum allowed size for a single SSE data
// frame (64KB).
const MaxChunkSize = 64 * 1024

// =============================================================================
// HANDLER
// =============================================================================

// StreamHandler receives stream events. Callbacks fire sequentially
// in arrival order from a single goroutine; any nil callback is
// skipped. Exactly one of OnDone/OnError fires, and nothing at all
// fires after StreamHandle.Cancel returns.
type StreamHandler struct {
	// OnDelta receives a content fragment to append as-is.
	OnDelta func(text string)
	// OnTool receives a tool-progress upsert.
	OnTool func(tp ToolEvent)
	// OnDone receives the terminal payload.
	OnDone func(res StreamResult)
	// OnError receives the terminal failure. A *StreamError carries
	// any partial content received before the break.
	OnError func(err error)
}

// ToolEvent is a tool-progress update together with the backend's
// current stage label.
type ToolEvent struct {
	ID        string
	Type      string
	Status    string
	Reasoning string
	Error     string
	Stage     string
}

// =============================================================================
// HANDLE
// =============================================================================

// StreamHandle controls one in-flight stream.
type StreamHandle struct {
	mu        sync.Mutex
	cancelled bool
	finished  bool
	cancel    context.CancelFunc
}

// Cancel stops the stream. Idempotent. On return, no further handler
// callbacks will fire: delivery and cancellation share a mutex, so a
// callback in flight completes first and no new one starts.
func (h *StreamHandle) Cancel() {
	h.mu.Lock()
	already := h.cancelled
	h.cancelled = true
	h.mu.Unlock()
	if !already && h.cancel != nil {
		h.cancel()
	}
}

// Cancelled reports whether Cancel was called.
func (h *StreamHandle) Cancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

// deliver runs fn unless the stream was cancelled or already reached
// its terminal callback. terminal marks fn as the last delivery.
func (h *StreamHandle) deliver(terminal bool, fn func()) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled || h.finished {
		return false
	}
	if terminal {
		h.finished = true
	}
	if fn != nil {
		fn()
	}
	return true
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a response body.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader wraps r for event-by-event reading.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{reader: bufio.NewReader(r)}
}

// ReadEvent returns the next event's data payload. Returns io.EOF at
// end of stream.
func (s *SSEReader) ReadEvent() ([]byte, error) {
	var dataLines [][]byte

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(dataLines) > 0 {
					return bytes.Join(dataLines, []byte("\n")), nil
				}
				return nil, io.EOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Empty line signals end of event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimPrefix(line[5:], []byte(" "))
			if len(data) > MaxChunkSize {
				return nil, fmt.Errorf("SSE chunk exceeds %d bytes", MaxChunkSize)
			}
			dataLines = append(dataLines, data)
		}
		// Ignore event:, id:, retry: and comment lines.
	}
}

// =============================================================================
// STREAMING QUERY
// =============================================================================

// Stream opens the incremental variant of the smart query. It returns
// as soon as the stream is set up; events are delivered to handler
// from a background goroutine. The returned handle cancels the stream.
//
// Validation failures surface synchronously, before any network call.
func (c *Client) Stream(ctx context.Context, req QueryRequest, handler StreamHandler) (*StreamHandle, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	handle := &StreamHandle{cancel: cancel}

	httpReq, err := http.NewRequestWithContext(streamCtx, http.MethodPost, c.baseURL+"/smart-query/stream", bytes.NewReader(bodyBytes))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	go c.runStream(streamCtx, httpReq, handle, handler)

	return handle, nil
}

// runStream owns the HTTP exchange and the read loop.
func (c *Client) runStream(ctx context.Context, req *http.Request, handle *StreamHandle, handler StreamHandler) {
	defer handle.cancel()

	fail := func(partial string, err error) {
		if partial != "" {
			err = &StreamError{Partial: partial, Err: err}
		}
		handle.deliver(true, func() {
			if handler.OnError != nil {
				handler.OnError(err)
			}
		})
	}

	resp, err := c.streamHTTP.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			fail("", fmt.Errorf("request failed: %w", err))
		}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := readResponse(resp)
		fail("", errorFromResponse(resp.StatusCode, body))
		return
	}

	var accumulated strings.Builder
	result := StreamResult{}
	reader := NewSSEReader(resp.Body)

	for {
		data, err := reader.ReadEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Stream ended without an explicit done frame;
				// treat a clean EOF as completion.
				result.Content = accumulated.String()
				handle.deliver(true, func() {
					if handler.OnDone != nil {
						handler.OnDone(result)
					}
				})
				return
			}
			if ctx.Err() != nil {
				return // cancelled, stay silent
			}
			fail(accumulated.String(), err)
			return
		}

		if bytes.Equal(data, []byte("[DONE]")) {
			result.Content = accumulated.String()
			handle.deliver(true, func() {
				if handler.OnDone != nil {
					handler.OnDone(result)
				}
			})
			return
		}

		if !looksLikeFrame(data) {
			// Raw text frame: append verbatim. Empty data frames
			// (keep-alives) carry nothing to deliver.
			text := string(data)
			if text == "" {
				continue
			}
			accumulated.WriteString(text)
			if !handle.deliver(false, func() {
				if handler.OnDelta != nil {
					handler.OnDelta(text)
				}
			}) {
				return
			}
			continue
		}

		var frame streamFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			// Skip malformed frames rather than corrupting content.
			continue
		}

		if frame.Error != "" {
			fail(accumulated.String(), errors.New(frame.Error))
			return
		}

		if frame.Content != "" {
			accumulated.WriteString(frame.Content)
			if !handle.deliver(false, func() {
				if handler.OnDelta != nil {
					handler.OnDelta(frame.Content)
				}
			}) {
				return
			}
		}

		for _, tc := range frame.ToolCalls {
			ev := ToolEvent{
				ID:        tc.ID,
				Type:      string(tc.Type),
				Status:    string(tc.Status),
				Reasoning: tc.Reasoning,
				Error:     tc.Error,
				Stage:     frame.CurrentStage,
			}
			if !handle.deliver(false, func() {
				if handler.OnTool != nil {
					handler.OnTool(ev)
				}
			}) {
				return
			}
		}

		if len(frame.Sources) > 0 {
			result.Sources = frame.Sources
		}
		if len(frame.Suggestions) > 0 {
			result.Suggestions = frame.Suggestions
		}
		if frame.SessionID != "" {
			result.SessionID = frame.SessionID
		}

		if frame.Done {
			result.Content = accumulated.String()
			handle.deliver(true, func() {
				if handler.OnDone != nil {
					handler.OnDone(result)
				}
			})
			return
		}
	}
}

// looksLikeFrame reports whether data is a JSON object. Anything else
// is treated as raw text.
func looksLikeFrame(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
