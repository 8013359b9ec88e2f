// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Token batching for smooth streaming renders.
//
// The stream goroutine can deliver dozens of deltas per second; pushing
// each one through program.Send would redraw the viewport per token and
// make fast answers flicker. Deltas are applied to the transcript by
// the turn controller as they arrive; the UI instead polls a small
// buffer on a 30fps tick and redraws only when enough accumulated.
package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// PERFORMANCE: batch up to 15 tokens or 33ms, whichever comes first.
const (
	tokenBatchSize   = 15
	minFlushInterval = 33 * time.Millisecond
)

// StreamingBuffer accumulates streamed tokens between redraws.
// Write is called from the stream goroutine, Flush from the Bubble Tea
// loop.
type StreamingBuffer struct {
	mu        sync.Mutex
	pending   strings.Builder
	tokens    int
	lastFlush time.Time
}

// NewStreamingBuffer creates an empty buffer.
func NewStreamingBuffer() *StreamingBuffer {
	return &StreamingBuffer{lastFlush: time.Now()}
}

// Write adds a token to the pending batch.
func (b *StreamingBuffer) Write(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending.WriteString(token)
	b.tokens++
}

// Flush returns the pending batch when it is due: either the batch
// size was reached or the minimum interval elapsed with anything
// pending. Otherwise it returns ("", false) and the caller skips the
// redraw.
func (b *StreamingBuffer) Flush() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tokens == 0 {
		return "", false
	}
	if b.tokens < tokenBatchSize && time.Since(b.lastFlush) < minFlushInterval {
		return "", false
	}
	return b.drain(), true
}

// ForceFlush returns whatever is pending regardless of batch state.
// Called when the turn finishes so the tail of the answer is never
// stuck in the buffer.
func (b *StreamingBuffer) ForceFlush() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drain()
}

// Pending returns the number of unflushed tokens.
func (b *StreamingBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens
}

// Reset clears the buffer for the next turn.
func (b *StreamingBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending.Reset()
	b.tokens = 0
	b.lastFlush = time.Now()
}

func (b *StreamingBuffer) drain() string {
	out := b.pending.String()
	b.pending.Reset()
	b.tokens = 0
	b.lastFlush = time.Now()
	return out
}

// streamTickCmd schedules the next flush tick while streaming.
func streamTickCmd() tea.Cmd {
	return tea.Tick(minFlushInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
