// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
	"time"
)

func TestMessageStreamingLifecycle(t *testing.T) {
	msg := NewAssistantPlaceholder()

	if !msg.Streaming() {
		t.Fatal("placeholder must start streaming")
	}
	if msg.DisplayContent() != "" {
		t.Errorf("placeholder content = %q, want empty", msg.DisplayContent())
	}
	if _, _, tools := msg.Progress(); tools == nil {
		t.Error("placeholder must carry an empty tool-progress list, not nil")
	}

	msg.AppendDelta("Chào")
	msg.AppendDelta(" bạn")
	msg.AppendDelta("!")
	if got := msg.DisplayContent(); got != "Chào bạn!" {
		t.Errorf("streamed content = %q, want %q", got, "Chào bạn!")
	}

	// Sources must not be visible before finalization.
	if len(msg.Sources) != 0 {
		t.Error("sources attached while streaming")
	}

	sources := []Source{{ID: "1", Title: "X", Score: 0.9}}
	msg.Finalize(sources)

	if msg.Streaming() {
		t.Error("message still streaming after Finalize")
	}
	if msg.Content != "Chào bạn!" {
		t.Errorf("final content = %q, want %q", msg.Content, "Chào bạn!")
	}
	if len(msg.Sources) != 1 || msg.Sources[0].Title != "X" {
		t.Errorf("sources not attached at finalization: %+v", msg.Sources)
	}

	// Terminal state is sticky: late deltas and re-finalization are no-ops.
	msg.AppendDelta(" extra")
	msg.Finalize(nil)
	if msg.Content != "Chào bạn!" {
		t.Errorf("terminal content mutated: %q", msg.Content)
	}
	if len(msg.Sources) != 1 {
		t.Error("re-finalization replaced sources")
	}
}

func TestMessageFinalizeWith(t *testing.T) {
	msg := NewAssistantPlaceholder()
	msg.FinalizeWith("stopped")

	if msg.Streaming() {
		t.Error("still streaming after FinalizeWith")
	}
	if msg.Content != "stopped" {
		t.Errorf("content = %q, want %q", msg.Content, "stopped")
	}
}

func TestUpsertToolProgressMonotonic(t *testing.T) {
	msg := NewAssistantPlaceholder()

	msg.UpsertToolProgress(ToolProgress{ID: "t1", Type: ToolRetrieval, Status: ToolPending})
	msg.UpsertToolProgress(ToolProgress{ID: "t1", Type: ToolRetrieval, Status: ToolRunning})
	msg.UpsertToolProgress(ToolProgress{ID: "t2", Type: ToolWebSearch, Status: ToolRunning})
	msg.UpsertToolProgress(ToolProgress{ID: "t1", Type: ToolRetrieval, Status: ToolSuccess})

	_, _, tools := msg.Progress()
	if len(tools) != 2 {
		t.Fatalf("expected 2 tool entries, got %d", len(tools))
	}
	if tools[0].Status != ToolSuccess {
		t.Errorf("t1 status = %s, want success", tools[0].Status)
	}

	// Backward transition must be refused.
	msg.UpsertToolProgress(ToolProgress{ID: "t1", Type: ToolRetrieval, Status: ToolRunning})
	if _, _, tools := msg.Progress(); tools[0].Status != ToolSuccess {
		t.Errorf("backward transition applied: t1 = %s", tools[0].Status)
	}
}

func TestUpsertToolProgressAfterFinalizeIgnored(t *testing.T) {
	msg := NewAssistantPlaceholder()
	msg.Finalize(nil)
	msg.UpsertToolProgress(ToolProgress{ID: "t1", Type: ToolRetrieval, Status: ToolRunning})
	if _, _, tools := msg.Progress(); len(tools) != 0 {
		t.Error("tool progress applied to a terminal message")
	}
}

func TestMessageFailWith(t *testing.T) {
	// No content streamed: the fallback substitutes.
	msg := NewAssistantPlaceholder()
	msg.FailWith("Xin lỗi, đã có lỗi xảy ra.")
	if msg.Streaming() || !msg.HasFailed() {
		t.Error("FailWith must end streaming and mark the failure")
	}
	if msg.DisplayContent() != "Xin lỗi, đã có lỗi xảy ra." {
		t.Errorf("content = %q", msg.DisplayContent())
	}

	// Partial content streamed: it survives, the fallback does not.
	partial := NewAssistantPlaceholder()
	partial.AppendDelta("một phần")
	partial.FailWith("fallback")
	if got := partial.DisplayContent(); got != "một phần" {
		t.Errorf("partial content = %q", got)
	}
	if !partial.HasFailed() {
		t.Error("partial failure not marked")
	}
}

func TestAdvanceStageCollapsesRepeats(t *testing.T) {
	msg := NewAssistantPlaceholder()
	msg.AdvanceStage("Phân tích câu hỏi")
	msg.AdvanceStage("Đang tìm kiếm")
	msg.AdvanceStage("Đang tìm kiếm")
	msg.AdvanceStage("")

	stage, steps, _ := msg.Progress()
	if stage != "Đang tìm kiếm" {
		t.Errorf("stage = %q", stage)
	}
	if len(steps) != 2 {
		t.Errorf("steps = %+v", steps)
	}

	msg.Finalize(nil)
	msg.AdvanceStage("muộn")
	if stage, _, _ := msg.Progress(); stage != "Đang tìm kiếm" {
		t.Errorf("stage advanced on a terminal message: %q", stage)
	}
}

func TestMessageConcurrentAppendAndRead(t *testing.T) {
	msg := NewAssistantPlaceholder()

	// Writer plays a stream while the reader renders. Run with -race.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2000; i++ {
			msg.AppendDelta("a")
		}
		msg.UpsertToolProgress(ToolProgress{ID: "t1", Type: ToolRetrieval, Status: ToolRunning})
		msg.AdvanceStage("Đang tìm kiếm")
		msg.Finalize([]Source{{ID: "1", Title: "X"}})
	}()

	for msg.Streaming() {
		_ = msg.DisplayContent()
		_, _, _ = msg.Progress()
		_ = msg.IsEmpty()
	}
	<-done

	if got := len(msg.DisplayContent()); got != 2000 {
		t.Errorf("final content length = %d, want 2000", got)
	}
	if len(msg.Sources) != 1 {
		t.Errorf("sources = %+v", msg.Sources)
	}
}

func TestSessionDisplayTitle(t *testing.T) {
	s := &Session{}
	if got := s.DisplayTitle(); got != UntitledSessionLabel {
		t.Errorf("DisplayTitle = %q, want fallback %q", got, UntitledSessionLabel)
	}

	title := "Tuition questions"
	s.Title = &title
	if got := s.DisplayTitle(); got != "Tuition questions" {
		t.Errorf("DisplayTitle = %q", got)
	}
}

func TestSessionBuckets(t *testing.T) {
	now := time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		last time.Time
		want RecencyBucket
	}{
		{"this morning", time.Date(2025, 3, 12, 1, 0, 0, 0, time.UTC), BucketToday},
		{"late yesterday", time.Date(2025, 3, 11, 23, 59, 0, 0, time.UTC), BucketYesterday},
		{"early yesterday", time.Date(2025, 3, 11, 0, 1, 0, 0, time.UTC), BucketYesterday},
		{"two days ago", time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), BucketOlder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{UpdatedAt: tt.last}
			if got := s.Bucket(now); got != tt.want {
				t.Errorf("Bucket = %v, want %v", got, tt.want)
			}
		})
	}

	// Fallback to created_at when updated_at is zero.
	s := &Session{CreatedAt: now.Add(-time.Hour)}
	if got := s.Bucket(now); got != BucketToday {
		t.Errorf("created_at fallback bucket = %v, want Today", got)
	}
}

func TestKindForFile(t *testing.T) {
	if KindForFile("photo.JPG") != AttachmentImage {
		t.Error("JPG not detected as image")
	}
	if KindForFile("transcript.pdf") != AttachmentDocument {
		t.Error("pdf not detected as document")
	}
}

func TestNewIDPrefix(t *testing.T) {
	id := NewID("msg")
	if len(id) != len("msg_")+16 {
		t.Errorf("unexpected id length: %q", id)
	}
	if id[:4] != "msg_" {
		t.Errorf("unexpected id prefix: %q", id)
	}
	if id == NewID("msg") {
		t.Error("ids must be unique")
	}
}
