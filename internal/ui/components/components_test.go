// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/morganforge/unibot-tui/internal/directory"
	"github.com/morganforge/unibot-tui/internal/model"
	"github.com/morganforge/unibot-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme("dark")
}

func TestWordWrapVietnamese(t *testing.T) {
	wrapped := wordWrap("Điều kiện xét học bổng khuyến khích học tập là gì", 20)
	for _, line := range strings.Split(wrapped, "\n") {
		if w := maxLineWidth(line); w > 20 {
			t.Errorf("line %q is %d columns wide, want <= 20", line, w)
		}
	}
	if !strings.Contains(wrapped, "Điều") {
		t.Error("wrapping must not mangle multi-byte runes")
	}
}

func TestWordWrapHardBreaksLongWord(t *testing.T) {
	wrapped := wordWrap(strings.Repeat("a", 50), 10)
	lines := strings.Split(wrapped, "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5: %q", len(lines), wrapped)
	}
}

func TestUserBubbleRendersContentAndAttachments(t *testing.T) {
	msg := model.NewUserMessage("Học phí kỳ này bao nhiêu?", []model.Attachment{
		{Kind: model.AttachmentImage, Name: "bienlai.png"},
	})
	b := NewMessageBubble(msg, testTheme())
	b.SetWidth(60)
	out := b.View()
	if !strings.Contains(out, "Học phí kỳ này bao nhiêu?") {
		t.Error("user bubble missing content")
	}
	if !strings.Contains(out, "bienlai.png") {
		t.Error("user bubble missing attachment tag")
	}
	if !strings.Contains(out, "you") {
		t.Error("user bubble missing role label")
	}
}

func TestAssistantBubbleShowsSourcesOnlyWhenFinal(t *testing.T) {
	msg := model.NewAssistantPlaceholder()
	msg.AppendDelta("Học phí là 12 triệu đồng một kỳ.")
	msg.Finalize([]model.Source{{Title: "Quy định học phí 2025", URL: "https://uni.example/hocphi"}})

	b := NewMessageBubble(msg, testTheme())
	b.SetWidth(80)
	out := b.View()
	if !strings.Contains(out, "Quy định học phí 2025") {
		t.Error("finalized answer should list sources")
	}

	streaming := model.NewAssistantPlaceholder()
	streaming.AppendDelta("partial")
	b2 := NewMessageBubble(streaming, testTheme())
	if strings.Contains(b2.View(), "Quy định") {
		t.Error("streaming answer must not show sources")
	}
}

func TestAssistantBubbleMarksFailureAndRating(t *testing.T) {
	msg := model.NewAssistantPlaceholder()
	msg.FailWith("Xin lỗi, đã có lỗi xảy ra. Vui lòng thử lại.")
	msg.SetFeedback(model.Feedback{Type: model.FeedbackNotHelpful})

	out := NewMessageBubble(msg, testTheme()).View()
	if !strings.Contains(out, "failed") {
		t.Error("failed turn should be marked")
	}
	if !strings.Contains(out, "rated -1") {
		t.Error("rating should be visible")
	}
}

func TestToolProgressPanelLifecycle(t *testing.T) {
	msg := model.NewAssistantPlaceholder()
	p := NewToolProgressPanel(msg, testTheme())
	if p.View() != "" {
		t.Error("panel should be empty with no activity")
	}

	msg.AdvanceStage("Phân tích câu hỏi")
	msg.AdvanceStage("Đang tìm kiếm tài liệu")
	msg.UpsertToolProgress(model.ToolProgress{ID: "t1", Type: model.ToolRetrieval, Status: model.ToolRunning, Reasoning: "tuition documents"})
	out := p.View()
	for _, want := range []string{"Đang tìm kiếm tài liệu", "Phân tích câu hỏi", "Knowledge search"} {
		if !strings.Contains(out, want) {
			t.Errorf("panel missing %q:\n%s", want, out)
		}
	}

	msg.FinalizeWith("done")
	if p.View() != "" {
		t.Error("panel must disappear once the message finalizes")
	}
}

func TestRenderSuggestionsNumbered(t *testing.T) {
	out := RenderSuggestions(testTheme(), []string{"Hạn nộp học phí?", "Cách đóng online?"}, 60)
	if !strings.Contains(out, "1.") || !strings.Contains(out, "2.") {
		t.Errorf("suggestions should be numbered:\n%s", out)
	}
	if RenderSuggestions(testTheme(), nil, 60) != "" {
		t.Error("no suggestions should render nothing")
	}
}

func TestSessionListSelectionAndBuckets(t *testing.T) {
	now := time.Now()
	title := "Đăng ký học phần"
	groups := []directory.Group{
		{Bucket: model.BucketToday, Sessions: []model.Session{
			{ID: "s1", Title: &title, MessageCount: 4, UpdatedAt: now},
		}},
		{Bucket: model.BucketOlder, Sessions: []model.Session{
			{ID: "s2", MessageCount: 2, UpdatedAt: now.Add(-72 * time.Hour)},
		}},
	}
	l := NewSessionList(groups, testTheme())
	l.Width = 60

	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
	if got := l.SessionAt(1); got == nil || got.ID != "s2" {
		t.Error("flattened index should cross bucket boundaries")
	}

	l.MoveSelection(5)
	if l.Selected != 1 {
		t.Errorf("selection should clamp to last, got %d", l.Selected)
	}
	l.MoveSelection(-9)
	if l.Selected != 0 {
		t.Errorf("selection should clamp to first, got %d", l.Selected)
	}

	out := l.View()
	for _, want := range []string{"Today", "Older", "Đăng ký học phần"} {
		if !strings.Contains(out, want) {
			t.Errorf("list missing %q:\n%s", want, out)
		}
	}
}

func TestStatusBarContents(t *testing.T) {
	b := NewStatusBar(testTheme())
	b.Width = 120
	b.Status = StatusStreaming
	b.ThinkingMode = "balanced"
	b.SessionTitle = "Học bổng"
	b.UserName = "sv.nguyen"

	out := b.View()
	for _, want := range []string{"Answering", "BALANCED", "Học bổng", "sv.nguyen"} {
		if !strings.Contains(out, want) {
			t.Errorf("status bar missing %q:\n%s", want, out)
		}
	}
}

func TestToastKindsAndIDs(t *testing.T) {
	a := NewToast(ToastError, "network down")
	b := NewToast(ToastSuccess, "rating saved")
	if a.ID == b.ID {
		t.Error("toasts must get distinct IDs")
	}
	if a.Duration <= b.Duration {
		t.Error("error toasts should linger longer than success toasts")
	}
	if !strings.Contains(a.View(testTheme(), 60), "network down") {
		t.Error("toast view missing message")
	}
}
