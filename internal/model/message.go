// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "UniBot"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a session transcript.
//
// A user message is terminal from the moment it is created. An
// assistant message starts streaming with empty content; deltas append
// to it, tool progress upserts into it, and the terminal stream event
// ends streaming. Once ended it never streams again. Sources attach
// only at finalization, never while the message is still streaming.
//
// The stream goroutine mutates a streaming message while the render
// loop reads it, so the moving state lives behind an internal mutex
// and is reached through methods. Content and Sources are written
// before Streaming flips false inside the same critical section; a
// reader that has observed Streaming()==false may read them directly.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content. Authoritative once streaming ends; read through
	// DisplayContent while it may still be moving.
	Content string `json:"content"`

	// Attached at finalization, stable afterwards.
	Sources []Source `json:"sources,omitempty"`

	// User-supplied file references (user messages only)
	Attachments []Attachment `json:"attachments,omitempty"`

	// mu guards everything below.
	mu sync.Mutex

	// PERFORMANCE: strings.Builder avoids quadratic allocations while
	// deltas append.
	streaming     bool
	streamContent strings.Builder

	// Tool activity surfaced during the turn
	toolProgress []ToolProgress
	currentStage string
	processSteps []string

	// Set after a failed turn; the message itself still renders as a
	// normal terminal assistant message.
	failed bool

	// At most one rating, overwritable
	feedback *Feedback
}

// NewUserMessage creates a terminal user message.
func NewUserMessage(content string, attachments []Attachment) *Message {
	return &Message{
		ID:          NewID("msg"),
		Role:        RoleUser,
		Content:     content,
		Attachments: attachments,
		Timestamp:   time.Now(),
	}
}

// NewAssistantPlaceholder creates a streaming assistant message with
// empty content and an empty tool-progress list.
func NewAssistantPlaceholder() *Message {
	return &Message{
		ID:           NewID("msg"),
		Role:         RoleAssistant,
		Timestamp:    time.Now(),
		streaming:    true,
		toolProgress: []ToolProgress{},
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendDelta appends a content fragment to a streaming message.
// Fragments are applied strictly in arrival order; a non-streaming
// message ignores them.
func (m *Message) AppendDelta(delta string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.streaming {
		m.streamContent.WriteString(delta)
	}
}

// UpsertToolProgress inserts or updates a tool-progress entry by id.
// Status transitions are monotonic: an update that would move a tool
// backwards (e.g. success back to running) is ignored.
func (m *Message) UpsertToolProgress(tp ToolProgress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.streaming {
		return
	}
	for i := range m.toolProgress {
		if m.toolProgress[i].ID == tp.ID {
			if tp.Status.rank() < m.toolProgress[i].Status.rank() {
				return
			}
			m.toolProgress[i] = tp
			return
		}
	}
	m.toolProgress = append(m.toolProgress, tp)
}

// AdvanceStage records the current pipeline stage and appends it to
// the step history unless it repeats the last entry. Empty stages and
// non-streaming messages are ignored.
func (m *Message) AdvanceStage(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.streaming || stage == "" {
		return
	}
	m.currentStage = stage
	if n := len(m.processSteps); n == 0 || m.processSteps[n-1] != stage {
		m.processSteps = append(m.processSteps, stage)
	}
}

// Finalize completes streaming. Content becomes authoritative and
// sources attach now. Safe to call once; later calls are no-ops.
func (m *Message) Finalize(sources []Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.streaming {
		return
	}
	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.streaming = false
	m.Sources = sources
}

// FinalizeWith completes streaming and replaces whatever content was
// accumulated with the given text. Used for the cancel placeholder.
func (m *Message) FinalizeWith(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.streaming {
		return
	}
	m.Content = content
	m.streamContent.Reset()
	m.streaming = false
}

// FailWith completes streaming as a failure. Partial content is kept;
// fallback is substituted when nothing streamed. The failed mark and
// the terminal flip happen in one critical section so a reader never
// sees a finished-but-not-yet-failed message.
func (m *Message) FailWith(fallback string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.streaming {
		if m.streamContent.Len() == 0 {
			m.Content = fallback
		} else {
			m.Content = m.streamContent.String()
		}
		m.streamContent.Reset()
		m.streaming = false
	}
	m.failed = true
}

// Streaming reports whether the message is still receiving deltas.
func (m *Message) Streaming() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streaming
}

// HasFailed reports whether the turn behind this message failed.
func (m *Message) HasFailed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failed
}

// DisplayContent returns the content to render, streaming or final.
func (m *Message) DisplayContent() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.streaming {
		return m.streamContent.String()
	}
	return m.Content
}

// IsEmpty reports whether no content has been set or streamed yet.
func (m *Message) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// Progress returns a snapshot of the tool activity: the current stage,
// the step history, and the per-tool entries. The slices are copies.
func (m *Message) Progress() (stage string, steps []string, tools []ToolProgress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	steps = append([]string(nil), m.processSteps...)
	if m.toolProgress != nil {
		tools = make([]ToolProgress, len(m.toolProgress))
		copy(tools, m.toolProgress)
	}
	return m.currentStage, steps, tools
}

// SetFeedback records the user's rating, replacing any earlier one.
func (m *Message) SetFeedback(fb Feedback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = &fb
}

// Rating returns the recorded rating, nil when unrated.
func (m *Message) Rating() *Feedback {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.feedback
}

// Preview returns a truncated single-line preview of the content.
func (m *Message) Preview(maxLen int) string {
	content := m.DisplayContent()
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// messageJSON is the exported wire form of Message.
type messageJSON struct {
	ID           string         `json:"id"`
	Role         Role           `json:"role"`
	Timestamp    time.Time      `json:"timestamp"`
	Content      string         `json:"content"`
	ToolProgress []ToolProgress `json:"tool_progress,omitempty"`
	CurrentStage string         `json:"current_stage,omitempty"`
	ProcessSteps []string       `json:"process_steps,omitempty"`
	Sources      []Source       `json:"sources,omitempty"`
	Failed       bool           `json:"failed,omitempty"`
	Attachments  []Attachment   `json:"attachments,omitempty"`
	Feedback     *Feedback      `json:"feedback,omitempty"`
}

// MarshalJSON emits a consistent snapshot of the message.
func (m *Message) MarshalJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content := m.Content
	if m.streaming {
		content = m.streamContent.String()
	}
	var tools []ToolProgress
	if len(m.toolProgress) > 0 {
		tools = append([]ToolProgress(nil), m.toolProgress...)
	}
	return json.Marshal(messageJSON{
		ID:           m.ID,
		Role:         m.Role,
		Timestamp:    m.Timestamp,
		Content:      content,
		ToolProgress: tools,
		CurrentStage: m.currentStage,
		ProcessSteps: m.processSteps,
		Sources:      m.Sources,
		Failed:       m.failed,
		Attachments:  m.Attachments,
		Feedback:     m.feedback,
	})
}

// =============================================================================
// SOURCE TYPE
// =============================================================================

// Source is one citation delivered with the terminal stream event.
type Source struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score,omitempty"`
	URL     string  `json:"url,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
}

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// AttachmentKind distinguishes image from document attachments.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
)

// Attachment is a user-supplied file reference staged before send.
// The content stays local until the transport uploads it.
type Attachment struct {
	Kind AttachmentKind `json:"kind"`
	Name string         `json:"name"`
	Path string         `json:"-"`
	Size int64          `json:"size"`
}

// KindForFile infers the attachment kind from a file extension.
func KindForFile(name string) AttachmentKind {
	lower := strings.ToLower(name)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp"} {
		if strings.HasSuffix(lower, ext) {
			return AttachmentImage
		}
	}
	return AttachmentDocument
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// NewID creates a unique identifier with the given prefix,
// e.g. "msg_6f1c…".
func NewID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
