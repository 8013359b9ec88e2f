// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package turn owns the transcript of the open chat session and the
// lifecycle of each question/answer exchange.
//
// A turn moves Idle → Streaming → terminal. Content deltas and
// tool-progress events mutate the streaming assistant message in
// arrival order; a stale-event guard keyed by message id drops
// anything that arrives after the turn finished. The controller never
// lets a transport failure escape: every turn resolves to a terminal,
// renderable message.
package turn

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/morganforge/unibot-tui/internal/api"
	"github.com/morganforge/unibot-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptySubmit rejects a submit with no text and no
	// attachments. Nothing is mutated; the caller keeps its
	// composition buffer.
	ErrEmptySubmit = errors.New("nothing to send")

	// ErrTurnActive rejects a submit while a previous turn is still
	// streaming in this transcript.
	ErrTurnActive = errors.New("a response is still streaming")
)

// =============================================================================
// TRANSPORT
// =============================================================================

// Transport is the slice of the adapter the controller needs.
// *api.Client satisfies it.
type Transport interface {
	Stream(ctx context.Context, req api.QueryRequest, handler api.StreamHandler) (*api.StreamHandle, error)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller sequences user input and streamed replies into one
// consistent transcript. Safe for concurrent use; adapter callbacks
// and UI calls serialize on the internal mutex.
type Controller struct {
	mu sync.Mutex

	transport Transport

	sessionID    string
	thinkingMode string
	language     string

	messages    []*model.Message
	suggestions []string

	// active is non-nil while a turn is streaming. Its message id is
	// the stale-event guard key.
	active *activeTurn

	// notify is called after each visible transcript change, outside
	// the controller lock. Set once before use.
	notify func(Event)
}

type activeTurn struct {
	messageID string
	handle    *api.StreamHandle
}

// Option configures a Controller.
type Option func(*Controller)

// WithSession opens the controller on an existing session.
func WithSession(id string) Option {
	return func(c *Controller) { c.sessionID = id }
}

// WithThinkingMode sets the request-time thinking mode.
func WithThinkingMode(mode string) Option {
	return func(c *Controller) { c.thinkingMode = mode }
}

// WithLanguage sets the language used for localized placeholder text.
func WithLanguage(lang string) Option {
	return func(c *Controller) { c.language = lang }
}

// WithNotify registers the event sink.
func WithNotify(fn func(Event)) Option {
	return func(c *Controller) { c.notify = fn }
}

// NewController creates a controller over the given transport.
func NewController(transport Transport, opts ...Option) *Controller {
	c := &Controller{
		transport: transport,
		language:  "vi",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) emit(ev Event) {
	if c.notify != nil {
		c.notify(ev)
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Messages returns the transcript. The returned slice is a snapshot;
// message pointers stay live and mutate while streaming, with the
// moving state synchronized inside Message itself.
func (c *Controller) Messages() []*model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*model.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// SessionID returns the backend session id, empty before the backend
// allocates one.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Suggestions returns the follow-up suggestions from the last
// completed turn. Cleared on the next submit.
func (c *Controller) Suggestions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suggestions
}

// Streaming reports whether a turn is currently active.
func (c *Controller) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// SetThinkingMode changes the mode for subsequent submits.
func (c *Controller) SetThinkingMode(mode string) {
	c.mu.Lock()
	c.thinkingMode = mode
	c.mu.Unlock()
}

// LastAssistantMessage returns the newest assistant message, nil when
// none exists.
func (c *Controller) LastAssistantMessage() *model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == model.RoleAssistant {
			return c.messages[i]
		}
	}
	return nil
}

// LastUserMessage returns the newest user message, nil when none
// exists.
func (c *Controller) LastUserMessage() *model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == model.RoleUser {
			return c.messages[i]
		}
	}
	return nil
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit starts a turn. Rejections (empty input, active turn) are
// synchronous and mutate nothing, so the caller's composition buffer
// survives. On success the user message and a streaming assistant
// placeholder are already appended when Submit returns.
func (c *Controller) Submit(ctx context.Context, text string, attachments []model.Attachment) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && len(attachments) == 0 {
		return ErrEmptySubmit
	}

	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return ErrTurnActive
	}

	userMsg := model.NewUserMessage(trimmed, attachments)
	placeholder := model.NewAssistantPlaceholder()
	c.messages = append(c.messages, userMsg, placeholder)
	c.suggestions = nil
	c.active = &activeTurn{messageID: placeholder.ID}

	req := api.QueryRequest{
		Query:        trimmed,
		SessionID:    c.sessionID,
		ThinkingMode: c.thinkingMode,
		Language:     c.language,
		Attachments:  attachments,
	}
	msgID := placeholder.ID
	c.mu.Unlock()

	c.emit(TranscriptChanged{})

	handle, err := c.transport.Stream(ctx, req, api.StreamHandler{
		OnDelta: func(text string) { c.applyDelta(msgID, text) },
		OnTool:  func(ev api.ToolEvent) { c.applyTool(msgID, ev) },
		OnDone:  func(res api.StreamResult) { c.finishDone(msgID, res) },
		OnError: func(err error) { c.finishError(msgID, err) },
	})
	if err != nil {
		// The stream never opened. Resolve the turn to a terminal
		// failed message rather than surfacing an exception.
		c.finishError(msgID, err)
		return nil
	}

	c.mu.Lock()
	if c.active != nil && c.active.messageID == msgID {
		c.active.handle = handle
	} else {
		// Turn already finished (immediate error or cancel raced the
		// setup). Make sure the stream is torn down.
		handle.Cancel()
	}
	c.mu.Unlock()
	return nil
}

// =============================================================================
// CANCEL
// =============================================================================

// Cancel stops the active turn. The transcript reaches its terminal
// state synchronously; tearing down the transport stream is best
// effort and asynchronous. No-op when nothing is streaming.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return
	}
	handle := c.active.handle
	msg := c.findMessage(c.active.messageID)
	c.active = nil

	if msg != nil {
		if msg.IsEmpty() {
			msg.FinalizeWith(stoppedPlaceholder(c.language))
		} else {
			msg.Finalize(nil)
		}
	}
	c.mu.Unlock()

	// Outside the lock: the handle's cancel path serializes with
	// in-flight callbacks.
	if handle != nil {
		handle.Cancel()
	}
	c.emit(TurnFinished{MessageID: msgIDOf(msg), Cancelled: true})
	c.emit(TranscriptChanged{})
}

// =============================================================================
// STREAM CALLBACKS
// =============================================================================

// applyDelta appends a content fragment in arrival order.
func (c *Controller) applyDelta(msgID, text string) {
	c.mu.Lock()
	msg := c.guardedMessage(msgID)
	if msg == nil {
		c.mu.Unlock()
		return
	}
	msg.AppendDelta(text)
	c.mu.Unlock()

	c.emit(DeltaApplied{MessageID: msgID, Text: text})
}

// applyTool upserts a tool-progress entry by id.
func (c *Controller) applyTool(msgID string, ev api.ToolEvent) {
	c.mu.Lock()
	msg := c.guardedMessage(msgID)
	if msg == nil {
		c.mu.Unlock()
		return
	}
	msg.UpsertToolProgress(model.ToolProgress{
		ID:        ev.ID,
		Type:      model.ToolType(ev.Type),
		Status:    model.ToolStatus(ev.Status),
		Reasoning: ev.Reasoning,
		Error:     ev.Error,
	})
	msg.AdvanceStage(ev.Stage)
	c.mu.Unlock()

	c.emit(ToolProgressApplied{MessageID: msgID})
}

// finishDone applies the terminal event: content freezes, sources
// attach now, suggestions populate.
func (c *Controller) finishDone(msgID string, res api.StreamResult) {
	c.mu.Lock()
	msg := c.guardedMessage(msgID)
	if msg == nil {
		c.mu.Unlock()
		return
	}
	msg.Finalize(res.Sources)
	c.suggestions = res.Suggestions
	c.active = nil

	newSession := false
	if res.SessionID != "" && c.sessionID == "" {
		c.sessionID = res.SessionID
		newSession = true
	}
	c.mu.Unlock()

	c.emit(TurnFinished{MessageID: msgID})
	if newSession {
		c.emit(SessionAllocated{SessionID: res.SessionID})
	}
	c.emit(TranscriptChanged{})
}

// finishError resolves the turn to a terminal failed message. Partial
// content is preserved; an empty placeholder gets localized error
// text.
func (c *Controller) finishError(msgID string, err error) {
	c.mu.Lock()
	msg := c.guardedMessage(msgID)
	if msg == nil {
		c.mu.Unlock()
		return
	}
	msg.FailWith(errorPlaceholder(c.language))
	c.active = nil
	c.mu.Unlock()

	c.emit(TurnFinished{MessageID: msgID, Failed: true, Err: err})
	c.emit(TranscriptChanged{})
}

// =============================================================================
// HELPERS
// =============================================================================

// guardedMessage returns the streaming message for msgID, or nil when
// the event is stale (turn already finished, or a different turn is
// active).
func (c *Controller) guardedMessage(msgID string) *model.Message {
	if c.active == nil || c.active.messageID != msgID {
		return nil
	}
	return c.findMessage(msgID)
}

func (c *Controller) findMessage(id string) *model.Message {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == id {
			return c.messages[i]
		}
	}
	return nil
}

func msgIDOf(msg *model.Message) string {
	if msg == nil {
		return ""
	}
	return msg.ID
}

// stoppedPlaceholder is the localized text substituted when a turn is
// cancelled before any content arrived.
func stoppedPlaceholder(lang string) string {
	if strings.HasPrefix(lang, "vi") {
		return "Đã dừng tạo câu trả lời."
	}
	return "Response generation stopped."
}

// errorPlaceholder is the localized text substituted when a turn
// fails before any content arrived.
func errorPlaceholder(lang string) string {
	if strings.HasPrefix(lang, "vi") {
		return "Xin lỗi, đã có lỗi xảy ra. Vui lòng thử lại."
	}
	return "Sorry, something went wrong. Please try again."
}
