// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

// Event is a notification of a visible transcript change. Events are
// delivered outside the controller lock, in the order the changes
// were applied.
type Event interface{ isEvent() }

// TranscriptChanged signals that the message list changed shape
// (append, finalize, cancel). Renderers re-read Messages.
type TranscriptChanged struct{}

// DeltaApplied signals a content fragment was appended to the
// streaming message.
type DeltaApplied struct {
	MessageID string
	Text      string
}

// ToolProgressApplied signals a tool-progress upsert or stage change.
type ToolProgressApplied struct {
	MessageID string
}

// TurnFinished signals a turn reached a terminal state.
type TurnFinished struct {
	MessageID string
	Cancelled bool
	Failed    bool
	Err       error
}

// SessionAllocated signals the backend created a session for this
// transcript. The session directory should refresh.
type SessionAllocated struct {
	SessionID string
}

func (TranscriptChanged) isEvent()   {}
func (DeltaApplied) isEvent()        {}
func (ToolProgressApplied) isEvent() {}
func (TurnFinished) isEvent()        {}
func (SessionAllocated) isEvent()    {}
