// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Bubble Tea message types for the chat interface, organized by
// category:
//   - Turn events: transcript deltas, tool progress, turn completion
//   - Streaming: the 30fps flush tick
//   - Sessions: directory refresh and mutation results
//   - Feedback: rating, bookmark and export results
//   - Voice: transcription results
//   - UI state: toast expiry
package chat

import (
	"time"

	"github.com/morganforge/unibot-tui/internal/api"
	"github.com/morganforge/unibot-tui/internal/turn"
)

// =============================================================================
// TURN EVENT MESSAGES
// =============================================================================

// TurnEventMsg carries a turn controller event into the Bubble Tea
// loop. Delta events are not delivered this way; they go through the
// streaming buffer and surface on the flush tick.
type TurnEventMsg struct {
	Event turn.Event
}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamTickMsg drives the streaming flush cadence while an answer is
// being generated.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// SessionsRefreshedMsg reports a directory refresh result.
type SessionsRefreshedMsg struct {
	Err error
}

// SessionRenamedMsg reports a rename result.
type SessionRenamedMsg struct {
	ID    string
	Title string
	Err   error
}

// SessionDeletedMsg reports a delete result.
type SessionDeletedMsg struct {
	ID  string
	Err error
}

// SessionOpenedMsg asks the chat to switch to an existing session.
type SessionOpenedMsg struct {
	ID string
}

// =============================================================================
// FEEDBACK AND EXPORT MESSAGES
// =============================================================================

// RateDoneMsg reports a rating submission result.
type RateDoneMsg struct {
	MessageID string
	Err       error
}

// BookmarkDoneMsg reports a bookmark creation result.
type BookmarkDoneMsg struct {
	Err error
}

// BookmarksLoadedMsg delivers a bookmark listing or search result.
type BookmarksLoadedMsg struct {
	Listing string
	Err     error
}

// ExportDoneMsg reports a transcript export result.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// =============================================================================
// VOICE MESSAGES
// =============================================================================

// VoiceDoneMsg delivers a transcribed voice query answer.
type VoiceDoneMsg struct {
	Response *api.VoiceResponse
	Err      error
}

// =============================================================================
// AUTH MESSAGES
// =============================================================================

// LoggedOutMsg reports a logout result.
type LoggedOutMsg struct {
	Err error
}
