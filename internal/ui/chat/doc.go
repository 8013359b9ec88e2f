// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat implements the main chat view for the unibot TUI.

# Model (model.go)

The Model struct is the root Bubble Tea model. It owns the turn
controller, the session directory, the feedback recorder, and the
input/viewport widgets. Finalized answers are rendered once with
glamour and cached per message id.

# Update Loop (update.go)

Handles keyboard input, slash-command messages from the commands
package, turn events, and the async results of session, rating,
bookmark, export, and voice operations.

# Streaming (streaming.go)

StreamingBuffer batches answer tokens so the transcript redraws at a
capped rate instead of once per token. Token deltas go into the buffer
from the stream goroutine; a periodic tick flushes them into the view.
All other turn events go through program.Send.

# View Rendering (view.go)

Composes the header, transcript viewport, tool activity panel,
follow-up suggestions, input area, and status bar, plus the session
browser as an alternate view state.
*/
package chat
