// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the unibot TUI.

Each component is a small value type that renders with a *styles.Theme
and a width. None of them own Bubble Tea update loops; the chat model
drives them and they only produce strings.

# Display Components

MessageBubble (message.go) - Styled bubbles for user questions and
assistant answers, with sources, attachments, and rating marks.
SessionList (sessionlist.go) - Conversation browser grouped by
recency bucket with keyboard selection.
StatusBar (statusbar.go) - Bottom bar with connection status, thinking
mode, and shortcut hints; Header renders the one-line top bar.
ToolProgressPanel (toolprogress.go) - Retrieval and tool activity
while an answer streams.
Toast (toast.go) - Transient notifications with kind-dependent
lifetimes; errors linger longer than confirmations.

# Helpers

helpers.go holds the display-width word wrap shared by the bubbles.
It wraps on spaces but hard-breaks tokens wider than the line, which
matters for long URLs in cited sources.
*/
package components
