// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/morganforge/unibot-tui/internal/directory"
	"github.com/morganforge/unibot-tui/internal/model"
	"github.com/morganforge/unibot-tui/internal/ui/styles"
	"github.com/morganforge/unibot-tui/internal/util"
)

// =============================================================================
// SESSION LIST
// =============================================================================

// SessionList renders the session picker grouped by recency. Selection
// moves over the flattened session order, skipping bucket headers.
type SessionList struct {
	Groups   []directory.Group
	Selected int
	Width    int
	Height   int

	theme *styles.Theme
}

// NewSessionList creates a session list view.
func NewSessionList(groups []directory.Group, theme *styles.Theme) *SessionList {
	return &SessionList{Groups: groups, Width: 40, Height: 20, theme: theme}
}

// Len returns the number of selectable sessions.
func (l *SessionList) Len() int {
	n := 0
	for _, g := range l.Groups {
		n += len(g.Sessions)
	}
	return n
}

// SessionAt returns the session at the flattened index, or nil.
func (l *SessionList) SessionAt(idx int) *model.Session {
	for _, g := range l.Groups {
		if idx < len(g.Sessions) {
			return &g.Sessions[idx]
		}
		idx -= len(g.Sessions)
	}
	return nil
}

// MoveSelection moves the cursor by delta, clamped to the list.
func (l *SessionList) MoveSelection(delta int) {
	n := l.Len()
	if n == 0 {
		l.Selected = 0
		return
	}
	l.Selected += delta
	if l.Selected < 0 {
		l.Selected = 0
	}
	if l.Selected >= n {
		l.Selected = n - 1
	}
}

// View renders the grouped list.
func (l *SessionList) View() string {
	if l.Len() == 0 {
		return l.theme.SessionMeta.Render("No sessions yet. Ask a question to start one.")
	}

	var lines []string
	idx := 0
	for _, g := range l.Groups {
		lines = append(lines, l.theme.SessionBucket.Render(g.Bucket.String()))
		for i := range g.Sessions {
			lines = append(lines, l.renderItem(&g.Sessions[i], idx == l.Selected))
			idx++
		}
	}
	return strings.Join(lines, "\n")
}

func (l *SessionList) renderItem(s *model.Session, selected bool) string {
	title := util.TruncateWidth(s.DisplayTitle(), l.Width-14)
	meta := l.theme.SessionMeta.Render(fmt.Sprintf("%d msg, %s", s.MessageCount, relativeTime(s.LastActive())))
	line := title + " " + meta
	if selected {
		return l.theme.SessionItemSelected.Render("> " + line)
	}
	return l.theme.SessionItem.Render(line)
}

// relativeTime formats an activity timestamp for the session meta
// column.
func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}
