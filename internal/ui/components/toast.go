// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Non-blocking toasts in the corner instead of modal error dialogs; the
// user keeps typing while the notification ages out.
package components

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/unibot-tui/internal/ui/styles"
	"github.com/morganforge/unibot-tui/internal/util"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind selects the toast color and default duration.
type ToastKind int

const (
	ToastInfo ToastKind = iota
	ToastSuccess
	ToastError
)

// Durations per kind; errors linger longer so they can be read.
const (
	InfoToastDuration    = 4 * time.Second
	SuccessToastDuration = 3 * time.Second
	ErrorToastDuration   = 8 * time.Second
)

var toastSeq atomic.Int64

// Toast is one non-blocking notification.
type Toast struct {
	ID       int64
	Message  string
	Kind     ToastKind
	Duration time.Duration
}

// ToastExpiredMsg asks the model to clear the toast with the given ID.
// A newer toast with a different ID stays visible.
type ToastExpiredMsg struct {
	ID int64
}

// NewToast creates a toast of the given kind.
func NewToast(kind ToastKind, message string) Toast {
	d := InfoToastDuration
	switch kind {
	case ToastError:
		d = ErrorToastDuration
	case ToastSuccess:
		d = SuccessToastDuration
	}
	return Toast{
		ID:       toastSeq.Add(1),
		Message:  message,
		Kind:     kind,
		Duration: d,
	}
}

// ExpireCmd returns the command that dismisses this toast after its
// duration.
func (t Toast) ExpireCmd() tea.Cmd {
	id := t.ID
	return tea.Tick(t.Duration, func(time.Time) tea.Msg {
		return ToastExpiredMsg{ID: id}
	})
}

// View renders the toast box.
func (t Toast) View(theme *styles.Theme, maxWidth int) string {
	if t.Message == "" {
		return ""
	}
	msg := util.TruncateWidth(t.Message, maxWidth-4)
	switch t.Kind {
	case ToastError:
		return theme.ToastError.Render(styles.StatusIndicators.Error + " " + msg)
	case ToastSuccess:
		return theme.ToastSuccess.Render(styles.StatusIndicators.Success + " " + msg)
	default:
		return theme.ToastInfo.Render(msg)
	}
}
