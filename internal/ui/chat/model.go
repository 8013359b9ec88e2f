// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync/atomic"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/morganforge/unibot-tui/internal/api"
	"github.com/morganforge/unibot-tui/internal/auth"
	"github.com/morganforge/unibot-tui/internal/commands"
	"github.com/morganforge/unibot-tui/internal/config"
	"github.com/morganforge/unibot-tui/internal/directory"
	"github.com/morganforge/unibot-tui/internal/feedback"
	"github.com/morganforge/unibot-tui/internal/model"
	"github.com/morganforge/unibot-tui/internal/turn"
	"github.com/morganforge/unibot-tui/internal/ui/components"
	"github.com/morganforge/unibot-tui/internal/ui/styles"
)

// =============================================================================
// VIEW STATE
// =============================================================================

type viewState int

const (
	viewChat viewState = iota
	viewSessions
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the root Bubble Tea model for the chat interface.
type Model struct {
	cfg   *config.Config
	theme *styles.Theme
	keys  KeyMap

	// Domain
	controller *turn.Controller
	dir        *directory.Directory
	recorder   *feedback.Recorder
	client     *api.Client
	authCtx    *auth.Context

	// Slash commands
	registry  *commands.Registry
	parser    *commands.Parser
	completer *commands.Completer

	// Widgets
	viewport viewport.Model
	input    textarea.Model
	spin     spinner.Model

	// Markdown rendering of finalized answers, cached per message id.
	// PERFORMANCE: glamour renders once per answer, not once per frame.
	renderer *glamour.TermRenderer
	mdCache  map[string]string

	// Streaming
	streamBuf *StreamingBuffer
	program   atomic.Pointer[tea.Program]

	// Transient UI state
	state         viewState
	sessionList   *components.SessionList
	toast         *components.Toast
	completions   []commands.Completion
	completionIdx int
	attachments   []model.Attachment
	helpText      string

	width  int
	height int
	ready  bool
	online bool
}

// New creates the chat model and its turn controller.
func New(cfg *config.Config, client *api.Client, authCtx *auth.Context, dir *directory.Directory, recorder *feedback.Recorder) *Model {
	registry := commands.NewRegistry()

	input := textarea.New()
	input.Placeholder = "Ask about tuition, scholarships, registration... (/help for commands)"
	input.CharLimit = 4000
	input.SetHeight(1)
	input.ShowLineNumbers = false
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := &Model{
		cfg:       cfg,
		theme:     styles.NewTheme(cfg.UI.Theme),
		keys:      DefaultKeyMap(),
		dir:       dir,
		recorder:  recorder,
		client:    client,
		authCtx:   authCtx,
		registry:  registry,
		parser:    commands.NewParser(registry),
		input:     input,
		spin:      sp,
		mdCache:   map[string]string{},
		streamBuf: NewStreamingBuffer(),
		online:    true,
	}
	m.spin.Style = m.theme.Spinner

	m.completer = commands.NewCompleter(registry)
	m.completer.SessionsFn = func() []string {
		sessions := dir.Sessions()
		ids := make([]string, 0, len(sessions))
		for _, s := range sessions {
			ids = append(ids, s.ID)
		}
		return ids
	}

	m.controller = turn.NewController(client,
		turn.WithThinkingMode(cfg.Chat.ThinkingMode),
		turn.WithLanguage(cfg.Chat.Language),
		turn.WithNotify(m.notify),
	)
	return m
}

// SetProgram binds the running program so stream goroutines can push
// events into the loop. Must be called before the first Submit.
func (m *Model) SetProgram(p *tea.Program) {
	m.program.Store(p)
}

// Controller exposes the turn controller, used by the one-shot CLI
// paths and tests.
func (m *Model) Controller() *turn.Controller {
	return m.controller
}

// notify bridges turn events into the Bubble Tea loop.
// STREAMING: deltas bypass program.Send and go through the batch
// buffer; everything else is rare enough to send directly.
func (m *Model) notify(ev turn.Event) {
	if d, ok := ev.(turn.DeltaApplied); ok {
		m.streamBuf.Write(d.Text)
		return
	}
	if p := m.program.Load(); p != nil {
		p.Send(TurnEventMsg{Event: ev})
	}
}

// Init starts the spinner and the initial session refresh.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.refreshSessionsCmd())
}

// resize recomputes widget dimensions from the terminal size.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	inputHeight := 3
	chrome := 2 /* header */ + 1 /* status bar */ + inputHeight
	vpHeight := height - chrome
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.input.SetWidth(width - 4)

	// Re-wrap markdown at the new width.
	m.renderer = nil
	m.mdCache = map[string]string{}
	m.refreshTranscript(true)
}

// markdownRenderer lazily builds the glamour renderer for the current
// width.
func (m *Model) markdownRenderer() *glamour.TermRenderer {
	if m.renderer != nil {
		return m.renderer
	}
	wrap := m.width - 8
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	m.renderer = r
	return r
}

// renderedMarkdown returns the glamour rendering for a finalized
// answer, from cache when possible. Raw content is the fallback when
// rendering is disabled or fails.
func (m *Model) renderedMarkdown(msg *model.Message) string {
	if !m.cfg.UI.Markdown || msg.Streaming() {
		return ""
	}
	if cached, ok := m.mdCache[msg.ID]; ok {
		return cached
	}
	r := m.markdownRenderer()
	if r == nil {
		return ""
	}
	out, err := r.Render(msg.DisplayContent())
	if err != nil {
		return ""
	}
	m.mdCache[msg.ID] = out
	return out
}

// showToast replaces the visible toast and schedules its expiry.
func (m *Model) showToast(kind components.ToastKind, msg string) tea.Cmd {
	t := components.NewToast(kind, msg)
	m.toast = &t
	return t.ExpireCmd()
}

// commandContext snapshots the state slash-command handlers validate
// against.
func (m *Model) commandContext() *commands.Context {
	ctx := &commands.Context{
		SessionID:     m.controller.SessionID(),
		Streaming:     m.controller.Streaming(),
		Authenticated: m.authCtx.Authenticated(),
	}
	if last := m.controller.LastAssistantMessage(); last != nil {
		ctx.LastAssistantID = last.ID
	}
	return ctx
}
