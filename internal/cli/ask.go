// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the unibot CLI.
//
// Handles `unibot ask`, which sends one question and prints the
// answer.
//
// Examples:
//   unibot ask "Học phí kỳ này bao nhiêu?"
//   unibot ask --mode thorough "Điều kiện xét học bổng?"
//   unibot ask --session sess_4f2a "Còn hạn nộp thì sao?"
//   unibot ask --json "Lịch thi cuối kỳ" | jq .sources
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"

	"github.com/morganforge/unibot-tui/internal/api"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders markdown for terminal display, returning the
// original content when rendering is unavailable.
func renderMarkdown(content string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}

// displayAnswer prints the answer, rendering markdown only when
// stdout is a TTY so piped output stays clean.
func displayAnswer(content string, noMarkdown bool) {
	if noMarkdown || !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Println(content)
		return
	}
	fmt.Print(renderMarkdown(content))
}

// =============================================================================
// ASK HANDLER
// =============================================================================

// HandleAsk implements `unibot ask`.
func HandleAsk(args []string) {
	parser := NewArgParser(args)
	query := strings.TrimSpace(parser.PositionalJoined())
	if query == "" {
		fail(fmt.Errorf("usage: unibot ask \"question\""))
	}

	cfg := loadConfig()
	client, _, err := newClient(cfg)
	if err != nil {
		fail(err)
	}

	req := api.QueryRequest{
		Query:        query,
		SessionID:    parser.Flag("session"),
		ThinkingMode: parser.FlagOr("mode", cfg.Chat.ThinkingMode),
		Language:     parser.FlagOr("lang", cfg.Chat.Language),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	resp, err := client.Query(ctx, req)
	if err != nil {
		fail(err)
	}

	if parser.BoolFlag("json") {
		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			fail(err)
		}
		fmt.Println(string(out))
		return
	}

	displayAnswer(resp.Content, parser.BoolFlag("no-markdown"))

	if len(resp.Sources) > 0 && cfg.UI.ShowSources {
		fmt.Println("\nSources:")
		for _, s := range resp.Sources {
			line := "  - " + s.Title
			if s.URL != "" {
				line += " (" + s.URL + ")"
			}
			fmt.Println(line)
		}
	}
	if len(resp.Suggestions) > 0 && cfg.Chat.Suggestions {
		fmt.Println("\nFollow-ups:")
		for i, s := range resp.Suggestions {
			fmt.Printf("  %d. %s\n", i+1, s)
		}
	}
	if resp.SessionID != "" && !parser.BoolFlag("quiet") {
		fmt.Printf("\n(continue with: unibot ask --session %s \"...\")\n", resp.SessionID)
	}
}
