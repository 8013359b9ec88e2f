// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive shell chat for unibot.
//
// A readline-style loop for terminals where the full TUI is unwanted
// (ssh sessions, scripts around `expect`, screen readers). Shares the
// turn controller with the TUI so cancel and error semantics match.
//
// In-chat commands:
//   /new          Start a fresh conversation
//   /mode <m>     Switch thinking mode
//   /sessions     List conversations
//   /quit, /q     Exit
//   Ctrl+C        Cancel the streaming answer
//   Ctrl+D        Exit
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/morganforge/unibot-tui/internal/config"
	"github.com/morganforge/unibot-tui/internal/turn"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// chatInput wraps liner with persistent history.
type chatInput struct {
	line        *liner.State
	historyFile string
}

func newChatInput() *chatInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &chatInput{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

func (c *chatInput) read(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

func (c *chatInput) close() {
	if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		c.line.WriteHistory(f)
		f.Close()
	}
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat implements `unibot chat`.
func HandleChat(args []string) {
	parser := NewArgParser(args)
	cfg := loadConfig()
	client, _, err := newClient(cfg)
	if err != nil {
		fail(err)
	}

	done := make(chan struct{}, 1)
	notify := func(ev turn.Event) {
		switch ev := ev.(type) {
		case turn.DeltaApplied:
			fmt.Print(ev.Text)
		case turn.TurnFinished:
			done <- struct{}{}
		}
	}
	makeController := func(sessionID string) *turn.Controller {
		return turn.NewController(client,
			turn.WithSession(sessionID),
			turn.WithThinkingMode(parser.FlagOr("mode", cfg.Chat.ThinkingMode)),
			turn.WithLanguage(parser.FlagOr("lang", cfg.Chat.Language)),
			turn.WithNotify(notify),
		)
	}
	controller := makeController(parser.Flag("session"))

	input := newChatInput()
	defer input.close()

	// Ctrl+C during streaming cancels the turn instead of killing the
	// process.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigChan {
			if controller.Streaming() {
				controller.Cancel()
			}
		}
	}()
	defer signal.Stop(sigChan)

	fmt.Println("unibot chat - Ctrl+D to exit, /quit also works")

	for {
		text, err := input.read("unibot> ")
		if err != nil {
			// liner.ErrPromptAborted is Ctrl+C at the prompt; EOF is
			// Ctrl+D. Both exit.
			fmt.Println()
			return
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "/") {
			if strings.HasPrefix(text, "/new") {
				controller = makeController("")
				fmt.Println("started a new conversation")
				continue
			}
			if !handleChatCommand(text, controller, cfg) {
				return
			}
			continue
		}

		if err := controller.Submit(context.Background(), text, nil); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		<-done
		fmt.Println()
		printTurnTail(controller, cfg)
	}
}

// printTurnTail prints sources and suggestions after an answer.
func printTurnTail(controller *turn.Controller, cfg *config.Config) {
	last := controller.LastAssistantMessage()
	if last == nil {
		return
	}
	if cfg.UI.ShowSources && len(last.Sources) > 0 {
		fmt.Println("Sources:")
		for _, s := range last.Sources {
			fmt.Println("  - " + s.Title)
		}
	}
	if cfg.Chat.Suggestions {
		for i, s := range controller.Suggestions() {
			fmt.Printf("  %d. %s\n", i+1, s)
		}
	}
}

// handleChatCommand runs an in-chat slash command; false means exit.
func handleChatCommand(text string, controller *turn.Controller, cfg *config.Config) bool {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/quit", "/q", "/exit":
		return false
	case "/mode":
		if len(fields) < 2 {
			fmt.Println("usage: /mode <fast|balanced|thorough>")
			return true
		}
		controller.SetThinkingMode(fields[1])
		fmt.Println("thinking mode:", fields[1])
		return true
	case "/sessions", "/ls":
		HandleSessions(nil)
		return true
	default:
		fmt.Printf("unknown command %s\n", fields[0])
		return true
	}
}
