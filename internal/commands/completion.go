// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"
	"strings"
)

// =============================================================================
// COMPLETER
// =============================================================================

// Completion is one tab-completion candidate.
type Completion struct {
	// Text is the full replacement text.
	Text string
	// Display is shown in the completion menu.
	Display string
	// Description explains the candidate.
	Description string
}

// Completer handles tab completion for commands and arguments.
type Completer struct {
	registry *Registry

	// SessionsFn returns known session ids for /delete completion.
	SessionsFn func() []string
}

// NewCompleter creates a completer over the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns completions for the input as typed so far.
func (c *Completer) Complete(input string) []Completion {
	trimmed := strings.TrimLeft(input, " \t")
	if !strings.HasPrefix(trimmed, "/") {
		return nil
	}

	parts := splitCommandLine(trimmed)
	endsWithSpace := strings.HasSuffix(input, " ")

	// Still typing the command name.
	if len(parts) <= 1 && !endsWithSpace {
		prefix := "/"
		if len(parts) == 1 {
			prefix = parts[0]
		}
		return c.completeCommands(prefix)
	}

	cmd := c.registry.Get(parts[0])
	if cmd == nil {
		return nil
	}

	argIndex := len(parts) - 2
	partial := ""
	if !endsWithSpace && len(parts) > 1 {
		partial = parts[len(parts)-1]
	} else {
		argIndex++
	}
	return c.completeArg(cmd, argIndex, partial)
}

func (c *Completer) completeCommands(prefix string) []Completion {
	var out []Completion
	for _, cmd := range c.registry.All() {
		if cmd.Hidden || !strings.HasPrefix(cmd.Name, prefix) {
			continue
		}
		out = append(out, Completion{
			Text:        cmd.Name + " ",
			Display:     cmd.Name,
			Description: cmd.Description,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Display < out[j].Display })
	return out
}

func (c *Completer) completeArg(cmd *Command, argIndex int, partial string) []Completion {
	if argIndex < 0 || argIndex >= len(cmd.Args) {
		return nil
	}
	arg := cmd.Args[argIndex]

	switch arg.Type {
	case ArgTypeEnum:
		var out []Completion
		for _, v := range arg.Values {
			if strings.HasPrefix(v, partial) {
				out = append(out, Completion{Text: v, Display: v})
			}
		}
		return out

	case ArgTypeSession:
		if c.SessionsFn == nil {
			return nil
		}
		var out []Completion
		for _, id := range c.SessionsFn() {
			if strings.HasPrefix(id, partial) {
				out = append(out, Completion{Text: id, Display: id})
			}
		}
		return out
	}
	return nil
}
