// args.go - Unified argument parsing for all CLI commands in unibot.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import "strings"

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser provides consistent flag handling across command handlers:
//   - Long flags: --flag value or --flag=value
//   - Boolean flags: --flag
//   - Positional arguments; the first one is the subcommand
type ArgParser struct {
	subcommand string
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
}

// boolFlagNames are flags that never take a value. Anything else with
// a following non-flag token consumes it as the value.
var boolFlagNames = map[string]bool{
	"json":        true,
	"quiet":       true,
	"no-markdown": true,
	"yes":         true,
}

// NewArgParser parses raw arguments.
func NewArgParser(raw []string) *ArgParser {
	p := &ArgParser{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
	}
	for i := 0; i < len(raw); i++ {
		arg := raw[i]
		if !strings.HasPrefix(arg, "-") {
			p.positional = append(p.positional, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			p.flags[name[:eq]] = name[eq+1:]
			continue
		}
		if boolFlagNames[name] || i+1 >= len(raw) || strings.HasPrefix(raw[i+1], "-") {
			p.boolFlags[name] = true
			continue
		}
		p.flags[name] = raw[i+1]
		i++
	}
	if len(p.positional) > 0 {
		p.subcommand = p.positional[0]
	}
	return p
}

// Subcommand returns the first positional argument, or "".
func (p *ArgParser) Subcommand() string {
	return p.subcommand
}

// Flag returns a string flag value, or "".
func (p *ArgParser) Flag(name string) string {
	return p.flags[name]
}

// FlagOr returns the flag value or a default.
func (p *ArgParser) FlagOr(name, def string) string {
	if v, ok := p.flags[name]; ok {
		return v
	}
	return def
}

// BoolFlag reports whether a boolean flag was set.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.boolFlags[name]
}

// Positional returns the positional arguments after the subcommand.
func (p *ArgParser) Positional() []string {
	if len(p.positional) <= 1 {
		return nil
	}
	return p.positional[1:]
}

// PositionalJoined joins every positional argument with spaces; used
// for free-text queries that the shell already split.
func (p *ArgParser) PositionalJoined() string {
	return strings.Join(p.positional, " ")
}
