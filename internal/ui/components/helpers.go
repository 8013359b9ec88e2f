// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/morganforge/unibot-tui/internal/util"
)

// wordWrap wraps text at word boundaries to fit maxWidth display
// columns. Words longer than the width are hard-broken.
// UNICODE: measures display width, not byte or rune counts, so
// Vietnamese text and CJK attachments wrap correctly.
func wordWrap(text string, maxWidth int) string {
	if maxWidth < 1 {
		return text
	}
	var out strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(wrapLine(line, maxWidth))
	}
	return out.String()
}

func wrapLine(line string, maxWidth int) string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return line
	}
	var out strings.Builder
	width := 0
	for _, word := range words {
		w := util.StringWidth(word)
		if width > 0 && width+1+w > maxWidth {
			out.WriteByte('\n')
			width = 0
		} else if width > 0 {
			out.WriteByte(' ')
			width++
		}
		for w > maxWidth {
			head := runewidth.Truncate(word, maxWidth, "")
			out.WriteString(head)
			out.WriteByte('\n')
			word = word[len(head):]
			w = util.StringWidth(word)
		}
		out.WriteString(word)
		width += w
	}
	return out.String()
}

// maxLineWidth returns the widest display width across lines.
func maxLineWidth(text string) int {
	max := 0
	for _, line := range strings.Split(text, "\n") {
		if w := util.StringWidth(line); w > max {
			max = w
		}
	}
	return max
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
