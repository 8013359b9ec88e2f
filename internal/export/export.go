// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export saves chat transcripts to files outside the client.
// Markdown is the human-facing format; JSON keeps the structure for
// tooling.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/morganforge/unibot-tui/internal/model"
	"github.com/morganforge/unibot-tui/internal/util"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the exportable view of one session.
type Transcript struct {
	SessionID  string           `json:"session_id,omitempty"`
	Title      string           `json:"title,omitempty"`
	ExportedAt time.Time        `json:"exported_at"`
	Messages   []*model.Message `json:"messages"`
}

// NewTranscript builds a transcript, skipping streaming and empty
// messages so half-finished turns never leak into an export.
func NewTranscript(sessionID, title string, messages []*model.Message) *Transcript {
	t := &Transcript{
		SessionID:  sessionID,
		Title:      title,
		ExportedAt: time.Now(),
	}
	for _, msg := range messages {
		if msg.Streaming() || msg.DisplayContent() == "" {
			continue
		}
		t.Messages = append(t.Messages, msg)
	}
	return t
}

// DisplayTitle returns the transcript title, falling back to the
// untitled label.
func (t *Transcript) DisplayTitle() string {
	if t.Title == "" {
		return model.UntitledSessionLabel
	}
	return t.Title
}

// =============================================================================
// EXPORTER INTERFACE
// =============================================================================

// Exporter converts a transcript to one output format.
type Exporter interface {
	// Export renders the transcript and returns the encoded content.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the appropriate extension (e.g. ".md").
	FileExtension() string
}

// ForPath returns the exporter matching a file extension. ".json"
// exports JSON, everything else markdown.
func ForPath(path string) Exporter {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return &JSONExporter{}
	}
	return &MarkdownExporter{}
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// WriteFile exports the transcript to path in the format implied by
// the extension. The write is atomic. Returns the absolute path
// written.
func WriteFile(t *Transcript, path string) (string, error) {
	exporter := ForPath(path)
	data, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("failed to encode transcript: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if err := util.AtomicWriteFile(abs, data, 0644); err != nil {
		return "", err
	}
	return abs, nil
}

// DefaultPath suggests an output filename in dir from the session
// title and the current date.
func DefaultPath(dir string, t *Transcript) string {
	if dir == "" {
		dir, _ = os.Getwd()
	}
	name := slugify(t.DisplayTitle())
	if name == "" {
		name = "chat"
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.md", name, t.ExportedAt.Format("2006-01-02")))
}

func slugify(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteRune('-')
		}
	}
	return strings.Trim(sb.String(), "-")
}
