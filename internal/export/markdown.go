// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownExporter renders a transcript as a markdown document with
// role labels, timestamps, sources and ratings.
type MarkdownExporter struct {
	// OmitTimestamps drops per-message times from the output.
	OmitTimestamps bool
}

// Export implements Exporter.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString("# " + t.DisplayTitle() + "\n\n")
	if t.SessionID != "" {
		sb.WriteString("Session: " + t.SessionID + "\n\n")
	}
	sb.WriteString("Exported: " + t.ExportedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range t.Messages {
		if e.OmitTimestamps {
			sb.WriteString(fmt.Sprintf("**%s**:\n\n", msg.Role.DisplayName()))
		} else {
			sb.WriteString(fmt.Sprintf("**%s** (%s):\n\n", msg.Role.DisplayName(), msg.Timestamp.Format("15:04")))
		}
		sb.WriteString(msg.DisplayContent())
		sb.WriteString("\n")

		if len(msg.Sources) > 0 {
			sb.WriteString("\nSources:\n")
			for _, src := range msg.Sources {
				if src.URL != "" {
					sb.WriteString(fmt.Sprintf("- [%s](%s)\n", src.Title, src.URL))
				} else {
					sb.WriteString("- " + src.Title + "\n")
				}
			}
		}
		if fb := msg.Rating(); fb != nil {
			sb.WriteString("\nRating: " + string(fb.Type) + "\n")
		}
		sb.WriteString("\n---\n\n")
	}

	return []byte(sb.String()), nil
}

// FileExtension implements Exporter.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}
