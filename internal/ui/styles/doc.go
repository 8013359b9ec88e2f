// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the unibot TUI.

All colors use Lip Gloss AdaptiveColor so the same palette works on
light and dark terminals without configuration.

# Color System (colors.go)

Semantic color tokens, not raw hex values, are what the rest of the UI
imports:

	ColorPrimary  - Brand accent for the header and selections
	ColorAccent   - Links, spinner, and command highlights
	ColorSuccess  - Positive feedback (ratings, bookmarks saved)
	ColorWarning  - Degraded states (stale cache, offline)
	ColorError    - Failed turns and command errors

Status glyphs live in StatusIndicators and are plain ASCII so they
survive limited terminal fonts and screen readers.

# Theme System (theme.go)

The Theme struct holds every pre-built style the views render with.
NewTheme detects the terminal background once at startup:

	theme := styles.NewTheme("auto")
	if theme.IsDark {
		// dark terminal detected
	}

The configured mode ("dark", "light") overrides detection when the
user wants a fixed look.
*/
package styles
