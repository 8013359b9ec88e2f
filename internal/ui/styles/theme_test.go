// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewThemeExplicitModes(t *testing.T) {
	dark := NewTheme("dark")
	if !dark.IsDark {
		t.Error("dark mode should set IsDark")
	}

	light := NewTheme("light")
	if light.IsDark {
		t.Error("light mode should clear IsDark")
	}
}

func TestNewThemeBuildsAllStyles(t *testing.T) {
	th := NewTheme("dark")

	// Styles must render without panicking even before a terminal size
	// is known.
	samples := []string{
		th.Header.Render("UniBot"),
		th.UserBubble.Render("Học phí bao nhiêu?"),
		th.AssistantBubble.Render("answer"),
		th.ToolPanel.Render("searching"),
		th.SuggestionChip.Render("follow up"),
		th.SessionItemSelected.Render("session"),
		th.StatusBar.Render("ready"),
		th.ToastError.Render("boom"),
	}
	for i, s := range samples {
		if s == "" {
			t.Errorf("style %d rendered empty output", i)
		}
	}
}
