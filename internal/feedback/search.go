// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package feedback

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/morganforge/unibot-tui/internal/model"
)

// Diacritic-insensitive matching so "hoc phi" finds "học phí".

// foldTransformer strips combining marks after NFD decomposition.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips diacritics. đ/Đ do not decompose
// under NFD and are mapped by hand.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	folded = strings.Map(func(r rune) rune {
		switch r {
		case 'đ':
			return 'd'
		case 'Đ':
			return 'D'
		}
		return r
	}, folded)
	return strings.ToLower(folded)
}

// Filter returns the bookmarks matching query (diacritic-insensitive
// substring over query and response text) and carrying every
// requested tag. Empty query matches everything.
func Filter(bookmarks []model.Bookmark, query string, tags []string) []model.Bookmark {
	needle := Fold(strings.TrimSpace(query))

	var out []model.Bookmark
	for _, bm := range bookmarks {
		if needle != "" &&
			!strings.Contains(Fold(bm.Query), needle) &&
			!strings.Contains(Fold(bm.Response), needle) {
			continue
		}
		if !hasAllTags(bm.Tags, tags) {
			continue
		}
		out = append(out, bm)
	}
	return out
}

func hasAllTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
