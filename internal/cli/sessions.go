// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - Session and bookmark command handlers for the unibot
// CLI.
//
// Subcommands:
//   sessions               List conversations grouped by recency
//   sessions rename <id> <new title>
//   sessions delete <id>
//   bookmarks [query]      List or search saved Q&A pairs
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/morganforge/unibot-tui/internal/directory"
	"github.com/morganforge/unibot-tui/internal/feedback"
	"github.com/morganforge/unibot-tui/internal/model"
)

// openDirectory builds the session directory with the sqlite cache
// when enabled.
func openDirectory(ctx context.Context) (*directory.Directory, error) {
	cfg := loadConfig()
	client, _, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	var cache *directory.Cache
	if cfg.Cache.Enabled {
		if path, err := cfg.CachePath(); err == nil {
			if c, err := directory.OpenCache(path); err == nil {
				cache = c
			}
		}
	}

	dir := directory.New(client, cache)
	dir.LoadCached()
	if err := dir.Refresh(ctx); err != nil {
		// Stale listing beats no listing when the backend is down.
		if dir.Len() == 0 {
			return nil, err
		}
		fmt.Println("(backend unreachable, showing cached sessions)")
	}
	return dir, nil
}

// HandleSessions implements `unibot sessions`.
func HandleSessions(args []string) {
	parser := NewArgParser(args)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch parser.Subcommand() {
	case "", "list":
		dir, err := openDirectory(ctx)
		if err != nil {
			fail(err)
		}
		printSessionList(dir)

	case "rename":
		rest := parser.Positional()
		if len(rest) < 2 {
			fail(fmt.Errorf("usage: unibot sessions rename <id> <new title>"))
		}
		dir, err := openDirectory(ctx)
		if err != nil {
			fail(err)
		}
		id, title := rest[0], strings.Join(rest[1:], " ")
		if err := dir.Rename(ctx, id, title); err != nil {
			fail(err)
		}
		fmt.Printf("renamed %s to %q\n", id, title)

	case "delete":
		rest := parser.Positional()
		if len(rest) < 1 {
			fail(fmt.Errorf("usage: unibot sessions delete <id>"))
		}
		dir, err := openDirectory(ctx)
		if err != nil {
			fail(err)
		}
		if err := dir.Delete(ctx, rest[0]); err != nil {
			fail(err)
		}
		fmt.Println("deleted", rest[0])

	default:
		fail(fmt.Errorf("unknown sessions subcommand %q", parser.Subcommand()))
	}
}

func printSessionList(dir *directory.Directory) {
	groups := dir.Groups(time.Now())
	if len(groups) == 0 {
		fmt.Println("No sessions yet. Ask a question to start one.")
		return
	}
	for _, g := range groups {
		fmt.Println(g.Bucket.String())
		for _, s := range g.Sessions {
			fmt.Printf("  %-24s %-40s %d msg\n", s.ID, s.DisplayTitle(), s.MessageCount)
		}
	}
}

// HandleBookmarks implements `unibot bookmarks`.
func HandleBookmarks(args []string) {
	parser := NewArgParser(args)
	cfg := loadConfig()
	client, _, err := newClient(cfg)
	if err != nil {
		fail(err)
	}
	recorder := feedback.NewRecorder(client)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	query := strings.TrimSpace(parser.PositionalJoined())
	var marks []model.Bookmark
	if query == "" {
		got, err := recorder.Bookmarks(ctx)
		if err != nil {
			fail(err)
		}
		marks = got
	} else {
		got, err := recorder.SearchBookmarks(ctx, query, nil)
		if err != nil {
			fail(err)
		}
		// Backend search is diacritic-sensitive; re-filter locally
		// so "hoc phi" matches "Học phí".
		marks = feedback.Filter(got, query, nil)
	}

	if len(marks) == 0 {
		fmt.Println("No bookmarks found.")
		return
	}
	for _, bm := range marks {
		fmt.Printf("%s  %s\n", bm.CreatedAt.Format("2006-01-02"), bm.Query)
		if len(bm.Tags) > 0 {
			fmt.Println("    tags:", strings.Join(bm.Tags, ", "))
		}
	}
}
