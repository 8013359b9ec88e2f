// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package directory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// SQLite driver (pure Go, no cgo).
	_ "modernc.org/sqlite"

	"github.com/morganforge/unibot-tui/internal/model"
)

// Local read-through cache of the backend session list. The backend
// is always authoritative: a refetch replaces the whole cache, never
// merges into it. Losing the cache file costs nothing but a refetch.

const cacheSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    title TEXT,
    message_count INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
) WITHOUT ROWID;
`

// Cache is the sqlite-backed session list cache.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (and if needed creates) the cache database.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Load returns all cached sessions.
func (c *Cache) Load() ([]model.Session, error) {
	rows, err := c.db.Query(`SELECT id, title, message_count, created_at, updated_at FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var (
			sess               model.Session
			title              sql.NullString
			createdAt, updated int64
		)
		if err := rows.Scan(&sess.ID, &title, &sess.MessageCount, &createdAt, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan cached session: %w", err)
		}
		if title.Valid {
			t := title.String
			sess.Title = &t
		}
		sess.CreatedAt = time.Unix(createdAt, 0)
		sess.UpdatedAt = time.Unix(updated, 0)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ReplaceAll swaps the cache contents for a fresh backend fetch.
func (c *Cache) ReplaceAll(sessions []model.Session) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO sessions (id, title, message_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare cache insert: %w", err)
	}
	defer stmt.Close()

	for _, sess := range sessions {
		var title any
		if sess.Title != nil {
			title = *sess.Title
		}
		if _, err := stmt.Exec(sess.ID, title, sess.MessageCount, sess.CreatedAt.Unix(), sess.UpdatedAt.Unix()); err != nil {
			return fmt.Errorf("failed to cache session %s: %w", sess.ID, err)
		}
	}
	return tx.Commit()
}

// Delete removes one session from the cache.
func (c *Cache) Delete(id string) error {
	_, err := c.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// Rename updates a cached session's title and activity timestamp.
func (c *Cache) Rename(id, title string, updatedAt time.Time) error {
	_, err := c.db.Exec(`UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?`, title, updatedAt.Unix(), id)
	return err
}

// Reset drops all cached rows. Used when the cache looks corrupt; the
// next refresh repopulates it.
func (c *Cache) Reset() error {
	_, err := c.db.Exec(`DELETE FROM sessions`)
	return err
}
