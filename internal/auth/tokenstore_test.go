// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTokenStoreRoundTrip(t *testing.T) {
	store := NewTokenStoreAt(t.TempDir())

	const token = "eyJhbGciOiJIUzI1NiJ9.unibot-test-token"
	if err := store.Save(token); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != token {
		t.Errorf("Load = %q, want %q", got, token)
	}
}

func TestTokenStoreEncryptedAtRest(t *testing.T) {
	dir := t.TempDir()
	store := NewTokenStoreAt(dir)

	const token = "plaintext-should-not-appear"
	if err := store.Save(token); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, tokenFile))
	if err != nil {
		t.Fatalf("read token file: %v", err)
	}
	if strings.Contains(string(raw), token) {
		t.Error("token stored in plaintext")
	}

	info, err := os.Stat(filepath.Join(dir, tokenFile))
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token file permissions = %o, want 0600", perm)
	}
}

func TestTokenStoreNotLoggedIn(t *testing.T) {
	store := NewTokenStoreAt(t.TempDir())

	if _, err := store.Load(); err != ErrNotLoggedIn {
		t.Errorf("Load on empty store = %v, want ErrNotLoggedIn", err)
	}
	if store.HasToken() {
		t.Error("HasToken = true on empty store")
	}
}

func TestTokenStoreClear(t *testing.T) {
	store := NewTokenStoreAt(t.TempDir())

	if err := store.Save("tok"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := store.Load(); err != ErrNotLoggedIn {
		t.Errorf("Load after Clear = %v, want ErrNotLoggedIn", err)
	}

	// Clearing again is not an error.
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear failed: %v", err)
	}
}

func TestTokenStoreTamperDetected(t *testing.T) {
	dir := t.TempDir()
	store := NewTokenStoreAt(dir)

	if err := store.Save("tok"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	path := filepath.Join(dir, tokenFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read token file: %v", err)
	}
	// Flip a character in the base64 payload.
	tampered := []byte(string(raw))
	if tampered[len(tampered)/2] == 'A' {
		tampered[len(tampered)/2] = 'B'
	} else {
		tampered[len(tampered)/2] = 'A'
	}
	if err := os.WriteFile(path, tampered, 0600); err != nil {
		t.Fatalf("write tampered file: %v", err)
	}

	if _, err := store.Load(); err != ErrTokenCorrupt {
		t.Errorf("Load on tampered file = %v, want ErrTokenCorrupt", err)
	}
}

func TestTokenStoreRejectsEmptyToken(t *testing.T) {
	store := NewTokenStoreAt(t.TempDir())
	if err := store.Save("  "); err == nil {
		t.Error("Save accepted empty token")
	}
}

func TestContextLifecycle(t *testing.T) {
	store := NewTokenStoreAt(t.TempDir())
	ctx := NewContext(store)

	if ctx.Authenticated() {
		t.Error("new context reports authenticated")
	}
	if err := ctx.Restore(); err != ErrNotLoggedIn {
		t.Errorf("Restore on empty store = %v, want ErrNotLoggedIn", err)
	}

	if err := ctx.Login("u_42", "Linh", "tok-abc"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !ctx.Authenticated() {
		t.Error("not authenticated after Login")
	}
	if ctx.UserID() != "u_42" || ctx.Name() != "Linh" || ctx.Token() != "tok-abc" {
		t.Errorf("identity = (%q, %q, %q)", ctx.UserID(), ctx.Name(), ctx.Token())
	}

	// A fresh context restores the persisted token.
	ctx2 := NewContext(store)
	if err := ctx2.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if ctx2.Token() != "tok-abc" {
		t.Errorf("restored token = %q, want %q", ctx2.Token(), "tok-abc")
	}

	if err := ctx.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if ctx.Authenticated() || ctx.Token() != "" {
		t.Error("still authenticated after Logout")
	}
	if store.HasToken() {
		t.Error("token file remains after Logout")
	}
}

func TestRestorePrefersEnvToken(t *testing.T) {
	store := NewTokenStoreAt(t.TempDir())
	if err := store.Save("stored-tok"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv(TokenEnvVar, "env-tok")
	ctx := NewContext(store)
	if err := ctx.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if ctx.Token() != "env-tok" {
		t.Errorf("token = %q, want the env override", ctx.Token())
	}
	// The override must not leak into the store.
	if got, _ := store.Load(); got != "stored-tok" {
		t.Errorf("stored token = %q, want %q", got, "stored-tok")
	}

	// Env token works without any store at all.
	ephemeral := NewContext(nil)
	if err := ephemeral.Restore(); err != nil {
		t.Fatalf("Restore without store failed: %v", err)
	}
	if !ephemeral.Authenticated() {
		t.Error("env token did not authenticate a storeless context")
	}
}
