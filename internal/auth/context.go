// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"os"
	"sync"
)

// TokenEnvVar overrides the persisted token when set. It is never
// written to the on-disk store, so CI and one-off shells can inject a
// token without touching the login state.
const TokenEnvVar = "UNIBOT_TOKEN"

// Context is the client's view of the logged-in user. It is created
// once at startup and handed to the components that need it; nothing
// reads it from a package-level global.
type Context struct {
	mu sync.RWMutex

	userID string
	name   string
	token  string

	store *TokenStore
}

// NewContext creates an unauthenticated context backed by store.
// store may be nil for ephemeral (in-memory) sessions.
func NewContext(store *TokenStore) *Context {
	return &Context{store: store}
}

// Restore loads the token from UNIBOT_TOKEN when set, otherwise from
// the persisted store. Returns ErrNotLoggedIn when neither has one.
func (c *Context) Restore() error {
	if token := os.Getenv(TokenEnvVar); token != "" {
		c.mu.Lock()
		c.token = token
		c.mu.Unlock()
		return nil
	}
	if c.store == nil {
		return ErrNotLoggedIn
	}
	token, err := c.store.Load()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

// Login records the authenticated user and persists the token.
func (c *Context) Login(userID, name, token string) error {
	c.mu.Lock()
	c.userID = userID
	c.name = name
	c.token = token
	c.mu.Unlock()

	if c.store != nil {
		return c.store.Save(token)
	}
	return nil
}

// Logout clears the in-memory identity and removes the persisted
// token.
func (c *Context) Logout() error {
	c.mu.Lock()
	c.userID = ""
	c.name = ""
	c.token = ""
	c.mu.Unlock()

	if c.store != nil {
		return c.store.Clear()
	}
	return nil
}

// Token returns the current bearer token, empty when logged out.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// UserID returns the backend user id, empty when unknown.
func (c *Context) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Name returns the display name, empty when unknown.
func (c *Context) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// Authenticated reports whether a token is present.
func (c *Context) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}
