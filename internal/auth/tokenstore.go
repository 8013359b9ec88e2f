// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth holds the client's view of the logged-in user and the
// on-disk token store.
//
// The backend issues a bearer token at login; the client persists only
// that token (never message content) and keeps it encrypted at rest
// with AES-256-GCM under a key derived from a machine-local secret via
// PBKDF2-SHA-256.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/morganforge/unibot-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// NonceSize is the AES-GCM nonce size (96 bits).
	NonceSize = 12
	// KeySize is the AES-256 key size.
	KeySize = 32
	// SaltSize is the PBKDF2 salt size.
	SaltSize = 32
	// PBKDF2Iterations follows the OWASP recommendation for
	// PBKDF2-SHA-256.
	PBKDF2Iterations = 600000

	tokenFile  = "token.enc"
	secretFile = "machine.key"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotLoggedIn indicates no stored token exists.
	ErrNotLoggedIn = errors.New("not logged in: run 'unibot login'")
	// ErrTokenCorrupt indicates the stored token failed authentication
	// (tampered file or a key from another machine).
	ErrTokenCorrupt = errors.New("stored token is corrupt")
)

// =============================================================================
// TOKEN STORE
// =============================================================================

// TokenStore persists the backend bearer token under dir, encrypted
// at rest.
type TokenStore struct {
	dir string
}

// NewTokenStore creates a store rooted at the default directory
// (~/.unibot).
func NewTokenStore() (*TokenStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}
	return NewTokenStoreAt(filepath.Join(home, ".unibot")), nil
}

// NewTokenStoreAt creates a store rooted at an explicit directory.
func NewTokenStoreAt(dir string) *TokenStore {
	return &TokenStore{dir: dir}
}

// Save encrypts and persists the token.
func (s *TokenStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token must not be empty")
	}

	key, salt, err := s.deriveKey()
	if err != nil {
		return err
	}
	defer zeroBytes(key)

	aead, err := newAEAD(key)
	if err != nil {
		return err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, []byte(token), nil)

	// File layout: base64(salt | nonce | ciphertext+tag)
	blob := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)
	encoded := base64.StdEncoding.EncodeToString(blob)

	return util.AtomicWriteFile(filepath.Join(s.dir, tokenFile), []byte(encoded), 0600)
}

// Load decrypts and returns the stored token.
func (s *TokenStore) Load() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotLoggedIn
		}
		return "", err
	}

	blob, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil || len(blob) < SaltSize+NonceSize+1 {
		return "", ErrTokenCorrupt
	}

	salt := blob[:SaltSize]
	nonce := blob[SaltSize : SaltSize+NonceSize]
	sealed := blob[SaltSize+NonceSize:]

	secret, err := s.machineSecret()
	if err != nil {
		return "", err
	}
	key := pbkdf2.Key(secret, salt, PBKDF2Iterations, KeySize, sha256.New)
	defer zeroBytes(key)

	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	token, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrTokenCorrupt
	}
	return string(token), nil
}

// Clear removes the stored token. Clearing an empty store is not an
// error.
func (s *TokenStore) Clear() error {
	err := os.Remove(filepath.Join(s.dir, tokenFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// HasToken reports whether a stored token exists (without decrypting).
func (s *TokenStore) HasToken() bool {
	_, err := os.Stat(filepath.Join(s.dir, tokenFile))
	return err == nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// deriveKey generates a fresh salt and derives the sealing key from
// the machine-local secret.
func (s *TokenStore) deriveKey() (key, salt []byte, err error) {
	secret, err := s.machineSecret()
	if err != nil {
		return nil, nil, err
	}

	salt = make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key = pbkdf2.Key(secret, salt, PBKDF2Iterations, KeySize, sha256.New)
	return key, salt, nil
}

// machineSecret returns the machine-local random secret, creating it
// on first use with 0600 permissions.
func (s *TokenStore) machineSecret() ([]byte, error) {
	path := filepath.Join(s.dir, secretFile)

	data, err := os.ReadFile(path)
	if err == nil && len(data) == KeySize {
		return data, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	secret := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return nil, fmt.Errorf("failed to generate machine secret: %w", err)
	}
	if err := util.AtomicWriteFile(path, secret, 0600); err != nil {
		return nil, err
	}
	return secret, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// zeroBytes zeros key material after use.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
