// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrAuthFailed indicates 401/403 from the backend.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates HTTP 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound indicates the addressed resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest indicates a request rejected locally before
	// any network call.
	ErrInvalidRequest = errors.New("invalid request")
)

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("API error (status %d): %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap maps well-known status codes onto sentinel errors so callers
// can match with errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case 401, 403:
		return ErrAuthFailed
	case 404:
		return ErrNotFound
	case 429:
		return ErrRateLimited
	}
	return nil
}

// Retryable reports whether the error is worth retrying. Client
// errors (4xx) never are.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500
}

// StreamError is a stream that broke mid-flight. Partial content
// received before the break is preserved so the caller can keep it.
type StreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}
