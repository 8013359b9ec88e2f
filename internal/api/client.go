// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the transport adapter for the university assistant
// backend. It covers both call shapes the backend exposes (single-shot
// query and incremental SSE stream) plus the session, feedback and
// bookmark CRUD surfaces.
//
// RELIABILITY: Retry logic, typed errors, and response size limits
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/morganforge/unibot-tui/internal/auth"
	"github.com/morganforge/unibot-tui/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL points at a locally running backend.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout is the default timeout for non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default number of attempts for
	// transient failures.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay caps the exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	// MaxAudioSize is the maximum accepted voice upload.
	MaxAudioSize = 25 * 1024 * 1024 // 25MB
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	// Shared HTTP client for all non-streaming requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient has no timeout; stream lifetime is
	// context-controlled.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the assistant backend. Zero value is not usable;
// construct with NewClient.
type Client struct {
	baseURL    string
	auth       *auth.Context
	httpClient *http.Client
	streamHTTP *http.Client
	maxRetries int
}

// NewClient creates a client for the given base URL. authCtx supplies
// the bearer token; it may be unauthenticated for public endpoints.
func NewClient(baseURL string, authCtx *auth.Context) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		auth:       authCtx,
		httpClient: sharedHTTPClient,
		streamHTTP: sharedStreamingClient,
		maxRetries: DefaultMaxRetries,
	}
}

// WithMaxRetries sets the retry budget for transient failures.
func (c *Client) WithMaxRetries(n int) *Client {
	if n > 0 {
		c.maxRetries = n
	}
	return c
}

// WithHTTPClient overrides both HTTP clients. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streamHTTP = hc
	return c
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.auth != nil {
		if token := c.auth.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// calculateBackoff returns the delay before the given retry attempt.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := time.Duration(float64(retryBaseDelay) * math.Pow(2, float64(attempt-1)))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// readResponse reads a body with the size cap enforced.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// errorFromResponse converts a non-2xx response into an *APIError.
func errorFromResponse(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Message: http.StatusText(statusCode)}

	var envelope apiErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case envelope.Error.Message != "":
			apiErr.Message = envelope.Error.Message
			apiErr.Detail = envelope.Error.Detail
		case envelope.Detail != "":
			apiErr.Message = envelope.Detail
		case envelope.Message != "":
			apiErr.Message = envelope.Message
		}
	}
	return apiErr
}

// doJSON performs a JSON request with retry on 5xx and network
// failures. 4xx responses return immediately.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, out any) error {
	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.calculateBackoff(attempt)):
			}
		}

		var body io.Reader
		if bodyBytes != nil {
			body = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		respBody, readErr := readResponse(resp)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := errorFromResponse(resp.StatusCode, respBody)
			if ae, ok := apiErr.(*APIError); ok && ae.Retryable() {
				lastErr = apiErr
				continue
			}
			return apiErr
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// =============================================================================
// QUERY
// =============================================================================

// Query performs a single-shot smart query and returns the full
// answer payload.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp QueryResponse
	if err := c.doJSON(ctx, http.MethodPost, "/smart-query", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VoiceQuery uploads an audio file as multipart form data and returns
// the transcription plus the answer.
func (c *Client) VoiceQuery(ctx context.Context, audioPath, sessionID, language string) (*VoiceResponse, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if info.Size() > MaxAudioSize {
		return nil, fmt.Errorf("%w: audio file exceeds %d bytes", ErrInvalidRequest, MaxAudioSize)
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	if sessionID != "" {
		_ = mw.WriteField("session_id", sessionID)
	}
	if language != "" {
		_ = mw.WriteField("language", language)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/multimodal/voice-query", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.auth != nil {
		if token := c.auth.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	// Large uploads are not retried; the body is consumed per attempt.
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(resp.StatusCode, body)
	}

	var voice VoiceResponse
	if err := json.Unmarshal(body, &voice); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &voice, nil
}

// =============================================================================
// SESSIONS
// =============================================================================

// CreateSession creates a session, optionally titled.
func (c *Client) CreateSession(ctx context.Context, title string) (*model.Session, error) {
	var sess model.Session
	if err := c.doJSON(ctx, http.MethodPost, "/chat/sessions", sessionRequest{Title: title}, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListSessions fetches all sessions for the authenticated user.
func (c *Client) ListSessions(ctx context.Context) ([]model.Session, error) {
	var resp sessionListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/chat/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// GetSession fetches a single session by id.
func (c *Client) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var sess model.Session
	if err := c.doJSON(ctx, http.MethodGet, "/chat/sessions/"+url.PathEscape(id), nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// RenameSession updates a session title. A missing id surfaces
// ErrNotFound.
func (c *Client) RenameSession(ctx context.Context, id, title string) error {
	return c.doJSON(ctx, http.MethodPut, "/chat/sessions/"+url.PathEscape(id), sessionRequest{Title: title}, nil)
}

// DeleteSession removes a session. A missing id surfaces ErrNotFound.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/chat/sessions/"+url.PathEscape(id), nil, nil)
}

// =============================================================================
// FEEDBACK
// =============================================================================

// SubmitFeedback records a rating for a message. The backend treats
// the call as an overwrite keyed by message id.
func (c *Client) SubmitFeedback(ctx context.Context, messageID string, fb model.Feedback) error {
	if !fb.Type.Valid() {
		return fmt.Errorf("%w: unknown feedback type %q", ErrInvalidRequest, fb.Type)
	}
	body := feedbackRequest{Type: fb.Type, Comment: fb.Comment, Categories: fb.Categories}
	return c.doJSON(ctx, http.MethodPost, "/chat/messages/"+url.PathEscape(messageID)+"/feedback", body, nil)
}

// =============================================================================
// BOOKMARKS
// =============================================================================

// CreateBookmark saves a query/response pair.
func (c *Client) CreateBookmark(ctx context.Context, query, response string, tags []string) (*model.Bookmark, error) {
	if query == "" || response == "" {
		return nil, fmt.Errorf("%w: bookmark requires query and response", ErrInvalidRequest)
	}
	var bm model.Bookmark
	if err := c.doJSON(ctx, http.MethodPost, "/bookmarks", bookmarkRequest{Query: query, Response: response, Tags: tags}, &bm); err != nil {
		return nil, err
	}
	return &bm, nil
}

// ListBookmarks fetches all bookmarks.
func (c *Client) ListBookmarks(ctx context.Context) ([]model.Bookmark, error) {
	var resp bookmarkListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/bookmarks", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Bookmarks, nil
}

// DeleteBookmark removes a bookmark. A missing id surfaces
// ErrNotFound.
func (c *Client) DeleteBookmark(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/bookmarks/"+url.PathEscape(id), nil, nil)
}

// SearchBookmarks queries the backend bookmark index.
func (c *Client) SearchBookmarks(ctx context.Context, query string, tags []string) ([]model.Bookmark, error) {
	params := url.Values{}
	params.Set("q", query)
	if len(tags) > 0 {
		params.Set("tags", strings.Join(tags, ","))
	}
	var resp bookmarkListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/bookmarks/search?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Bookmarks, nil
}

// =============================================================================
// AUTH
// =============================================================================

// LoginResponse is the payload of POST /auth/login.
type LoginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
}

// Login exchanges credentials for a bearer token. The caller decides
// whether to persist it.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password required", ErrInvalidRequest)
	}
	body := map[string]string{"username": username, "password": password}
	var resp LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
