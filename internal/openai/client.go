// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openai

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for the OpenAI API.
const (
	// DefaultBaseURL is the base URL for the OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the completion model used when none is configured.
	DefaultModel = "gpt-3.5-turbo"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 60 * time.Second

	// MaxAttempts is the maximum number of completion requests per call,
	// including the first one.
	MaxAttempts = 3

	// BaseBackoff is the delay before the first retry; each further retry
	// doubles it (2s, 4s).
	BaseBackoff = 2 * time.Second

	// DefaultMaxTokens caps the length of completion responses.
	DefaultMaxTokens = 150

	// DefaultTemperature is the sampling temperature for completions.
	DefaultTemperature = 0.7

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// sharedHTTPClient is used for all API requests. Connection pooling keeps
// repeated calls on warm connections.
var sharedHTTPClient = &http.Client{
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

// Error variables for common API failures.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("OpenAI API key not configured")

	// ErrAuthFailed indicates authentication failed (invalid or expired key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrThrottled indicates the provider returned HTTP 429. This is the
	// only retryable completion failure.
	ErrThrottled = errors.New("throttled")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")
)

// APIError represents an error response from the OpenAI API.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("OpenAI error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("OpenAI error (HTTP %d): %s", e.Status, e.Message)
}

// CompletionError is the terminal failure of a Complete call: retries were
// exhausted or a non-retryable error occurred. Err carries the last
// underlying error for diagnostics.
type CompletionError struct {
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed after %d attempt(s): %v", e.Attempts, e.Err)
}

// Unwrap returns the last underlying error.
func (e *CompletionError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is an HTTP client for the OpenAI chat completion and moderation
// endpoints.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	maxAttempts int
	baseBackoff time.Duration
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// NewClient creates a new client with the given API key.
//
// If the key is empty the client is still created, but Complete and
// Moderate fail with ErrNotConfigured.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:      strings.TrimSpace(apiKey),
		baseURL:     DefaultBaseURL,
		model:       DefaultModel,
		maxAttempts: MaxAttempts,
		baseBackoff: BaseBackoff,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		httpClient:  sharedHTTPClient,
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithModel sets the completion model.
func (c *Client) WithModel(model string) *Client {
	if model != "" {
		c.model = model
	}
	return c
}

// WithMaxAttempts sets the maximum number of completion requests per call.
func (c *Client) WithMaxAttempts(n int) *Client {
	if n > 0 {
		c.maxAttempts = n
	}
	return c
}

// WithBaseBackoff sets the delay before the first retry. Tests use this to
// avoid multi-second sleeps.
func (c *Client) WithBaseBackoff(d time.Duration) *Client {
	if d > 0 {
		c.baseBackoff = d
	}
	return c
}

// WithMaxTokens sets the completion response token cap.
func (c *Client) WithMaxTokens(n int) *Client {
	if n > 0 {
		c.maxTokens = n
	}
	return c
}

// WithHTTPClient sets a custom HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// IsConfigured returns true if the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Model returns the configured completion model.
func (c *Client) Model() string {
	return c.model
}

// =============================================================================
// COMPLETION WITH BOUNDED RETRY
// =============================================================================

// Complete issues a chat completion request with the system prompt
// prepended to the history and returns the trimmed response text.
//
// Only a throttling response (HTTP 429) is retried, with exponential
// backoff, up to the configured attempt limit. Every other failure is
// terminal. The retry loop is explicit so stack depth stays bounded and
// context cancellation interrupts the backoff sleep.
func (c *Client) Complete(ctx context.Context, systemPrompt string, history []ChatMessage) (string, error) {
	if !c.IsConfigured() {
		return "", &CompletionError{Attempts: 0, Err: ErrNotConfigured}
	}

	messages := make([]ChatMessage, 0, len(history)+1)
	messages = append(messages, NewSystemMessage(systemPrompt))
	messages = append(messages, history...)

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		// Backoff before each retry: 2s, 4s, ...
		if attempt > 0 {
			delay := c.baseBackoff << uint(attempt-1)
			log.Printf("completion throttled, retrying in %v (attempt %d/%d)",
				delay, attempt+1, c.maxAttempts)
			select {
			case <-ctx.Done():
				return "", &CompletionError{Attempts: attempt, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		text, err := c.doCompletion(ctx, reqBody)
		if err == nil {
			return strings.TrimSpace(text), nil
		}

		lastErr = err
		if !errors.Is(err, ErrThrottled) {
			return "", &CompletionError{Attempts: attempt + 1, Err: err}
		}
	}

	return "", &CompletionError{Attempts: c.maxAttempts, Err: lastErr}
}

// doCompletion performs a single request to the chat completions endpoint.
func (c *Client) doCompletion(ctx context.Context, reqBody chatRequest) (string, error) {
	body, err := c.post(ctx, c.baseURL+"/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}
	return resp.content(), nil
}

// =============================================================================
// MODERATION
// =============================================================================

// Moderate submits text to the moderation endpoint and returns the flagged
// bit of the first result. Exactly one attempt; transport and parse errors
// propagate to the caller (the policy layer decides what a failure means).
func (c *Client) Moderate(ctx context.Context, text string) (bool, error) {
	if !c.IsConfigured() {
		return false, ErrNotConfigured
	}

	body, err := c.post(ctx, c.baseURL+"/moderations", moderationRequest{Input: text})
	if err != nil {
		return false, err
	}

	var resp moderationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("failed to parse moderation response: %w", err)
	}
	if len(resp.Results) == 0 {
		return false, errors.New("moderation response contained no results")
	}
	return resp.Results[0].Flagged, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// post marshals the request body, issues a POST, and returns the raw
// response body on 200.
func (c *Client) post(ctx context.Context, url string, reqBody any) ([]byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "deskchat/"+userAgentVersion)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("API response: %s %d (%v)", req.URL.Path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

// userAgentVersion is stamped into the User-Agent header.
var userAgentVersion = "0.1.0"

// readResponse reads the response body with a size cap so a misbehaving
// endpoint cannot exhaust memory.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to Go errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		wrapped := &APIError{
			Code:    apiErr.Error.Code,
			Message: apiErr.Error.Message,
			Status:  statusCode,
		}
		switch statusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrAuthFailed, wrapped.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrModelNotFound, wrapped.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrThrottled, wrapped.Message)
		default:
			return wrapped
		}
	}

	// Fallback for unparseable error bodies.
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		return &APIError{Message: string(body), Status: statusCode}
	}
}
