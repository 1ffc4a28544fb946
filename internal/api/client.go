package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gymgo/internal/token"

	"go.uber.org/zap"
)

// Error is a non-2xx backend response. Code and BackendMessage are
// populated when the body carried a JSON error payload.
type Error struct {
	StatusCode     int
	Code           string
	BackendMessage string
	Body           string
}

func (e *Error) Error() string {
	if e.Unauthorized() {
		return fmt.Sprintf("unauthorized (%d)", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// Unauthorized reports whether the backend denied the call outright.
// The client does not clear the stored token on these; callers decide.
func (e *Error) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Client is the generic REST client for the membership backend. It
// injects the stored bearer token on every call when one is present.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     token.Store
	logger     *zap.Logger
}

func New(baseURL string, tokens token.Store, logger *zap.Logger) *Client {
	return NewWithClient(baseURL, &http.Client{}, tokens, logger)
}

// NewWithClient allows supplying the underlying http.Client, mainly so
// tests can install a mock transport.
func NewWithClient(baseURL string, httpClient *http.Client, tokens token.Store, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger.With(zap.String("component", "api_client")),
	}
}

func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("could not build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	bearer, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Warn("failed to read stored token", zap.Error(err))
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode, Body: string(raw)}

		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Error   struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Code = payload.Code
			apiErr.BackendMessage = payload.Message
			if apiErr.Code == "" {
				apiErr.Code = payload.Error.Code
			}
			if apiErr.BackendMessage == "" {
				apiErr.BackendMessage = payload.Error.Message
			}
		}

		c.logger.Warn("backend returned error status",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("invalid JSON structure: %w", err)
		}
		return nil
	}

	if text, ok := out.(*string); ok {
		*text = string(raw)
		return nil
	}
	return fmt.Errorf("unexpected content type: %s", contentType)
}
