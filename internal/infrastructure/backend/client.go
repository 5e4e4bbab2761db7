// Package backend talks JSON to the MediConnect API and folds its
// heterogeneous reply shapes into the domain model. The wire format is
// snake_case; nothing outside this package sees a raw payload.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
)

const defaultTimeout = 30 * time.Second

// Client implements domain.APIClient over net/http.
type Client struct {
	http    *http.Client
	baseURL string
	log     zerolog.Logger
	token   func(ctx context.Context) string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithTokenSource supplies the bearer token for authorized endpoints.
// An empty return means the request goes out unauthenticated.
func WithTokenSource(source func(ctx context.Context) string) Option {
	return func(c *Client) { c.token = source }
}

// NewClient creates an API client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post implements domain.APIClient.
func (c *Client) Post(ctx context.Context, path string, body any) (*domain.APIResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(payload))
}

// Get implements domain.APIClient.
func (c *Client) Get(ctx context.Context, path string) (*domain.APIResponse, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*domain.APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if token := c.token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("request completed")

	if resp.StatusCode >= 400 {
		return nil, &domain.APIError{Status: resp.StatusCode, Body: data}
	}
	return &domain.APIResponse{Status: resp.StatusCode, Body: data}, nil
}

var _ domain.APIClient = (*Client)(nil)
