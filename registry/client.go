// Package registry acquires the code registry a validation run checks against.
//
// The registry is served as JSON of the form
//
//	{"results": [{"codeName": "...", "code": "...", "description": "..."}, ...]}
//
// Client reaches it over HTTP with a single timeout and retry policy;
// FileSource reads a saved copy; CachedSource keeps the last good snapshot
// in a Store such as Redis and falls back to it when the endpoint is down.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	ev "github.com/uvacab/ev5validator"
	"github.com/uvacab/ev5validator/pkg/logger"
)

const (
	// DefaultURL is the NHTSA NCODES registry endpoint.
	DefaultURL = "https://nrd.api.nhtsa.dot.gov/nhtsa/nhtsadb/api/v1/ncodes"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 10 * time.Second

	// DefaultRetries is the number of attempts made by Fetch.
	DefaultRetries = 3

	// DefaultBackoff is the wait before the second attempt; it doubles after.
	DefaultBackoff = 500 * time.Millisecond

	// maxBodySize bounds a registry response.
	maxBodySize = 64 * 1024 * 1024
)

// Source supplies registry triples.
type Source interface {
	// Ping reports whether the source is usable, with the reason when not.
	Ping(ctx context.Context) error

	// Fetch returns the full registry at a single point in time.
	Fetch(ctx context.Context) ([]ev.RegistryCode, error)
}

// Response is the registry's wire format.
type Response struct {
	Results []ev.RegistryCode `json:"results"`
}

// Client is an HTTP registry client.
type Client struct {
	httpClient *http.Client
	url        string
	retries    int
	backoff    time.Duration
	checks     []*Check
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithURL sets a custom registry URL.
func WithURL(url string) ClientOption {
	return func(c *Client) {
		c.url = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRetries sets the number of Fetch attempts. Values below 1 mean 1.
func WithRetries(n int) ClientOption {
	return func(c *Client) {
		if n < 1 {
			n = 1
		}
		c.retries = n
	}
}

// WithBackoff sets the initial wait between attempts.
func WithBackoff(d time.Duration) ClientOption {
	return func(c *Client) {
		c.backoff = d
	}
}

// WithChecks adds response checks run by Ping after the built-in ones.
func WithChecks(checks ...*Check) ClientOption {
	return func(c *Client) {
		c.checks = append(c.checks, checks...)
	}
}

// NewClient creates a new registry client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		url:     DefaultURL,
		retries: DefaultRetries,
		backoff: DefaultBackoff,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// URL returns the registry URL.
func (c *Client) URL() string {
	return c.url
}

// Ping performs one request and checks the response has the registry shape:
// a JSON object whose "results" list has at least one entry with a "code".
func (c *Client) Ping(ctx context.Context) error {
	body, err := c.get(ctx)
	if err != nil {
		return err
	}

	if !json.Valid(body) {
		return &PingError{Reason: "response is not valid JSON"}
	}

	var shape struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &shape); err != nil || len(shape.Results) == 0 || shape.Results[0] != '[' {
		return &PingError{Reason: "unexpected JSON structure (missing 'results')"}
	}

	var results []map[string]json.RawMessage
	if err := json.Unmarshal(shape.Results, &results); err != nil {
		return &PingError{Reason: "unexpected JSON structure (missing 'results')"}
	}
	if len(results) == 0 {
		return &PingError{Reason: "no 'code' field found in response"}
	}
	if _, ok := results[0]["code"]; !ok {
		return &PingError{Reason: "no 'code' field found in response"}
	}

	for _, chk := range c.checks {
		if err := chk.Run(body); err != nil {
			return &PingError{Reason: err.Error()}
		}
	}
	return nil
}

// Fetch downloads the registry, retrying transport failures and 5xx
// responses with exponential backoff. An empty result list is not an error
// here; the snapshot rejects it.
func (c *Client) Fetch(ctx context.Context) ([]ev.RegistryCode, error) {
	var lastErr error
	wait := c.backoff

	for attempt := 1; attempt <= c.retries; attempt++ {
		body, err := c.get(ctx)
		if err == nil {
			var resp Response
			if err := json.Unmarshal(body, &resp); err != nil {
				return nil, &ev.RegistryError{Index: -1, Reason: fmt.Sprintf("decode response: %v", err)}
			}
			logger.Debug("fetched %d registry codes from %s (attempt %d)", len(resp.Results), c.url, attempt)
			return resp.Results, nil
		}

		lastErr = err
		if !retryable(err) || attempt == c.retries {
			break
		}

		logger.Debug("registry fetch attempt %d failed: %v; retrying in %s", attempt, err, wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}

	return nil, fmt.Errorf("fetch registry: %w", lastErr)
}

func (c *Client) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &PingError{Reason: "request failed", Err: err, temporary: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &PingError{
			Reason:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
			temporary: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &PingError{Reason: "read response", Err: err, temporary: true}
	}
	return body, nil
}

// PingError explains why the registry is not usable.
type PingError struct {
	Reason string
	Err    error

	temporary bool
}

func (e *PingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registry unavailable: %s: %v", e.Reason, e.Err)
	}
	return "registry unavailable: " + e.Reason
}

func (e *PingError) Unwrap() error { return e.Err }

func retryable(err error) bool {
	var pe *PingError
	return errors.As(err, &pe) && pe.temporary
}

var _ Source = (*Client)(nil)
