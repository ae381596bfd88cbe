package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jpillora/backoff"
)

// Client is an HTTP client with a base URL, pluggable auth and retry logic.
type Client struct {
	baseURL    string
	auth       func(*http.Request)
	httpClient *http.Client
	maxRetries int
	minBackoff time.Duration
	maxBackoff time.Duration
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
	retryAfter string // internal: Retry-After header value for 429s
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithBasicAuth authenticates every request with HTTP basic auth.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.auth = func(r *http.Request) { r.SetBasicAuth(username, password) }
	}
}

// WithBearerToken authenticates every request with a Bearer token.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.auth = func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
	}
}

// WithRetries sets the maximum number of retries after the first attempt. Default: 3.
func WithRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithBackoff sets the exponential backoff bounds between retries. Default: 1s to 8s.
func WithBackoff(min, max time.Duration) Option {
	return func(c *Client) {
		c.minBackoff = min
		c.maxBackoff = max
	}
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
		minBackoff: time.Second,
		maxBackoff: 8 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON sends a GET request and unmarshals the JSON response into dest.
// Returns *APIError for non-2xx responses. Retries on 429 (honouring
// Retry-After) and 5xx with exponential backoff.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, dest any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	b := &backoff.Backoff{Min: c.minBackoff, Max: c.maxBackoff, Factor: 2}
	var lastErr *APIError
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := retryDelay(b, lastErr)
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.auth != nil {
			c.auth(req)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return json.Unmarshal(body, dest)
		}

		bodyStr := string(body)
		if len(bodyStr) > 512 {
			bodyStr = bodyStr[:512]
		}

		apiErr := &APIError{StatusCode: resp.StatusCode, Body: bodyStr}

		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr.retryAfter = resp.Header.Get("Retry-After")
			lastErr = apiErr
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = apiErr
			continue
		}

		return apiErr
	}

	return lastErr
}

// retryDelay returns the wait before the next attempt. A numeric Retry-After
// on a 429 wins over the backoff schedule.
func retryDelay(b *backoff.Backoff, lastErr *APIError) time.Duration {
	next := b.Duration()
	if lastErr != nil && lastErr.StatusCode == http.StatusTooManyRequests && lastErr.retryAfter != "" {
		if secs, err := strconv.Atoi(lastErr.retryAfter); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return next
}
