package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jpillora/backoff"

	"github.com/crimson-sun/orgtree/internal/output"
	"github.com/crimson-sun/orgtree/internal/tree"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	defaultMinBackoff = time.Second
	defaultMaxBackoff = 8 * time.Second
)

// Option configures a webhook Output.
type Option func(*Output)

// WithHeaders sets custom HTTP headers sent with every POST.
func WithHeaders(h map[string]string) Option {
	return func(o *Output) { o.headers = h }
}

// WithTimeout sets the HTTP client timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *Output) { o.client.Timeout = d }
}

// WithRetries sets how many times a 5xx response is retried. Default: 3.
func WithRetries(n int) Option {
	return func(o *Output) { o.maxRetries = n }
}

// WithBackoff sets the retry delay bounds. Default: 1s to 8s.
func WithBackoff(min, max time.Duration) Option {
	return func(o *Output) { o.minBackoff, o.maxBackoff = min, max }
}

// Output POSTs the tree document to an HTTP endpoint. Retries on 5xx with
// exponential backoff.
type Output struct {
	client     *http.Client
	url        string
	headers    map[string]string
	maxRetries int
	minBackoff time.Duration
	maxBackoff time.Duration
}

// New creates a webhook output targeting the given URL.
func New(url string, opts ...Option) *Output {
	o := &Output{
		client:     &http.Client{Timeout: defaultTimeout},
		url:        url,
		maxRetries: defaultMaxRetries,
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Write sends t as the request body.
func (o *Output) Write(ctx context.Context, t tree.Tree) error {
	var buf bytes.Buffer
	if err := output.Encode(&buf, t); err != nil {
		return fmt.Errorf("webhook: encode: %w", err)
	}
	return o.postWithRetry(ctx, buf.Bytes())
}

// Close is a no-op; Write delivers synchronously.
func (o *Output) Close() error {
	return nil
}

// postWithRetry sends the body via HTTP POST with retry on 5xx.
func (o *Output) postWithRetry(ctx context.Context, body []byte) error {
	b := &backoff.Backoff{Min: o.minBackoff, Max: o.maxBackoff, Factor: 2}

	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.Duration()):
			case <-ctx.Done():
				return fmt.Errorf("webhook: %w", ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range o.headers {
			req.Header.Set(k, v)
		}

		resp, err := o.client.Do(req)
		if err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		lastErr = fmt.Errorf("webhook: HTTP %d", resp.StatusCode)

		// Only retry on 5xx server errors.
		if resp.StatusCode < 500 {
			return lastErr
		}
	}
	return lastErr
}
