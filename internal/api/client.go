package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// secretParams are query parameters whose values never appear in errors.
var secretParams = []string{"apikey", "api_key", "key", "token"}

// HTTPError is returned for any non-200 response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// RateLimiter enforces a minimum delay between outbound calls. One instance
// is shared by every client that talks to the same provider.
type RateLimiter struct {
	mu       sync.Mutex
	minDelay time.Duration
	last     time.Time
}

// NewRateLimiter creates a limiter allowing one call per minDelay.
func NewRateLimiter(minDelay time.Duration) *RateLimiter {
	return &RateLimiter{minDelay: minDelay}
}

// Wait blocks until minDelay has elapsed since the previous call was let
// through. Callers are served one at a time.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.last.IsZero() {
		if remaining := rl.minDelay - time.Since(rl.last); remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	rl.last = time.Now()
	return nil
}

// RateLimitedClient wraps http.Client with a shared rate limiter and a fixed
// per-call timeout. It never retries.
type RateLimitedClient struct {
	client  *http.Client
	limiter *RateLimiter
}

// NewRateLimitedClient creates a client gated by limiter.
func NewRateLimitedClient(limiter *RateLimiter, timeout time.Duration) *RateLimitedClient {
	return &RateLimitedClient{
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
	}
}

// Get performs a rate-limited GET request and returns the body and response
// headers of a 200 response.
// Transport errors carry the request URL with credentials redacted.
func (c *RateLimitedClient) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, http.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", redactError(err))
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, redactError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, resp.Header, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.Header, fmt.Errorf("reading body: %w", err)
	}
	return body, resp.Header, nil
}

func redactError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = RedactURL(urlErr.URL)
	}
	return err
}

// RedactURL masks credential query parameters in rawURL. Unparseable URLs
// lose their whole query string.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		if i := strings.IndexByte(rawURL, '?'); i >= 0 {
			return rawURL[:i] + "?REDACTED"
		}
		return rawURL
	}

	q := u.Query()
	changed := false
	for k := range q {
		for _, secret := range secretParams {
			if strings.EqualFold(k, secret) {
				q.Set(k, "REDACTED")
				changed = true
			}
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
