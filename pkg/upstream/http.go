package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// maxErrorBody bounds how much of an upstream error body is retained in
// error messages.
const maxErrorBody = 64 * 1024

// Config contains the connection settings for the invoker.
type Config struct {
	// BaseURL is the serving-endpoints base URL.
	BaseURL string

	// Token is the bearer token. Treated as opaque; never logged.
	Token string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts for transient failures.
	// Client errors (4xx) are never retried.
	MaxRetries int

	// MaxIdleConns is the maximum number of idle pooled connections.
	MaxIdleConns int

	// MaxIdleConnsPerHost is the per-host idle connection limit.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains pooled.
	IdleConnTimeout time.Duration
}

// newHTTPClient builds the pooled HTTP client used for invocations.
func newHTTPClient(cfg Config) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
}

// doRequest performs an HTTP request against the serving endpoint with
// retry for transient errors (5xx and network failures), using exponential
// backoff. Authentication, rate-limit, and other client errors surface
// immediately as typed errors and are never retried.
//
// On success the caller owns resp.Body and must close it.
func (c *Client) doRequest(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			slog.Debug("retrying upstream request",
				"attempt", attempt,
				"max_retries", c.cfg.MaxRetries,
				"backoff", backoff,
			)

			select {
			case <-ctx.Done():
				return nil, &TimeoutError{Timeout: c.cfg.Timeout}
			case <-time.After(backoff):
			}
		}

		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create upstream request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				// Cancelled or deadline exceeded, nothing to retry.
				return nil, &TimeoutError{Timeout: c.cfg.Timeout}
			}
			lastErr = &InvocationError{Message: "request failed", Cause: err}
			slog.Warn("upstream request failed",
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, &AuthError{
				StatusCode: resp.StatusCode,
				Message:    string(errorBody),
			}

		case http.StatusTooManyRequests:
			return nil, &RateLimitError{
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
				Message:    string(errorBody),
			}

		default:
			invErr := &InvocationError{
				StatusCode: resp.StatusCode,
				Message:    string(errorBody),
			}
			if resp.StatusCode < 500 {
				// Client error, retrying cannot help.
				return nil, invErr
			}
			lastErr = invErr
			slog.Warn("upstream returned error status",
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
		}
	}

	return nil, lastErr
}

// parseRetryAfter parses a Retry-After header value in either
// delay-seconds or HTTP-date format.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
