package upstream

import (
	"fmt"
	"time"
)

// InvocationError represents a non-2xx response from the serving endpoint
// that is not an authentication or rate-limit failure, or a transport
// failure with no status at all (StatusCode 0).
type InvocationError struct {
	// StatusCode is the upstream HTTP status (0 if not applicable).
	StatusCode int

	// Message is the upstream error body.
	Message string

	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream error: %s", e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *InvocationError) Unwrap() error {
	return e.Cause
}

// AuthError represents an upstream authentication or authorization
// failure (HTTP 401 or 403). The bearer token was rejected.
type AuthError struct {
	// StatusCode is 401 or 403.
	StatusCode int

	// Message is the upstream error body.
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("upstream authentication failed (status %d): %s", e.StatusCode, e.Message)
}

// RateLimitError represents an upstream rate-limit response (HTTP 429).
type RateLimitError struct {
	// RetryAfter is the duration to wait before retrying, when the
	// upstream supplies a Retry-After header.
	RetryAfter time.Duration

	// Message is the upstream error body.
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("upstream rate limit exceeded (retry after %s): %s", e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("upstream rate limit exceeded: %s", e.Message)
}

// TimeoutError represents an invocation that exceeded its deadline,
// whether from the configured upstream timeout or the caller's context.
type TimeoutError struct {
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upstream request timeout after %s", e.Timeout)
}

// ParseError represents a malformed upstream payload.
type ParseError struct {
	// RawResponse is the response body that failed to parse.
	RawResponse string

	// Cause is the underlying parse error.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("upstream response parse error: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// StreamError represents an upstream stream that failed mid-relay, for
// example a connection reset before the terminal chunk arrived.
type StreamError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream stream error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("upstream stream error: %s", e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// ConfigError represents an invalid invoker configuration.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("upstream configuration error for field %q: %s", e.Field, e.Message)
}
