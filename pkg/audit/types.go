// Package audit records per-request metadata for operational review.
// Records never contain message content or credentials, only routing
// and accounting metadata.
package audit

import (
	"context"
	"time"
)

// Record is one audited request.
type Record struct {
	// ID is a generated unique identifier.
	ID string `json:"id"`

	// Timestamp is when the request completed.
	Timestamp time.Time `json:"timestamp"`

	// RequestID is the correlation identifier assigned by the server.
	RequestID string `json:"request_id"`

	// Endpoint is the API path that served the request.
	Endpoint string `json:"endpoint"`

	// Model is the requested model identifier, when known.
	Model string `json:"model,omitempty"`

	// Status is the HTTP status returned to the client.
	Status int `json:"status"`

	// Streamed reports whether the response was streamed.
	Streamed bool `json:"streamed,omitempty"`

	// DurationMS is the wall-clock handling time in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// FinishReason is the finish reason reported to the client, when
	// the request produced a completion.
	FinishReason string `json:"finish_reason,omitempty"`

	// PromptTokens and CompletionTokens are upstream-reported counts,
	// zero when the upstream omitted usage.
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`

	// ErrorType is the client-facing error type for failed requests.
	ErrorType string `json:"error_type,omitempty"`
}

// Query filters record listings. Zero values match everything.
type Query struct {
	// Model restricts results to one model.
	Model string

	// Limit caps the number of returned records; zero means no cap.
	Limit int
}

// Store persists audit records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append persists one record.
	Append(ctx context.Context, rec *Record) error

	// List returns records matching q, newest first.
	List(ctx context.Context, q Query) ([]*Record, error)

	// Prune removes records older than cutoff and, when maxRecords is
	// positive, trims the store to the newest maxRecords entries. It
	// returns the number of records removed.
	Prune(ctx context.Context, cutoff time.Time, maxRecords int64) (int64, error)

	// Close releases store resources.
	Close() error
}
