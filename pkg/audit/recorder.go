package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Recorder writes audit records to a store. A nil Recorder is a valid
// no-op, used when auditing is disabled.
type Recorder struct {
	store Store
}

// NewRecorder returns a recorder over the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record persists one record, filling ID and Timestamp when unset.
// Persistence failures are logged, never surfaced to the request path.
func (r *Recorder) Record(ctx context.Context, rec *Record) {
	if r == nil || r.store == nil {
		return
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	if err := r.store.Append(ctx, rec); err != nil {
		slog.Warn("failed to persist audit record",
			"request_id", rec.RequestID,
			"error", err,
		)
	}
}
