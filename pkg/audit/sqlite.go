package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_records (
	id                TEXT PRIMARY KEY,
	timestamp         INTEGER NOT NULL,
	request_id        TEXT NOT NULL,
	endpoint          TEXT NOT NULL,
	model             TEXT NOT NULL DEFAULT '',
	status            INTEGER NOT NULL,
	streamed          INTEGER NOT NULL DEFAULT 0,
	duration_ms       INTEGER NOT NULL,
	finish_reason     TEXT NOT NULL DEFAULT '',
	prompt_tokens     INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	error_type        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_records(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_model ON audit_records(model);
`

// SQLiteStore persists records in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// applies the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create audit directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	// Single writer; WAL keeps readers unblocked during appends.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply audit schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_records
			(id, timestamp, request_id, endpoint, model, status, streamed,
			 duration_ms, finish_reason, prompt_tokens, completion_tokens, error_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Timestamp.UnixMilli(),
		rec.RequestID,
		rec.Endpoint,
		rec.Model,
		rec.Status,
		boolToInt(rec.Streamed),
		rec.DurationMS,
		rec.FinishReason,
		rec.PromptTokens,
		rec.CompletionTokens,
		rec.ErrorType,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, q Query) ([]*Record, error) {
	query := `
		SELECT id, timestamp, request_id, endpoint, model, status, streamed,
		       duration_ms, finish_reason, prompt_tokens, completion_tokens,
		       error_type
		FROM audit_records`
	var args []interface{}
	if q.Model != "" {
		query += " WHERE model = ?"
		args = append(args, q.Model)
	}
	query += " ORDER BY timestamp DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var rec Record
		var ts int64
		var streamed int
		if err := rows.Scan(
			&rec.ID, &ts, &rec.RequestID, &rec.Endpoint, &rec.Model,
			&rec.Status, &streamed, &rec.DurationMS, &rec.FinishReason,
			&rec.PromptTokens, &rec.CompletionTokens, &rec.ErrorType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts)
		rec.Streamed = streamed != 0
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time, maxRecords int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_records WHERE timestamp < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune by age: %w", err)
	}
	removed, _ := result.RowsAffected()

	if maxRecords > 0 {
		result, err = s.db.ExecContext(ctx, `
			DELETE FROM audit_records
			WHERE id NOT IN (
				SELECT id FROM audit_records
				ORDER BY timestamp DESC LIMIT ?
			)`, maxRecords)
		if err != nil {
			return removed, fmt.Errorf("failed to prune by count: %w", err)
		}
		n, _ := result.RowsAffected()
		removed += n
	}

	return removed, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
