package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in memory. Intended for development and
// tests; records do not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *rec
	s.records = append(s.records, &copied)
	return nil
}

func (s *MemoryStore) List(_ context.Context, q Query) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if q.Model != "" && rec.Model != q.Model {
			continue
		}
		copied := *rec
		out = append(out, &copied)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Prune(_ context.Context, cutoff time.Time, maxRecords int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, rec := range s.records {
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		kept = append(kept, rec)
	}

	removed := int64(len(s.records) - len(kept))

	if maxRecords > 0 && int64(len(kept)) > maxRecords {
		excess := int64(len(kept)) - maxRecords
		kept = kept[excess:]
		removed += excess
	}

	s.records = kept
	return removed, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
