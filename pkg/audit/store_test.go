package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStoreAppendAndList(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now().Add(-time.Hour)

			for i, model := range []string{"llama", "mixtral", "llama"} {
				err := store.Append(ctx, &Record{
					ID:        string(rune('a' + i)),
					Timestamp: base.Add(time.Duration(i) * time.Minute),
					RequestID: "req-1",
					Endpoint:  "/v1/chat/completions",
					Model:     model,
					Status:    200,
				})
				if err != nil {
					t.Fatalf("Append failed: %v", err)
				}
			}

			all, err := store.List(ctx, Query{})
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(all) != 3 {
				t.Fatalf("got %d records, want 3", len(all))
			}
			if all[0].ID != "c" {
				t.Errorf("records must be newest first, got %q", all[0].ID)
			}

			llamas, err := store.List(ctx, Query{Model: "llama"})
			if err != nil {
				t.Fatalf("List by model failed: %v", err)
			}
			if len(llamas) != 2 {
				t.Errorf("got %d llama records, want 2", len(llamas))
			}

			limited, err := store.List(ctx, Query{Limit: 1})
			if err != nil {
				t.Fatalf("List with limit failed: %v", err)
			}
			if len(limited) != 1 {
				t.Errorf("got %d records, want 1", len(limited))
			}
		})
	}
}

func TestStorePruneByAge(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now()

			store.Append(ctx, &Record{ID: "old", Timestamp: now.Add(-48 * time.Hour), RequestID: "r", Endpoint: "/v1/chat/completions", Status: 200})
			store.Append(ctx, &Record{ID: "new", Timestamp: now, RequestID: "r", Endpoint: "/v1/chat/completions", Status: 200})

			removed, err := store.Prune(ctx, now.Add(-24*time.Hour), 0)
			if err != nil {
				t.Fatalf("Prune failed: %v", err)
			}
			if removed != 1 {
				t.Errorf("removed = %d, want 1", removed)
			}

			left, _ := store.List(ctx, Query{})
			if len(left) != 1 || left[0].ID != "new" {
				t.Errorf("unexpected survivors: %+v", left)
			}
		})
	}
}

func TestStorePruneByCount(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now().Add(-time.Hour)

			for i := 0; i < 5; i++ {
				store.Append(ctx, &Record{
					ID:        string(rune('a' + i)),
					Timestamp: base.Add(time.Duration(i) * time.Minute),
					RequestID: "r",
					Endpoint:  "/v1/completions",
					Status:    200,
				})
			}

			removed, err := store.Prune(ctx, time.Time{}, 2)
			if err != nil {
				t.Fatalf("Prune failed: %v", err)
			}
			if removed != 3 {
				t.Errorf("removed = %d, want 3", removed)
			}

			left, _ := store.List(ctx, Query{})
			if len(left) != 2 {
				t.Fatalf("got %d survivors, want 2", len(left))
			}
			if left[0].ID != "e" || left[1].ID != "d" {
				t.Errorf("wrong survivors: %s, %s", left[0].ID, left[1].ID)
			}
		})
	}
}

func TestRecorderFillsDefaults(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store)

	rec.Record(context.Background(), &Record{
		RequestID: "req-9",
		Endpoint:  "/v1/chat/completions",
		Status:    200,
	})

	records, _ := store.List(context.Background(), Query{})
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].ID == "" {
		t.Error("ID must be generated")
	}
	if records[0].Timestamp.IsZero() {
		t.Error("Timestamp must be filled")
	}
}

func TestNilRecorderIsNoOp(t *testing.T) {
	var rec *Recorder
	rec.Record(context.Background(), &Record{RequestID: "r"})
}

func TestPrunerRetentionWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Append(ctx, &Record{ID: "stale", Timestamp: time.Now().AddDate(0, 0, -40), RequestID: "r", Endpoint: "/v1/completions", Status: 200})
	store.Append(ctx, &Record{ID: "fresh", Timestamp: time.Now(), RequestID: "r", Endpoint: "/v1/completions", Status: 200})

	pruner := NewPruner(store, 30, 0)
	removed, err := pruner.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
}
