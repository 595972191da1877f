package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner applies the retention policy to a store.
type Pruner struct {
	store         Store
	retentionDays int
	maxRecords    int64
}

// NewPruner returns a pruner enforcing the given retention window and
// record cap. Zero values disable the respective limit.
func NewPruner(store Store, retentionDays int, maxRecords int64) *Pruner {
	return &Pruner{
		store:         store,
		retentionDays: retentionDays,
		maxRecords:    maxRecords,
	}
}

// Run applies retention once.
func (p *Pruner) Run(ctx context.Context) (int64, error) {
	cutoff := time.Time{}
	if p.retentionDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -p.retentionDays)
	}

	removed, err := p.store.Prune(ctx, cutoff, p.maxRecords)
	if err != nil {
		return 0, fmt.Errorf("retention prune failed: %w", err)
	}
	if removed > 0 {
		slog.Info("pruned audit records", "removed", removed)
	}
	return removed, nil
}

// Scheduler runs a pruner on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	pruner *Pruner
}

// NewScheduler builds a scheduler for the given cron expression in the
// standard five-field format.
func NewScheduler(pruner *Pruner, schedule string) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, pruner: pruner}

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := pruner.Run(ctx); err != nil {
			slog.Error("scheduled audit prune failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins scheduled pruning.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
