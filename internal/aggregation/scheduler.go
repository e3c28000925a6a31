package aggregation

import (
	"context"
	"log/slog"
	"time"

	"github.com/twinsight-lab/twinsight/internal/core/storage"
)

// Scheduler re-runs the aggregation pipeline on a periodic interval over the
// auto-detected window. It is stateless: each tick recomputes the full
// summary set, and the idempotent upsert makes the repetition safe.
type Scheduler struct {
	interval  time.Duration
	readings  storage.ReadingStore
	summaries storage.SummaryStore
	opts      RunOptions
}

// NewScheduler creates a cron-style scheduler for the pipeline.
func NewScheduler(
	interval time.Duration,
	readings storage.ReadingStore,
	summaries storage.SummaryStore,
	opts RunOptions,
) *Scheduler {
	return &Scheduler{
		interval:  interval,
		readings:  readings,
		summaries: summaries,
		opts:      opts,
	}
}

// Start begins periodic aggregation. Runs once immediately, then on every
// tick until the context is cancelled. A failed run is logged and left for
// the next tick; the pipeline's idempotence makes the retry safe.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting aggregation scheduler", "interval", s.interval)

	s.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)")
			return nil
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result, err := Run(ctx, s.readings, s.summaries, s.opts)
	if err != nil {
		slog.Error("[Scheduler] Aggregation run failed", "error", err)
		return
	}
	slog.Info("[Scheduler] Aggregation run complete",
		"rows", result.Rows,
		"window_start", result.Window.Start,
		"window_end", result.Window.End)
}
