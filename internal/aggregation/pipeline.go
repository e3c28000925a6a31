package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twinsight-lab/twinsight/internal/core/analytics"
	"github.com/twinsight-lab/twinsight/internal/core/storage"
)

// RunOptions controls one aggregation run. Zero-value Start/End mean
// "auto-detect from the raw store". Location sets the day boundary for
// end-of-day widening; nil means UTC.
type RunOptions struct {
	Start    time.Time
	End      time.Time
	Location *time.Location
}

// Result reports what one run did.
type Result struct {
	Window analytics.Window
	Rows   int
}

// Run executes one aggregation pass: resolve the window, compute daily
// summaries in the raw store's query layer, and merge them into the summary
// store under the (building, date) uniqueness constraint.
//
// Re-running Run over the same window against unchanged readings converges
// to the same summary store state, so callers retry failed runs wholesale
// instead of recovering partially. Any error aborts the run; nothing is
// skipped or retried internally.
func Run(
	ctx context.Context,
	readings storage.ReadingStore,
	summaries storage.SummaryStore,
	opts RunOptions,
) (Result, error) {
	window, err := resolveWindow(ctx, readings, opts)
	if err != nil {
		return Result{}, err
	}

	slog.Info("[Pipeline] Aggregating window",
		"start", window.Start,
		"end", window.End)

	candidates, err := readings.AggregateDaily(ctx, window)
	if err != nil {
		return Result{}, fmt.Errorf("aggregate daily summaries: %w", err)
	}

	if len(candidates) == 0 {
		slog.Info("[Pipeline] Window contains no readings, nothing to merge")
		return Result{Window: window}, nil
	}

	if err := summaries.EnsureUniqueIndex(ctx); err != nil {
		return Result{}, fmt.Errorf("ensure summary uniqueness index: %w", err)
	}

	if err := summaries.UpsertBatch(ctx, candidates); err != nil {
		return Result{}, fmt.Errorf("merge daily summaries: %w", err)
	}

	slog.Info("[Pipeline] Run complete",
		"rows", len(candidates),
		"start", window.Start,
		"end", window.End)

	return Result{Window: window, Rows: len(candidates)}, nil
}

// resolveWindow turns optional explicit bounds into a concrete window.
//
// Explicit bounds pass through untouched, end exclusive as given. A missing
// bound is filled from the raw store's timestamp extent; the detected end is
// widened to 23:59:59.999999 of its day so the exclusive comparison keeps
// the final day's readings. The detected start is min(timestamp) as-is.
func resolveWindow(ctx context.Context, readings storage.ReadingStore, opts RunOptions) (analytics.Window, error) {
	start, end := opts.Start, opts.End

	if start.IsZero() || end.IsZero() {
		minTS, maxTS, ok, err := readings.Bounds(ctx)
		if err != nil {
			return analytics.Window{}, fmt.Errorf("detect raw store bounds: %w", err)
		}
		if !ok {
			return analytics.Window{}, analytics.ErrNoData
		}
		if start.IsZero() {
			start = minTS
		}
		if end.IsZero() {
			end = analytics.EndOfDay(maxTS, opts.Location)
		}
		slog.Info("[Pipeline] Auto-detected window bounds",
			"start", start,
			"end", end)
	}

	if !start.Before(end) {
		return analytics.Window{}, fmt.Errorf("window start %s is not before end %s", start, end)
	}
	return analytics.Window{Start: start, End: end}, nil
}
