package storage

import (
	"context"
	"time"

	"github.com/twinsight-lab/twinsight/internal/core/analytics"
)

// ReadingFilter scopes raw-store reads for the query API.
// Zero-value time bounds and an empty building mean "no filter".
type ReadingFilter struct {
	Start    time.Time
	End      time.Time
	Building string
	Limit    int
	Offset   int
	// Descending orders by timestamp DESC when true, ASC otherwise.
	Descending bool
}

// SummaryFilter scopes summary-store reads for the query API.
type SummaryFilter struct {
	StartDate  time.Time
	EndDate    time.Time
	Building   string
	Limit      int
	Offset     int
	Descending bool
}

// RawStats is the shape returned by ReadingStore.Stats.
type RawStats struct {
	TotalRows       int64
	MinTimestamp    time.Time
	MaxTimestamp    time.Time
	RowsPerBuilding []BuildingCount
}

// BuildingCount is one per-building row count in RawStats.
type BuildingCount struct {
	Building string
	Rows     int64
}

// ReadingStore is the read-only view of the raw sensor store.
// The pipeline consumes Bounds and AggregateDaily; the query API consumes
// the rest. Nothing in this module ever writes through it.
type ReadingStore interface {
	// Bounds returns the min and max reading timestamps across all
	// readings. ok is false when the store holds zero readings.
	Bounds(ctx context.Context) (minTS, maxTS time.Time, ok bool, err error)

	// AggregateDaily computes one DailySummary candidate per
	// (building, day) pair with at least one reading inside the window,
	// ordered by (building, day) ascending. The grouping and averaging
	// run inside the store's query layer, not row-by-row in Go.
	AggregateDaily(ctx context.Context, w analytics.Window) ([]analytics.DailySummary, error)

	// QueryReadings returns raw readings matching the filter, for the API.
	QueryReadings(ctx context.Context, f ReadingFilter) ([]analytics.Reading, error)

	// Buildings returns the distinct building labels, sorted.
	Buildings(ctx context.Context) ([]string, error)

	// Stats returns row totals and timestamp extent, for the API.
	Stats(ctx context.Context) (RawStats, error)
}

// SummaryStore is the pipeline's only mutation target.
type SummaryStore interface {
	// EnsureUniqueIndex makes sure the (building, date) uniqueness
	// constraint exists. Idempotent; must be called before UpsertBatch.
	EnsureUniqueIndex(ctx context.Context) error

	// UpsertBatch merges candidates into the store: insert where no
	// (building, date) row exists, overwrite every aggregate field where
	// one does. Zero candidates is a no-op. Each underlying batch is a
	// single atomic conditional write, never check-then-insert.
	UpsertBatch(ctx context.Context, summaries []analytics.DailySummary) error

	// QuerySummaries returns summary rows matching the filter, for the API.
	QuerySummaries(ctx context.Context, f SummaryFilter) ([]analytics.DailySummary, error)
}
