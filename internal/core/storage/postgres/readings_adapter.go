package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/twinsight-lab/twinsight/internal/core/analytics"
	"github.com/twinsight-lab/twinsight/internal/core/storage"
)

// ReadingAdapter implements storage.ReadingStore against the raw sensor
// database (Postgres or TimescaleDB; the SQL is identical for both).
type ReadingAdapter struct {
	db *sql.DB
}

// NewReadingAdapter creates a ReadingAdapter sharing the given connection.
func NewReadingAdapter(db *sql.DB) *ReadingAdapter {
	return &ReadingAdapter{db: db}
}

// Bounds returns the min/max reading timestamps. ok is false when the raw
// store is empty: min()/max() over zero rows return SQL NULL, not an error.
func (a *ReadingAdapter) Bounds(ctx context.Context) (minTS, maxTS time.Time, ok bool, err error) {
	var nullMin, nullMax sql.NullTime
	if err := a.db.QueryRowContext(ctx, queryReadingBounds).Scan(&nullMin, &nullMax); err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("query reading bounds: %w", err)
	}
	if !nullMin.Valid || !nullMax.Valid {
		return time.Time{}, time.Time{}, false, nil
	}
	return nullMin.Time, nullMax.Time, true, nil
}

// AggregateDaily runs the grouped daily aggregation for one window.
// One round-trip regardless of how many readings the window covers; the
// database does the grouping, averaging and ordering.
func (a *ReadingAdapter) AggregateDaily(ctx context.Context, w analytics.Window) ([]analytics.DailySummary, error) {
	rows, err := a.db.QueryContext(ctx, queryAggregateDaily, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("query daily aggregates: %w", err)
	}
	defer rows.Close()

	var summaries []analytics.DailySummary
	for rows.Next() {
		var s analytics.DailySummary
		if err := rows.Scan(
			&s.Building,
			&s.Date,
			&s.AvgTemperature,
			&s.AvgHumidity,
			&s.OccupancyRate,
		); err != nil {
			return nil, fmt.Errorf("scan daily aggregate row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily aggregate rows: %w", err)
	}

	slog.Debug("[Postgres] Computed daily aggregates",
		"rows", len(summaries),
		"window_start", w.Start,
		"window_end", w.End)
	return summaries, nil
}

// QueryReadings fetches raw readings for the API, applying the filter's
// optional predicates and pagination.
func (a *ReadingAdapter) QueryReadings(ctx context.Context, f storage.ReadingFilter) ([]analytics.Reading, error) {
	var wb whereBuilder
	if !f.Start.IsZero() {
		wb.add("timestamp >= $%d", f.Start)
	}
	if !f.End.IsZero() {
		wb.add("timestamp < $%d", f.End)
	}
	if f.Building != "" {
		wb.add("building = $%d", f.Building)
	}

	where, args, next := wb.build(1)
	query := querySelectReadings + where +
		fmt.Sprintf(" ORDER BY timestamp %s LIMIT $%d OFFSET $%d", orderDirection(f.Descending), next, next+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var readings []analytics.Reading
	for rows.Next() {
		var r analytics.Reading
		if err := rows.Scan(&r.ID, &r.Building, &r.Timestamp, &r.Temperature, &r.Humidity, &r.Occupancy); err != nil {
			return nil, fmt.Errorf("scan reading row: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reading rows: %w", err)
	}
	return readings, nil
}

// Buildings returns the distinct building labels, sorted.
func (a *ReadingAdapter) Buildings(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, queryDistinctBuildings)
	if err != nil {
		return nil, fmt.Errorf("query buildings: %w", err)
	}
	defer rows.Close()

	var buildings []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scan building row: %w", err)
		}
		buildings = append(buildings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate building rows: %w", err)
	}
	return buildings, nil
}

// Stats returns row totals, the timestamp extent, and per-building counts.
func (a *ReadingAdapter) Stats(ctx context.Context) (storage.RawStats, error) {
	var stats storage.RawStats

	if err := a.db.QueryRowContext(ctx, queryReadingCount).Scan(&stats.TotalRows); err != nil {
		return storage.RawStats{}, fmt.Errorf("query reading count: %w", err)
	}

	var nullMin, nullMax sql.NullTime
	if err := a.db.QueryRowContext(ctx, queryReadingBounds).Scan(&nullMin, &nullMax); err != nil {
		return storage.RawStats{}, fmt.Errorf("query reading bounds: %w", err)
	}
	stats.MinTimestamp = nullMin.Time
	stats.MaxTimestamp = nullMax.Time

	rows, err := a.db.QueryContext(ctx, queryReadingsPerBuilding)
	if err != nil {
		return storage.RawStats{}, fmt.Errorf("query readings per building: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bc storage.BuildingCount
		if err := rows.Scan(&bc.Building, &bc.Rows); err != nil {
			return storage.RawStats{}, fmt.Errorf("scan building count row: %w", err)
		}
		stats.RowsPerBuilding = append(stats.RowsPerBuilding, bc)
	}
	if err := rows.Err(); err != nil {
		return storage.RawStats{}, fmt.Errorf("iterate building count rows: %w", err)
	}
	return stats, nil
}
