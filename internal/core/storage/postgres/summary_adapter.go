package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/twinsight-lab/twinsight/internal/core/analytics"
	"github.com/twinsight-lab/twinsight/internal/core/storage"
)

const (
	// defaultUpsertBatchSize caps how many candidate rows go into one
	// multi-row INSERT. Batch boundaries never change the final store
	// state; they only bound statement size.
	defaultUpsertBatchSize = 500

	summaryFieldCount = 5 // building, date, avg_temperature, avg_humidity, occupancy_rate
)

// SummaryAdapter implements storage.SummaryStore against the analytics
// database. Each merge batch is a single multi-row INSERT ... ON CONFLICT
// DO UPDATE statement, so a crash mid-run leaves committed batches intact
// and no torn rows.
type SummaryAdapter struct {
	db        *sql.DB
	batchSize int
}

// NewSummaryAdapter creates a SummaryAdapter sharing the given connection.
// batchSize <= 0 selects the default.
func NewSummaryAdapter(db *sql.DB, batchSize int) *SummaryAdapter {
	if batchSize <= 0 {
		batchSize = defaultUpsertBatchSize
	}
	return &SummaryAdapter{db: db, batchSize: batchSize}
}

// EnsureUniqueIndex creates the (building, date) uniqueness constraint if it
// is absent. Safe to call before every merge; ON CONFLICT needs it.
func (a *SummaryAdapter) EnsureUniqueIndex(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, queryEnsureSummaryIndex); err != nil {
		return fmt.Errorf("%w: %v", analytics.ErrConstraintSetup, err)
	}
	return nil
}

// UpsertBatch merges summary candidates into analytics_data. Rows with an
// existing (building, date) pair have every aggregate field overwritten;
// new pairs are inserted. Zero candidates is a no-op.
func (a *SummaryAdapter) UpsertBatch(ctx context.Context, summaries []analytics.DailySummary) error {
	if len(summaries) == 0 {
		slog.Info("[Postgres] No summary rows to upsert")
		return nil
	}

	for offset := 0; offset < len(summaries); offset += a.batchSize {
		end := offset + a.batchSize
		if end > len(summaries) {
			end = len(summaries)
		}
		if err := a.upsertChunk(ctx, summaries[offset:end]); err != nil {
			return err
		}
	}

	slog.Info("[Postgres] Upserted summary rows", "rows", len(summaries))
	return nil
}

// upsertChunk writes one batch as a single atomic statement.
func (a *SummaryAdapter) upsertChunk(ctx context.Context, chunk []analytics.DailySummary) error {
	placeholders := make([]string, 0, len(chunk))
	args := make([]interface{}, 0, len(chunk)*summaryFieldCount)

	for i, s := range chunk {
		base := i * summaryFieldCount
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5))
		args = append(args, s.Building, s.Date, s.AvgTemperature, s.AvgHumidity, s.OccupancyRate)
	}

	query := queryUpsertSummaryPrefix + strings.Join(placeholders, ", ") + queryUpsertSummarySuffix
	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert summary batch (%d rows): %w", len(chunk), err)
	}
	return nil
}

// QuerySummaries fetches summary rows for the API, applying the filter's
// optional predicates and pagination.
func (a *SummaryAdapter) QuerySummaries(ctx context.Context, f storage.SummaryFilter) ([]analytics.DailySummary, error) {
	var wb whereBuilder
	if !f.StartDate.IsZero() {
		wb.add("date >= $%d", f.StartDate)
	}
	if !f.EndDate.IsZero() {
		wb.add("date < $%d", f.EndDate)
	}
	if f.Building != "" {
		wb.add("building = $%d", f.Building)
	}

	where, args, next := wb.build(1)
	query := querySelectSummaries + where +
		fmt.Sprintf(" ORDER BY date %s LIMIT $%d OFFSET $%d", orderDirection(f.Descending), next, next+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []analytics.DailySummary
	for rows.Next() {
		var s analytics.DailySummary
		if err := rows.Scan(&s.ID, &s.Building, &s.Date, &s.AvgTemperature, &s.AvgHumidity, &s.OccupancyRate); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}
	return summaries, nil
}
