package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/twinsight-lab/twinsight/internal/core/analytics"
	"github.com/twinsight-lab/twinsight/internal/core/storage"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSummaryAdapter_EnsureUniqueIndex(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewSummaryAdapter(db, 0)

	mock.ExpectExec(regexp.QuoteMeta(queryEnsureSummaryIndex)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, adapter.EnsureUniqueIndex(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryAdapter_EnsureUniqueIndexFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewSummaryAdapter(db, 0)

	mock.ExpectExec(regexp.QuoteMeta(queryEnsureSummaryIndex)).
		WillReturnError(fmt.Errorf("permission denied"))

	err = adapter.EnsureUniqueIndex(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, analytics.ErrConstraintSetup))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryAdapter_UpsertBatchEmptyIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewSummaryAdapter(db, 0)

	// No expectations registered: any store call would fail the test.
	require.NoError(t, adapter.UpsertBatch(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryAdapter_UpsertBatchSingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewSummaryAdapter(db, 0)
	rows := []analytics.DailySummary{
		{Building: "Building A", Date: day(2024, 1, 1), AvgTemperature: 21.5, AvgHumidity: 48.0, OccupancyRate: 0.75},
		{Building: "Building B", Date: day(2024, 1, 1), AvgTemperature: 19.0, AvgHumidity: 52.0, OccupancyRate: 0.25},
	}

	expected := queryUpsertSummaryPrefix +
		"($1, $2, $3, $4, $5), ($6, $7, $8, $9, $10)" +
		queryUpsertSummarySuffix

	mock.ExpectExec(regexp.QuoteMeta(expected)).
		WithArgs(
			"Building A", day(2024, 1, 1), 21.5, 48.0, 0.75,
			"Building B", day(2024, 1, 1), 19.0, 52.0, 0.25,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, adapter.UpsertBatch(context.Background(), rows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryAdapter_UpsertBatchSplitsAtBatchSize(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewSummaryAdapter(db, 2)
	rows := []analytics.DailySummary{
		{Building: "Building A", Date: day(2024, 1, 1)},
		{Building: "Building A", Date: day(2024, 1, 2)},
		{Building: "Building A", Date: day(2024, 1, 3)},
	}

	twoRowStmt := queryUpsertSummaryPrefix +
		"($1, $2, $3, $4, $5), ($6, $7, $8, $9, $10)" +
		queryUpsertSummarySuffix
	oneRowStmt := queryUpsertSummaryPrefix +
		"($1, $2, $3, $4, $5)" +
		queryUpsertSummarySuffix

	mock.ExpectExec(regexp.QuoteMeta(twoRowStmt)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(oneRowStmt)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, adapter.UpsertBatch(context.Background(), rows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryAdapter_UpsertBatchStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewSummaryAdapter(db, 1)
	rows := []analytics.DailySummary{
		{Building: "Building A", Date: day(2024, 1, 1)},
		{Building: "Building A", Date: day(2024, 1, 2)},
	}

	oneRowStmt := queryUpsertSummaryPrefix +
		"($1, $2, $3, $4, $5)" +
		queryUpsertSummarySuffix

	mock.ExpectExec(regexp.QuoteMeta(oneRowStmt)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(oneRowStmt)).
		WillReturnError(fmt.Errorf("connection reset"))

	err = adapter.UpsertBatch(context.Background(), rows)
	require.Error(t, err)
	require.Contains(t, err.Error(), "upsert summary batch")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryAdapter_QuerySummariesComposesPredicates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewSummaryAdapter(db, 0)

	expected := querySelectSummaries +
		" WHERE date >= $1 AND date < $2 AND building = $3" +
		" ORDER BY date ASC LIMIT $4 OFFSET $5"

	mock.ExpectQuery(regexp.QuoteMeta(expected)).
		WithArgs(day(2024, 1, 1), day(2024, 2, 1), "Building A", 500, 0).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "building", "date", "avg_temperature", "avg_humidity", "occupancy_rate"}).
			AddRow(int64(1), "Building A", day(2024, 1, 1), 21.5, 48.0, 0.75))

	summaries, err := adapter.QuerySummaries(context.Background(), storage.SummaryFilter{
		StartDate: day(2024, 1, 1),
		EndDate:   day(2024, 2, 1),
		Building:  "Building A",
		Limit:     500,
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, 0.75, summaries[0].OccupancyRate)
	require.NoError(t, mock.ExpectationsWereMet())
}
