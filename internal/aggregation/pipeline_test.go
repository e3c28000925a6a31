package aggregation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/twinsight-lab/twinsight/internal/core/analytics"
)

func reading(building string, ts time.Time, temp, humidity float64, occupancy int) analytics.Reading {
	return analytics.Reading{
		Building:    building,
		Timestamp:   ts,
		Temperature: temp,
		Humidity:    humidity,
		Occupancy:   occupancy,
	}
}

func TestRunFullDayOfReadings(t *testing.T) {
	readings := NewMemoryReadingStore(time.UTC)
	summaries := NewMemorySummaryStore()

	// One full day of 15-minute intervals: 96 readings, known values.
	dayStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var tempSum float64
	occupied := 0
	for i := 0; i < 96; i++ {
		temp := 18.0 + 0.1*float64(i)
		tempSum += temp
		occupancy := 0
		if i%4 != 0 { // three of every four intervals have someone present
			occupancy = 5 + i
			occupied++
		}
		readings.Add(reading("Building A", dayStart.Add(time.Duration(i)*15*time.Minute), temp, 50.0, occupancy))
	}

	result, err := Run(context.Background(), readings, summaries, RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Rows)

	rows := summaries.Snapshot()
	require.Len(t, rows, 1)
	require.Equal(t, "Building A", rows[0].Building)
	require.Equal(t, dayStart, rows[0].Date)
	require.InDelta(t, tempSum/96.0, rows[0].AvgTemperature, 1e-9)
	require.InDelta(t, 50.0, rows[0].AvgHumidity, 1e-9)
	require.InDelta(t, float64(occupied)/96.0, rows[0].OccupancyRate, 1e-9)
}

func TestRunIsIdempotent(t *testing.T) {
	readings := NewMemoryReadingStore(time.UTC)
	summaries := NewMemorySummaryStore()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	readings.Add(
		reading("Building A", base.Add(10*time.Minute), 20.0, 40.0, 3),
		reading("Building A", base.Add(20*time.Minute), 22.0, 44.0, 0),
		reading("Building B", base.Add(30*time.Minute), 19.0, 55.0, 1),
		reading("Building B", base.AddDate(0, 0, 1), 25.0, 60.0, 7),
	)

	opts := RunOptions{}
	_, err := Run(context.Background(), readings, summaries, opts)
	require.NoError(t, err)
	first := summaries.Snapshot()

	_, err = Run(context.Background(), readings, summaries, opts)
	require.NoError(t, err)
	second := summaries.Snapshot()

	require.Equal(t, first, second, "re-running over unchanged readings must not change the store")
	require.Len(t, second, 3)
}

func TestRunOverwritesStaleSummary(t *testing.T) {
	readings := NewMemoryReadingStore(time.UTC)
	summaries := NewMemorySummaryStore()

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	summaries.Seed(analytics.DailySummary{
		Building:       "Building A",
		Date:           day,
		AvgTemperature: 99.0,
		AvgHumidity:    99.0,
		OccupancyRate:  0.99,
	})

	readings.Add(
		reading("Building A", day.Add(9*time.Hour), 20.0, 40.0, 10),
		reading("Building A", day.Add(10*time.Hour), 24.0, 44.0, 0),
	)

	_, err := Run(context.Background(), readings, summaries, RunOptions{})
	require.NoError(t, err)

	rows := summaries.Snapshot()
	require.Len(t, rows, 1, "stale row must be overwritten, not duplicated")
	require.InDelta(t, 22.0, rows[0].AvgTemperature, 1e-9)
	require.InDelta(t, 42.0, rows[0].AvgHumidity, 1e-9)
	require.InDelta(t, 0.5, rows[0].OccupancyRate, 1e-9)
}

func TestRunAutoDetectedEndIncludesFinalDay(t *testing.T) {
	readings := NewMemoryReadingStore(time.UTC)
	summaries := NewMemorySummaryStore()

	// Only two readings, both on the same day: one just after midnight,
	// one just before. With a naive exclusive end at max(timestamp), the
	// 23:55 reading would fall outside its own window.
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	readings.Add(
		reading("Building A", day.Add(5*time.Minute), 20.0, 40.0, 1),
		reading("Building A", day.Add(23*time.Hour+55*time.Minute), 30.0, 60.0, 0),
	)

	_, err := Run(context.Background(), readings, summaries, RunOptions{})
	require.NoError(t, err)

	rows := summaries.Snapshot()
	require.Len(t, rows, 1)
	require.InDelta(t, 25.0, rows[0].AvgTemperature, 1e-9, "both readings must contribute")
	require.InDelta(t, 0.5, rows[0].OccupancyRate, 1e-9)
}

func TestRunExplicitEndStaysExclusive(t *testing.T) {
	readings := NewMemoryReadingStore(time.UTC)
	summaries := NewMemorySummaryStore()

	end := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	readings.Add(
		reading("Building A", end.Add(-time.Hour), 20.0, 40.0, 1),
		reading("Building A", end, 99.0, 99.0, 50), // exactly at the bound
	)

	_, err := Run(context.Background(), readings, summaries, RunOptions{
		Start: end.AddDate(0, 0, -1),
		End:   end,
	})
	require.NoError(t, err)

	rows := summaries.Snapshot()
	require.Len(t, rows, 1)
	require.InDelta(t, 20.0, rows[0].AvgTemperature, 1e-9, "reading at the exclusive end must be excluded")
}

func TestRunCoverageAndRateBounds(t *testing.T) {
	readings := NewMemoryReadingStore(time.UTC)
	summaries := NewMemorySummaryStore()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	buildings := []string{"Building A", "Building B", "Building C"}
	for d := 0; d < 5; d++ {
		for i, b := range buildings {
			for r := 0; r <= d+i; r++ {
				readings.Add(reading(b, base.AddDate(0, 0, d).Add(time.Duration(r)*time.Hour),
					float64(15+r), float64(40+r), r%2))
			}
		}
	}

	result, err := Run(context.Background(), readings, summaries, RunOptions{})
	require.NoError(t, err)

	rows := summaries.Snapshot()
	require.Equal(t, len(buildings)*5, len(rows), "one summary per (building, day) with data")
	require.Equal(t, result.Rows, len(rows))

	seen := make(map[string]bool)
	for _, s := range rows {
		key := s.Building + s.Date.Format("2006-01-02")
		require.False(t, seen[key], "duplicate summary for %s", key)
		seen[key] = true
		require.GreaterOrEqual(t, s.OccupancyRate, 0.0)
		require.LessOrEqual(t, s.OccupancyRate, 1.0)
	}
}

func TestRunEmptyWindowLeavesStoreUntouched(t *testing.T) {
	readings := NewMemoryReadingStore(time.UTC)
	summaries := NewMemorySummaryStore()

	existing := analytics.DailySummary{
		Building:       "Building A",
		Date:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		AvgTemperature: 21.0,
	}
	summaries.Seed(existing)
	readings.Add(reading("Building A", existing.Date.Add(time.Hour), 21.0, 40.0, 1))

	before := summaries.Snapshot()

	// Window far away from any reading: zero candidates, merge is a no-op.
	result, err := Run(context.Background(), readings, summaries, RunOptions{
		Start: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, 0, result.Rows)
	require.Equal(t, before, summaries.Snapshot())
}

func TestRunNoDataIsFatal(t *testing.T) {
	readings := NewMemoryReadingStore(time.UTC)
	summaries := NewMemorySummaryStore()

	_, err := Run(context.Background(), readings, summaries, RunOptions{})
	require.Error(t, err)
	require.True(t, errors.Is(err, analytics.ErrNoData))
	require.Empty(t, summaries.Snapshot())
}

func TestRunConstraintSetupFailureAbortsBeforeMerge(t *testing.T) {
	readings := NewMemoryReadingStore(time.UTC)
	summaries := NewMemorySummaryStore()
	summaries.EnsureErr = analytics.ErrConstraintSetup

	readings.Add(reading("Building A", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), 20.0, 40.0, 1))

	_, err := Run(context.Background(), readings, summaries, RunOptions{})
	require.Error(t, err)
	require.True(t, errors.Is(err, analytics.ErrConstraintSetup))
	require.Empty(t, summaries.Snapshot(), "no merge may happen without the constraint")
}

func TestRunRejectsInvertedWindow(t *testing.T) {
	readings := NewMemoryReadingStore(time.UTC)
	summaries := NewMemorySummaryStore()

	_, err := Run(context.Background(), readings, summaries, RunOptions{
		Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not before")
}

func TestResolveWindowFillsMissingBounds(t *testing.T) {
	readings := NewMemoryReadingStore(time.UTC)
	minTS := time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC)
	maxTS := time.Date(2024, 1, 3, 17, 40, 0, 0, time.UTC)
	readings.Add(
		reading("Building A", minTS, 20.0, 40.0, 1),
		reading("Building A", maxTS, 22.0, 42.0, 0),
	)

	w, err := resolveWindow(context.Background(), readings, RunOptions{})
	require.NoError(t, err)
	require.Equal(t, minTS, w.Start, "detected start is min(timestamp), not floored")
	require.Equal(t, time.Date(2024, 1, 3, 23, 59, 59, 999999000, time.UTC), w.End)

	// An explicit start combines with a detected, widened end.
	explicitStart := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	w, err = resolveWindow(context.Background(), readings, RunOptions{Start: explicitStart})
	require.NoError(t, err)
	require.Equal(t, explicitStart, w.Start)
	require.Equal(t, time.Date(2024, 1, 3, 23, 59, 59, 999999000, time.UTC), w.End)
}

func TestRunConcurrentOverlappingRuns(t *testing.T) {
	readings := NewMemoryReadingStore(time.UTC)
	summaries := NewMemorySummaryStore()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 48; i++ {
		readings.Add(reading("Building A", base.Add(time.Duration(i)*30*time.Minute), 20.0, 40.0, i%3))
	}

	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := Run(context.Background(), readings, summaries, RunOptions{})
			done <- err
		}()
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-done)
	}

	rows := summaries.Snapshot()
	require.Len(t, rows, 1, "concurrent overlapping runs must not duplicate rows")
}
