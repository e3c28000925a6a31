package aggregation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/twinsight-lab/twinsight/internal/core/analytics"
	"github.com/twinsight-lab/twinsight/internal/core/storage"
)

// In-memory store fakes for pipeline tests. They implement the same
// contracts as the Postgres adapters, including the grouped aggregation
// semantics, so pipeline properties can be asserted without a database.

// MemoryReadingStore is an in-memory storage.ReadingStore.
type MemoryReadingStore struct {
	mu       sync.Mutex
	readings []analytics.Reading
	loc      *time.Location
}

// NewMemoryReadingStore creates an empty in-memory raw store. loc sets the
// day boundary for grouping; nil means UTC.
func NewMemoryReadingStore(loc *time.Location) *MemoryReadingStore {
	if loc == nil {
		loc = time.UTC
	}
	return &MemoryReadingStore{loc: loc}
}

// Add appends readings to the store.
func (m *MemoryReadingStore) Add(readings ...analytics.Reading) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = append(m.readings, readings...)
}

// Bounds returns the timestamp extent across all readings.
func (m *MemoryReadingStore) Bounds(_ context.Context) (time.Time, time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.readings) == 0 {
		return time.Time{}, time.Time{}, false, nil
	}
	minTS, maxTS := m.readings[0].Timestamp, m.readings[0].Timestamp
	for _, r := range m.readings[1:] {
		if r.Timestamp.Before(minTS) {
			minTS = r.Timestamp
		}
		if r.Timestamp.After(maxTS) {
			maxTS = r.Timestamp
		}
	}
	return minTS, maxTS, true, nil
}

// AggregateDaily groups readings inside the window by (building, day) and
// computes the same means and occupancy rate as the SQL pushdown.
func (m *MemoryReadingStore) AggregateDaily(_ context.Context, w analytics.Window) ([]analytics.DailySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type groupKey struct {
		building string
		day      int64
	}
	type groupAcc struct {
		day          time.Time
		tempSum      float64
		humiditySum  float64
		occupiedRows int
		rows         int
	}

	groups := make(map[groupKey]*groupAcc)
	for _, r := range m.readings {
		if !w.Contains(r.Timestamp) {
			continue
		}
		day := analytics.DayOf(r.Timestamp, m.loc)
		key := groupKey{building: r.Building, day: day.Unix()}
		acc, ok := groups[key]
		if !ok {
			acc = &groupAcc{day: day}
			groups[key] = acc
		}
		acc.tempSum += r.Temperature
		acc.humiditySum += r.Humidity
		if r.Occupancy > 0 {
			acc.occupiedRows++
		}
		acc.rows++
	}

	summaries := make([]analytics.DailySummary, 0, len(groups))
	for key, acc := range groups {
		summaries = append(summaries, analytics.DailySummary{
			Building:       key.building,
			Date:           acc.day,
			AvgTemperature: acc.tempSum / float64(acc.rows),
			AvgHumidity:    acc.humiditySum / float64(acc.rows),
			OccupancyRate:  float64(acc.occupiedRows) / float64(acc.rows),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Building != summaries[j].Building {
			return summaries[i].Building < summaries[j].Building
		}
		return summaries[i].Date.Before(summaries[j].Date)
	})
	return summaries, nil
}

// QueryReadings filters and paginates readings like the Postgres adapter.
func (m *MemoryReadingStore) QueryReadings(_ context.Context, f storage.ReadingFilter) ([]analytics.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []analytics.Reading
	for _, r := range m.readings {
		if !f.Start.IsZero() && r.Timestamp.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && !r.Timestamp.Before(f.End) {
			continue
		}
		if f.Building != "" && r.Building != f.Building {
			continue
		}
		matched = append(matched, r)
	}

	sort.Slice(matched, func(i, j int) bool {
		if f.Descending {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})

	if f.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

// Buildings returns the distinct building labels, sorted.
func (m *MemoryReadingStore) Buildings(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]struct{})
	var buildings []string
	for _, r := range m.readings {
		if _, ok := seen[r.Building]; !ok {
			seen[r.Building] = struct{}{}
			buildings = append(buildings, r.Building)
		}
	}
	sort.Strings(buildings)
	return buildings, nil
}

// Stats returns totals and the timestamp extent.
func (m *MemoryReadingStore) Stats(ctx context.Context) (storage.RawStats, error) {
	minTS, maxTS, _, _ := m.Bounds(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	perBuilding := make(map[string]int64)
	for _, r := range m.readings {
		perBuilding[r.Building]++
	}

	stats := storage.RawStats{
		TotalRows:    int64(len(m.readings)),
		MinTimestamp: minTS,
		MaxTimestamp: maxTS,
	}
	for b, n := range perBuilding {
		stats.RowsPerBuilding = append(stats.RowsPerBuilding, storage.BuildingCount{Building: b, Rows: n})
	}
	sort.Slice(stats.RowsPerBuilding, func(i, j int) bool {
		return stats.RowsPerBuilding[i].Building < stats.RowsPerBuilding[j].Building
	})
	return stats, nil
}

type summaryKey struct {
	building string
	day      int64
}

// MemorySummaryStore is an in-memory storage.SummaryStore. The map key is
// (building, day), so the uniqueness invariant holds by construction and
// upserts overwrite in place like the SQL ON CONFLICT path.
type MemorySummaryStore struct {
	mu     sync.Mutex
	rows   map[summaryKey]analytics.DailySummary
	nextID int64

	// EnsureErr, when set, is returned by EnsureUniqueIndex to simulate
	// constraint setup failure.
	EnsureErr error
}

// NewMemorySummaryStore creates an empty in-memory summary store.
func NewMemorySummaryStore() *MemorySummaryStore {
	return &MemorySummaryStore{rows: make(map[summaryKey]analytics.DailySummary), nextID: 1}
}

// EnsureUniqueIndex is a no-op unless EnsureErr is set.
func (m *MemorySummaryStore) EnsureUniqueIndex(_ context.Context) error {
	return m.EnsureErr
}

// UpsertBatch inserts or overwrites one row per (building, date) candidate.
func (m *MemorySummaryStore) UpsertBatch(_ context.Context, summaries []analytics.DailySummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range summaries {
		key := summaryKey{building: s.Building, day: s.Date.Unix()}
		if existing, ok := m.rows[key]; ok {
			s.ID = existing.ID
		} else {
			s.ID = m.nextID
			m.nextID++
		}
		m.rows[key] = s
	}
	return nil
}

// QuerySummaries filters and paginates like the Postgres adapter.
func (m *MemorySummaryStore) QuerySummaries(_ context.Context, f storage.SummaryFilter) ([]analytics.DailySummary, error) {
	all := m.Snapshot()

	var matched []analytics.DailySummary
	for _, s := range all {
		if !f.StartDate.IsZero() && s.Date.Before(f.StartDate) {
			continue
		}
		if !f.EndDate.IsZero() && !s.Date.Before(f.EndDate) {
			continue
		}
		if f.Building != "" && s.Building != f.Building {
			continue
		}
		matched = append(matched, s)
	}

	if f.Descending {
		sort.Slice(matched, func(i, j int) bool { return matched[i].Date.After(matched[j].Date) })
	}

	if f.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

// Snapshot returns all rows ordered by (building, date), for assertions.
func (m *MemorySummaryStore) Snapshot() []analytics.DailySummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]analytics.DailySummary, 0, len(m.rows))
	for _, s := range m.rows {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Building != out[j].Building {
			return out[i].Building < out[j].Building
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Seed places a row directly, bypassing upsert. For overwrite tests.
func (m *MemorySummaryStore) Seed(s analytics.DailySummary) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == 0 {
		s.ID = m.nextID
		m.nextID++
	}
	m.rows[summaryKey{building: s.Building, day: s.Date.Unix()}] = s
}
