package analytics

import "time"

// Reading is a single raw sensor observation as stored in sensor_data.
// Rows are append-only: the pipeline never mutates or deletes them, and
// duplicates (same building, same timestamp) are legitimate data points.
type Reading struct {
	ID          int64     `json:"id"`
	Building    string    `json:"building"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Occupancy   int       `json:"occupancy"`
}

// DailySummary is one derived row in analytics_data.
//
// Grain: (building, date). The summary store holds at most one row per
// pair; re-aggregation overwrites values in place rather than appending.
type DailySummary struct {
	ID             int64     `json:"id,omitempty"`
	Building       string    `json:"building"`
	Date           time.Time `json:"date"`
	AvgTemperature float64   `json:"avg_temperature"`
	AvgHumidity    float64   `json:"avg_humidity"`
	OccupancyRate  float64   `json:"occupancy_rate"`
}

// Window is a half-open aggregation range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
