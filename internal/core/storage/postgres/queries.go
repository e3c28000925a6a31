package postgres

// SQL for the raw (sensor_data) and summary (analytics_data) stores.

const (
	// queryReadingBounds returns the timestamp extent of the raw store.
	// Used by the range resolver when the caller omits a bound.
	queryReadingBounds = `SELECT min(timestamp), max(timestamp) FROM sensor_data`

	// queryAggregateDaily computes the daily summaries for one window in a
	// single grouped pass inside the database. The day boundary follows the
	// session time zone of the raw store connection. occupancy_rate is the
	// fraction of readings with anyone present, so it is always in [0, 1].
	queryAggregateDaily = `
		SELECT
			building,
			DATE_TRUNC('day', timestamp)::date AS date,
			AVG(temperature) AS avg_temperature,
			AVG(humidity)    AS avg_humidity,
			AVG(CASE WHEN occupancy > 0 THEN 1.0 ELSE 0.0 END) AS occupancy_rate
		FROM sensor_data
		WHERE timestamp >= $1
		  AND timestamp < $2
		GROUP BY building, DATE_TRUNC('day', timestamp)::date
		ORDER BY building, DATE_TRUNC('day', timestamp)::date
	`

	// querySelectReadings is the base of the raw-data API query; predicate
	// fragments and ORDER/LIMIT/OFFSET are appended by the adapter.
	querySelectReadings = `
		SELECT id, building, timestamp, temperature, humidity, occupancy
		FROM sensor_data
	`

	queryDistinctBuildings = `SELECT DISTINCT building FROM sensor_data ORDER BY building`

	queryReadingCount = `SELECT COUNT(*) FROM sensor_data`

	queryReadingsPerBuilding = `
		SELECT building, COUNT(*)
		FROM sensor_data
		GROUP BY building
		ORDER BY building
	`

	// queryEnsureSummaryIndex creates the uniqueness constraint the upsert
	// depends on. IF NOT EXISTS makes it safe to run before every merge.
	queryEnsureSummaryIndex = `
		CREATE UNIQUE INDEX IF NOT EXISTS analytics_building_date_uidx
		ON analytics_data (building, date)
	`

	// queryUpsertSummaryPrefix is the head of the batched merge statement.
	// The adapter appends one VALUES tuple per candidate, then the
	// ON CONFLICT clause, so each batch is one atomic conditional write.
	queryUpsertSummaryPrefix = `
		INSERT INTO analytics_data (building, date, avg_temperature, avg_humidity, occupancy_rate)
		VALUES `

	queryUpsertSummarySuffix = `
		ON CONFLICT (building, date) DO UPDATE SET
			avg_temperature = EXCLUDED.avg_temperature,
			avg_humidity    = EXCLUDED.avg_humidity,
			occupancy_rate  = EXCLUDED.occupancy_rate
	`

	// querySelectSummaries is the base of the analytics API query.
	querySelectSummaries = `
		SELECT id, building, date, avg_temperature, avg_humidity, occupancy_rate
		FROM analytics_data
	`
)
