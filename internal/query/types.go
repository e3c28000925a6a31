package query

import (
	"github.com/twinsight-lab/twinsight/internal/core/analytics"
)

// listParams are the shared list-endpoint query parameters. Defaults and
// bounds follow the API contract: limit ∈ [1, 10000], offset ≥ 0.
type listParams struct {
	Building string `form:"building"`
	Limit    int    `form:"limit,default=500" binding:"min=1,max=10000"`
	Offset   int    `form:"offset,default=0" binding:"min=0"`
	Order    string `form:"order,default=asc" binding:"oneof=asc desc"`
	Format   string `form:"format,default=json" binding:"oneof=json csv"`
}

// rawDataParams are the /raw-data query parameters.
type rawDataParams struct {
	listParams
	Start string `form:"start"`
	End   string `form:"end"`
}

// analyticsParams are the /analytics query parameters.
type analyticsParams struct {
	listParams
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// ReadingsResponse is the JSON body of /raw-data.
type ReadingsResponse struct {
	Count int                 `json:"count"`
	Items []analytics.Reading `json:"items"`
}

// SummariesResponse is the JSON body of /analytics.
type SummariesResponse struct {
	Count int                      `json:"count"`
	Items []analytics.DailySummary `json:"items"`
}

// BuildingsResponse is the JSON body of /buildings.
type BuildingsResponse struct {
	Buildings []string `json:"buildings"`
}

// BuildingRows is one per-building count in RawStatsResponse.
type BuildingRows struct {
	Building string `json:"building"`
	Rows     int64  `json:"rows"`
}

// RawStatsResponse is the JSON body of /raw-stats. Timestamps are nil when
// the raw store is empty.
type RawStatsResponse struct {
	TotalRows       int64          `json:"total_rows"`
	MinTimestamp    *string        `json:"min_timestamp"`
	MaxTimestamp    *string        `json:"max_timestamp"`
	RowsPerBuilding []BuildingRows `json:"rows_per_building"`
}
