package query

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/twinsight-lab/twinsight/internal/core/analytics"
	httperr "github.com/twinsight-lab/twinsight/internal/core/errors"
	"github.com/twinsight-lab/twinsight/internal/core/storage"
)

// HandleBuildings handles GET /buildings.
func (s *Service) HandleBuildings(c *gin.Context) {
	buildings, err := s.readings.Buildings(c.Request.Context())
	if err != nil {
		writeStoreError(c, "Failed to list buildings", err)
		return
	}
	if buildings == nil {
		buildings = []string{}
	}
	c.JSON(http.StatusOK, BuildingsResponse{Buildings: buildings})
}

// HandleRawStats handles GET /raw-stats.
func (s *Service) HandleRawStats(c *gin.Context) {
	stats, err := s.readings.Stats(c.Request.Context())
	if err != nil {
		writeStoreError(c, "Failed to compute raw stats", err)
		return
	}

	resp := RawStatsResponse{
		TotalRows:       stats.TotalRows,
		RowsPerBuilding: make([]BuildingRows, 0, len(stats.RowsPerBuilding)),
	}
	if !stats.MinTimestamp.IsZero() {
		min := stats.MinTimestamp.Format(time.RFC3339)
		resp.MinTimestamp = &min
	}
	if !stats.MaxTimestamp.IsZero() {
		max := stats.MaxTimestamp.Format(time.RFC3339)
		resp.MaxTimestamp = &max
	}
	for _, bc := range stats.RowsPerBuilding {
		resp.RowsPerBuilding = append(resp.RowsPerBuilding, BuildingRows{Building: bc.Building, Rows: bc.Rows})
	}

	c.JSON(http.StatusOK, resp)
}

// HandleRawData handles GET /raw-data.
// Query parameters: start, end, building, limit, offset, order, format.
func (s *Service) HandleRawData(c *gin.Context) {
	var params rawDataParams
	if err := c.ShouldBindQuery(&params); err != nil {
		writeBindError(c, err)
		return
	}

	start, end, ok := s.parseBounds(c, params.Start, params.End)
	if !ok {
		return
	}

	readings, err := s.readings.QueryReadings(c.Request.Context(), storage.ReadingFilter{
		Start:      start,
		End:        end,
		Building:   params.Building,
		Limit:      params.Limit,
		Offset:     params.Offset,
		Descending: params.Order == "desc",
	})
	if err != nil {
		writeStoreError(c, "Failed to query raw data", err)
		return
	}

	if params.Format == "csv" {
		writeReadingsCSV(c, readings)
		return
	}
	if readings == nil {
		readings = []analytics.Reading{}
	}
	c.JSON(http.StatusOK, ReadingsResponse{Count: len(readings), Items: readings})
}

// HandleAnalytics handles GET /analytics.
// Query parameters: start_date, end_date, building, limit, offset, order, format.
func (s *Service) HandleAnalytics(c *gin.Context) {
	var params analyticsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		writeBindError(c, err)
		return
	}

	start, end, ok := s.parseBounds(c, params.StartDate, params.EndDate)
	if !ok {
		return
	}

	summaries, err := s.summaries.QuerySummaries(c.Request.Context(), storage.SummaryFilter{
		StartDate:  start,
		EndDate:    end,
		Building:   params.Building,
		Limit:      params.Limit,
		Offset:     params.Offset,
		Descending: params.Order == "desc",
	})
	if err != nil {
		writeStoreError(c, "Failed to query analytics", err)
		return
	}

	if params.Format == "csv" {
		writeSummariesCSV(c, summaries)
		return
	}
	if summaries == nil {
		summaries = []analytics.DailySummary{}
	}
	c.JSON(http.StatusOK, SummariesResponse{Count: len(summaries), Items: summaries})
}

// parseBounds parses optional start/end strings, writing the 400 response
// itself on failure. ok is false when a response was already written.
func (s *Service) parseBounds(c *gin.Context, startStr, endStr string) (start, end time.Time, ok bool) {
	start, err := analytics.ParseBound(startStr, s.loc)
	if err == nil {
		end, err = analytics.ParseBound(endStr, s.loc)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidDateError,
			Message:   "Invalid date or timestamp",
			Details:   err.Error(),
		})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidQueryError,
		Message:   "Invalid query parameters",
		Details:   err.Error(),
	})
}

func writeStoreError(c *gin.Context, message string, err error) {
	slog.Error(message, "error", err)
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   message,
		Details:   err.Error(),
	})
}

func writeReadingsCSV(c *gin.Context, readings []analytics.Reading) {
	c.Header("Content-Type", "text/csv")
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "building", "timestamp", "temperature", "humidity", "occupancy"})
	for _, r := range readings {
		_ = w.Write([]string{
			strconv.FormatInt(r.ID, 10),
			r.Building,
			r.Timestamp.Format(time.RFC3339),
			formatFloat(r.Temperature),
			formatFloat(r.Humidity),
			strconv.Itoa(r.Occupancy),
		})
	}
	w.Flush()
}

func writeSummariesCSV(c *gin.Context, summaries []analytics.DailySummary) {
	c.Header("Content-Type", "text/csv")
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "building", "date", "avg_temperature", "avg_humidity", "occupancy_rate"})
	for _, s := range summaries {
		_ = w.Write([]string{
			strconv.FormatInt(s.ID, 10),
			s.Building,
			s.Date.Format("2006-01-02"),
			formatFloat(s.AvgTemperature),
			formatFloat(s.AvgHumidity),
			formatFloat(s.OccupancyRate),
		})
	}
	w.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
