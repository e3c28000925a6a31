package query

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	httperr "github.com/twinsight-lab/twinsight/internal/core/errors"
	"github.com/twinsight-lab/twinsight/internal/core/storage"
)

// Service serves the read-only query API over both stores. It never writes:
// the raw store belongs to the producer and the summary store to the
// aggregation pipeline.
type Service struct {
	readings  storage.ReadingStore
	summaries storage.SummaryStore
	apiKey    string
	loc       *time.Location
}

// NewService creates the query service. An empty apiKey disables
// authentication. loc sets the zone used to interpret date-only bounds.
func NewService(readings storage.ReadingStore, summaries storage.SummaryStore, apiKey string, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		readings:  readings,
		summaries: summaries,
		apiKey:    apiKey,
		loc:       loc,
	}
}

// RegisterRoutes registers all query API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	authed := r.Group("/", s.requireAPIKey)
	authed.GET("/buildings", s.HandleBuildings)
	authed.GET("/raw-stats", s.HandleRawStats)
	authed.GET("/raw-data", s.HandleRawData)
	authed.GET("/analytics", s.HandleAnalytics)
}

// requireAPIKey rejects requests whose X-API-Key header does not match the
// configured shared secret. Comparison is constant-time.
func (s *Service) requireAPIKey(c *gin.Context) {
	if s.apiKey == "" {
		c.Next()
		return
	}

	supplied := c.GetHeader("X-API-Key")
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.apiKey)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, httperr.ErrorResponse{
			ErrorType: httperr.HttpUnauthorizedError,
			Message:   "Invalid or missing API key",
		})
		return
	}
	c.Next()
}
