package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type Server struct {
	Engine      *gin.Engine
	Addr        string
	rawDB       *sql.DB
	analyticsDB *sql.DB
}

// New creates the HTTP server. Both store handles are held only for the
// health endpoint; request handling goes through the query service.
func New(addr string, rawDB, analyticsDB *sql.DB, mode string) *Server {
	if mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(requestID())

	s := &Server{
		Engine:      r,
		Addr:        addr,
		rawDB:       rawDB,
		analyticsDB: analyticsDB,
	}

	// Health check verifies connectivity to both stores; no auth.
	r.GET("/health", s.healthHandler)

	return s
}

// requestID echoes the caller's X-Request-ID or assigns a fresh one, so log
// lines and responses can be correlated.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Set("request_id", id)
		c.Next()
	}
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	for name, db := range map[string]*sql.DB{"raw": s.rawDB, "analytics": s.analyticsDB} {
		if db == nil {
			continue
		}
		if err := db.PingContext(ctx); err != nil {
			slog.Error("Health check failed: store unreachable", "store", name, "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  name + " store unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr,
		Handler: s.Engine,
	}

	slog.Info("Starting HTTP Server...", "address", s.Addr)

	go func() {
		<-ctx.Done()
		slog.Info("Stopping HTTP Server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP Server forced to shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
