// Command transform runs one aggregation pass: it compresses raw sensor
// readings into daily per-building summaries and merges them into the
// analytics store. Safe to re-run over any window; the merge is idempotent.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/twinsight-lab/twinsight/internal/aggregation"
	"github.com/twinsight-lab/twinsight/internal/config"
	"github.com/twinsight-lab/twinsight/internal/core/analytics"
	"github.com/twinsight-lab/twinsight/internal/core/storage/postgres"
)

func main() {
	configPath := flag.String("config", "twinsight.yaml", "Path to configuration file")
	startStr := flag.String("start", "", "Start date (YYYY-MM-DD or ISO8601). Optional.")
	endStr := flag.String("end", "", "End date (exclusive, YYYY-MM-DD or ISO8601). Optional.")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	// Bounds are validated before any store is touched.
	loc := cfg.Location()
	start, err := analytics.ParseBound(*startStr, loc)
	if err != nil {
		slog.Error("Invalid start date", "error", err)
		os.Exit(1)
	}
	end, err := analytics.ParseBound(*endStr, loc)
	if err != nil {
		slog.Error("Invalid end date", "error", err)
		os.Exit(1)
	}

	rawDB, err := postgres.Connect(cfg.RawDB.DSN, cfg.RawDB.MaxOpenConns, cfg.RawDB.MaxIdleConns, "sensor_data")
	if err != nil {
		slog.Error("Failed to connect raw store", "error", err)
		os.Exit(1)
	}
	defer rawDB.Close()

	analyticsDB, err := postgres.Connect(cfg.AnalyticsDB.DSN, cfg.AnalyticsDB.MaxOpenConns, cfg.AnalyticsDB.MaxIdleConns, "analytics_data")
	if err != nil {
		slog.Error("Failed to connect analytics store", "error", err)
		os.Exit(1)
	}
	defer analyticsDB.Close()

	result, err := aggregation.Run(
		context.Background(),
		postgres.NewReadingAdapter(rawDB),
		postgres.NewSummaryAdapter(analyticsDB, cfg.Aggregation.UpsertBatchSize),
		aggregation.RunOptions{Start: start, End: end, Location: loc},
	)
	if err != nil {
		if errors.Is(err, analytics.ErrNoData) {
			slog.Error("No readings found in raw store. Generate data first.")
		} else {
			slog.Error("Aggregation run failed", "error", err)
		}
		os.Exit(1)
	}

	slog.Info("Aggregation complete",
		"rows", result.Rows,
		"window_start", result.Window.Start,
		"window_end", result.Window.End)
}
