// Command seed fills the raw store with synthetic sensor readings for
// testing and demos.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/twinsight-lab/twinsight/internal/config"
	"github.com/twinsight-lab/twinsight/internal/core/analytics"
	"github.com/twinsight-lab/twinsight/internal/core/storage/postgres"
	"github.com/twinsight-lab/twinsight/internal/seed"
)

func main() {
	configPath := flag.String("config", "twinsight.yaml", "Path to configuration file")
	profilePath := flag.String("profile", "", "Fleet profile YAML. Defaults to a three-building office fleet.")
	days := flag.Int("days", 365, "Days of history to generate, ending today")
	startStr := flag.String("start", "", "First reading timestamp (YYYY-MM-DD or ISO8601). Defaults to now minus days.")
	randSeed := flag.Int64("seed", 0, "Random seed. 0 means non-deterministic.")
	batchSize := flag.Int("batch", 0, "Rows per insert batch. 0 means default.")
	workers := flag.Int("workers", 0, "Concurrent insert workers. 0 means default.")
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

	profile := seed.DefaultProfile()
	if *profilePath != "" {
		profile, err = seed.LoadProfile(*profilePath)
		if err != nil {
			slog.Error("Failed to load fleet profile", "error", err)
			os.Exit(1)
		}
	}

	start, err := analytics.ParseBound(*startStr, cfg.Location())
	if err != nil {
		slog.Error("Invalid start date", "error", err)
		os.Exit(1)
	}
	if start.IsZero() {
		start = time.Now().In(cfg.Location()).AddDate(0, 0, -*days)
	}

	rawDB, err := postgres.Connect(cfg.RawDB.DSN, cfg.RawDB.MaxOpenConns, cfg.RawDB.MaxIdleConns, "sensor_data")
	if err != nil {
		slog.Error("Failed to connect raw store", "error", err)
		os.Exit(1)
	}
	defer rawDB.Close()

	gen, err := seed.NewGenerator(rawDB, profile, seed.Options{
		BatchSize: *batchSize,
		Workers:   *workers,
		Seed:      *randSeed,
	})
	if err != nil {
		slog.Error("Failed to build generator", "error", err)
		os.Exit(1)
	}

	rows, err := gen.Generate(context.Background(), start, *days)
	if err != nil {
		slog.Error("Seed run failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Seed complete", "rows", rows, "start", start, "days", *days)
}
