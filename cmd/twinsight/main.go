package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/twinsight-lab/twinsight/internal/aggregation"
	"github.com/twinsight-lab/twinsight/internal/config"
	"github.com/twinsight-lab/twinsight/internal/core/storage/postgres"
	"github.com/twinsight-lab/twinsight/internal/migrations"
	"github.com/twinsight-lab/twinsight/internal/query"
	"github.com/twinsight-lab/twinsight/internal/server"
)

func main() {
	configPath := flag.String("config", "twinsight.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	// 2. Connect both stores and run their migrations
	rawDB := mustConnect(cfg.RawDB, migrations.Raw)
	defer rawDB.Close()

	analyticsDB := mustConnect(cfg.AnalyticsDB, migrations.Analytics)
	defer analyticsDB.Close()

	readings := postgres.NewReadingAdapter(rawDB)
	summaries := postgres.NewSummaryAdapter(analyticsDB, cfg.Aggregation.UpsertBatchSize)

	// 3. Initialize the aggregation scheduler
	scheduler := aggregation.NewScheduler(
		cfg.CronInterval(),
		readings,
		summaries,
		aggregation.RunOptions{Location: cfg.Location()},
	)

	// 4. Initialize the query API and server
	querySvc := query.NewService(readings, summaries, cfg.Auth.APIKey, cfg.Location())

	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), rawDB, analyticsDB, cfg.Server.Mode)
	querySvc.RegisterRoutes(srv.Engine)

	// 5. Start services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Aggregation.Enabled {
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				slog.Error("Scheduler stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Aggregation scheduler disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func mustConnect(dbCfg config.DatabaseConfig, set migrations.Set) *sql.DB {
	db, err := postgres.Connect(dbCfg.DSN, dbCfg.MaxOpenConns, dbCfg.MaxIdleConns, "")
	if err != nil {
		slog.Error("Failed to connect database", "set", set.Name, "error", err)
		os.Exit(1)
	}
	if err := migrations.Run(db, set, dbCfg.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "set", set.Name, "error", err)
		os.Exit(1)
	}
	return db
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
