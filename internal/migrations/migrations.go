package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed raw/*.sql
var rawFiles embed.FS

//go:embed analytics/*.sql
var analyticsFiles embed.FS

// Set names one database's migration files. The system owns two schemas,
// one per store, migrated independently.
type Set struct {
	Name string
	fs   embed.FS
	dir  string
}

var (
	// Raw is the sensor_data schema (raw store).
	Raw = Set{Name: "raw", fs: rawFiles, dir: "raw"}

	// Analytics is the analytics_data schema (summary store).
	Analytics = Set{Name: "analytics", fs: analyticsFiles, dir: "analytics"}
)

// Run executes all pending migrations of one set against the provided
// database. If autoMigrate is false, it only logs the current version.
func Run(db *sql.DB, set Set, autoMigrate bool) error {
	sourceDriver, err := iofs.New(set.fs, set.dir)
	if err != nil {
		return fmt.Errorf("failed to create %s migration source: %w", set.Name, err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create %s database driver: %w", set.Name, err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create %s migrate instance: %w", set.Name, err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get current %s migration version: %w", set.Name, err)
	}

	if dirty {
		slog.Warn("Database is in dirty state - migration was interrupted",
			"set", set.Name,
			"version", version,
			"action", "attempting automatic recovery",
		)

		// Single baseline migration per set allows safe force-to-current recovery.
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to recover dirty %s migration state at version %d: %w", set.Name, version, err)
		}
		slog.Info("Recovered dirty migration state", "set", set.Name, "version", version)
	}

	if !autoMigrate {
		slog.Info("Auto-migration disabled, skipping migrations",
			"set", set.Name,
			"current_version", version,
			"dirty", dirty,
		)
		return nil
	}

	slog.Info("Running database migrations", "set", set.Name, "current_version", version)

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			slog.Info("Database schema is up to date", "set", set.Name, "version", version)
			return nil
		}
		return fmt.Errorf("failed to run %s migrations: %w", set.Name, err)
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get updated %s migration version: %w", set.Name, err)
	}

	slog.Info("Database migrations completed successfully",
		"set", set.Name,
		"from_version", version,
		"to_version", newVersion,
	)

	return nil
}
