package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/twinsight-lab/twinsight/internal/core/analytics"
)

const (
	defaultBatchSize = 1000
	defaultWorkers   = 4

	readingFieldCount = 5 // building, timestamp, temperature, humidity, occupancy
)

// Options controls generator throughput and determinism.
type Options struct {
	BatchSize int
	Workers   int
	// Seed fixes the random source. Zero means non-deterministic.
	Seed int64
}

func (o Options) normalized() Options {
	n := o
	if n.BatchSize <= 0 {
		n.BatchSize = defaultBatchSize
	}
	if n.Workers <= 0 {
		n.Workers = defaultWorkers
	}
	return n
}

// Generator writes synthetic readings into the raw store. It exists to seed
// test and demo environments; the production raw store is fed by the real
// sensor gateway.
type Generator struct {
	db      *sql.DB
	profile Profile
	opts    Options
	rng     *rand.Rand
}

// NewGenerator creates a generator for the given raw store connection.
func NewGenerator(db *sql.DB, profile Profile, opts Options) (*Generator, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	opts = opts.normalized()

	seedValue := opts.Seed
	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}

	return &Generator{
		db:      db,
		profile: profile,
		opts:    opts,
		rng:     rand.New(rand.NewSource(seedValue)),
	}, nil
}

// Generate produces readings covering [start, start + days) at the profile's
// cadence, one reading per tick from a randomly chosen building, and inserts
// them in concurrent batches. Returns the number of rows written.
func (g *Generator) Generate(ctx context.Context, start time.Time, days int) (int, error) {
	if days <= 0 {
		return 0, fmt.Errorf("days must be positive, got %d", days)
	}

	interval, err := g.profile.IntervalDuration()
	if err != nil {
		return 0, err
	}

	runID := uuid.NewString()
	total := int(time.Duration(days) * 24 * time.Hour / interval)
	readings := make([]analytics.Reading, 0, total)
	for i := 0; i < total; i++ {
		readings = append(readings, g.sample(start.Add(time.Duration(i)*interval)))
	}

	slog.Info("[Seed] Generating readings",
		"run_id", runID,
		"rows", len(readings),
		"days", days,
		"interval", interval,
		"buildings", len(g.profile.Buildings))

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(g.opts.Workers)

	for offset := 0; offset < len(readings); offset += g.opts.BatchSize {
		end := offset + g.opts.BatchSize
		if end > len(readings) {
			end = len(readings)
		}
		chunk := readings[offset:end]
		grp.Go(func() error {
			return g.insertChunk(grpCtx, chunk)
		})
	}

	if err := grp.Wait(); err != nil {
		return 0, fmt.Errorf("seed run %s: %w", runID, err)
	}

	slog.Info("[Seed] Run complete", "run_id", runID, "rows", len(readings))
	return len(readings), nil
}

// sample produces one reading at the given timestamp for a randomly chosen
// building, values rounded to two decimals like the real sensors report.
func (g *Generator) sample(ts time.Time) analytics.Reading {
	b := g.profile.Buildings[g.rng.Intn(len(g.profile.Buildings))]
	return analytics.Reading{
		Building:    b.Name,
		Timestamp:   ts,
		Temperature: round2(g.uniform(b.Temperature)),
		Humidity:    round2(g.uniform(b.Humidity)),
		Occupancy:   g.rng.Intn(b.MaxOccupancy + 1),
	}
}

func (g *Generator) uniform(r ValueRange) float64 {
	return r.Min + g.rng.Float64()*(r.Max-r.Min)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// insertChunk writes one batch as a single multi-row INSERT.
func (g *Generator) insertChunk(ctx context.Context, chunk []analytics.Reading) error {
	placeholders := make([]string, 0, len(chunk))
	args := make([]interface{}, 0, len(chunk)*readingFieldCount)

	for i, r := range chunk {
		base := i * readingFieldCount
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5))
		args = append(args, r.Building, r.Timestamp, r.Temperature, r.Humidity, r.Occupancy)
	}

	query := "INSERT INTO sensor_data (building, timestamp, temperature, humidity, occupancy) VALUES " +
		strings.Join(placeholders, ", ")
	if _, err := g.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert reading batch (%d rows): %w", len(chunk), err)
	}
	return nil
}
