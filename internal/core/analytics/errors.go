package analytics

import "errors"

// Sentinel failures surfaced by the aggregation pipeline. Callers branch on
// these with errors.Is; everything else is a store/driver error wrapped
// with %w and treated as retryable by the scheduler or operator.
var (
	// ErrInvalidBound means a caller-supplied start/end string could not be
	// parsed as a calendar date or timestamp. The run aborts before any
	// store is touched.
	ErrInvalidBound = errors.New("invalid date or timestamp format")

	// ErrNoData means bounds had to be auto-detected but the raw store holds
	// zero readings. Distinct from bad input: the fix is to produce data,
	// not to correct the invocation.
	ErrNoData = errors.New("no readings available in raw store")

	// ErrConstraintSetup means the (building, date) uniqueness index could
	// not be created or verified. Merging without it would risk duplicate
	// summary rows, so the run aborts before any upsert.
	ErrConstraintSetup = errors.New("summary uniqueness constraint setup failed")
)
