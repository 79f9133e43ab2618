package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrNotFound marks a read of an aggregation key nothing has written yet.
	ErrNotFound = errors.New("aggregate not found")

	// ErrPartialBatch marks a batch where some but not all ops landed; the
	// skier set and the vertical counters may have diverged.
	ErrPartialBatch = errors.New("partially applied batch")

	// ErrUnknownOp marks an op kind the store cannot translate.
	ErrUnknownOp = errors.New("unknown op kind")
)
