// Package repository provides the aggregate store over Redis.
package repository

import (
	"context"

	"github.com/slopetrace/slopetrace/internal/domain/aggregate"
)

// Store provides batched writes and point reads against the aggregation keys.
type Store interface {
	// Apply executes one event's ops as a single pipelined request. The batch
	// reduces round trips only; individual ops are atomic at the store but the
	// batch is not transactional across keys.
	Apply(ctx context.Context, ops []aggregate.Op) error

	// UniqueSkiers returns the cardinality of the day's skier set. A missing
	// set reads as zero.
	UniqueSkiers(ctx context.Context, resortID, seasonID, dayID int) (int64, error)

	// DayVertical returns a skier's vertical for one resort/season/day.
	// Returns ErrNotFound when no rides have been aggregated.
	DayVertical(ctx context.Context, resortID, seasonID, dayID, skierID int) (int64, error)

	// TotalVertical returns a skier's vertical at a resort for one season, or
	// the lifetime total when season is empty. Returns ErrNotFound when absent.
	TotalVertical(ctx context.Context, resortID, skierID int, season string) (int64, error)

	// Close releases the underlying connections.
	Close() error
}
