// Package loadgen generates synthetic lift ride traffic and measures how the
// gateway holds up under it.
package loadgen

import (
	"context"
	"math/rand"

	"github.com/slopetrace/slopetrace/internal/domain/model"
)

// Default generation ranges.
const (
	defaultSkierMaxID  = 100_000
	defaultResortMaxID = 10
	defaultLiftMaxID   = 40
	defaultTimeMax     = 360
	defaultSeasonID    = 2024
	defaultDayID       = 1
)

// Generator produces random lift ride events within configured ranges.
type Generator struct {
	skierMaxID  int
	resortMaxID int
	liftMaxID   int
	timeMax     int
	seasonID    int
	dayID       int
}

// NewGenerator creates a generator with default ranges.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		skierMaxID:  defaultSkierMaxID,
		resortMaxID: defaultResortMaxID,
		liftMaxID:   defaultLiftMaxID,
		timeMax:     defaultTimeMax,
		seasonID:    defaultSeasonID,
		dayID:       defaultDayID,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Next produces one random event.
func (g *Generator) Next() model.LiftRideEvent {
	return model.LiftRideEvent{
		ResortID: rand.Intn(g.resortMaxID) + 1,
		SeasonID: g.seasonID,
		DayID:    g.dayID,
		SkierID:  rand.Intn(g.skierMaxID) + 1,
		LiftRide: model.LiftRide{
			LiftID: rand.Intn(g.liftMaxID) + 1,
			Time:   rand.Intn(g.timeMax) + 1,
		},
	}
}

// Stream emits n random events on the returned channel, closing it when done
// or when ctx is cancelled.
func (g *Generator) Stream(ctx context.Context, n int) <-chan model.LiftRideEvent {
	out := make(chan model.LiftRideEvent, 1000)
	go func() {
		defer close(out)
		for i := 0; i < n; i++ {
			select {
			case out <- g.Next():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// GeneratorOption applies a configuration option to the Generator.
type GeneratorOption func(*Generator)

// WithSkierRange sets the maximum skier ID.
func WithSkierRange(max int) GeneratorOption {
	return func(g *Generator) {
		if max > 0 {
			g.skierMaxID = max
		}
	}
}

// WithResortRange sets the maximum resort ID.
func WithResortRange(max int) GeneratorOption {
	return func(g *Generator) {
		if max > 0 {
			g.resortMaxID = max
		}
	}
}

// WithLiftRange sets the maximum lift ID.
func WithLiftRange(max int) GeneratorOption {
	return func(g *Generator) {
		if max > 0 {
			g.liftMaxID = max
		}
	}
}

// WithSeasonDay pins the season and day all events land on.
func WithSeasonDay(seasonID, dayID int) GeneratorOption {
	return func(g *Generator) {
		if seasonID > 0 {
			g.seasonID = seasonID
		}
		if dayID > 0 {
			g.dayID = dayID
		}
	}
}
