// Package aggregate derives the store updates produced by one lift ride event.
//
// The keyspace is hierarchical over resort/season/day/skier. Set adds are
// idempotent; counter increments are not, so redelivered events double-count.
package aggregate

import (
	"fmt"
	"strconv"

	"github.com/slopetrace/slopetrace/internal/domain/model"
)

const (
	// verticalPerLift is the fixed multiplier from liftID to vertical. It is a
	// placeholder formula, not a per-lift vertical-drop model; keep it exact
	// for compatibility with existing aggregates.
	verticalPerLift = 10

	// VerticalField is the hash field holding a skier's vertical for one day.
	VerticalField = "vertical"

	// AllSeasonsField is the hash field accumulating lifetime vertical.
	AllSeasonsField = "all"
)

// Vertical computes the derived vertical contribution of one lift ride.
func Vertical(liftID int) int64 {
	return int64(liftID) * verticalPerLift
}

// DaySkiersKey addresses the set of unique skiers active on one resort/season/day.
func DaySkiersKey(resortID, seasonID, dayID int) string {
	return fmt.Sprintf("resort:%d:season:%d:day:%d:skiers", resortID, seasonID, dayID)
}

// SkierDayKey addresses the hash holding one skier's per-day counters.
func SkierDayKey(resortID, seasonID, dayID, skierID int) string {
	return fmt.Sprintf("resort:%d:season:%d:day:%d:skier:%d", resortID, seasonID, dayID, skierID)
}

// SkierVerticalKey addresses the hash of season field -> vertical counter for a
// skier at a resort, with the lifetime total under AllSeasonsField.
func SkierVerticalKey(resortID, skierID int) string {
	return fmt.Sprintf("resort:%d:skier:%d:vertical", resortID, skierID)
}

// OpKind discriminates the store primitives an Op maps to.
type OpKind int

const (
	// OpSetAdd adds a member to a set; re-adding is a no-op.
	OpSetAdd OpKind = iota
	// OpHashIncr increments a hash field; replays increment again.
	OpHashIncr
)

// Op is one store operation queued as part of an event's batch.
type Op struct {
	Kind   OpKind
	Key    string
	Field  string // hash field, OpHashIncr only
	Member string // set member, OpSetAdd only
	Delta  int64  // increment, OpHashIncr only
}

// Batch translates one event into its fixed set of derived updates: the
// unique-skier set add, the day vertical increment, and the season plus
// lifetime increments. The slice is applied as one pipelined request; it is a
// latency optimization, not a transaction.
func Batch(e model.LiftRideEvent) []Op {
	vertical := Vertical(e.LiftRide.LiftID)
	season := strconv.Itoa(e.SeasonID)

	return []Op{
		{
			Kind:   OpSetAdd,
			Key:    DaySkiersKey(e.ResortID, e.SeasonID, e.DayID),
			Member: strconv.Itoa(e.SkierID),
		},
		{
			Kind:  OpHashIncr,
			Key:   SkierDayKey(e.ResortID, e.SeasonID, e.DayID, e.SkierID),
			Field: VerticalField,
			Delta: vertical,
		},
		{
			Kind:  OpHashIncr,
			Key:   SkierVerticalKey(e.ResortID, e.SkierID),
			Field: season,
			Delta: vertical,
		},
		{
			Kind:  OpHashIncr,
			Key:   SkierVerticalKey(e.ResortID, e.SkierID),
			Field: AllSeasonsField,
			Delta: vertical,
		},
	}
}
