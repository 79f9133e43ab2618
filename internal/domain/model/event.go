// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// LiftRide is one raw measurement: a skier riding one lift at a point in time.
type LiftRide struct {
	LiftID int `json:"liftID"`
	Time   int `json:"time"`
}

// LiftRideEvent is the wire envelope published to the queue. There is no event
// id; duplicate delivery is indistinguishable from a new event.
type LiftRideEvent struct {
	ResortID int      `json:"resortID"`
	SeasonID int      `json:"seasonID"`
	DayID    int      `json:"dayID"`
	SkierID  int      `json:"skierID"`
	LiftRide LiftRide `json:"liftRide"`
}

// LiftRidePayload mirrors the POST body. Pointer fields make absent or null
// values detectable during validation.
type LiftRidePayload struct {
	LiftID *int `json:"liftID"`
	Time   *int `json:"time"`
}

// Validate requires both body fields to be present. Range checks are left to
// the generator side; the gateway only requires presence and numeric type.
func (p LiftRidePayload) Validate() error {
	switch {
	case p.LiftID == nil:
		return errors.New("missing liftID")
	case p.Time == nil:
		return errors.New("missing time")
	}
	return nil
}

// LiftRide converts a validated payload into the domain type.
func (p LiftRidePayload) LiftRide() LiftRide {
	return LiftRide{LiftID: *p.LiftID, Time: *p.Time}
}

// Encode serializes the event as the JSON queue payload.
func (e LiftRideEvent) Encode() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode lift ride event: %w", err)
	}
	return b, nil
}

// DecodeLiftRideEvent parses a queue payload back into an event.
func DecodeLiftRideEvent(data []byte) (LiftRideEvent, error) {
	var e LiftRideEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LiftRideEvent{}, fmt.Errorf("decode lift ride event: %w", err)
	}
	return e, nil
}
