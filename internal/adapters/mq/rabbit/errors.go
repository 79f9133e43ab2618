package rabbit

import "errors"

// Sentinel kinds for broker errors.
var (
	// ErrBrokerUnavailable marks dial or channel-open failures.
	ErrBrokerUnavailable = errors.New("broker unavailable")

	// ErrPoolExhausted marks a borrow that timed out waiting for a channel.
	ErrPoolExhausted = errors.New("channel pool exhausted")

	// ErrPoolClosed marks use of a closed pool.
	ErrPoolClosed = errors.New("channel pool closed")
)
