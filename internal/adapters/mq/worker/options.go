package worker

import "time"

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkerCount sets the number of aggregation goroutines.
func WithWorkerCount(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.count = n
		}
	}
}

// WithApplyTimeout bounds each store write.
func WithApplyTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.applyTimeout = d
		}
	}
}
