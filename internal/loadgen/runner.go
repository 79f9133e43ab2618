package loadgen

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slopetrace/slopetrace/pkg/logger"
)

const throughputSampleInterval = time.Second

// Report bundles everything a run produced.
type Report struct {
	Summary Summary
	Results []Result
	Windows []Window
}

// Runner drives concurrent submitters against one gateway.
type Runner struct {
	client    *Client
	generator *Generator
	total     int
	workers   int

	log logger.Logger
}

// NewRunner builds a runner posting total events with the given concurrency.
func NewRunner(client *Client, generator *Generator, opts ...RunnerOption) *Runner {
	r := &Runner{
		client:    client,
		generator: generator,
		total:     200_000,
		workers:   32,
		log:       logger.Named("loadgen"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run generates and posts events until the count is reached or ctx ends, and
// returns the collected report.
func (r *Runner) Run(ctx context.Context) Report {
	start := time.Now()
	events := r.generator.Stream(ctx, r.total)

	var mu sync.Mutex
	var results []Result
	var sent atomic.Int64

	// One sample per second so throughput collapse is visible over the run,
	// not just in the final average.
	var windows []Window
	samplerDone := make(chan struct{})
	go func() {
		defer close(samplerDone)
		ticker := time.NewTicker(throughputSampleInterval)
		defer ticker.Stop()
		var prev int64
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cur := sent.Load()
				windows = append(windows, Window{
					Elapsed:    time.Since(start),
					Throughput: float64(cur-prev) / throughputSampleInterval.Seconds(),
				})
				prev = cur
				if cur >= int64(r.total) {
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range events {
				attempts, ok := r.client.PostRide(ctx, e)
				mu.Lock()
				results = append(results, attempts...)
				mu.Unlock()
				sent.Add(1)
				if !ok && ctx.Err() != nil {
					return
				}
			}
		}()
	}

	wg.Wait()
	wall := time.Since(start)
	<-samplerDone

	report := Report{
		Summary: Summarize(results, wall),
		Results: results,
		Windows: windows,
	}
	r.log.Info(ctx, "run finished",
		logger.Int("requests", report.Summary.Total),
		logger.Int("failed", report.Summary.Failed),
		logger.Duration("wall", wall),
	)
	return report
}

// RunnerOption applies a configuration option to the Runner.
type RunnerOption func(*Runner)

// WithTotalRequests sets how many events the run posts.
func WithTotalRequests(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.total = n
		}
	}
}

// WithWorkers sets the number of concurrent submitters.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}
