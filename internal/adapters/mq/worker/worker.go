// Package worker drains the aggregation buffer with a fixed goroutine pool.
//
// Each worker repeatedly takes one task, derives its store operations, and
// applies them as a single pipelined write. The pool size bounds concurrent
// store load regardless of ingest rate.
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/slopetrace/slopetrace/internal/adapters/mq/queue"
	"github.com/slopetrace/slopetrace/internal/adapters/repository"
	"github.com/slopetrace/slopetrace/internal/domain/aggregate"
	"github.com/slopetrace/slopetrace/pkg/logger"
	"github.com/slopetrace/slopetrace/pkg/metrics"
)

const defaultApplyTimeout = 5 * time.Second

// Pool aggregates buffered tasks into the store.
type Pool struct {
	buffer queue.Buffer
	store  repository.Store

	count        int
	applyTimeout time.Duration

	wg      sync.WaitGroup
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex

	log logger.Logger
}

// NewPool builds an aggregation pool. The default worker count scales with
// available CPUs since the work is dominated by store round trips.
func NewPool(buffer queue.Buffer, store repository.Store, opts ...Option) *Pool {
	p := &Pool{
		buffer:       buffer,
		store:        store,
		count:        runtime.NumCPU() * 4,
		applyTimeout: defaultApplyTimeout,
		log:          logger.Named("aggregator"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Start launches the workers.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.run(workerCtx, i)
	}

	p.started = true
	metrics.UpdateWorkerCount(p.count)
	p.log.Info(ctx, "aggregation pool started", logger.Int("workers", p.count))
	return nil
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	log := p.log.Named("worker")
	for t := range p.buffer.Dequeue(ctx) {
		p.process(ctx, log, t)
	}
	log.Debug(ctx, "worker drained", logger.Int("worker", id))
}

// process applies one task's operations and settles its delivery.
func (p *Pool) process(ctx context.Context, log logger.Logger, t queue.Task) {
	start := time.Now()
	ops := aggregate.Batch(t.Event)

	applyCtx, cancel := context.WithTimeout(ctx, p.applyTimeout)
	err := p.store.Apply(applyCtx, ops)
	cancel()

	metrics.RecordAggregationLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordAggregationError()
		metrics.RecordErrorByComponent("aggregator", "apply")
		log.Error(ctx, "failed to apply event",
			logger.Error(err),
			logger.Int("skierID", t.Event.SkierID),
			logger.Int("resortID", t.Event.ResortID),
		)
		// A partially applied batch still settles: redelivery would double the
		// counter ops that already landed.
		if errors.Is(err, repository.ErrPartialBatch) {
			p.settle(ctx, log, t.Ack)
			return
		}
		if t.Reject != nil {
			if rerr := t.Reject(false); rerr != nil {
				log.Error(ctx, "failed to reject delivery", logger.Error(rerr))
			}
		}
		return
	}

	metrics.RecordAggregationBatch()
	p.settle(ctx, log, t.Ack)
}

func (p *Pool) settle(ctx context.Context, log logger.Logger, ack func() error) {
	if ack == nil {
		return
	}
	if err := ack(); err != nil {
		log.Error(ctx, "failed to ack delivery", logger.Error(err))
	}
}

// Stop cancels the workers and waits for in-flight tasks to finish. The
// buffer should be closed first so buffered tasks drain before the wait.
func (p *Pool) Stop(ctx context.Context) {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	cancel := p.cancel
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		cancel()
		p.wg.Wait()
	}
	cancel()

	metrics.UpdateWorkerCount(0)
	p.log.Info(ctx, "aggregation pool stopped")
}
