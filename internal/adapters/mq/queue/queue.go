// Package queue provides the bounded in-process buffer between the consumer
// pool and the aggregation workers.
//
// The buffer makes aggregation fan-out an explicit, tunable bound: consumers
// enqueue decoded deliveries and return to receiving, workers drain at their
// own pace, and a full buffer is visible backpressure instead of unbounded
// goroutine growth.
package queue

import (
	"context"
	"sync"

	"github.com/slopetrace/slopetrace/internal/domain/model"
	"github.com/slopetrace/slopetrace/pkg/metrics"
)

const defaultCapacity = 10_000

// Task is one decoded delivery awaiting aggregation. Under manual
// acknowledgment the settle callbacks travel with the event across the async
// boundary; under auto-ack they are nil.
type Task struct {
	Event model.LiftRideEvent

	// Ack settles the delivery after aggregation succeeds.
	Ack func() error

	// Reject discards the delivery, optionally requeueing it.
	Reject func(requeue bool) error
}

// Buffer provides non-blocking enqueue and channel-based dequeue semantics.
type Buffer interface {
	// Enqueue adds a task. Returns false when the buffer is full or closed.
	Enqueue(ctx context.Context, t Task) bool

	// Dequeue returns a channel receiving tasks as they become available.
	// The channel is closed when the buffer is closed and drained.
	Dequeue(ctx context.Context) <-chan Task

	// Len returns the current number of buffered tasks.
	Len(ctx context.Context) int

	// Close stops intake; buffered tasks remain consumable.
	Close() error

	// IsClosed reports whether the buffer has been closed.
	IsClosed() bool
}

// MemoryBuffer implements Buffer over a buffered channel.
type MemoryBuffer struct {
	tasks    chan Task
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewMemoryBuffer creates a bounded buffer.
func NewMemoryBuffer(opts ...Option) *MemoryBuffer {
	b := &MemoryBuffer{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(b)
	}

	b.tasks = make(chan Task, b.capacity)

	metrics.UpdateBufferCapacity(b.capacity)
	metrics.UpdateBufferSize(0)
	metrics.UpdateBufferUtilization(0)

	return b
}

// Enqueue adds a task without blocking.
func (b *MemoryBuffer) Enqueue(ctx context.Context, t Task) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		metrics.RecordBufferRejection()
		metrics.RecordErrorByComponent("buffer", "closed")
		return false
	}

	select {
	case b.tasks <- t:
		metrics.RecordBufferEnqueue()
		b.publishDepth()
		return true
	case <-ctx.Done():
		metrics.RecordBufferRejection()
		metrics.RecordErrorByComponent("buffer", "context_cancelled")
		return false
	default:
		metrics.RecordBufferRejection()
		metrics.RecordErrorByComponent("buffer", "full")
		return false
	}
}

// Dequeue returns a channel receiving tasks as they become available.
func (b *MemoryBuffer) Dequeue(ctx context.Context) <-chan Task {
	out := make(chan Task)
	go func() {
		defer close(out)
		for t := range b.tasks {
			select {
			case out <- t:
				metrics.RecordBufferDequeue()
				b.publishDepth()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of buffered tasks.
func (b *MemoryBuffer) Len(_ context.Context) int {
	return len(b.tasks)
}

// Close stops intake. Already-buffered tasks drain to consumers.
func (b *MemoryBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	close(b.tasks)
	b.closed = true
	return nil
}

// IsClosed reports whether the buffer has been closed.
func (b *MemoryBuffer) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

func (b *MemoryBuffer) publishDepth() {
	depth := len(b.tasks)
	metrics.UpdateBufferSize(depth)
	metrics.UpdateBufferUtilization(float64(depth) / float64(b.capacity))
}
