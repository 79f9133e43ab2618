package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/slopetrace/slopetrace/internal/domain/model"
)

func task(skierID int) Task {
	return Task{Event: model.LiftRideEvent{
		ResortID: 1, SeasonID: 2024, DayID: 1, SkierID: skierID,
		LiftRide: model.LiftRide{LiftID: 5, Time: 100},
	}}
}

func TestMemoryBufferBasicOperations(t *testing.T) {
	b := NewMemoryBuffer(WithCapacity(2))
	ctx := context.Background()

	if l := b.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !b.Enqueue(ctx, task(1)) {
		t.Error("expected enqueue to succeed")
	}
	if l := b.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	out := b.Dequeue(ctx)
	got := <-out
	if got.Event.SkierID != 1 {
		t.Errorf("expected skier 1, got %d", got.Event.SkierID)
	}
}

func TestMemoryBufferFullRejects(t *testing.T) {
	b := NewMemoryBuffer(WithCapacity(2))
	ctx := context.Background()

	if !b.Enqueue(ctx, task(1)) || !b.Enqueue(ctx, task(2)) {
		t.Fatal("expected first two enqueues to succeed")
	}
	if b.Enqueue(ctx, task(3)) {
		t.Error("expected enqueue to fail when full")
	}
	if l := b.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestMemoryBufferClose(t *testing.T) {
	b := NewMemoryBuffer(WithCapacity(4))
	ctx := context.Background()

	if !b.Enqueue(ctx, task(1)) {
		t.Fatal("enqueue failed")
	}
	if err := b.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !b.IsClosed() {
		t.Error("expected buffer to report closed")
	}
	if b.Enqueue(ctx, task(2)) {
		t.Error("expected enqueue after close to fail")
	}

	// Buffered tasks still drain after close.
	out := b.Dequeue(ctx)
	got, ok := <-out
	if !ok || got.Event.SkierID != 1 {
		t.Errorf("expected buffered task to drain, got %+v ok=%v", got, ok)
	}
	if _, ok := <-out; ok {
		t.Error("expected dequeue channel to close after drain")
	}

	if err := b.Close(); err != nil {
		t.Errorf("double close should be a no-op, got %v", err)
	}
}

func TestMemoryBufferConcurrentAccess(t *testing.T) {
	b := NewMemoryBuffer(WithCapacity(1000))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const producers = 8
	const perProducer = 100

	var consumed sync.Map
	var wg sync.WaitGroup

	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				tk := task(id*perProducer + j)
				for !b.Enqueue(ctx, tk) {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	var consumedCount sync.WaitGroup
	consumedCount.Add(producers * perProducer)
	for i := 0; i < 4; i++ {
		go func() {
			for tk := range b.Dequeue(ctx) {
				key := fmt.Sprintf("skier-%d", tk.Event.SkierID)
				if _, dup := consumed.LoadOrStore(key, true); dup {
					t.Errorf("task consumed twice: %s", key)
				}
				consumedCount.Done()
			}
		}()
	}

	wg.Wait()
	done := make(chan struct{})
	go func() {
		consumedCount.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for all tasks to be consumed")
	}
}
