package rabbit

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/slopetrace/slopetrace/internal/domain/model"
	"github.com/slopetrace/slopetrace/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeChannel struct {
	mu        sync.Mutex
	declared  []string
	published [][]byte
	pubErr    error
	closed    bool
}

func (c *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.declared = append(c.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, _ string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pubErr != nil {
		return c.pubErr
	}
	c.published = append(c.published, msg.Body)
	return nil
}

func (c *fakeChannel) ConsumeWithContext(_ context.Context, _, _ string, _, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	ch := make(chan amqp.Delivery)
	close(ch)
	return ch, nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeOpener struct {
	mu      sync.Mutex
	opened  []*fakeChannel
	openErr error
	nextPub error
}

func (o *fakeOpener) OpenChannel() (Channel, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.openErr != nil {
		return nil, o.openErr
	}
	ch := &fakeChannel{pubErr: o.nextPub}
	o.opened = append(o.opened, ch)
	return ch, nil
}

func TestPoolBorrowReturnReuses(t *testing.T) {
	ctx := context.Background()
	opener := &fakeOpener{}
	p := NewChannelPool(ctx, opener, "lift_rides", WithMaxChannels(2))
	defer p.Close(ctx)

	ch1, err := p.Borrow(ctx)
	if err != nil {
		t.Fatalf("borrow failed: %v", err)
	}
	if err := p.Return(ctx, ch1); err != nil {
		t.Fatalf("return failed: %v", err)
	}

	ch2, err := p.Borrow(ctx)
	if err != nil {
		t.Fatalf("second borrow failed: %v", err)
	}
	defer func() { _ = p.Return(ctx, ch2) }()

	opener.mu.Lock()
	opened := len(opener.opened)
	opener.mu.Unlock()
	if opened != 1 {
		t.Errorf("expected 1 opened channel after reuse, got %d", opened)
	}
}

func TestPoolDeclaresQueuePerChannel(t *testing.T) {
	ctx := context.Background()
	opener := &fakeOpener{}
	p := NewChannelPool(ctx, opener, "lift_rides", WithMaxChannels(1))
	defer p.Close(ctx)

	ch, err := p.Borrow(ctx)
	if err != nil {
		t.Fatalf("borrow failed: %v", err)
	}
	defer func() { _ = p.Return(ctx, ch) }()

	fc := ch.(*fakeChannel)
	if len(fc.declared) != 1 || fc.declared[0] != "lift_rides" {
		t.Errorf("expected queue declared once on channel open, got %v", fc.declared)
	}
}

func TestPoolExhaustionTimesOut(t *testing.T) {
	ctx := context.Background()
	opener := &fakeOpener{}
	p := NewChannelPool(ctx, opener, "lift_rides",
		WithMaxChannels(1), WithBorrowTimeout(50*time.Millisecond))
	defer p.Close(ctx)

	ch, err := p.Borrow(ctx)
	if err != nil {
		t.Fatalf("borrow failed: %v", err)
	}
	defer func() { _ = p.Return(ctx, ch) }()

	start := time.Now()
	_, err = p.Borrow(ctx)
	if !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("borrow waited far longer than the configured timeout")
	}
}

func TestPublisherRoundTrip(t *testing.T) {
	ctx := context.Background()
	opener := &fakeOpener{}
	p := NewChannelPool(ctx, opener, "lift_rides", WithMaxChannels(1))
	defer p.Close(ctx)

	pub := NewPublisher(p, "lift_rides")
	e := model.LiftRideEvent{ResortID: 1, SeasonID: 2024, DayID: 1, SkierID: 42,
		LiftRide: model.LiftRide{LiftID: 5, Time: 100}}

	if err := pub.Publish(ctx, e); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	opener.mu.Lock()
	fc := opener.opened[0]
	opener.mu.Unlock()
	if len(fc.published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(fc.published))
	}

	got, err := model.DecodeLiftRideEvent(fc.published[0])
	if err != nil {
		t.Fatalf("payload did not decode: %v", err)
	}
	if got != e {
		t.Errorf("published %+v, want %+v", got, e)
	}
}

// A failed publish must still return the channel; otherwise the pool leaks
// capacity and later borrows starve.
func TestPublisherReturnsChannelOnFailure(t *testing.T) {
	ctx := context.Background()
	opener := &fakeOpener{nextPub: errors.New("broker gone")}
	p := NewChannelPool(ctx, opener, "lift_rides",
		WithMaxChannels(1), WithBorrowTimeout(100*time.Millisecond))
	defer p.Close(ctx)

	pub := NewPublisher(p, "lift_rides")
	e := model.LiftRideEvent{ResortID: 1, SeasonID: 2024, DayID: 1, SkierID: 42,
		LiftRide: model.LiftRide{LiftID: 5, Time: 100}}

	if err := pub.Publish(ctx, e); err == nil {
		t.Fatal("expected publish error")
	}

	// Capacity is 1; a successful borrow proves the channel came back.
	ch, err := p.Borrow(ctx)
	if err != nil {
		t.Fatalf("borrow after failed publish: %v", err)
	}
	_ = p.Return(ctx, ch)
}
