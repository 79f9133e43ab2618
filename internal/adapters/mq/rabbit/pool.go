package rabbit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	pool "github.com/jolestar/go-commons-pool/v2"

	"github.com/slopetrace/slopetrace/pkg/metrics"
)

// channelFactory builds and tears down pooled channels. Each new channel
// declares the queue so publishing never races queue creation.
type channelFactory struct {
	opener    ChannelOpener
	queueName string
}

func (f *channelFactory) MakeObject(_ context.Context) (*pool.PooledObject, error) {
	ch, err := f.opener.OpenChannel()
	if err != nil {
		return nil, err
	}
	if err := DeclareQueue(ch, f.queueName); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return pool.NewPooledObject(ch), nil
}

func (f *channelFactory) DestroyObject(_ context.Context, object *pool.PooledObject) error {
	ch, ok := object.Object.(Channel)
	if !ok {
		return nil
	}
	return ch.Close()
}

func (f *channelFactory) ValidateObject(_ context.Context, object *pool.PooledObject) bool {
	ch, ok := object.Object.(Channel)
	return ok && !ch.IsClosed()
}

func (f *channelFactory) ActivateObject(_ context.Context, _ *pool.PooledObject) error {
	return nil
}

func (f *channelFactory) PassivateObject(_ context.Context, _ *pool.PooledObject) error {
	return nil
}

// ChannelPool hands out channel-exclusive publish handles without opening a
// new channel per request. Borrow blocks up to the configured timeout when all
// channels are outstanding; Return must be called exactly once per successful
// borrow, on failure paths included, or the pool leaks capacity.
type ChannelPool struct {
	inner         *pool.ObjectPool
	borrowTimeout time.Duration
	inUse         atomic.Int64
	closed        atomic.Bool
}

// NewChannelPool builds a pool of at most maxTotal channels over opener.
func NewChannelPool(ctx context.Context, opener ChannelOpener, queueName string, opts ...PoolOption) *ChannelPool {
	p := &ChannelPool{
		borrowTimeout: 5 * time.Second,
	}
	cfg := pool.NewDefaultPoolConfig()
	cfg.MaxTotal = 50
	cfg.MaxIdle = 50
	cfg.MinIdle = 0
	cfg.BlockWhenExhausted = true
	cfg.TestOnBorrow = true

	for _, opt := range opts {
		opt(p, cfg)
	}

	p.inner = pool.NewObjectPool(ctx, &channelFactory{opener: opener, queueName: queueName}, cfg)
	return p
}

// Borrow returns an idle channel, or opens one up to the configured maximum,
// or waits. A saturated pool fails with ErrPoolExhausted after the borrow
// timeout so the caller can surface a server error instead of hanging.
func (p *ChannelPool) Borrow(ctx context.Context) (Channel, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	borrowCtx, cancel := context.WithTimeout(ctx, p.borrowTimeout)
	defer cancel()

	obj, err := p.inner.BorrowObject(borrowCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(borrowCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrPoolExhausted, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrBrokerUnavailable, err)
	}

	ch, ok := obj.(Channel)
	if !ok {
		_ = p.inner.ReturnObject(ctx, obj)
		return nil, fmt.Errorf("%w: unexpected pooled object %T", ErrBrokerUnavailable, obj)
	}

	metrics.UpdateChannelsInUse(int(p.inUse.Add(1)))
	return ch, nil
}

// Return makes the channel available to other callers again.
func (p *ChannelPool) Return(ctx context.Context, ch Channel) error {
	metrics.UpdateChannelsInUse(int(p.inUse.Add(-1)))
	if err := p.inner.ReturnObject(ctx, ch); err != nil {
		return fmt.Errorf("return channel: %w", err)
	}
	return nil
}

// Close destroys all pooled channels. The shared connection is closed by its
// owner afterwards.
func (p *ChannelPool) Close(ctx context.Context) {
	if p.closed.Swap(true) {
		return
	}
	p.inner.Close(ctx)
}
