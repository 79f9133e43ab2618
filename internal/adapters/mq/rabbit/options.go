package rabbit

import (
	"time"

	pool "github.com/jolestar/go-commons-pool/v2"
)

// PoolOption applies a configuration option to the ChannelPool.
type PoolOption func(*ChannelPool, *pool.ObjectPoolConfig)

// WithMaxChannels caps concurrently outstanding channels.
func WithMaxChannels(n int) PoolOption {
	return func(_ *ChannelPool, cfg *pool.ObjectPoolConfig) {
		if n > 0 {
			cfg.MaxTotal = n
			cfg.MaxIdle = n
		}
	}
}

// WithBorrowTimeout bounds how long Borrow waits on a saturated pool.
func WithBorrowTimeout(d time.Duration) PoolOption {
	return func(p *ChannelPool, _ *pool.ObjectPoolConfig) {
		if d > 0 {
			p.borrowTimeout = d
		}
	}
}
