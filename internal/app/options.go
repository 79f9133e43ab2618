package service

import (
	"time"

	"github.com/slopetrace/slopetrace/internal/adapters/mq/consumer"
	"github.com/slopetrace/slopetrace/internal/adapters/mq/rabbit"
	"github.com/slopetrace/slopetrace/internal/adapters/repository"
	"github.com/slopetrace/slopetrace/internal/config"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRole selects gateway, consumer, or both.
func WithRole(role string) Option {
	return func(s *Service) {
		if role != "" {
			s.role = role
		}
	}
}

// WithBrokerURL sets the AMQP connection URL.
func WithBrokerURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.brokerURL = url
		}
	}
}

// WithQueueName sets the queue events flow through.
func WithQueueName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.queueName = name
		}
	}
}

// WithChannelPoolSize caps concurrently borrowed publish channels.
func WithChannelPoolSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.channelPoolSize = n
		}
	}
}

// WithBorrowTimeout bounds waiting on a saturated channel pool.
func WithBorrowTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.borrowTimeout = d
		}
	}
}

// WithRedisAddr sets the store address.
func WithRedisAddr(addr string) Option {
	return func(s *Service) {
		if addr != "" {
			s.redisAddr = addr
		}
	}
}

// WithRedisPool sets the store connection pool bounds.
func WithRedisPool(size, minIdle, maxIdle int) Option {
	return func(s *Service) {
		if size > 0 {
			s.redisPoolSize = size
		}
		if minIdle > 0 {
			s.redisMinIdle = minIdle
		}
		if maxIdle > 0 {
			s.redisMaxIdle = maxIdle
		}
	}
}

// WithConsumerCount sets the number of queue subscriptions.
func WithConsumerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.consumerCount = n
		}
	}
}

// WithAckPolicy selects when deliveries are settled.
func WithAckPolicy(policy consumer.AckPolicy) Option {
	return func(s *Service) {
		if policy != "" {
			s.ackPolicy = policy
		}
	}
}

// WithBufferSize bounds the in-process buffer ahead of aggregation.
func WithBufferSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithAggregationWorkers bounds concurrent aggregation tasks.
func WithAggregationWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.aggregationWorkers = n
		}
	}
}

// WithApplyTimeout bounds one batched store request.
func WithApplyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.applyTimeout = d
		}
	}
}

// WithChannelOpener injects a broker connection, bypassing Connect.
func WithChannelOpener(opener rabbit.ChannelOpener) Option {
	return func(s *Service) {
		if opener != nil {
			s.opener = opener
		}
	}
}

// WithStore injects a store, bypassing the Redis client construction.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// FromConfig maps process configuration onto service options.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithRole(cfg.Role),
		WithBrokerURL(cfg.BrokerURL()),
		WithQueueName(cfg.QueueName),
		WithChannelPoolSize(cfg.ChannelPoolSize),
		WithBorrowTimeout(time.Duration(cfg.ChannelBorrowTimeoutMS) * time.Millisecond),
		WithRedisAddr(cfg.RedisAddr()),
		WithRedisPool(cfg.RedisPoolSize, cfg.RedisMinIdle, cfg.RedisMaxIdle),
		WithConsumerCount(cfg.ConsumerCount),
		WithAckPolicy(consumer.AckPolicy(cfg.AckPolicy)),
		WithBufferSize(cfg.BufferSize),
		WithAggregationWorkers(cfg.AggregationWorkers),
		WithApplyTimeout(time.Duration(cfg.AggregationTimeoutMS) * time.Millisecond),
	}
}
