package repository

import "github.com/redis/go-redis/v9"

// Option applies a configuration option to the RedisStore.
type Option func(*RedisStore)

// WithPoolSize caps the client's connection pool.
func WithPoolSize(size int) Option {
	return func(s *RedisStore) {
		if size > 0 {
			s.poolSize = size
		}
	}
}

// WithMinIdleConns sets the minimum idle connections kept open.
func WithMinIdleConns(n int) Option {
	return func(s *RedisStore) {
		if n >= 0 {
			s.minIdleConns = n
		}
	}
}

// WithMaxIdleConns sets the maximum idle connections kept open.
func WithMaxIdleConns(n int) Option {
	return func(s *RedisStore) {
		if n >= 0 {
			s.maxIdleConns = n
		}
	}
}

// WithClient injects a pre-built client, mainly for tests.
func WithClient(c redis.UniversalClient) Option {
	return func(s *RedisStore) {
		if c != nil {
			s.client = c
		}
	}
}
