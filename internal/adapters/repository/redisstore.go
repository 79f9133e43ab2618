package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/slopetrace/slopetrace/internal/domain/aggregate"
	"github.com/slopetrace/slopetrace/pkg/metrics"
)

// RedisStore implements Store on a go-redis client. All counter updates use
// HINCRBY and set adds use SADD, both atomic server-side, so concurrent
// workers never lose increments regardless of interleaving.
type RedisStore struct {
	client       redis.UniversalClient
	poolSize     int
	minIdleConns int
	maxIdleConns int
}

// NewRedisStore connects a store client to addr.
func NewRedisStore(addr string, opts ...Option) *RedisStore {
	s := &RedisStore{
		poolSize:     100,
		minIdleConns: 10,
		maxIdleConns: 20,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		s.client = redis.NewClient(&redis.Options{
			Addr:         addr,
			PoolSize:     s.poolSize,
			MinIdleConns: s.minIdleConns,
			MaxIdleConns: s.maxIdleConns,
		})
	}

	return s
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("store ping: %w", err)
	}
	return nil
}

// Apply executes the ops in one pipeline. On failure it distinguishes a batch
// that failed entirely from one that landed partially; partial batches are
// counted so set/counter divergence is observable instead of silent.
func (s *RedisStore) Apply(ctx context.Context, ops []aggregate.Op) error {
	if len(ops) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	pipe := s.client.Pipeline()
	for _, op := range ops {
		switch op.Kind {
		case aggregate.OpSetAdd:
			pipe.SAdd(ctx, op.Key, op.Member)
		case aggregate.OpHashIncr:
			pipe.HIncrBy(ctx, op.Key, op.Field, op.Delta)
		default:
			return fmt.Errorf("%w: %d", ErrUnknownOp, op.Kind)
		}
	}

	cmds, err := pipe.Exec(ctx)
	if err == nil {
		return nil
	}

	failed := 0
	for _, cmd := range cmds {
		if cmd.Err() != nil {
			failed++
			metrics.RecordStoreError()
		}
	}
	if failed > 0 && failed < len(ops) {
		metrics.RecordPartialBatch()
		return fmt.Errorf("%w: %d of %d ops failed: %w", ErrPartialBatch, failed, len(ops), err)
	}
	return fmt.Errorf("apply batch: %w", err)
}

// UniqueSkiers reads the day set's cardinality.
func (s *RedisStore) UniqueSkiers(ctx context.Context, resortID, seasonID, dayID int) (int64, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds()))
	}()

	n, err := s.client.SCard(ctx, aggregate.DaySkiersKey(resortID, seasonID, dayID)).Result()
	if err != nil {
		metrics.RecordStoreError()
		return 0, fmt.Errorf("scard: %w", err)
	}
	return n, nil
}

// DayVertical reads one skier's per-day vertical counter.
func (s *RedisStore) DayVertical(ctx context.Context, resortID, seasonID, dayID, skierID int) (int64, error) {
	key := aggregate.SkierDayKey(resortID, seasonID, dayID, skierID)
	return s.hashCounter(ctx, key, aggregate.VerticalField)
}

// TotalVertical reads one skier's season or lifetime vertical at a resort.
func (s *RedisStore) TotalVertical(ctx context.Context, resortID, skierID int, season string) (int64, error) {
	field := season
	if field == "" {
		field = aggregate.AllSeasonsField
	}
	return s.hashCounter(ctx, aggregate.SkierVerticalKey(resortID, skierID), field)
}

func (s *RedisStore) hashCounter(ctx context.Context, key, field string) (int64, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds()))
	}()

	n, err := s.client.HGet(ctx, key, field).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreError()
		return 0, fmt.Errorf("hget %s %s: %w", key, field, err)
	}
	return n, nil
}

// Close releases the client's connection pool.
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
