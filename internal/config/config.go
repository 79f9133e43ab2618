// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file and env.
// - External errors are wrapped via this package's error helpers.
package config

import "runtime"

// Role selects which halves of the pipeline a process runs.
const (
	RoleAll      = "all"
	RoleGateway  = "gateway"
	RoleConsumer = "consumer"
)

// Ack policies for the consumer pool.
const (
	// AckAuto acknowledges on delivery, before processing. Failures after
	// delivery silently lose the message.
	AckAuto = "auto"
	// AckOnSuccess acknowledges only after aggregation succeeds.
	AckOnSuccess = "on_success"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Role selects gateway, consumer, or both in one process.
	Role string `koanf:"role"`

	// Broker location and credentials.
	BrokerHost     string `koanf:"broker_host"`
	BrokerPort     int    `koanf:"broker_port"`
	BrokerUsername string `koanf:"broker_username"`
	BrokerPassword string `koanf:"broker_password"`

	// QueueName is the single named, non-durable queue events flow through.
	QueueName string `koanf:"queue_name"`

	// ChannelPoolSize caps concurrently borrowed publish channels.
	ChannelPoolSize int `koanf:"channel_pool_size"`

	// ChannelBorrowTimeoutMS bounds how long a request waits for a channel
	// when the pool is saturated before failing with a server error.
	ChannelBorrowTimeoutMS int `koanf:"channel_borrow_timeout_ms"`

	// Store location and connection pool sizes.
	RedisHost     string `koanf:"redis_host"`
	RedisPort     int    `koanf:"redis_port"`
	RedisPoolSize int    `koanf:"redis_pool_size"`
	RedisMinIdle  int    `koanf:"redis_min_idle"`
	RedisMaxIdle  int    `koanf:"redis_max_idle"`

	// ConsumerCount sets the number of queue subscriptions.
	ConsumerCount int `koanf:"consumer_count"`

	// AckPolicy selects auto (ack-before-process) or on_success.
	AckPolicy string `koanf:"ack_policy"`

	// BufferSize bounds the in-process buffer between consumers and
	// aggregation workers.
	BufferSize int `koanf:"buffer_size"`

	// AggregationWorkers bounds concurrent in-flight aggregation tasks.
	AggregationWorkers int `koanf:"aggregation_workers"`

	// AggregationTimeoutMS bounds one batched store request.
	AggregationTimeoutMS int `koanf:"aggregation_timeout_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":8080",
		Role:                   RoleAll,
		BrokerHost:             "localhost",
		BrokerPort:             5672,
		BrokerUsername:         "guest",
		BrokerPassword:         "guest",
		QueueName:              "lift_rides",
		ChannelPoolSize:        50,
		ChannelBorrowTimeoutMS: 5_000,
		RedisHost:              "localhost",
		RedisPort:              6379,
		RedisPoolSize:          100,
		RedisMinIdle:           10,
		RedisMaxIdle:           20,
		ConsumerCount:          8,
		AckPolicy:              AckAuto,
		BufferSize:             10_000,
		AggregationWorkers:     runtime.NumCPU() * 4,
		AggregationTimeoutMS:   5_000,
	}
}
