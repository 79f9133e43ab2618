package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SLOPETRACE_CONFIG is set
//  3. env (prefix SLOPETRACE_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SLOPETRACE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: SLOPETRACE_ADDR, SLOPETRACE_QUEUE_NAME, ...
	// Keys map to the koanf tags on Config with underscores preserved.
	envProvider := env.Provider("SLOPETRACE_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "slopetrace_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Role != RoleAll && c.Role != RoleGateway && c.Role != RoleConsumer:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidConfig, c.Role)
	case c.AckPolicy != AckAuto && c.AckPolicy != AckOnSuccess:
		return fmt.Errorf("%w: unknown ack_policy %q", ErrInvalidConfig, c.AckPolicy)
	case c.QueueName == "":
		return fmt.Errorf("%w: queue_name must not be empty", ErrInvalidConfig)
	case c.ChannelPoolSize <= 0:
		return fmt.Errorf("%w: channel_pool_size must be positive", ErrInvalidConfig)
	case c.ConsumerCount <= 0:
		return fmt.Errorf("%w: consumer_count must be positive", ErrInvalidConfig)
	case c.BufferSize <= 0:
		return fmt.Errorf("%w: buffer_size must be positive", ErrInvalidConfig)
	case c.AggregationWorkers <= 0:
		return fmt.Errorf("%w: aggregation_workers must be positive", ErrInvalidConfig)
	}
	return nil
}

// BrokerURL assembles the AMQP dial string.
func (c *Config) BrokerURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.BrokerUsername, c.BrokerPassword, c.BrokerHost, c.BrokerPort)
}

// RedisAddr assembles the store address.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
