// Package rabbit provides the broker connection, the pooled publish path, and
// queue declaration for the lift ride pipeline.
//
// One long-lived connection is shared; all channel traffic goes through
// channels drawn from the pool, one goroutine at a time per channel.
package rabbit

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of an AMQP channel the pipeline uses. Channels are not
// safe for concurrent use; they must be borrowed and returned via the pool.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	ConsumeWithContext(ctx context.Context, queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
	IsClosed() bool
}

// ChannelOpener opens channels on an underlying broker connection.
type ChannelOpener interface {
	OpenChannel() (Channel, error)
}

// Connection wraps one long-lived AMQP connection.
type Connection struct {
	conn *amqp.Connection
}

// Connect dials the broker.
func Connect(url string) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBrokerUnavailable, err)
	}
	return &Connection{conn: conn}, nil
}

// OpenChannel opens a fresh channel on the shared connection.
func (c *Connection) OpenChannel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, nil
}

// Close closes the underlying connection. Pools built on this connection must
// be closed first.
func (c *Connection) Close() error {
	if c.conn.IsClosed() {
		return nil
	}
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("close connection: %w", err)
	}
	return nil
}

// DeclareQueue declares the named queue idempotently: non-durable,
// non-exclusive, no dead-letter target. Redeclaring with matching parameters
// is a no-op at the broker.
func DeclareQueue(ch Channel, name string) error {
	_, err := ch.QueueDeclare(name, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}
