package rabbit

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/slopetrace/slopetrace/internal/domain/model"
	"github.com/slopetrace/slopetrace/pkg/logger"
	"github.com/slopetrace/slopetrace/pkg/metrics"
)

// Publisher sends lift ride events to the named queue through pooled channels.
// A returned nil only means the broker accepted the publish; it says nothing
// about whether the event is ever aggregated.
type Publisher struct {
	pool      *ChannelPool
	queueName string
	log       logger.Logger
}

// NewPublisher wires a publisher over an existing channel pool.
func NewPublisher(pool *ChannelPool, queueName string) *Publisher {
	return &Publisher{
		pool:      pool,
		queueName: queueName,
		log:       logger.Named("publisher"),
	}
}

// Publish encodes the event and hands it to the broker on a borrowed channel.
// The channel is returned on every path, including publish failure.
func (p *Publisher) Publish(ctx context.Context, e model.LiftRideEvent) error {
	start := time.Now()
	defer func() {
		metrics.RecordPublishLatency(float64(time.Since(start).Milliseconds()))
	}()

	body, err := e.Encode()
	if err != nil {
		metrics.RecordPublishError()
		metrics.RecordErrorByComponent("publisher", "encode")
		return err
	}

	ch, err := p.pool.Borrow(ctx)
	if err != nil {
		metrics.RecordPublishError()
		metrics.RecordErrorByComponent("publisher", "borrow")
		return err
	}
	defer func() {
		if err := p.pool.Return(ctx, ch); err != nil {
			p.log.Error(ctx, "failed to return channel to pool", logger.Error(err))
		}
	}()

	err = ch.PublishWithContext(ctx, "", p.queueName, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		metrics.RecordPublishError()
		metrics.RecordErrorByComponent("publisher", "publish")
		return fmt.Errorf("%w: publish: %w", ErrBrokerUnavailable, err)
	}

	metrics.RecordEventPublished()
	return nil
}
