// Package consumer receives pushed queue deliveries and feeds the aggregation
// buffer.
package consumer

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/slopetrace/slopetrace/internal/adapters/mq/queue"
	"github.com/slopetrace/slopetrace/internal/adapters/mq/rabbit"
	"github.com/slopetrace/slopetrace/internal/domain/model"
	"github.com/slopetrace/slopetrace/pkg/logger"
	"github.com/slopetrace/slopetrace/pkg/metrics"
)

// AckPolicy selects when a delivery is settled.
type AckPolicy string

const (
	// AckAuto settles on delivery, before processing. A crash or failure
	// after delivery silently loses the message; there is no redelivery and
	// no dead-letter capture. Throughput over durability.
	AckAuto AckPolicy = "auto"

	// AckOnSuccess settles only after aggregation succeeds. Aggregation
	// failure discards without requeue; a full buffer requeues.
	AckOnSuccess AckPolicy = "on_success"
)

// Sink accepts decoded deliveries for asynchronous aggregation.
type Sink interface {
	Enqueue(ctx context.Context, t queue.Task) bool
}

// Pool runs a fixed set of consumers, each with its own channel and
// subscription to the same named queue.
type Pool struct {
	opener    rabbit.ChannelOpener
	queueName string
	sink      Sink

	count  int
	policy AckPolicy

	channels []rabbit.Channel
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex

	log logger.Logger
}

// NewPool builds a consumer pool.
func NewPool(opener rabbit.ChannelOpener, queueName string, sink Sink, opts ...Option) *Pool {
	p := &Pool{
		opener:    opener,
		queueName: queueName,
		sink:      sink,
		count:     8,
		policy:    AckAuto,
		log:       logger.Named("consumer"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Start opens one subscription per consumer and begins receiving. The queue
// is declared idempotently on every channel before consuming.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}

	for i := 0; i < p.count; i++ {
		ch, err := p.opener.OpenChannel()
		if err != nil {
			p.closeChannelsLocked(ctx)
			return fmt.Errorf("open consumer channel %d: %w", i, err)
		}
		if err := rabbit.DeclareQueue(ch, p.queueName); err != nil {
			_ = ch.Close()
			p.closeChannelsLocked(ctx)
			return err
		}

		tag := fmt.Sprintf("slopetrace-%d-%s", i, uuid.NewString())
		autoAck := p.policy == AckAuto
		deliveries, err := ch.ConsumeWithContext(ctx, p.queueName, tag, autoAck, false, false, false, nil)
		if err != nil {
			_ = ch.Close()
			p.closeChannelsLocked(ctx)
			return fmt.Errorf("consume on channel %d: %w", i, err)
		}

		p.channels = append(p.channels, ch)
		p.wg.Add(1)
		go p.receive(ctx, i, deliveries)
	}

	p.started = true
	p.log.Info(ctx, "consumer pool started",
		logger.Int("consumers", p.count),
		logger.String("queue", p.queueName),
		logger.String("ack_policy", string(p.policy)),
	)
	return nil
}

// receive drains one subscription until its delivery channel closes.
func (p *Pool) receive(ctx context.Context, id int, deliveries <-chan amqp.Delivery) {
	defer p.wg.Done()

	log := p.log.Named(fmt.Sprintf("worker-%d", id))
	for d := range deliveries {
		metrics.RecordDeliveryReceived()
		p.handle(ctx, log, amqpDelivery{d: d})
	}
	log.Debug(ctx, "subscription closed")
}

func (p *Pool) handle(ctx context.Context, log logger.Logger, d Delivery) {
	event, err := model.DecodeLiftRideEvent(d.Body())
	if err != nil {
		// Decode failures are dropped, not retried: a poison message with no
		// dead-letter target must not loop forever.
		metrics.RecordDecodeFailure()
		metrics.RecordMessageDropped()
		metrics.RecordErrorByComponent("consumer", "decode")
		log.Error(ctx, "dropping undecodable delivery", logger.Error(err))
		if p.policy == AckOnSuccess {
			if err := d.Ack(); err != nil {
				log.Error(ctx, "failed to settle poison delivery", logger.Error(err))
			}
		}
		return
	}

	t := queue.Task{Event: event}
	if p.policy == AckOnSuccess {
		t.Ack = d.Ack
		t.Reject = d.Reject
	}

	if p.sink.Enqueue(ctx, t) {
		return
	}

	// Buffer full: under manual ack the delivery goes back to the broker as
	// backpressure; under auto-ack it is already settled and is lost.
	if p.policy == AckOnSuccess {
		metrics.RecordMessageRequeued()
		if err := d.Reject(true); err != nil {
			log.Error(ctx, "failed to requeue delivery", logger.Error(err))
		}
		return
	}
	metrics.RecordMessageDropped()
	metrics.RecordErrorByComponent("consumer", "buffer_full")
	log.Warn(ctx, "buffer full, delivery lost",
		logger.Int("skierID", event.SkierID),
		logger.Int("resortID", event.ResortID),
	)
}

// Stop closes all subscriptions and waits for receivers to drain.
func (p *Pool) Stop(ctx context.Context) {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.closeChannelsLocked(ctx)
	p.started = false
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info(ctx, "consumer pool stopped")
}

func (p *Pool) closeChannelsLocked(ctx context.Context) {
	for _, ch := range p.channels {
		if err := ch.Close(); err != nil {
			p.log.Error(ctx, "failed to close consumer channel", logger.Error(err))
		}
	}
	p.channels = nil
}
