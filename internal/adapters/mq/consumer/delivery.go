package consumer

import amqp "github.com/rabbitmq/amqp091-go"

// Delivery abstracts one received message so handling is testable without a
// live broker.
type Delivery interface {
	Body() []byte

	// Ack settles the delivery. Under auto-ack the broker has already
	// settled; implementations may treat this as a no-op.
	Ack() error

	// Reject discards the delivery, optionally requeueing it.
	Reject(requeue bool) error
}

type amqpDelivery struct {
	d amqp.Delivery
}

func (a amqpDelivery) Body() []byte { return a.d.Body }

func (a amqpDelivery) Ack() error { return a.d.Ack(false) }

func (a amqpDelivery) Reject(requeue bool) error { return a.d.Nack(false, requeue) }
