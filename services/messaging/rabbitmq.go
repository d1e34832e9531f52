// Package messaging publishes domain events to RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/family"
	"github.com/Junosprite007/mod-equipmentcheckout/services/breaker"
)

// channel is the part of *amqp.Channel used to publish.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publishes import events on a durable queue, behind a circuit breaker.
type Publisher struct {
	conn  *amqp.Connection
	ch    channel
	queue string
	cb    *gobreaker.CircuitBreaker
}

var _ family.Publisher = (*Publisher)(nil)

func NewPublisher(conf core.AMQPConfig, logger core.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(conf.URL)
	if err != nil {
		return nil, errors.Wrap(err, "dialing rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "opening channel")
	}

	_, err = ch.QueueDeclare(
		conf.Queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrapf(err, "declaring queue %q", conf.Queue)
	}

	pub := newPublisher(ch, conf.Queue, breaker.New(breaker.RabbitMQ, logger))
	pub.conn = conn
	return pub, nil
}

func newPublisher(ch channel, queue string, cb *gobreaker.CircuitBreaker) *Publisher {
	return &Publisher{ch: ch, queue: queue, cb: cb}
}

func (p *Publisher) Publish(ctx context.Context, event family.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshalling event")
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.ch.PublishWithContext(
			ctx,
			"",      // default exchange
			p.queue, // routing key == queue name
			false,   // mandatory
			false,   // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Type:         event.Type,
				MessageId:    event.BatchID.String(),
				Timestamp:    event.OccurredAt,
				Body:         body,
			},
		)
	})
	return errors.Wrapf(err, "publishing %s event", event.Type)
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
