package rabbit

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange receives registration.confirmed and form.submitted events.
const Exchange = "registration.events"

func declareExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil)
}

type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := declareExchange(ch); err != nil {
		ch.Close()
		return nil, err
	}
	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Publish(ctx context.Context, key string, msg amqp.Publishing) error {
	return p.ch.PublishWithContext(ctx, Exchange, key, false, false, msg)
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
