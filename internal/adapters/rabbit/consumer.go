package rabbit

import (
	"context"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Consumer struct {
	ch    *amqp.Channel
	queue string
}

// NewConsumer declares queue and binds it to the exchange for each routing key.
func NewConsumer(conn *amqp.Connection, queue string, keys ...string) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := declareExchange(ch); err != nil {
		ch.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, err
	}
	for _, key := range keys {
		if err := ch.QueueBind(queue, key, Exchange, false, nil); err != nil {
			ch.Close()
			return nil, err
		}
	}
	return &Consumer{ch: ch, queue: queue}, nil
}

// Consume delivers messages until ctx is cancelled. Deliveries must be acked.
func (c *Consumer) Consume(ctx context.Context) (<-chan amqp.Delivery, error) {
	tag := "registration-" + uuid.NewString()
	deliveries, err := c.ch.Consume(c.queue, tag, false, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		_ = c.ch.Cancel(tag, false)
	}()
	return deliveries, nil
}

func (c *Consumer) Close() error {
	return c.ch.Close()
}
