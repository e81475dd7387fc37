// Package outbox relays committed outbox records to the message broker.
package outbox

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/event-registration/internal/adapters/crdb"
	"github.com/robertarktes/event-registration/internal/observability"
)

const (
	DefaultInterval  = 5 * time.Second
	DefaultBatchSize = 10
)

// Store claims pending records and hands each to publish inside one transaction.
type Store interface {
	PublishPending(ctx context.Context, limit int, publish func(context.Context, crdb.OutboxRecord) error) (int, error)
}

// Broker publishes a message under a routing key.
type Broker interface {
	Publish(ctx context.Context, key string, msg amqp.Publishing) error
}

type Publisher struct {
	store     Store
	broker    Broker
	logger    observability.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewPublisher(store Store, broker Broker, logger observability.Logger) *Publisher {
	return &Publisher{
		store:     store,
		broker:    broker,
		logger:    logger,
		interval:  DefaultInterval,
		batchSize: DefaultBatchSize,
		now:       time.Now,
	}
}

// WithInterval changes the polling interval.
func (p *Publisher) WithInterval(d time.Duration) *Publisher {
	p.interval = d
	return p
}

// Run polls until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	p.logger.WithField("interval", p.interval.String()).Info("outbox publisher started")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox publisher stopped")
			return
		case <-ticker.C:
			if _, err := p.Flush(ctx); err != nil && ctx.Err() == nil {
				p.logger.WithError(err).Error("outbox flush failed")
			}
		}
	}
}

// Flush publishes one batch and returns how many records went out.
func (p *Publisher) Flush(ctx context.Context) (int, error) {
	var oldest time.Duration
	n, err := p.store.PublishPending(ctx, p.batchSize, func(ctx context.Context, rec crdb.OutboxRecord) error {
		msg := amqp.Publishing{
			MessageId:    rec.DedupeKey,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    rec.CreatedAt,
			Type:         rec.EventType,
			Body:         rec.Payload,
		}
		if err := p.broker.Publish(ctx, rec.EventType, msg); err != nil {
			observability.OutboxPublishFailures.Inc()
			p.logger.WithError(err).WithField("dedupe_key", rec.DedupeKey).Warn("outbox publish failed")
			return err
		}
		if lag := p.now().Sub(rec.CreatedAt); lag > oldest {
			oldest = lag
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		observability.OutboxLag.Set(oldest.Seconds())
		p.logger.WithField("published", n).Debug("outbox batch published")
	}
	return n, nil
}
