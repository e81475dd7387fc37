package payment

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/event-registration/internal/observability"
)

const DefaultDelay = 1500 * time.Millisecond

// Processor charges a registration total.
type Processor interface {
	Charge(ctx context.Context, reference string, amount int64) error
}

// Simulated stands in for a card processor: it waits a fixed delay and
// always approves. Cancelling ctx aborts the wait.
type Simulated struct {
	delay  time.Duration
	logger observability.Logger
}

func NewSimulated(delay time.Duration, logger observability.Logger) *Simulated {
	if delay < 0 {
		delay = 0
	}
	return &Simulated{delay: delay, logger: logger}
}

func (s *Simulated) Charge(ctx context.Context, reference string, amount int64) error {
	start := time.Now()
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		observability.PaymentsTotal.WithLabelValues("aborted").Inc()
		return errors.Wrap(ctx.Err(), "payment aborted")
	case <-timer.C:
	}

	observability.PaymentsTotal.WithLabelValues("approved").Inc()
	observability.PaymentDuration.Observe(time.Since(start).Seconds())
	if s.logger != nil {
		s.logger.WithField("reference", reference).WithField("amount", amount).Info("payment approved")
	}
	return nil
}
