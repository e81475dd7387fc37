// Package registration hosts many wizard sessions behind one service: it
// loads a session, applies one transition under the session lock and
// reports the resulting snapshot.
package registration

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/event-registration/internal/catalog"
	"github.com/robertarktes/event-registration/internal/domain"
	"github.com/robertarktes/event-registration/internal/observability"
	"github.com/robertarktes/event-registration/internal/payment"
	"github.com/robertarktes/event-registration/internal/wizard"
)

var (
	ErrSessionNotFound = errors.Wrap(domain.ErrNotFound, "session not found")
	ErrSessionBusy     = errors.Wrap(domain.ErrConflict, "session is busy")
)

// Sessions hands out the persistent store of each session.
type Sessions interface {
	Scope(sessionID string) wizard.Store
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// Locker serialises mutations of one session across processes.
type Locker interface {
	Lock(ctx context.Context, sessionID string, ttl time.Duration) (func(context.Context) error, error)
}

// Confirmations stores confirmed registrations.
type Confirmations interface {
	wizard.Recorder
	GetConfirmation(ctx context.Context, orderID string) (domain.Confirmation, error)
}

// Auditor keeps a trail of transitions. Failures are logged, never returned.
type Auditor interface {
	LogTransition(ctx context.Context, sessionID, transition, view string, step int) error
	LogConfirmation(ctx context.Context, sessionID string, c domain.Confirmation) error
}

// Snapshot is what a client sees after each call.
type Snapshot struct {
	SessionID    string               `json:"sessionId"`
	State        wizard.State         `json:"state"`
	Total        int64                `json:"total"`
	Errors       []domain.FieldError  `json:"errors"`
	Confirmation *domain.Confirmation `json:"confirmation,omitempty"`
}

type Service struct {
	catalog       *catalog.Catalog
	sessions      Sessions
	locker        Locker
	confirmations Confirmations
	auditor       Auditor
	payments      payment.Processor
	ids           *domain.OrderIDGenerator
	logger        observability.Logger
	lockTTL       time.Duration
	now           func() time.Time
}

type Option func(*Service)

func WithLocker(l Locker) Option { return func(s *Service) { s.locker = l } }

func WithConfirmations(c Confirmations) Option { return func(s *Service) { s.confirmations = c } }

func WithAuditor(a Auditor) Option { return func(s *Service) { s.auditor = a } }

func WithPayments(p payment.Processor) Option { return func(s *Service) { s.payments = p } }

func WithOrderIDs(g *domain.OrderIDGenerator) Option { return func(s *Service) { s.ids = g } }

func WithLogger(l observability.Logger) Option { return func(s *Service) { s.logger = l } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithLockTTL bounds how long a crashed request keeps its session locked.
// It must exceed the payment delay.
func WithLockTTL(d time.Duration) Option { return func(s *Service) { s.lockTTL = d } }

func NewService(cat *catalog.Catalog, sessions Sessions, opts ...Option) *Service {
	s := &Service{
		catalog:  cat,
		sessions: sessions,
		lockTTL:  30 * time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = observability.NewDiscardLogger()
	}
	if s.payments == nil {
		s.payments = payment.NewSimulated(payment.DefaultDelay, s.logger)
	}
	if s.ids == nil {
		s.ids = domain.NewOrderIDGenerator()
	}
	if s.locker == nil {
		s.locker = NewMemoryLocker()
	}
	return s
}

func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *Service) controller(sessionID string, logger observability.Logger) *wizard.Controller {
	opts := []wizard.Option{
		wizard.WithPayments(s.payments),
		wizard.WithOrderIDs(s.ids),
		wizard.WithLogger(logger),
		wizard.WithClock(s.now),
	}
	if s.confirmations != nil {
		opts = append(opts, wizard.WithRecorder(s.confirmations))
	}
	return wizard.New(s.catalog, s.sessions.Scope(sessionID), opts...)
}

func snapshot(sessionID string, c *wizard.Controller) Snapshot {
	snap := Snapshot{
		SessionID: sessionID,
		State:     c.State(),
		Total:     c.Total(),
		Errors:    c.Errors(),
	}
	if snap.Errors == nil {
		snap.Errors = []domain.FieldError{}
	}
	if conf, ok := c.Confirmation(); ok {
		snap.Confirmation = &conf
	}
	return snap
}

// Create starts a session on the landing view.
func (s *Service) Create(ctx context.Context) (Snapshot, error) {
	id := uuid.NewString()
	logger := observability.FromContext(ctx, s.logger).WithField("session_id", id)
	c := s.controller(id, logger)
	if err := c.Reset(ctx); err != nil {
		return Snapshot{}, err
	}
	if err := wizard.Save(ctx, s.sessions.Scope(id), c.State()); err != nil {
		return Snapshot{}, err
	}
	logger.Info("session created")
	return snapshot(id, c), nil
}

func (s *Service) Get(ctx context.Context, sessionID string) (Snapshot, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	snap := snapshot(sessionID, c)
	if snap.Confirmation != nil && s.confirmations != nil {
		// Prefer the stored copy; it carries the confirmation time.
		stored, err := s.confirmations.GetConfirmation(ctx, snap.State.OrderID)
		switch {
		case err == nil:
			snap.Confirmation = &stored
		case !errors.Is(err, domain.ErrNotFound):
			return Snapshot{}, err
		}
	}
	return snap, nil
}

func (s *Service) load(ctx context.Context, sessionID string) (*wizard.Controller, error) {
	ok, err := s.sessions.Exists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	c := s.controller(sessionID, observability.FromContext(ctx, s.logger).WithField("session_id", sessionID))
	if err := c.Restore(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// mutate applies fn to the session under its lock. The snapshot is returned
// even when fn fails so callers can show validation errors.
func (s *Service) mutate(ctx context.Context, sessionID, transition string, fn func(c *wizard.Controller) error) (Snapshot, error) {
	release, err := s.locker.Lock(ctx, sessionID, s.lockTTL)
	if err != nil {
		return Snapshot{}, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.WithError(err).WithField("session_id", sessionID).Warn("failed to release session lock")
		}
	}()

	c, err := s.load(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := fn(c); err != nil {
		return snapshot(sessionID, c), err
	}

	snap := snapshot(sessionID, c)
	s.audit(ctx, sessionID, transition, snap.State)
	return snap, nil
}

func (s *Service) audit(ctx context.Context, sessionID, transition string, st wizard.State) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.LogTransition(context.WithoutCancel(ctx), sessionID, transition, string(st.View), st.Step); err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Warn("audit log failed")
	}
}

func (s *Service) SelectEvent(ctx context.Context, sessionID, eventID string) (Snapshot, error) {
	return s.mutate(ctx, sessionID, "select_event", func(c *wizard.Controller) error {
		return c.SelectEvent(ctx, eventID)
	})
}

func (s *Service) Next(ctx context.Context, sessionID string) (Snapshot, error) {
	return s.mutate(ctx, sessionID, "next", func(c *wizard.Controller) error {
		return c.Next(ctx)
	})
}

func (s *Service) Back(ctx context.Context, sessionID string) (Snapshot, error) {
	return s.mutate(ctx, sessionID, "back", func(c *wizard.Controller) error {
		return c.Back(ctx)
	})
}

func (s *Service) SetTicket(ctx context.Context, sessionID, ticketID string) (Snapshot, error) {
	return s.mutate(ctx, sessionID, "set_ticket", func(c *wizard.Controller) error {
		return c.SetTicket(ctx, ticketID)
	})
}

func (s *Service) ToggleAddOn(ctx context.Context, sessionID, addonID string) (Snapshot, error) {
	return s.mutate(ctx, sessionID, "toggle_addon", func(c *wizard.Controller) error {
		return c.ToggleAddOn(ctx, addonID)
	})
}

func (s *Service) UpdateAttendee(ctx context.Context, sessionID string, p wizard.AttendeePatch) (Snapshot, error) {
	return s.mutate(ctx, sessionID, "update_attendee", func(c *wizard.Controller) error {
		return c.UpdateAttendee(ctx, p)
	})
}

func (s *Service) UpdatePayment(ctx context.Context, sessionID string, p wizard.PaymentPatch) (Snapshot, error) {
	return s.mutate(ctx, sessionID, "update_payment", func(c *wizard.Controller) error {
		return c.UpdatePayment(ctx, p)
	})
}

// Pay charges the session and confirms it. Cancelling ctx while the payment
// is pending leaves the session on the payment view.
func (s *Service) Pay(ctx context.Context, sessionID string) (Snapshot, error) {
	var conf domain.Confirmation
	snap, err := s.mutate(ctx, sessionID, "payment_completed", func(c *wizard.Controller) error {
		var err error
		conf, err = c.Pay(ctx)
		return err
	})
	if err != nil {
		return snap, err
	}
	snap.Confirmation = &conf
	s.logger.WithField("session_id", sessionID).WithField("order_id", conf.OrderID).Info("registration confirmed")
	if s.auditor != nil {
		if err := s.auditor.LogConfirmation(context.WithoutCancel(ctx), sessionID, conf); err != nil {
			s.logger.WithError(err).WithField("session_id", sessionID).Warn("audit log failed")
		}
	}
	return snap, nil
}

func (s *Service) Reset(ctx context.Context, sessionID string) (Snapshot, error) {
	return s.mutate(ctx, sessionID, "reset", func(c *wizard.Controller) error {
		if err := c.Reset(ctx); err != nil {
			return err
		}
		// Keep the session addressable after its keys were wiped.
		return wizard.Save(ctx, s.sessions.Scope(sessionID), c.State())
	})
}

// Confirmation looks up a stored confirmation by order id.
func (s *Service) Confirmation(ctx context.Context, orderID string) (domain.Confirmation, error) {
	if s.confirmations == nil {
		return domain.Confirmation{}, domain.ErrNotFound
	}
	return s.confirmations.GetConfirmation(ctx, orderID)
}
