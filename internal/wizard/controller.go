package wizard

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/event-registration/internal/catalog"
	"github.com/robertarktes/event-registration/internal/domain"
	"github.com/robertarktes/event-registration/internal/observability"
	"github.com/robertarktes/event-registration/internal/payment"
)

var (
	ErrUnknownEvent      = errors.Wrap(domain.ErrNotFound, "unknown event")
	ErrUnknownTicket     = errors.Wrap(domain.ErrNotFound, "unknown ticket")
	ErrUnknownAddOn      = errors.Wrap(domain.ErrNotFound, "unknown add-on")
	ErrEventUnavailable  = errors.Wrap(domain.ErrConflict, "event is not open for registration")
	ErrInvalidTransition = errors.Wrap(domain.ErrConflict, "transition not allowed from current position")
)

const (
	FieldFirstName = "firstName"
	FieldEmail     = "email"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Recorder receives the confirmation before the session moves to success.
// A failing recorder keeps the session on the payment view.
type Recorder interface {
	Record(ctx context.Context, c domain.Confirmation) error
}

type Option func(*Controller)

func WithPayments(p payment.Processor) Option {
	return func(c *Controller) { c.payments = p }
}

func WithOrderIDs(g *domain.OrderIDGenerator) Option {
	return func(c *Controller) { c.ids = g }
}

func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

func WithLogger(l observability.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller owns the state of one session. Every transition builds the
// next state, saves it to the store and only then replaces the in-memory
// copy, so a failed save leaves the controller unchanged.
type Controller struct {
	catalog  *catalog.Catalog
	store    Store
	payments payment.Processor
	ids      *domain.OrderIDGenerator
	recorder Recorder
	logger   observability.Logger
	now      func() time.Time

	state  State
	errors []domain.FieldError
}

func New(cat *catalog.Catalog, store Store, opts ...Option) *Controller {
	c := &Controller{
		catalog: cat,
		store:   store,
		now:     time.Now,
		state:   DefaultState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = observability.NewDiscardLogger()
	}
	if c.payments == nil {
		c.payments = payment.NewSimulated(payment.DefaultDelay, c.logger)
	}
	if c.ids == nil {
		c.ids = domain.NewOrderIDGenerator()
	}
	return c
}

// Restore replaces the in-memory state with the persisted one.
func (c *Controller) Restore(ctx context.Context) error {
	s, fallbacks, err := Load(ctx, c.store)
	if err != nil {
		return err
	}
	if len(fallbacks) > 0 {
		c.logger.WithField("keys", fallbacks).Warn("persisted wizard state partly unreadable, using defaults")
	}
	c.state = s
	c.errors = nil
	return nil
}

func (c *Controller) State() State {
	return c.state.Clone()
}

// Errors lists the fields rejected by the last gated transition, in display order.
func (c *Controller) Errors() []domain.FieldError {
	return append([]domain.FieldError(nil), c.errors...)
}

func (c *Controller) Total() int64 {
	return c.catalog.Total(c.state.Draft)
}

// Confirmation rebuilds the confirmation snapshot of a session on the
// success view.
func (c *Controller) Confirmation() (domain.Confirmation, bool) {
	if c.state.View != ViewSuccess || c.state.Event == nil {
		return domain.Confirmation{}, false
	}
	return c.confirmation(c.state.OrderID, c.state.Draft, time.Time{}), true
}

func (c *Controller) SelectEvent(ctx context.Context, eventID string) error {
	if c.state.View != ViewLanding {
		return ErrInvalidTransition
	}
	event, ok := c.catalog.Event(eventID)
	if !ok {
		return ErrUnknownEvent
	}
	if event.Status.Blocked() {
		return ErrEventUnavailable
	}

	next := c.state.Clone()
	next.View = ViewWizard
	next.Step = StepTicket
	next.Event = &event
	next.Draft.EventID = event.ID
	return c.commit(ctx, next, "select_event")
}

// Next advances one step. Leaving the attendee step requires a first name
// and a well-formed email; leaving the last step opens payment.
func (c *Controller) Next(ctx context.Context) error {
	if c.state.View != ViewWizard {
		return ErrInvalidTransition
	}

	next := c.state.Clone()
	transition := "next"
	switch c.state.Step {
	case StepAttendee:
		if fields := validateAttendee(c.state.Draft.Attendee); len(fields) > 0 {
			c.errors = fields
			observability.ValidationFailures.WithLabelValues("wizard_attendee").Inc()
			return &domain.ValidationError{Fields: append([]domain.FieldError(nil), fields...)}
		}
		next.Step = StepReview
	case LastStep:
		next.View = ViewPayment
		next.Step = 0
		transition = "proceed_to_payment"
	default:
		next.Step = clampStep(c.state.Step + 1)
	}

	if err := c.commit(ctx, next, transition); err != nil {
		return err
	}
	c.errors = nil
	return nil
}

// Back returns to the previous step, to landing from the first step, or to
// the last step from payment.
func (c *Controller) Back(ctx context.Context) error {
	next := c.state.Clone()
	switch c.state.View {
	case ViewWizard:
		if c.state.Step > 0 {
			next.Step = c.state.Step - 1
		} else {
			next.View = ViewLanding
			next.Step = 0
			next.Event = nil
			next.Draft.EventID = ""
			next.OrderID = ""
		}
	case ViewPayment:
		next.View = ViewWizard
		next.Step = LastStep
	default:
		return ErrInvalidTransition
	}
	if err := c.commit(ctx, next, "back"); err != nil {
		return err
	}
	c.errors = nil
	return nil
}

func (c *Controller) SetTicket(ctx context.Context, ticketID string) error {
	if c.state.View != ViewWizard {
		return ErrInvalidTransition
	}
	if _, ok := c.catalog.Ticket(ticketID); !ok {
		return ErrUnknownTicket
	}
	next := c.state.Clone()
	next.Draft.TicketID = ticketID
	return c.commit(ctx, next, "set_ticket")
}

func (c *Controller) ToggleAddOn(ctx context.Context, addonID string) error {
	if c.state.View != ViewWizard {
		return ErrInvalidTransition
	}
	if _, ok := c.catalog.AddOn(addonID); !ok {
		return ErrUnknownAddOn
	}
	next := c.state.Clone()
	next.Draft = next.Draft.ToggleAddOn(addonID)
	return c.commit(ctx, next, "toggle_addon")
}

// AttendeePatch carries the attendee fields being edited; nil fields are kept.
type AttendeePatch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
}

func (c *Controller) UpdateAttendee(ctx context.Context, p AttendeePatch) error {
	if c.state.View != ViewWizard {
		return ErrInvalidTransition
	}
	next := c.state.Clone()
	a := &next.Draft.Attendee
	var touched []string
	if p.FirstName != nil {
		a.FirstName = *p.FirstName
		touched = append(touched, FieldFirstName)
	}
	if p.LastName != nil {
		a.LastName = *p.LastName
	}
	if p.Email != nil {
		a.Email = *p.Email
		touched = append(touched, FieldEmail)
	}
	if p.Avatar != nil {
		a.Avatar = *p.Avatar
	}
	if err := c.commit(ctx, next, "update_attendee"); err != nil {
		return err
	}
	c.clearErrors(touched...)
	return nil
}

// PaymentPatch carries the payment placeholder fields; nil fields are kept.
type PaymentPatch struct {
	CardHolder *string `json:"cardHolder,omitempty"`
	CardLast4  *string `json:"cardLast4,omitempty"`
	Expiry     *string `json:"expiry,omitempty"`
}

func (c *Controller) UpdatePayment(ctx context.Context, p PaymentPatch) error {
	if c.state.View != ViewWizard && c.state.View != ViewPayment {
		return ErrInvalidTransition
	}
	next := c.state.Clone()
	d := &next.Draft.Payment
	if p.CardHolder != nil {
		d.CardHolder = *p.CardHolder
	}
	if p.CardLast4 != nil {
		d.CardLast4 = lastFour(*p.CardLast4)
	}
	if p.Expiry != nil {
		d.Expiry = *p.Expiry
	}
	return c.commit(ctx, next, "update_payment")
}

// Pay runs the payment and, once it is approved, records the confirmation
// and moves to success. The order id is reserved and saved before the
// charge, so a retry after a failed save records under the same id.
// Cancelling ctx during the payment leaves the session on the payment view.
func (c *Controller) Pay(ctx context.Context) (domain.Confirmation, error) {
	if c.state.View != ViewPayment || c.state.Event == nil {
		return domain.Confirmation{}, ErrInvalidTransition
	}
	if _, ok := c.catalog.Ticket(c.state.Draft.TicketID); !ok {
		return domain.Confirmation{}, ErrUnknownTicket
	}

	if c.state.OrderID == "" {
		orderID, err := c.ids.Next()
		if err != nil {
			return domain.Confirmation{}, err
		}
		reserved := c.state.Clone()
		reserved.OrderID = orderID
		if err := c.commit(ctx, reserved, "reserve_order_id"); err != nil {
			return domain.Confirmation{}, err
		}
	}
	orderID := c.state.OrderID

	if err := c.payments.Charge(ctx, orderID, c.Total()); err != nil {
		return domain.Confirmation{}, err
	}

	conf := c.confirmation(orderID, c.state.Draft, c.now())
	if c.recorder != nil {
		err := c.recorder.Record(ctx, conf)
		switch {
		case errors.Is(err, domain.ErrConflict):
			c.logger.WithField("order_id", orderID).Warn("confirmation already recorded, completing session")
		case err != nil:
			return domain.Confirmation{}, errors.Wrap(err, "record confirmation")
		}
	}

	next := c.state.Clone()
	next.View = ViewSuccess
	next.Step = 0
	if err := c.commit(ctx, next, "payment_completed"); err != nil {
		return domain.Confirmation{}, err
	}
	return conf, nil
}

// Reset wipes the persisted keys and returns to a fresh landing view.
func (c *Controller) Reset(ctx context.Context) error {
	if err := Clear(ctx, c.store); err != nil {
		return err
	}
	c.state = DefaultState()
	c.errors = nil
	observability.WizardTransitions.WithLabelValues("reset").Inc()
	return nil
}

func (c *Controller) commit(ctx context.Context, next State, transition string) error {
	if err := Save(ctx, c.store, next); err != nil {
		return err
	}
	c.logger.WithField("transition", transition).
		WithField("view", next.View).
		WithField("step", next.Step).
		Debug("wizard transition")
	c.state = next
	observability.WizardTransitions.WithLabelValues(transition).Inc()
	return nil
}

func (c *Controller) clearErrors(fields ...string) {
	if len(c.errors) == 0 || len(fields) == 0 {
		return
	}
	kept := c.errors[:0]
	for _, e := range c.errors {
		drop := false
		for _, f := range fields {
			if e.Field == f {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, e)
		}
	}
	c.errors = kept
}

func (c *Controller) confirmation(orderID string, draft domain.DraftOrder, at time.Time) domain.Confirmation {
	ticket, _ := c.catalog.Ticket(draft.TicketID)
	return domain.NewConfirmation(orderID, *c.state.Event, ticket, c.catalog.SelectedAddOns(draft), draft, at)
}

func validateAttendee(a domain.Attendee) []domain.FieldError {
	var fields []domain.FieldError
	if strings.TrimSpace(a.FirstName) == "" {
		fields = append(fields, domain.FieldError{Field: FieldFirstName, Message: "First name is required"})
	}
	if !emailPattern.MatchString(a.Email) {
		fields = append(fields, domain.FieldError{Field: FieldEmail, Message: "Valid email is required"})
	}
	return fields
}

func lastFour(card string) string {
	digits := make([]rune, 0, len(card))
	for _, r := range card {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return string(digits)
}
