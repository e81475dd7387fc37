package wizard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/robertarktes/event-registration/internal/catalog"
	"github.com/robertarktes/event-registration/internal/domain"
	"github.com/robertarktes/event-registration/internal/payment"
	"github.com/robertarktes/event-registration/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func newController(t *testing.T, store wizard.Store, opts ...wizard.Option) *wizard.Controller {
	t.Helper()
	opts = append([]wizard.Option{wizard.WithPayments(payment.NewSimulated(0, nil))}, opts...)
	return wizard.New(catalog.Default(), store, opts...)
}

// reloaded builds a second controller over the same store, as a page reload would.
func reloaded(t *testing.T, store wizard.Store) wizard.State {
	t.Helper()
	c := newController(t, store)
	require.NoError(t, c.Restore(context.Background()))
	return c.State()
}

func toPayment(t *testing.T, c *wizard.Controller) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.SelectEvent(ctx, "nyc"))
	require.NoError(t, c.Next(ctx))
	require.NoError(t, c.UpdateAttendee(ctx, wizard.AttendeePatch{FirstName: ptr("Ada"), LastName: ptr("Lovelace"), Email: ptr("ada@example.com")}))
	require.NoError(t, c.Next(ctx))
	require.NoError(t, c.Next(ctx))
	require.Equal(t, wizard.ViewPayment, c.State().View)
}

func TestController_InitialState(t *testing.T) {
	c := newController(t, wizard.NewMemoryStore())
	require.NoError(t, c.Restore(context.Background()))

	if diff := cmp.Diff(wizard.DefaultState(), c.State()); diff != "" {
		t.Errorf("initial state mismatch (-want +got):\n%s", diff)
	}
}

func TestController_SelectEvent(t *testing.T) {
	ctx := context.Background()

	for _, e := range catalog.DefaultEvents() {
		t.Run(e.ID, func(t *testing.T) {
			c := newController(t, wizard.NewMemoryStore())
			err := c.SelectEvent(ctx, e.ID)

			if e.Status.Blocked() {
				require.ErrorIs(t, err, wizard.ErrEventUnavailable)
				assert.Equal(t, wizard.ViewLanding, c.State().View)
				return
			}
			require.NoError(t, err)
			s := c.State()
			assert.Equal(t, wizard.ViewWizard, s.View)
			assert.Equal(t, wizard.StepTicket, s.Step)
			require.NotNil(t, s.Event)
			assert.Equal(t, e, *s.Event)
			assert.Equal(t, e.ID, s.Draft.EventID)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		c := newController(t, wizard.NewMemoryStore())
		require.ErrorIs(t, c.SelectEvent(ctx, "paris"), domain.ErrNotFound)
	})

	t.Run("only from landing", func(t *testing.T) {
		c := newController(t, wizard.NewMemoryStore())
		require.NoError(t, c.SelectEvent(ctx, "nyc"))
		require.ErrorIs(t, c.SelectEvent(ctx, "ldn"), wizard.ErrInvalidTransition)
	})
}

func TestController_AttendeeGate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		firstName  string
		email      string
		wantFields []string
	}{
		{name: "both missing", wantFields: []string{"firstName", "email"}},
		{name: "blank first name", firstName: "   ", email: "ada@example.com", wantFields: []string{"firstName"}},
		{name: "email without dot", firstName: "Ada", email: "ada@example", wantFields: []string{"email"}},
		{name: "email with space", firstName: "Ada", email: "ada lovelace@example.com", wantFields: []string{"email"}},
		{name: "email double at", firstName: "Ada", email: "ada@@example.com", wantFields: []string{"email"}},
		{name: "valid", firstName: "Ada", email: "ada@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController(t, wizard.NewMemoryStore())
			require.NoError(t, c.SelectEvent(ctx, "ldn"))
			require.NoError(t, c.Next(ctx))
			require.NoError(t, c.UpdateAttendee(ctx, wizard.AttendeePatch{FirstName: ptr(tt.firstName), Email: ptr(tt.email)}))

			err := c.Next(ctx)
			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				assert.Equal(t, wizard.StepReview, c.State().Step)
				assert.Empty(t, c.Errors())
				return
			}

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			got := make([]string, len(verr.Fields))
			for i, f := range verr.Fields {
				got[i] = f.Field
			}
			assert.Equal(t, tt.wantFields, got)
			assert.Equal(t, wizard.StepAttendee, c.State().Step)
			assert.Len(t, c.Errors(), len(tt.wantFields))
		})
	}
}

func TestController_FixingFieldsClearsFlags(t *testing.T) {
	ctx := context.Background()
	c := newController(t, wizard.NewMemoryStore())
	require.NoError(t, c.SelectEvent(ctx, "nyc"))
	require.NoError(t, c.Next(ctx))
	require.Error(t, c.Next(ctx))
	require.Len(t, c.Errors(), 2)

	require.NoError(t, c.UpdateAttendee(ctx, wizard.AttendeePatch{FirstName: ptr("Ada")}))
	require.Equal(t, []domain.FieldError{{Field: "email", Message: "Valid email is required"}}, c.Errors())

	require.NoError(t, c.UpdateAttendee(ctx, wizard.AttendeePatch{Email: ptr("ada@example.com")}))
	require.NoError(t, c.Next(ctx))
	assert.Empty(t, c.Errors())
}

func TestController_Back(t *testing.T) {
	ctx := context.Background()
	c := newController(t, wizard.NewMemoryStore())
	require.NoError(t, c.SelectEvent(ctx, "nyc"))
	require.NoError(t, c.Next(ctx))

	require.NoError(t, c.Back(ctx))
	assert.Equal(t, wizard.StepTicket, c.State().Step)

	require.NoError(t, c.Back(ctx))
	s := c.State()
	assert.Equal(t, wizard.ViewLanding, s.View)
	assert.Nil(t, s.Event)

	require.ErrorIs(t, c.Back(ctx), wizard.ErrInvalidTransition)
}

func TestController_TotalFollowsDraft(t *testing.T) {
	ctx := context.Background()
	c := newController(t, wizard.NewMemoryStore())
	require.NoError(t, c.SelectEvent(ctx, "nyc"))

	assert.Equal(t, int64(249), c.Total())
	require.NoError(t, c.SetTicket(ctx, "vip"))
	assert.Equal(t, int64(399), c.Total())
	require.NoError(t, c.ToggleAddOn(ctx, "w1"))
	require.NoError(t, c.ToggleAddOn(ctx, "m1"))
	assert.Equal(t, int64(399+79+45), c.Total())
	require.NoError(t, c.ToggleAddOn(ctx, "w1"))
	require.NoError(t, c.ToggleAddOn(ctx, "w1"))
	assert.Equal(t, int64(399+79+45), c.Total())

	require.ErrorIs(t, c.SetTicket(ctx, "gold"), wizard.ErrUnknownTicket)
	require.ErrorIs(t, c.ToggleAddOn(ctx, "zz"), wizard.ErrUnknownAddOn)
}

func TestController_ReloadAfterEveryTransition(t *testing.T) {
	ctx := context.Background()
	store := wizard.NewMemoryStore()
	c := newController(t, store)

	steps := []func() error{
		func() error { return c.SelectEvent(ctx, "ldn") },
		func() error { return c.SetTicket(ctx, "student") },
		func() error { return c.ToggleAddOn(ctx, "m1") },
		func() error { return c.Next(ctx) },
		func() error {
			return c.UpdateAttendee(ctx, wizard.AttendeePatch{FirstName: ptr("Grace"), Email: ptr("grace@example.com"), Avatar: ptr("blob:avatar")})
		},
		func() error { return c.Next(ctx) },
		func() error { return c.Next(ctx) },
		func() error { return c.UpdatePayment(ctx, wizard.PaymentPatch{CardHolder: ptr("Grace Hopper"), CardLast4: ptr("4242 4242 4242 4242")}) },
		func() error { _, err := c.Pay(ctx); return err },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		if diff := cmp.Diff(c.State(), reloaded(t, store)); diff != "" {
			t.Fatalf("step %d: reloaded state differs (-live +reloaded):\n%s", i, diff)
		}
	}
	assert.Equal(t, "4242", c.State().Draft.Payment.CardLast4)
}

type recorder struct {
	got      []domain.Confirmation
	err      error
	onRecord func()
}

func (r *recorder) Record(_ context.Context, c domain.Confirmation) error {
	if r.err != nil {
		return r.err
	}
	for _, prev := range r.got {
		if prev.OrderID == c.OrderID {
			return domain.ErrConflict
		}
	}
	r.got = append(r.got, c)
	if r.onRecord != nil {
		r.onRecord()
	}
	return nil
}

func TestController_Pay(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	now := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	c := newController(t, wizard.NewMemoryStore(), wizard.WithRecorder(rec), wizard.WithClock(func() time.Time { return now }))

	_, err := c.Pay(ctx)
	require.ErrorIs(t, err, wizard.ErrInvalidTransition)

	toPayment(t, c)
	require.ErrorIs(t, c.ToggleAddOn(ctx, "w1"), wizard.ErrInvalidTransition)

	conf, err := c.Pay(ctx)
	require.NoError(t, err)
	assert.Regexp(t, `^PUI-[0-9A-Z]{4}-[0-9A-Z]{4}$`, conf.OrderID)
	assert.Equal(t, int64(249), conf.Total)
	assert.Equal(t, "nyc", conf.Event.ID)
	assert.Equal(t, now, conf.ConfirmedAt)
	require.Len(t, rec.got, 1)
	assert.Equal(t, conf, rec.got[0])

	s := c.State()
	assert.Equal(t, wizard.ViewSuccess, s.View)
	assert.Equal(t, conf.OrderID, s.OrderID)

	rebuilt, ok := c.Confirmation()
	require.True(t, ok)
	assert.Equal(t, conf.OrderID, rebuilt.OrderID)
	assert.Equal(t, conf.Total, rebuilt.Total)
}

func TestController_PayRecorderFailureKeepsPaymentView(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{err: errors.New("db down")}
	store := wizard.NewMemoryStore()
	c := newController(t, store, wizard.WithRecorder(rec))
	toPayment(t, c)

	_, err := c.Pay(ctx)
	require.Error(t, err)
	assert.Equal(t, wizard.ViewPayment, c.State().View)
	reserved := c.State().OrderID
	require.NotEmpty(t, reserved)
	assert.Equal(t, reserved, reloaded(t, store).OrderID)

	rec.err = nil
	conf, err := c.Pay(ctx)
	require.NoError(t, err)
	assert.Equal(t, reserved, conf.OrderID)
	require.Len(t, rec.got, 1)
}

func TestController_PayCancelled(t *testing.T) {
	c := wizard.New(catalog.Default(), wizard.NewMemoryStore(), wizard.WithPayments(payment.NewSimulated(time.Hour, nil)))
	toPayment(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Pay(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, wizard.ViewPayment, c.State().View)
}

func TestController_ResetFromAnyView(t *testing.T) {
	ctx := context.Background()

	setups := map[string]func(t *testing.T, c *wizard.Controller){
		"landing": func(t *testing.T, c *wizard.Controller) {},
		"wizard": func(t *testing.T, c *wizard.Controller) {
			require.NoError(t, c.SelectEvent(ctx, "nyc"))
			require.NoError(t, c.ToggleAddOn(ctx, "w1"))
		},
		"payment": func(t *testing.T, c *wizard.Controller) { toPayment(t, c) },
		"success": func(t *testing.T, c *wizard.Controller) {
			toPayment(t, c)
			_, err := c.Pay(ctx)
			require.NoError(t, err)
		},
	}
	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			store := wizard.NewMemoryStore()
			c := newController(t, store)
			setup(t, c)

			require.NoError(t, c.Reset(ctx))
			assert.Zero(t, store.Len())
			if diff := cmp.Diff(wizard.DefaultState(), c.State()); diff != "" {
				t.Errorf("state after reset (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(wizard.DefaultState(), reloaded(t, store)); diff != "" {
				t.Errorf("reloaded after reset (-want +got):\n%s", diff)
			}
		})
	}
}

type failingStore struct {
	*wizard.MemoryStore
	fail bool
}

func (f *failingStore) Set(ctx context.Context, values map[string]string) error {
	if f.fail {
		return errors.New("store unavailable")
	}
	return f.MemoryStore.Set(ctx, values)
}

func TestController_FailedSaveLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: wizard.NewMemoryStore()}
	c := newController(t, store)
	require.NoError(t, c.SelectEvent(ctx, "nyc"))
	before := c.State()

	store.fail = true
	require.Error(t, c.Next(ctx))
	require.Error(t, c.ToggleAddOn(ctx, "w1"))

	if diff := cmp.Diff(before, c.State()); diff != "" {
		t.Errorf("state changed after failed save (-before +after):\n%s", diff)
	}
}

func TestController_PayRetryAfterFailedSaveRecordsOnce(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: wizard.NewMemoryStore()}
	rec := &recorder{onRecord: func() { store.fail = true }}
	c := newController(t, store, wizard.WithRecorder(rec))
	toPayment(t, c)

	_, err := c.Pay(ctx)
	require.Error(t, err)
	require.Len(t, rec.got, 1)
	assert.Equal(t, wizard.ViewPayment, c.State().View)

	store.fail = false
	rec.onRecord = nil
	conf, err := c.Pay(ctx)
	require.NoError(t, err)
	require.Len(t, rec.got, 1)
	assert.Equal(t, rec.got[0].OrderID, conf.OrderID)

	s := reloaded(t, store)
	assert.Equal(t, wizard.ViewSuccess, s.View)
	assert.Equal(t, conf.OrderID, s.OrderID)
}

func TestController_BackToLandingDropsReservedOrderID(t *testing.T) {
	ctx := context.Background()
	store := wizard.NewMemoryStore()
	c := newController(t, store, wizard.WithRecorder(&recorder{err: errors.New("db down")}))
	toPayment(t, c)
	_, err := c.Pay(ctx)
	require.Error(t, err)
	require.NotEmpty(t, c.State().OrderID)

	require.NoError(t, c.Back(ctx))
	assert.NotEmpty(t, reloaded(t, store).OrderID)
	for c.State().View != wizard.ViewLanding {
		require.NoError(t, c.Back(ctx))
	}
	assert.Empty(t, c.State().OrderID)
	assert.Empty(t, reloaded(t, store).OrderID)
}
