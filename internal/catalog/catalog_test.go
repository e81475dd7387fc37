package catalog_test

import (
	"testing"

	"github.com/robertarktes/event-registration/internal/catalog"
	"github.com/robertarktes/event-registration/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := catalog.New(
		[]domain.Event{{ID: "nyc", Status: domain.AvailabilityOpen}, {ID: "nyc", Status: domain.AvailabilityOpen}},
		nil, nil,
	)
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = catalog.New([]domain.Event{{ID: "x", Status: "Sold Out"}}, nil, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCatalog_Total(t *testing.T) {
	c := catalog.Default()

	tests := []struct {
		name  string
		draft domain.DraftOrder
		want  int64
	}{
		{name: "default ticket", draft: domain.NewDraftOrder(), want: 249},
		{name: "vip with both add-ons", draft: domain.DraftOrder{TicketID: "vip", AddOns: []string{"w1", "m1"}}, want: 399 + 79 + 45},
		{name: "duplicate add-on counted once", draft: domain.DraftOrder{TicketID: "student", AddOns: []string{"w1", "w1"}}, want: 99 + 79},
		{name: "unknown add-on ignored", draft: domain.DraftOrder{TicketID: "student", AddOns: []string{"zz"}}, want: 99},
		{name: "unknown ticket", draft: domain.DraftOrder{TicketID: "gold", AddOns: []string{"w1"}}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Total(tt.draft))
		})
	}
}

func TestCatalog_ToggleTwiceRestoresTotal(t *testing.T) {
	c := catalog.Default()
	draft := domain.NewDraftOrder()
	before := c.Total(draft)

	for _, a := range c.AddOns() {
		toggled := draft.ToggleAddOn(a.ID)
		assert.Equal(t, before+a.Price, c.Total(toggled))
		assert.Equal(t, before, c.Total(toggled.ToggleAddOn(a.ID)))
	}
}

func TestCatalog_ListsAreCopies(t *testing.T) {
	c := catalog.Default()
	events := c.Events()
	events[0].City = "Gotham"

	e, ok := c.Event(events[0].ID)
	require.True(t, ok)
	assert.Equal(t, "New York", e.City)
}
