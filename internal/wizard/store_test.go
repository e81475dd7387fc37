package wizard_test

import (
	"context"
	"testing"

	"github.com/robertarktes/event-registration/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CorruptEntriesFallBack(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		values   map[string]string
		wantView wizard.View
		wantStep int
	}{
		{
			name:     "empty store",
			values:   map[string]string{},
			wantView: wizard.ViewLanding,
		},
		{
			name:     "unknown view",
			values:   map[string]string{"view": "checkout", "step": "1"},
			wantView: wizard.ViewLanding,
		},
		{
			name:     "wizard without event",
			values:   map[string]string{"view": "wizard", "step": "2", "event": "{not json"},
			wantView: wizard.ViewLanding,
		},
		{
			name:     "step out of range is clamped",
			values:   map[string]string{"view": "wizard", "step": "7", "event": `{"id":"nyc","city":"New York","status":"Open"}`},
			wantView: wizard.ViewWizard,
			wantStep: wizard.LastStep,
		},
		{
			name:     "non numeric step",
			values:   map[string]string{"view": "wizard", "step": "two", "event": `{"id":"nyc","city":"New York","status":"Open"}`},
			wantView: wizard.ViewWizard,
		},
		{
			name:     "success without order id",
			values:   map[string]string{"view": "success", "event": `{"id":"nyc","city":"New York","status":"Open"}`},
			wantView: wizard.ViewLanding,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := wizard.NewMemoryStore()
			for k, v := range tt.values {
				store.Put(k, v)
			}
			store.Put("data", "][")

			s, _, err := wizard.Load(ctx, store)
			require.NoError(t, err)
			assert.Equal(t, tt.wantView, s.View)
			assert.Equal(t, tt.wantStep, s.Step)
			assert.Equal(t, wizard.DefaultState().Draft, s.Draft)
		})
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := wizard.NewMemoryStore()

	s := wizard.DefaultState()
	require.NoError(t, wizard.Save(ctx, store, s))
	assert.Equal(t, 5, store.Len())

	got, fallbacks, err := wizard.Load(ctx, store)
	require.NoError(t, err)
	assert.Empty(t, fallbacks)
	assert.Equal(t, s, got)

	require.NoError(t, wizard.Clear(ctx, store))
	assert.Zero(t, store.Len())
}

func TestLoad_DuplicateAddOnsCollapse(t *testing.T) {
	ctx := context.Background()
	store := wizard.NewMemoryStore()
	c := newController(t, store)
	require.NoError(t, c.SelectEvent(ctx, "nyc"))
	store.Put("data", `{"eventId":"nyc","ticketId":"standard","addons":["w1","w1"]}`)

	require.NoError(t, c.Restore(ctx))
	assert.Equal(t, []string{"w1"}, c.State().Draft.AddOns)
	withWorkshop := c.Total()

	require.NoError(t, c.ToggleAddOn(ctx, "w1"))
	assert.Empty(t, c.State().Draft.AddOns)
	assert.Less(t, c.Total(), withWorkshop)
}
