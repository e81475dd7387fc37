package wizard

import (
	"context"
	"encoding/json"
	"slices"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/event-registration/internal/domain"
)

// Persisted keys. Values are always strings.
const (
	KeyView  = "view"
	KeyStep  = "step"
	KeyEvent = "event"
	KeyOrder = "order"
	KeyData  = "data"
)

var AllKeys = []string{KeyView, KeyStep, KeyEvent, KeyOrder, KeyData}

// Store is a string key-value store scoped to one session. Set and Delete
// must apply all keys or none.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

func encodeState(s State) (map[string]string, error) {
	event, err := json.Marshal(s.Event)
	if err != nil {
		return nil, errors.Wrap(err, "encode event")
	}
	data, err := json.Marshal(s.Draft)
	if err != nil {
		return nil, errors.Wrap(err, "encode draft")
	}
	return map[string]string{
		KeyView:  string(s.View),
		KeyStep:  strconv.Itoa(s.Step),
		KeyEvent: string(event),
		KeyOrder: s.OrderID,
		KeyData:  string(data),
	}, nil
}

// decodeState rebuilds a state from stored values. Absent or unreadable
// entries fall back to their defaults; the keys that did so are returned.
func decodeState(values map[string]string) (State, []string) {
	s := DefaultState()
	var fallbacks []string

	if v, ok := values[KeyView]; ok {
		if view := View(v); view.valid() {
			s.View = view
		} else {
			fallbacks = append(fallbacks, KeyView)
		}
	}

	if v, ok := values[KeyStep]; ok {
		if step, err := strconv.Atoi(v); err == nil {
			s.Step = clampStep(step)
		} else {
			fallbacks = append(fallbacks, KeyStep)
		}
	}

	if v, ok := values[KeyEvent]; ok && v != "" {
		var e *domain.Event
		if err := json.Unmarshal([]byte(v), &e); err == nil {
			s.Event = e
		} else {
			fallbacks = append(fallbacks, KeyEvent)
		}
	}

	s.OrderID = values[KeyOrder]

	if v, ok := values[KeyData]; ok && v != "" {
		var d domain.DraftOrder
		if err := json.Unmarshal([]byte(v), &d); err == nil {
			d.AddOns = dedupe(d.AddOns)
			s.Draft = d
		} else {
			fallbacks = append(fallbacks, KeyData)
		}
	}

	// A position that needs an event, or a success without an order id,
	// can not be resumed.
	if (s.View != ViewLanding && s.Event == nil) || (s.View == ViewSuccess && s.OrderID == "") {
		s.View = ViewLanding
		s.Event = nil
		fallbacks = append(fallbacks, KeyView)
	}
	if s.View != ViewWizard {
		s.Step = 0
	}
	if s.View == ViewLanding {
		s.OrderID = ""
	}

	return s, fallbacks
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// Save writes the whole state in one call.
func Save(ctx context.Context, store Store, s State) error {
	values, err := encodeState(s)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, values); err != nil {
		return errors.Wrap(err, "save wizard state")
	}
	return nil
}

// Load reads the state back. Only store failures are errors; corrupt data
// yields defaults.
func Load(ctx context.Context, store Store) (State, []string, error) {
	values, err := store.Get(ctx, AllKeys...)
	if err != nil {
		return State{}, nil, errors.Wrap(err, "load wizard state")
	}
	s, fallbacks := decodeState(values)
	return s, fallbacks, nil
}

// Clear removes every persisted key.
func Clear(ctx context.Context, store Store) error {
	if err := store.Delete(ctx, AllKeys...); err != nil {
		return errors.Wrap(err, "clear wizard state")
	}
	return nil
}
