// Package catalog holds the read-only events, ticket tiers and add-ons a
// registration can choose from.
package catalog

import (
	"github.com/cockroachdb/errors"
	"github.com/robertarktes/event-registration/internal/domain"
)

// Catalog is an immutable lookup table. It is built once at startup and
// shared by every session.
type Catalog struct {
	events  []domain.Event
	tickets []domain.Ticket
	addons  []domain.AddOn

	eventByID  map[string]int
	ticketByID map[string]int
	addonByID  map[string]int
}

func New(events []domain.Event, tickets []domain.Ticket, addons []domain.AddOn) (*Catalog, error) {
	c := &Catalog{
		events:     append([]domain.Event(nil), events...),
		tickets:    append([]domain.Ticket(nil), tickets...),
		addons:     append([]domain.AddOn(nil), addons...),
		eventByID:  make(map[string]int, len(events)),
		ticketByID: make(map[string]int, len(tickets)),
		addonByID:  make(map[string]int, len(addons)),
	}
	for i, e := range c.events {
		if e.ID == "" {
			return nil, errors.Wrap(domain.ErrInvalidInput, "event without id")
		}
		if !e.Status.Valid() {
			return nil, errors.Wrapf(domain.ErrInvalidInput, "event %q has unknown status %q", e.ID, e.Status)
		}
		if _, ok := c.eventByID[e.ID]; ok {
			return nil, errors.Wrapf(domain.ErrConflict, "duplicate event id %q", e.ID)
		}
		c.eventByID[e.ID] = i
	}
	for i, t := range c.tickets {
		if t.ID == "" || t.Price < 0 {
			return nil, errors.Wrapf(domain.ErrInvalidInput, "invalid ticket %q", t.ID)
		}
		if _, ok := c.ticketByID[t.ID]; ok {
			return nil, errors.Wrapf(domain.ErrConflict, "duplicate ticket id %q", t.ID)
		}
		c.ticketByID[t.ID] = i
	}
	for i, a := range c.addons {
		if a.ID == "" || a.Price < 0 {
			return nil, errors.Wrapf(domain.ErrInvalidInput, "invalid add-on %q", a.ID)
		}
		if _, ok := c.addonByID[a.ID]; ok {
			return nil, errors.Wrapf(domain.ErrConflict, "duplicate add-on id %q", a.ID)
		}
		c.addonByID[a.ID] = i
	}
	return c, nil
}

func (c *Catalog) Event(id string) (domain.Event, bool) {
	i, ok := c.eventByID[id]
	if !ok {
		return domain.Event{}, false
	}
	return c.events[i], true
}

func (c *Catalog) Ticket(id string) (domain.Ticket, bool) {
	i, ok := c.ticketByID[id]
	if !ok {
		return domain.Ticket{}, false
	}
	return c.tickets[i], true
}

func (c *Catalog) AddOn(id string) (domain.AddOn, bool) {
	i, ok := c.addonByID[id]
	if !ok {
		return domain.AddOn{}, false
	}
	return c.addons[i], true
}

func (c *Catalog) Events() []domain.Event {
	return append([]domain.Event(nil), c.events...)
}

func (c *Catalog) Tickets() []domain.Ticket {
	return append([]domain.Ticket(nil), c.tickets...)
}

func (c *Catalog) AddOns() []domain.AddOn {
	return append([]domain.AddOn(nil), c.addons...)
}

// SelectedAddOns resolves the distinct add-on ids of a draft, in draft order.
// Unknown ids are skipped.
func (c *Catalog) SelectedAddOns(d domain.DraftOrder) []domain.AddOn {
	seen := make(map[string]struct{}, len(d.AddOns))
	out := make([]domain.AddOn, 0, len(d.AddOns))
	for _, id := range d.AddOns {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if a, ok := c.AddOn(id); ok {
			out = append(out, a)
		}
	}
	return out
}

// Total is the ticket price plus every distinct selected add-on. A draft
// without a known ticket totals zero.
func (c *Catalog) Total(d domain.DraftOrder) int64 {
	t, ok := c.Ticket(d.TicketID)
	if !ok {
		return 0
	}
	total := t.Price
	for _, a := range c.SelectedAddOns(d) {
		total += a.Price
	}
	return total
}
