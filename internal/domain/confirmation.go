package domain

import "time"

// Confirmation is the write-once snapshot produced when a registration
// reaches the success view.
type Confirmation struct {
	OrderID     string     `json:"orderId"`
	Event       Event      `json:"event"`
	Ticket      Ticket     `json:"ticket"`
	AddOns      []AddOn    `json:"addons"`
	Draft       DraftOrder `json:"data"`
	Total       int64      `json:"total"`
	ConfirmedAt time.Time  `json:"confirmedAt"`
}

// QRPayload is the JSON document encoded into the scannable code printed on
// the ticket.
type QRPayload struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Event  string `json:"event"`
	Ticket string `json:"ticket"`
}

func NewConfirmation(orderID string, event Event, ticket Ticket, addons []AddOn, draft DraftOrder, confirmedAt time.Time) Confirmation {
	total := ticket.Price
	for _, a := range addons {
		total += a.Price
	}
	snapshot := make([]AddOn, len(addons))
	copy(snapshot, addons)
	return Confirmation{
		OrderID:     orderID,
		Event:       event,
		Ticket:      ticket,
		AddOns:      snapshot,
		Draft:       draft.Clone(),
		Total:       total,
		ConfirmedAt: confirmedAt.UTC(),
	}
}

func (c Confirmation) QRPayload() QRPayload {
	return QRPayload{
		ID:     c.OrderID,
		Name:   c.Draft.Attendee.FullName(),
		Event:  c.Event.City,
		Ticket: c.Ticket.Title,
	}
}
