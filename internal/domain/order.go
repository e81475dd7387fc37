package domain

import "slices"

const DefaultTicketID = "standard"

type Attendee struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar,omitempty"`
}

func (a Attendee) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// PaymentDetails are placeholders collected on the payment view. No card
// data beyond the last four digits is ever kept.
type PaymentDetails struct {
	CardHolder string `json:"cardHolder,omitempty"`
	CardLast4  string `json:"cardLast4,omitempty"`
	Expiry     string `json:"expiry,omitempty"`
}

// DraftOrder is the in-progress selection of one registration session.
type DraftOrder struct {
	EventID  string         `json:"eventId,omitempty"`
	TicketID string         `json:"ticketId"`
	AddOns   []string       `json:"addons"`
	Attendee Attendee       `json:"attendee"`
	Payment  PaymentDetails `json:"payment"`
}

func NewDraftOrder() DraftOrder {
	return DraftOrder{
		TicketID: DefaultTicketID,
		AddOns:   []string{},
	}
}

func (d DraftOrder) HasAddOn(id string) bool {
	return slices.Contains(d.AddOns, id)
}

// ToggleAddOn returns a copy with id added when absent and removed when present.
func (d DraftOrder) ToggleAddOn(id string) DraftOrder {
	out := d.Clone()
	if i := slices.Index(out.AddOns, id); i >= 0 {
		out.AddOns = slices.Delete(out.AddOns, i, i+1)
		return out
	}
	out.AddOns = append(out.AddOns, id)
	return out
}

func (d DraftOrder) Clone() DraftOrder {
	out := d
	out.AddOns = make([]string, len(d.AddOns))
	copy(out.AddOns, d.AddOns)
	return out
}
