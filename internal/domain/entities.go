package domain

// Availability is the sales status shown on an event card.
type Availability string

const (
	AvailabilityOpen        Availability = "Open"
	AvailabilitySellingFast Availability = "Selling Fast"
	AvailabilityWaitlist    Availability = "Waitlist"
)

// Blocked reports whether an event with this status can not be selected.
func (a Availability) Blocked() bool {
	return a == AvailabilityWaitlist
}

func (a Availability) Valid() bool {
	switch a {
	case AvailabilityOpen, AvailabilitySellingFast, AvailabilityWaitlist:
		return true
	}
	return false
}

type Event struct {
	ID     string       `json:"id"`
	City   string       `json:"city"`
	Venue  string       `json:"venue"`
	Date   string       `json:"date"`
	Image  string       `json:"img,omitempty"`
	Status Availability `json:"status"`
}

// Prices are whole US dollars.
type Ticket struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	Features string `json:"features,omitempty"`
	Tag      string `json:"tag,omitempty"`
}

type AddOn struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price int64  `json:"price"`
}
