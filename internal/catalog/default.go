package catalog

import "github.com/robertarktes/event-registration/internal/domain"

func DefaultEvents() []domain.Event {
	return []domain.Event{
		{
			ID:     "nyc",
			City:   "New York",
			Venue:  "Javits Center",
			Date:   "Aug 12-14",
			Image:  "https://images.unsplash.com/photo-1496442226666-8d4d0e62e6e9?w=600&q=80",
			Status: domain.AvailabilityOpen,
		},
		{
			ID:     "ldn",
			City:   "London",
			Venue:  "ExCeL London",
			Date:   "Sep 20-22",
			Image:  "https://images.unsplash.com/photo-1513635269975-59663e0ac1ad?w=600&q=80",
			Status: domain.AvailabilitySellingFast,
		},
		{
			ID:     "sgp",
			City:   "Singapore",
			Venue:  "Marina Bay",
			Date:   "Oct 05-07",
			Image:  "https://images.unsplash.com/photo-1525625293386-3f8f99389edd?w=600&q=80",
			Status: domain.AvailabilityWaitlist,
		},
	}
}

func DefaultTickets() []domain.Ticket {
	return []domain.Ticket{
		{ID: "student", Title: "Student", Price: 99, Features: "Expo Entry • Keynotes"},
		{ID: domain.DefaultTicketID, Title: "Standard", Price: 249, Tag: "POPULAR", Features: "Workshops • After-Party"},
		{ID: "vip", Title: "VIP", Price: 399, Features: "VIP Lounge • Dinner"},
	}
}

func DefaultAddOns() []domain.AddOn {
	return []domain.AddOn{
		{ID: "w1", Title: "Workshop", Price: 79},
		{ID: "m1", Title: "Merch Pack", Price: 45},
	}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultEvents(), DefaultTickets(), DefaultAddOns())
	if err != nil {
		panic(err)
	}
	return c
}
