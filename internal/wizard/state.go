// Package wizard drives one registration session through landing, the three
// entry steps, payment and success.
package wizard

import "github.com/robertarktes/event-registration/internal/domain"

type View string

const (
	ViewLanding View = "landing"
	ViewWizard  View = "wizard"
	ViewPayment View = "payment"
	ViewSuccess View = "success"
)

func (v View) valid() bool {
	switch v {
	case ViewLanding, ViewWizard, ViewPayment, ViewSuccess:
		return true
	}
	return false
}

// Steps inside ViewWizard.
const (
	StepTicket = iota
	StepAttendee
	StepReview

	LastStep = StepReview
)

// State is everything a session needs to resume after a reload. Step is
// only meaningful while View is ViewWizard.
type State struct {
	View    View              `json:"view"`
	Step    int               `json:"step"`
	Event   *domain.Event     `json:"event"`
	Draft   domain.DraftOrder `json:"data"`
	OrderID string            `json:"order,omitempty"`
}

func DefaultState() State {
	return State{
		View:  ViewLanding,
		Step:  0,
		Draft: domain.NewDraftOrder(),
	}
}

func (s State) Clone() State {
	out := s
	if s.Event != nil {
		e := *s.Event
		out.Event = &e
	}
	out.Draft = s.Draft.Clone()
	return out
}

func clampStep(step int) int {
	switch {
	case step < 0:
		return 0
	case step > LastStep:
		return LastStep
	}
	return step
}
