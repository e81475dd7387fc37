package forms

import (
	"strings"
	"time"

	"github.com/robertarktes/event-registration/internal/domain"
)

var TimeSlots = []string{"11:30 AM", "12:30 PM", "1:30 PM", "4:30 PM", "5:30 PM", "6:30 PM"}

var ContactMethods = []string{"Phone Call", "Email", "WhatsApp / Text"}

type Appointment struct {
	Date          string `json:"date" validate:"datetime=2006-01-02"`
	Time          string `json:"time" validate:"timeslot"`
	FirstName     string `json:"firstName" validate:"notblank"`
	LastName      string `json:"lastName" validate:"notblank"`
	Phone         string `json:"phone" validate:"phone"`
	Email         string `json:"email" validate:"strict_email"`
	ContactMethod string `json:"contactMethod,omitempty"`
	BestTime      string `json:"bestTime,omitempty"`
	HelpText      string `json:"helpText,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

var appointmentOrder = []string{"date", "time", "firstName", "lastName", "phone", "email"}

var appointmentMessages = messages{
	"date":      "Please pick a valid date",
	"time":      "Please select a time slot",
	"firstName": "First name is required",
	"lastName":  "Last name is required",
	"phone":     "Valid phone number is required",
	"email":     "Valid email is required",
}

func (a *Appointment) Kind() Kind { return KindAppointment }

// Normalize defaults the date to today, as the calendar preselects it.
func (a *Appointment) Normalize(now time.Time) {
	a.Phone = strings.TrimSpace(a.Phone)
	if a.Date == "" {
		a.Date = now.Format("2006-01-02")
	}
}

func (a *Appointment) Validate() ([]domain.FieldError, error) {
	return check(a, appointmentOrder, appointmentMessages)
}
