package forms

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robertarktes/event-registration/internal/domain"
)

var Activities = []string{
	"Event Planning",
	"Fundraising",
	"Mentoring",
	"Administrative Support",
	"Teaching/Tutoring",
	"Food Distribution",
	"Community Outreach",
	"Medical/Health Aid",
}

type Volunteer struct {
	Prefix           string   `json:"prefix,omitempty"`
	FirstName        string   `json:"firstName" validate:"required"`
	LastName         string   `json:"lastName" validate:"required"`
	BirthMonth       string   `json:"birthMonth"`
	BirthDay         string   `json:"birthDay"`
	BirthYear        string   `json:"birthYear"`
	Email            string   `json:"email" validate:"loose_email"`
	Phone            string   `json:"phone,omitempty"`
	Street1          string   `json:"street1,omitempty"`
	Street2          string   `json:"street2,omitempty"`
	City             string   `json:"city,omitempty"`
	State            string   `json:"state,omitempty"`
	Zip              string   `json:"zip,omitempty"`
	College          string   `json:"college,omitempty"`
	Dept             string   `json:"dept,omitempty"`
	Company          string   `json:"company,omitempty"`
	Position         string   `json:"position,omitempty"`
	Interests        []string `json:"interests,omitempty"`
	Experience       string   `json:"experience,omitempty"`
	AvailabilityDays []string `json:"availabilityDays,omitempty"`
	TimeFrom         string   `json:"timeFrom,omitempty"`
	TimeTo           string   `json:"timeTo,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	AgreedToTerms    bool     `json:"agreedToTerms" validate:"required"`
	Signature        string   `json:"signature" validate:"required"`
	SignatureDate    string   `json:"signatureDate,omitempty"`
}

var volunteerOrder = []string{"firstName", "lastName", "birthDate", "email", "agreedToTerms", "signature"}

var volunteerMessages = messages{
	"firstName":     "First name is required",
	"lastName":      "Last name is required",
	"birthDate":     "Incomplete date",
	"email":         "Valid email required",
	"agreedToTerms": "Term acceptance required",
	"signature":     "Signature required",
}

func volunteerBirthDate(sl validator.StructLevel) {
	v := sl.Current().Interface().(Volunteer)
	if v.BirthMonth == "" || v.BirthDay == "" || v.BirthYear == "" {
		sl.ReportError(v.BirthMonth, "birthDate", "BirthDate", "birthdate", "")
	}
}

func (v *Volunteer) Kind() Kind { return KindVolunteer }

func (v *Volunteer) Normalize(time.Time) {
	v.Phone = FormatPhone(v.Phone)
	if v.Prefix == "" {
		v.Prefix = "Mr."
	}
}

func (v *Volunteer) Validate() ([]domain.FieldError, error) {
	return check(v, volunteerOrder, volunteerMessages)
}

// FormatPhone renders the digits of a phone number as (XXX) XXX-XXXX,
// keeping partial input readable while it is typed.
func FormatPhone(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) < 4:
		return digits
	case len(digits) < 7:
		return "(" + digits[:3] + ") " + digits[3:]
	}
	if len(digits) > 10 {
		digits = digits[:10]
	}
	return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
}
