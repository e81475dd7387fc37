package forms

import (
	"time"

	"github.com/robertarktes/event-registration/internal/domain"
)

var Positions = []string{
	"Senior Frontend Engineer",
	"Backend Developer",
	"Product Designer",
	"Project Manager",
	"DevOps Specialist",
}

// JobDraftKey is the draft slot autosaved while an application is edited.
const JobDraftKey = "jobAppDraft"

type Education struct {
	ID     string `json:"id"`
	School string `json:"school"`
	Degree string `json:"degree"`
	Year   string `json:"year"`
}

type Experience struct {
	ID      string `json:"id"`
	Company string `json:"company"`
	Role    string `json:"role"`
	Period  string `json:"period"`
}

type Reference struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Contact  string `json:"contact"`
}

type JobApplication struct {
	FirstName     string       `json:"firstName" validate:"notblank"`
	LastName      string       `json:"lastName" validate:"notblank"`
	Email         string       `json:"email" validate:"strict_email"`
	Phone         string       `json:"phone" validate:"notblank"`
	AddressStreet string       `json:"addressStreet,omitempty"`
	AddressCity   string       `json:"addressCity,omitempty"`
	AddressState  string       `json:"addressState,omitempty"`
	AddressZip    string       `json:"addressZip,omitempty"`
	Position      string       `json:"position" validate:"position"`
	StartDate     string       `json:"startDate,omitempty"`
	WorkAuth      string       `json:"workAuth,omitempty"`
	Relocation    bool         `json:"relocation"`
	Education     []Education  `json:"education,omitempty"`
	Experience    []Experience `json:"experience,omitempty"`
	Skills        []string     `json:"skills,omitempty"`
	References    []Reference  `json:"references,omitempty"`
	Resume        string       `json:"resume" validate:"required"`
	Portfolio     []string     `json:"portfolio,omitempty"`
	CoverLetter   string       `json:"coverLetter,omitempty"`
	TermsAccepted bool         `json:"termsAccepted" validate:"required"`
	Signature     bool         `json:"signature" validate:"required"`
}

var jobOrder = []string{"firstName", "lastName", "email", "phone", "position", "resume", "termsAccepted", "signature"}

var jobMessages = messages{
	"firstName":     "Required",
	"lastName":      "Required",
	"email":         "Valid email required",
	"phone":         "Required",
	"position":      "Required",
	"resume":        "Resume required",
	"termsAccepted": "Accept terms",
	"signature":     "Signature required",
}

func (j *JobApplication) Kind() Kind { return KindJobApplication }

func (j *JobApplication) Normalize(time.Time) {
	if j.WorkAuth == "" {
		j.WorkAuth = "yes"
	}
}

func (j *JobApplication) Validate() ([]domain.FieldError, error) {
	return check(j, jobOrder, jobMessages)
}
