// Package forms validates and accepts the single-view forms: appointment,
// job application, t-shirt order and volunteer application.
package forms

import (
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/robertarktes/event-registration/internal/domain"
)

var (
	strictEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	looseEmail  = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phoneNumber = regexp.MustCompile(`^[+]?[(]?[0-9]{3}[)]?[-\s.]?[0-9]{3}[-\s.]?[0-9]{4,6}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	must(v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}))
	must(v.RegisterValidation("strict_email", func(fl validator.FieldLevel) bool {
		return strictEmail.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneNumber.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool {
		return slices.Contains(TimeSlots, fl.Field().String())
	}))
	must(v.RegisterValidation("position", func(fl validator.FieldLevel) bool {
		return slices.Contains(Positions, fl.Field().String())
	}))
	v.RegisterStructValidation(volunteerBirthDate, Volunteer{})
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// messages maps "field" or "field.tag" to the text shown next to the field.
type messages map[string]string

func (m messages) lookup(field, tag string) string {
	if msg, ok := m[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := m[field]; ok {
		return msg
	}
	return field + " is invalid"
}

// check runs the struct validator and returns the rejected fields in the
// order given by order. Fields missing from order go last.
func check(form any, order []string, msgs messages) ([]domain.FieldError, error) {
	err := validate.Struct(form)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, errors.Wrap(err, "validate form")
	}

	seen := make(map[string]struct{}, len(verrs))
	out := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, domain.FieldError{Field: field, Message: msgs.lookup(field, fe.Tag())})
	}

	rank := func(field string) int {
		if i := slices.Index(order, field); i >= 0 {
			return i
		}
		return len(order)
	}
	slices.SortStableFunc(out, func(a, b domain.FieldError) int {
		return rank(a.Field) - rank(b.Field)
	})
	return out, nil
}
