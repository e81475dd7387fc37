package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/event-registration/internal/adapters/qr"
	"github.com/robertarktes/event-registration/internal/domain"
	"github.com/robertarktes/event-registration/internal/observability"
	"github.com/sony/gobreaker"
)

type errorBody struct {
	Error  string              `json:"error"`
	Errors []domain.FieldError `json:"errors,omitempty"`
	// Session is set when a wizard call failed after the session was loaded.
	Session any `json:"session,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrSerializationFailure):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests), errors.Is(err, qr.ErrUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError maps err to a status and writes it. Server errors are logged
// and their text is not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error, session any) {
	status := statusFor(err)
	body := errorBody{Error: err.Error(), Session: session}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Errors = verr.Fields
	}
	if status == http.StatusInternalServerError {
		observability.FromContext(r.Context(), observability.NewDiscardLogger()).
			WithError(err).
			WithField("path", r.URL.Path).
			Error("request failed")
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

func errInvalidBody(err error) error {
	return errors.Wrapf(domain.ErrInvalidInput, "invalid body: %v", err)
}
