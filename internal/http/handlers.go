package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/robertarktes/event-registration/internal/adapters/qr"
	"github.com/robertarktes/event-registration/internal/domain"
	"github.com/robertarktes/event-registration/internal/forms"
	"github.com/robertarktes/event-registration/internal/registration"
	"github.com/robertarktes/event-registration/internal/wizard"
)

const maxBodyBytes = 8 << 20

// QRRenderer builds and fetches the ticket QR image.
type QRRenderer interface {
	URL(payload domain.QRPayload) (string, error)
	Fetch(ctx context.Context, payload domain.QRPayload) (qr.Image, error)
}

// Check is one dependency probed by readyz.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Handlers struct {
	registration *registration.Service
	forms        *forms.Service
	qr           QRRenderer
	checks       []Check
}

func NewHandlers(reg *registration.Service, formsSvc *forms.Service, qrRenderer QRRenderer, checks ...Check) *Handlers {
	return &Handlers{
		registration: reg,
		forms:        formsSvc,
		qr:           qrRenderer,
		checks:       checks,
	}
}

func decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errInvalidBody(err)
	}
	return nil
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// respond writes the snapshot, or the error together with the snapshot when
// the session was loaded before the call failed.
func respond(w http.ResponseWriter, r *http.Request, snap registration.Snapshot, err error) {
	if err != nil {
		var session any
		if snap.SessionID != "" {
			session = snap
		}
		writeError(w, r, err, session)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.registration.Create(r.Context())
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+snap.SessionID)
	writeJSON(w, http.StatusCreated, snap)
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.registration.Get(r.Context(), sessionID(r))
	respond(w, r, snap, err)
}

func (h *Handlers) SelectEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID string `json:"eventId"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, nil)
		return
	}
	snap, err := h.registration.SelectEvent(r.Context(), sessionID(r), req.EventID)
	respond(w, r, snap, err)
}

func (h *Handlers) Next(w http.ResponseWriter, r *http.Request) {
	snap, err := h.registration.Next(r.Context(), sessionID(r))
	respond(w, r, snap, err)
}

func (h *Handlers) Back(w http.ResponseWriter, r *http.Request) {
	snap, err := h.registration.Back(r.Context(), sessionID(r))
	respond(w, r, snap, err)
}

func (h *Handlers) SetTicket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TicketID string `json:"ticketId"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, nil)
		return
	}
	snap, err := h.registration.SetTicket(r.Context(), sessionID(r), req.TicketID)
	respond(w, r, snap, err)
}

func (h *Handlers) ToggleAddOn(w http.ResponseWriter, r *http.Request) {
	snap, err := h.registration.ToggleAddOn(r.Context(), sessionID(r), chi.URLParam(r, "addonID"))
	respond(w, r, snap, err)
}

func (h *Handlers) UpdateAttendee(w http.ResponseWriter, r *http.Request) {
	var patch wizard.AttendeePatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err, nil)
		return
	}
	snap, err := h.registration.UpdateAttendee(r.Context(), sessionID(r), patch)
	respond(w, r, snap, err)
}

func (h *Handlers) UpdatePaymentDetails(w http.ResponseWriter, r *http.Request) {
	var patch wizard.PaymentPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err, nil)
		return
	}
	snap, err := h.registration.UpdatePayment(r.Context(), sessionID(r), patch)
	respond(w, r, snap, err)
}

func (h *Handlers) Pay(w http.ResponseWriter, r *http.Request) {
	snap, err := h.registration.Pay(r.Context(), sessionID(r))
	respond(w, r, snap, err)
}

func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	snap, err := h.registration.Reset(r.Context(), sessionID(r))
	respond(w, r, snap, err)
}

func (h *Handlers) Catalog(w http.ResponseWriter, r *http.Request) {
	cat := h.registration.Catalog()
	writeJSON(w, http.StatusOK, map[string]any{
		"events":  cat.Events(),
		"tickets": cat.Tickets(),
		"addons":  cat.AddOns(),
	})
}

func (h *Handlers) GetConfirmation(w http.ResponseWriter, r *http.Request) {
	conf, err := h.registration.Confirmation(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	qrURL, err := h.qr.URL(conf.QRPayload())
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		domain.Confirmation
		QR    domain.QRPayload `json:"qr"`
		QRURL string           `json:"qrUrl"`
	}{conf, conf.QRPayload(), qrURL})
}

func (h *Handlers) GetConfirmationQR(w http.ResponseWriter, r *http.Request) {
	conf, err := h.registration.Confirmation(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	img, err := h.qr.Fetch(r.Context(), conf.QRPayload())
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Body)
}

func (h *Handlers) SubmitForm(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	form, err := forms.Decode(forms.Kind(chi.URLParam(r, "kind")), body)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	receipt, err := h.forms.Submit(r.Context(), r.URL.Query().Get("session"), form)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *Handlers) SaveJobDraft(w http.ResponseWriter, r *http.Request) {
	var app forms.JobApplication
	if err := decode(r, &app); err != nil {
		writeError(w, r, err, nil)
		return
	}
	if err := h.forms.SaveJobDraft(r.Context(), sessionID(r), app); err != nil {
		writeError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) LoadJobDraft(w http.ResponseWriter, r *http.Request) {
	app, ok, err := h.forms.LoadJobDraft(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"found": ok, "draft": app})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	failed := map[string]string{}
	for _, c := range h.checks {
		if err := c.Probe(r.Context()); err != nil {
			failed[c.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
