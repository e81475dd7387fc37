package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/event-registration/internal/observability"
)

type RouterConfig struct {
	Limiter            Limiter
	RateLimitPerMinute int
	Idempotency        Idempotent
}

func SetupRouter(h *Handlers, logger observability.Logger, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	if cfg.Limiter != nil {
		r.Use(RateLimitMiddleware(cfg.Limiter, cfg.RateLimitPerMinute))
	}

	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/catalog", h.Catalog)

		r.Post("/sessions", h.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(LoggerMiddleware(logger))
			r.Get("/", h.GetSession)
			r.Post("/event", h.SelectEvent)
			r.Post("/next", h.Next)
			r.Post("/back", h.Back)
			r.Put("/ticket", h.SetTicket)
			r.Post("/addons/{addonID}/toggle", h.ToggleAddOn)
			r.Patch("/attendee", h.UpdateAttendee)
			r.Patch("/payment-details", h.UpdatePaymentDetails)
			r.Post("/reset", h.Reset)
			r.With(IdempotencyMiddleware(cfg.Idempotency)).Post("/payment", h.Pay)
			r.Put("/drafts/job-application", h.SaveJobDraft)
			r.Get("/drafts/job-application", h.LoadJobDraft)
		})

		r.Get("/confirmations/{orderID}", h.GetConfirmation)
		r.Get("/confirmations/{orderID}/qr", h.GetConfirmationQR)

		r.With(LoggerMiddleware(logger)).Post("/forms/{kind}", h.SubmitForm)
	})

	return r
}
