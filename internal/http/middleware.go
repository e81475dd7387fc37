package http

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robertarktes/event-registration/internal/idempotency"
	"github.com/robertarktes/event-registration/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

// Limiter admits or rejects a request counted under key.
type Limiter interface {
	Allow(ctx context.Context, key string, rate int, period time.Duration) bool
}

// Idempotent stores the outcome of requests retried with the same key.
type Idempotent interface {
	Begin(ctx context.Context, key string) (*idempotency.Response, error)
	Complete(ctx context.Context, key string, resp idempotency.Response) error
	Abort(ctx context.Context, key string) error
}

func RequestIDMiddleware(next http.Handler) http.Handler {
	return middleware.RequestID(next)
}

func LoggerMiddleware(logger observability.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := logger.WithField("request_id", middleware.GetReqID(r.Context()))
			if id := chi.URLParam(r, "id"); id != "" {
				entry = entry.WithField("session_id", id)
			}
			ctx := observability.ContextWithLogger(r.Context(), entry)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		tracer := otel.Tracer("http")
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path)
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.url", r.URL.String()),
		)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// MetricsMiddleware counts requests by route pattern, so path parameters do
// not blow up label cardinality.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.RequestsTotal.WithLabelValues(route, strconv.Itoa(status), r.Method).Inc()
	})
}

// RateLimitMiddleware allows perMinute requests per client address.
func RateLimitMiddleware(rl Limiter, perMinute int) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !rl.Allow(r.Context(), "ip:"+ip, perMinute, time.Minute) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (rw *recordingWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *recordingWriter) Write(p []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	rw.body.Write(p)
	return rw.ResponseWriter.Write(p)
}

// IdempotencyMiddleware requires an Idempotency-Key and replays the stored
// response when the key was seen before. Keys are scoped per session.
// Server errors are not stored so the request can be retried.
func IdempotencyMiddleware(idemp Idempotent) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				http.Error(w, "missing Idempotency-Key", http.StatusBadRequest)
				return
			}
			if len(key) < 16 {
				http.Error(w, "invalid Idempotency-Key", http.StatusBadRequest)
				return
			}
			key = idempotency.Scoped(chi.URLParam(r, "id"), key)
			logger := observability.FromContext(r.Context(), observability.NewDiscardLogger())

			existing, err := idemp.Begin(r.Context(), key)
			if err != nil {
				writeError(w, r, err, nil)
				return
			}
			if existing != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(existing.Status)
				w.Write(existing.Result)
				return
			}

			rec := &recordingWriter{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			ctx := context.WithoutCancel(r.Context())
			if rec.status >= http.StatusInternalServerError || rec.status == http.StatusRequestTimeout {
				if err := idemp.Abort(ctx, key); err != nil {
					logger.WithError(err).Warn("failed to release idempotency key")
				}
				return
			}
			if err := idemp.Complete(ctx, key, idempotency.Response{Status: rec.status, Result: rec.body.Bytes()}); err != nil {
				logger.WithError(err).Warn("failed to store idempotent response")
			}
		})
	}
}
