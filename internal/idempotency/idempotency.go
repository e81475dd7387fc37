// Package idempotency replays the stored response of a request retried with
// the same Idempotency-Key.
package idempotency

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	redisadapter "github.com/robertarktes/event-registration/internal/adapters/redis"
	"github.com/robertarktes/event-registration/internal/domain"
)

// ErrInFlight is returned while the first request with a key is still running.
var ErrInFlight = errors.Wrap(domain.ErrConflict, "request with this idempotency key is in progress")

// Backend stores responses and in-flight markers.
type Backend interface {
	Get(ctx context.Context, key string) (*redisadapter.IdempResponse, error)
	Set(ctx context.Context, key string, resp redisadapter.IdempResponse, ttl time.Duration) error
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type Idempotency struct {
	backend Backend
	ttl     time.Duration
	// lockTTL bounds how long a crashed request keeps its key reserved.
	lockTTL time.Duration
}

func NewIdempotency(backend Backend, ttl time.Duration) *Idempotency {
	return &Idempotency{backend: backend, ttl: ttl, lockTTL: time.Minute}
}

type Response struct {
	Status int
	Result []byte
}

// Scoped prefixes the key so the same header value sent to different
// sessions does not collide.
func Scoped(scope, key string) string {
	return scope + ":" + key
}

// Begin returns the stored response for key if there is one. Otherwise it
// reserves the key and returns nil; the caller must then call Complete or Abort.
func (i *Idempotency) Begin(ctx context.Context, key string) (*Response, error) {
	if resp, err := i.Get(ctx, key); err != nil || resp != nil {
		return resp, err
	}
	ok, err := i.backend.Reserve(ctx, key, i.lockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The first request may have completed between Get and Reserve.
		if resp, err := i.Get(ctx, key); err != nil || resp != nil {
			return resp, err
		}
		return nil, ErrInFlight
	}
	return nil, nil
}

func (i *Idempotency) Get(ctx context.Context, key string) (*Response, error) {
	stored, err := i.backend.Get(ctx, key)
	if err != nil || stored == nil {
		return nil, err
	}
	return &Response{Status: stored.Status, Result: stored.Result}, nil
}

// Complete stores resp for key and drops the reservation.
func (i *Idempotency) Complete(ctx context.Context, key string, resp Response) error {
	if err := i.Set(ctx, key, resp); err != nil {
		return err
	}
	return i.backend.Release(ctx, key)
}

// Abort drops the reservation without storing a response so the request can
// be retried.
func (i *Idempotency) Abort(ctx context.Context, key string) error {
	return i.backend.Release(ctx, key)
}

func (i *Idempotency) Set(ctx context.Context, key string, resp Response) error {
	return i.backend.Set(ctx, key, redisadapter.IdempResponse{Status: resp.Status, Result: resp.Result}, i.ttl)
}
