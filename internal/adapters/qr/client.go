// Package qr renders the ticket QR code through an external image endpoint.
package qr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/event-registration/internal/domain"
	"github.com/robertarktes/event-registration/internal/observability"
	"github.com/sony/gobreaker"
)

const (
	DefaultSize = "150x150"
	// maxImageBytes caps the proxied image.
	maxImageBytes = 1 << 20
)

var ErrUnavailable = errors.New("qr endpoint unavailable")

type Image struct {
	ContentType string
	Body        []byte
}

type Client struct {
	endpoint string
	http     *http.Client
	cb       *gobreaker.CircuitBreaker
}

func NewClient(endpoint string, httpClient *http.Client, logger observability.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	settings := gobreaker.Settings{
		Name:        "QREndpoint",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithField("name", name).
				WithField("from", from.String()).
				WithField("to", to.String()).
				Warn("circuit breaker state changed")
		},
	}
	return &Client{endpoint: endpoint, http: httpClient, cb: gobreaker.NewCircuitBreaker(settings)}
}

// URL returns the image address encoding the payload as JSON.
func (c *Client) URL(payload domain.QRPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "encode qr payload")
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", errors.Wrapf(err, "parse qr endpoint %q", c.endpoint)
	}
	q := u.Query()
	q.Set("size", DefaultSize)
	q.Set("data", string(data))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch downloads the rendered image. Repeated failures open the breaker and
// later calls fail fast with gobreaker.ErrOpenState.
func (c *Client) Fetch(ctx context.Context, payload domain.QRPayload) (Image, error) {
	target, err := c.URL(payload)
	if err != nil {
		return Image{}, err
	}
	return executeWithBreaker(c.cb, func() (Image, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return Image{}, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return Image{}, errors.Wrap(err, "fetch qr image")
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return Image{}, errors.Wrapf(ErrUnavailable, "status %d", resp.StatusCode)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
		if err != nil {
			return Image{}, errors.Wrap(err, "read qr image")
		}
		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/png"
		}
		return Image{ContentType: contentType, Body: body}, nil
	})
}

func executeWithBreaker[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return *new(T), err
	}
	return res.(T), nil
}
