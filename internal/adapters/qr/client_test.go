package qr_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/robertarktes/event-registration/internal/adapters/qr"
	"github.com/robertarktes/event-registration/internal/domain"
	"github.com/robertarktes/event-registration/internal/observability"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var payload = domain.QRPayload{ID: "PUI-0001-ABCD", Name: "Ada Lovelace", Event: "New York", Ticket: "Standard"}

func TestClient_URLEncodesPayload(t *testing.T) {
	c := qr.NewClient("https://api.qrserver.com/v1/create-qr-code/", nil, observability.NewDiscardLogger())

	raw, err := c.URL(payload)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "api.qrserver.com", u.Host)
	assert.Equal(t, qr.DefaultSize, u.Query().Get("size"))

	var decoded domain.QRPayload
	require.NoError(t, json.Unmarshal([]byte(u.Query().Get("data")), &decoded))
	assert.Equal(t, payload, decoded)
}

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("data"), "PUI-0001-ABCD")
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	c := qr.NewClient(srv.URL, srv.Client(), observability.NewDiscardLogger())
	img, err := c.Fetch(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "png-bytes", string(img.Body))
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := qr.NewClient(srv.URL, srv.Client(), observability.NewDiscardLogger())
	for i := 0; i < 5; i++ {
		_, err := c.Fetch(context.Background(), payload)
		require.ErrorIs(t, err, qr.ErrUnavailable)
	}

	_, err := c.Fetch(context.Background(), payload)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), calls.Load())
}
