package config_test

import (
	"testing"
	"time"

	"github.com/robertarktes/event-registration/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"SESSION_TTL", "PAYMENT_DELAY", "IDEMPOTENCY_TTL", "RATE_LIMIT_PER_MINUTE", "CATALOG_SOURCE", "HTTP_ADDR"} {
		t.Setenv(k, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 1500*time.Millisecond, cfg.PaymentDelay)
	assert.Equal(t, config.CatalogStatic, cfg.CatalogSource)
	assert.Equal(t, 100, cfg.RateLimitPerMinute)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PAYMENT_DELAY", "10ms")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "7")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, cfg.PaymentDelay)
	assert.Equal(t, 7, cfg.RateLimitPerMinute)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("duration", func(t *testing.T) {
		t.Setenv("SESSION_TTL", "forever")
		_, err := config.Load()
		require.Error(t, err)
	})
	t.Run("mongo catalog without uri", func(t *testing.T) {
		t.Setenv("CATALOG_SOURCE", "mongo")
		t.Setenv("MONGO_URI", "")
		_, err := config.Load()
		require.Error(t, err)
	})
}
