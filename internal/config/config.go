package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

const (
	CatalogStatic = "static"
	CatalogMongo  = "mongo"
)

type Config struct {
	HTTPAddr           string
	CRDBDSN            string
	MongoURI           string
	MongoDatabase      string
	RedisAddr          string
	RabbitURL          string
	OTLPEndpoint       string
	SessionTTL         time.Duration
	PaymentDelay       time.Duration
	IdempotencyTTL     time.Duration
	CatalogSource      string
	QREndpoint         string
	RateLimitPerMinute int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		CRDBDSN:       os.Getenv("CRDB_DSN"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getenv("MONGO_DATABASE", "registration"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RabbitURL:     os.Getenv("RABBIT_URL"),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		CatalogSource: getenv("CATALOG_SOURCE", CatalogStatic),
		QREndpoint:    getenv("QR_ENDPOINT", "https://api.qrserver.com/v1/create-qr-code/"),
	}

	var err error
	if cfg.SessionTTL, err = duration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.PaymentDelay, err = duration("PAYMENT_DELAY", 1500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = duration("IDEMPOTENCY_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = integer("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}

	switch cfg.CatalogSource {
	case CatalogStatic:
	case CatalogMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New("CATALOG_SOURCE=mongo requires MONGO_URI")
		}
	default:
		return nil, errors.Newf("unknown CATALOG_SOURCE %q", cfg.CatalogSource)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return d, nil
}

func integer(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return n, nil
}
