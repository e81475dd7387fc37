package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are registered with the default registry by promauto.
var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reg_requests_total",
			Help: "Total number of requests",
		},
		[]string{"route", "code", "method"},
	)

	WizardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reg_wizard_transitions_total",
			Help: "Wizard transitions applied, by transition name",
		},
		[]string{"transition"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reg_validation_failures_total",
			Help: "Rejected submissions or step changes, by form",
		},
		[]string{"form"},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reg_payments_total",
			Help: "Simulated payments by result",
		},
		[]string{"result"},
	)

	PaymentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reg_payment_seconds",
			Help:    "Duration of simulated payments",
			Buckets: prometheus.DefBuckets,
		},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reg_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reg_outbox_lag_seconds",
			Help: "Age of the oldest record published in the last outbox batch",
		},
	)

	OutboxPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reg_outbox_publish_failures_total",
			Help: "Total failed outbox publishes",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reg_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)
