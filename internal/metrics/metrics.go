package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Checkout quote pipeline
	// ============================================
	QuoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_checkout_quote_requests_total",
			Help: "Total number of checkout quote requests by outcome",
		},
		[]string{"outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vault_upstream_request_duration_seconds",
			Help:    "Upstream quote API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"upstream", "outcome"},
	)

	// ============================================
	// Registration / OTP
	// ============================================
	OTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_otp_requests_total",
			Help: "Total number of OTP issuance requests by outcome",
		},
		[]string{"outcome"},
	)

	OTPVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_otp_verifications_total",
			Help: "Total number of OTP verification attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ============================================
	// NATS event publishing
	// ============================================
	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vault_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	QuoteEventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_quote_events_published_total",
		Help: "Total number of quote events published to NATS",
	})

	QuoteEventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_quote_events_failed_total",
		Help: "Total number of quote events that failed to publish",
	})
)
