package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PurchaseAttempts counts purchase requests by outcome:
	// held, unavailable, gateway_error, confirmed, cancelled, returned
	PurchaseAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_attempts_total",
			Help: "Total ticket purchase operations by result",
		},
		[]string{"result"},
	)

	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total payment gateway requests",
		},
		[]string{"operation", "status"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Payment gateway request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ExpiredHolds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expired_holds_total",
			Help: "Total stale holds reclaimed by the sweeper",
		},
	)
)
