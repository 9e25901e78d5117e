package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for gateway transport operations.
var (
	gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_gateway_requests_total",
		Help: "Total gateway requests by outcome",
	}, []string{"outcome"})

	gatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tally_gateway_request_duration_seconds",
		Help:    "Gateway request duration in seconds including retries",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"outcome"})

	gatewayRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_gateway_retries_total",
		Help: "Total retry attempts by error class",
	}, []string{"error_class"})

	gatewayRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_gateway_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})

	// ConnectionStatus exposes the current connection state as a one-hot gauge.
	ConnectionStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tally_gateway_connection_status",
		Help: "Current gateway connection status (1 for the active state)",
	}, []string{"status"})
)
