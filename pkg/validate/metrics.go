package validate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ValidationErrors tracks validation failures by error tag
	ValidationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_validation_errors_total",
			Help: "Total number of gateway response validation failures",
		},
		[]string{"error_type"},
	)

	// ValidationsTotal tracks validation outcomes
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_validations_total",
			Help: "Total number of gateway responses validated",
		},
		[]string{"result"}, // "ok", "rejected"
	)
)
