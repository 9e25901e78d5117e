// Package metrics provides the centralized Prometheus registry reference for
// the gateway client. All metrics are defined in their owning packages
// (transport, cache, validate, posting) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the gateway client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Transport Metrics (pkg/transport):
//   - tally_gateway_requests_total{outcome} (Counter): Requests by outcome (success, http_error, connection, timeout, cancelled)
//   - tally_gateway_request_duration_seconds{outcome} (Histogram): Request duration including retries
//   - tally_gateway_retries_total{error_class} (Counter): Retry attempts by error class
//   - tally_gateway_retry_exhausted_total{error_class} (Counter): Requests that exhausted all attempts
//   - tally_gateway_connection_status{status} (Gauge): One-hot connection state
//
// Cache Metrics (pkg/cache):
//   - tally_cache_hits_total{layer} (Counter): Cache hits by layer (lru, redis)
//   - tally_cache_misses_total{layer} (Counter): Cache misses by layer
//   - tally_cache_evictions_total{layer} (Counter): LRU evictions
//   - tally_cache_entries{layer} (Gauge): Current entry count
//   - tally_cache_errors_total{operation} (Counter): Cache operation errors
//
// Validation Metrics (pkg/validate):
//   - tally_validations_total{result} (Counter): Validation outcomes (ok, rejected)
//   - tally_validation_errors_total{error_type} (Counter): Rejections by error tag
//
// Posting Metrics (pkg/posting):
//   - tally_voucher_postings_total{outcome} (Counter): Posting attempts by outcome
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(tally_cache_hits_total[5m])) /
//   (sum(rate(tally_cache_hits_total[5m])) + sum(rate(tally_cache_misses_total[5m])))
//
//   # Gateway Error Rate
//   sum(rate(tally_gateway_requests_total{outcome!="success"}[5m]))
//
//   # P95 Gateway Latency
//   histogram_quantile(0.95, rate(tally_gateway_request_duration_seconds_bucket[5m]))
//
//   # Validation Rejection Rate by Tag
//   rate(tally_validation_errors_total[5m])
