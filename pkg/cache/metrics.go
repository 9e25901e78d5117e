package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (lru, redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_cache_hits_total",
			Help: "Total number of gateway response cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks cache misses by layer
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_cache_misses_total",
			Help: "Total number of gateway response cache misses",
		},
		[]string{"layer"},
	)

	// CacheEvictions tracks LRU evictions by layer
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_cache_evictions_total",
			Help: "Total number of cache entries evicted by the LRU bound",
		},
		[]string{"layer"},
	)

	// CacheSize tracks current entry count by layer
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tally_cache_entries",
			Help: "Current number of entries in the gateway response cache",
		},
		[]string{"layer"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
