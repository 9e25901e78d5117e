package cache

import (
	"context"
	"time"

	"github.com/tallykit/tallygate/pkg/protocol"
)

// DefaultExpiry is the TTL table by report. Reports not listed use the
// store's default TTL.
var DefaultExpiry = map[protocol.Report]time.Duration{
	protocol.ReportCompanyInfo:    10 * time.Minute,
	protocol.ReportLedgerList:     5 * time.Minute,
	protocol.ReportLedgerDetails:  3 * time.Minute,
	protocol.ReportBalanceSheet:   time.Minute,
	protocol.ReportVoucherList:    30 * time.Second,
	protocol.ReportVoucherDetails: time.Minute,
	protocol.ReportDayBook:        30 * time.Second,
}

// DefaultTTL applies to reports without an entry in DefaultExpiry.
const DefaultTTL = 5 * time.Minute

// DefaultMaxSize bounds the in-process LRU store.
const DefaultMaxSize = 100

// Store is a response cache keyed by (report, parameters).
type Store interface {
	// Get returns the cached payload for the report and parameters, or
	// ok=false on a miss. Expired entries are evicted and reported as misses.
	Get(ctx context.Context, report protocol.Report, params protocol.Params) (payload string, ok bool)

	// Put stores a payload with the report's configured TTL, overwriting any
	// existing entry for the same key.
	Put(ctx context.Context, report protocol.Report, payload string, params protocol.Params)

	// Clear removes all entries.
	Clear(ctx context.Context)

	// CleanupExpired removes expired entries and returns how many were
	// removed. Housekeeping only; Get already evicts on read.
	CleanupExpired(ctx context.Context) int

	// Stats returns a snapshot of cache performance counters.
	Stats() Stats
}

// Stats is a snapshot of a store's performance counters.
type Stats struct {
	Size           int            `json:"cache_size"`
	MaxSize        int            `json:"max_size"`
	Hits           uint64         `json:"hits"`
	Misses         uint64         `json:"misses"`
	Evictions      uint64         `json:"evictions"`
	HitRatePercent float64        `json:"hit_rate_percent"`
	ExpirySettings map[string]int `json:"expiry_settings"`
}

// expirySeconds renders the TTL table for statistics output.
func expirySeconds(table map[protocol.Report]time.Duration) map[string]int {
	out := make(map[string]int, len(table))
	for report, ttl := range table {
		out[report.String()] = int(ttl.Seconds())
	}
	return out
}

// hitRate computes a percentage, guarding the zero-request case.
func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}
