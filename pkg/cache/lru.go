package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tallykit/tallygate/pkg/logging"
	"github.com/tallykit/tallygate/pkg/protocol"
)

// LRU is a bounded, in-process, least-recently-used response cache.
// All operations are guarded by a single mutex so one instance may be shared
// between a UI-driven request path and a background monitor. The
// check-expire-promote sequence in Get is atomic under that lock.
type LRU struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used

	maxSize    int
	defaultTTL time.Duration
	expiry     map[protocol.Report]time.Duration

	hits      uint64
	misses    uint64
	evictions uint64

	// now is injectable for expiry tests.
	now func() time.Time

	logger zerolog.Logger
}

// NewLRU creates an LRU store. maxSize <= 0 and defaultTTL <= 0 fall back to
// DefaultMaxSize and DefaultTTL.
func NewLRU(maxSize int, defaultTTL time.Duration) *LRU {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	expiry := make(map[protocol.Report]time.Duration, len(DefaultExpiry))
	for report, ttl := range DefaultExpiry {
		expiry[report] = ttl
	}

	return &LRU{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		expiry:     expiry,
		now:        time.Now,
		logger:     logging.NewLogger("cache"),
	}
}

// TTLFor returns the TTL used for a report.
func (c *LRU) TTLFor(report protocol.Report) time.Duration {
	if ttl, ok := c.expiry[report]; ok {
		return ttl
	}
	return c.defaultTTL
}

// Get returns the cached payload if present and fresh. Expired entries are
// evicted on read and counted as misses.
func (c *LRU) Get(_ context.Context, report protocol.Report, params protocol.Params) (string, bool) {
	key := Key(report, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		CacheMisses.WithLabelValues("lru").Inc()
		c.logger.Debug().Str("report", report.String()).Str("key", key).Msg("Cache miss")
		return "", false
	}

	entry := elem.Value.(*Entry)
	if entry.IsExpired(c.now()) {
		c.order.Remove(elem)
		delete(c.entries, key)
		c.misses++
		CacheMisses.WithLabelValues("lru").Inc()
		c.logger.Debug().Str("report", report.String()).Str("key", key).Msg("Cache entry expired")
		return "", false
	}

	c.order.MoveToFront(elem)
	entry.AccessCount++
	c.hits++
	CacheHits.WithLabelValues("lru").Inc()

	c.logger.Debug().
		Str("report", report.String()).
		Str("key", key).
		Dur("age", entry.Age(c.now())).
		Msg("Cache hit")
	return entry.Payload, true
}

// Put stores a payload under the report's TTL, evicting the least recently
// used entry if the bound is exceeded.
func (c *LRU) Put(_ context.Context, report protocol.Report, payload string, params protocol.Params) {
	key := Key(report, params)
	ttl := c.TTLFor(report)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &Entry{
		Payload:     payload,
		CreatedAt:   c.now(),
		AccessCount: 1,
		Expiry:      ttl,
		Report:      report,
		Key:         key,
	}

	if elem, ok := c.entries[key]; ok {
		elem.Value = entry
		c.order.MoveToFront(elem)
	} else {
		c.entries[key] = c.order.PushFront(entry)
	}

	for len(c.entries) > c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		evicted := oldest.Value.(*Entry)
		c.order.Remove(oldest)
		delete(c.entries, evicted.Key)
		c.evictions++
		CacheEvictions.WithLabelValues("lru").Inc()
		c.logger.Debug().
			Str("report", evicted.Report.String()).
			Str("key", evicted.Key).
			Msg("Evicted least recently used cache entry")
	}

	CacheSize.WithLabelValues("lru").Set(float64(len(c.entries)))
	c.logger.Debug().
		Str("report", report.String()).
		Str("key", key).
		Dur("ttl", ttl).
		Msg("Cached response")
}

// Clear removes all entries.
func (c *LRU) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.entries)
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	CacheSize.WithLabelValues("lru").Set(0)
	c.logger.Info().Int("removed", removed).Msg("Cleared cache")
}

// CleanupExpired removes all expired entries and returns the count.
func (c *LRU) CleanupExpired(_ context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		entry := elem.Value.(*Entry)
		if entry.IsExpired(now) {
			c.order.Remove(elem)
			delete(c.entries, entry.Key)
			removed++
		}
		elem = next
	}

	CacheSize.WithLabelValues("lru").Set(float64(len(c.entries)))
	if removed > 0 {
		c.logger.Info().Int("removed", removed).Msg("Cleaned up expired cache entries")
	}
	return removed
}

// Stats returns a snapshot of the cache counters.
func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Size:           len(c.entries),
		MaxSize:        c.maxSize,
		Hits:           c.hits,
		Misses:         c.misses,
		Evictions:      c.evictions,
		HitRatePercent: hitRate(c.hits, c.misses),
		ExpirySettings: expirySeconds(c.expiry),
	}
}
