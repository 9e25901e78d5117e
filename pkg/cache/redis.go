package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tallykit/tallygate/pkg/logging"
	"github.com/tallykit/tallygate/pkg/protocol"
)

// redisKeyPrefix namespaces gateway response entries in Redis.
const redisKeyPrefix = "tally:cache:"

// RedisStore is a Store backed by Redis, for deployments where several
// client processes share one response cache. Entry expiry is delegated to
// Redis key TTLs; the local expiry table only decides the TTL at insert.
type RedisStore struct {
	redis      *redis.Client
	defaultTTL time.Duration
	expiry     map[protocol.Report]time.Duration

	mu        sync.Mutex
	hits      uint64
	misses    uint64
	evictions uint64

	logger zerolog.Logger
}

// NewRedisStore creates a Redis-backed response cache.
func NewRedisStore(client *redis.Client, defaultTTL time.Duration) *RedisStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	expiry := make(map[protocol.Report]time.Duration, len(DefaultExpiry))
	for report, ttl := range DefaultExpiry {
		expiry[report] = ttl
	}

	return &RedisStore{
		redis:      client,
		defaultTTL: defaultTTL,
		expiry:     expiry,
		logger:     logging.NewLogger("redis-cache"),
	}
}

func (s *RedisStore) redisKey(report protocol.Report, params protocol.Params) string {
	return redisKeyPrefix + Key(report, params)
}

// Get retrieves a cached payload from Redis.
func (s *RedisStore) Get(ctx context.Context, report protocol.Report, params protocol.Params) (string, bool) {
	key := s.redisKey(report, params)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			CacheErrors.WithLabelValues("get").Inc()
			s.logger.Warn().Err(err).Str("key", key).Msg("Redis get failed")
		}
		s.miss()
		return "", false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Invalid cache entry, dropping")
		_ = s.redis.Del(ctx, key).Err()
		s.miss()
		return "", false
	}

	// Redis should have expired the key already; check anyway so a lagging
	// server never serves stale data.
	if entry.IsExpired(time.Now()) {
		_ = s.redis.Del(ctx, key).Err()
		s.miss()
		return "", false
	}

	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
	CacheHits.WithLabelValues("redis").Inc()
	return entry.Payload, true
}

// Put stores a payload in Redis with the report's TTL.
func (s *RedisStore) Put(ctx context.Context, report protocol.Report, payload string, params protocol.Params) {
	key := s.redisKey(report, params)

	ttl, ok := s.expiry[report]
	if !ok {
		ttl = s.defaultTTL
	}

	entry := Entry{
		Payload:     payload,
		CreatedAt:   time.Now(),
		AccessCount: 1,
		Expiry:      ttl,
		Report:      report,
		Key:         key,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Marshal cache entry failed")
		return
	}

	if err := s.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Redis set failed")
	}
}

// Clear removes all gateway cache entries from Redis.
func (s *RedisStore) Clear(ctx context.Context) {
	iter := s.redis.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	removed := 0
	for iter.Next(ctx) {
		if err := s.redis.Del(ctx, iter.Val()).Err(); err != nil {
			CacheErrors.WithLabelValues("delete").Inc()
			s.logger.Warn().Err(err).Str("key", iter.Val()).Msg("Redis del failed")
			continue
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("Redis scan failed during clear")
	}
	s.logger.Info().Int("removed", removed).Msg("Cleared Redis cache")
}

// CleanupExpired is a no-op for Redis; key TTLs expire server-side.
func (s *RedisStore) CleanupExpired(context.Context) int {
	return 0
}

// Stats returns a snapshot of the store's counters. Size is the number of
// gateway entries currently in Redis.
func (s *RedisStore) Stats() Stats {
	size := 0
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	iter := s.redis.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		size++
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Size:           size,
		MaxSize:        0, // unbounded locally; Redis enforces its own memory policy
		Hits:           s.hits,
		Misses:         s.misses,
		Evictions:      s.evictions,
		HitRatePercent: hitRate(s.hits, s.misses),
		ExpirySettings: expirySeconds(s.expiry),
	}
}

func (s *RedisStore) miss() {
	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
	CacheMisses.WithLabelValues("redis").Inc()
}
