// Package cache provides response caching for TallyPrime gateway reports.
//
// Two stores are available behind the Store interface:
//
//   - LRU: a bounded, in-process, least-recently-used cache guarded by a
//     single mutex. This is the default. Each entry carries a per-report
//     time-to-live; expiry is checked on every read, not just on sweeps.
//
//   - RedisStore: a Redis-backed store with the same key scheme, for
//     deployments where several client processes should share one response
//     cache. Expiry is delegated to Redis TTLs.
//
// Keys are deterministic: the same report and parameter set always yields
// the same key regardless of parameter insertion order.
//
// Report TTLs reflect how quickly each data set goes stale in TallyPrime:
// company information changes rarely (10 min), ledger lists occasionally
// (5 min), vouchers and the day book constantly (30 s).
package cache
