package cache

import (
	"time"

	"github.com/tallykit/tallygate/pkg/protocol"
)

// Entry is a cached gateway response. Entries are owned exclusively by their
// store; only the access counter is mutated after creation.
type Entry struct {
	// Payload is the raw response body. Opaque to the cache.
	Payload string `json:"payload"`

	// CreatedAt is when the entry was stored.
	CreatedAt time.Time `json:"created_at"`

	// AccessCount is bumped on every hit.
	AccessCount int `json:"access_count"`

	// Expiry is the entry's time-to-live from CreatedAt.
	Expiry time.Duration `json:"expiry"`

	// Report is the logical report this entry caches.
	Report protocol.Report `json:"report"`

	// Key is the derived cache key.
	Key string `json:"key"`
}

// IsExpired reports whether the entry's age exceeds its TTL at the given time.
func (e *Entry) IsExpired(now time.Time) bool {
	return now.Sub(e.CreatedAt) > e.Expiry
}

// Age returns how long ago the entry was stored.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}
