// Package counter provides the shared remote counter store used by the
// admission layer and the usage accountant. The store offers plain key/value
// access with TTLs plus atomic hash-field increments; it makes no cross-key
// transactional guarantees.
package counter

import (
	"context"
	"time"
)

// Store is the counter store contract.
//
// Calls are at-least-once over the network. IncrField is atomic per field;
// Get/Set round-trips are not, which callers must tolerate (see the limiter's
// read-modify-write note).
type Store interface {
	// Get returns the stored value for key, reporting absence via the bool.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// IncrField atomically increments a hash field and returns the new value.
	IncrField(ctx context.Context, hashKey, field string, by int64) (int64, error)

	// Expire refreshes the TTL on a key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Fields returns all fields of a hash key. Absent keys yield an empty map.
	Fields(ctx context.Context, hashKey string) (map[string]string, error)
}
