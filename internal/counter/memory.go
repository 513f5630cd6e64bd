package counter

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used for tests and single-node
// development. Expiry is enforced lazily on access.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]memoryEntry
	hashes map[string]memoryHash
	clock  func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type memoryHash struct {
	fields    map[string]int64
	expiresAt time.Time
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]memoryEntry),
		hashes: make(map[string]memoryHash),
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source; intended for tests.
func (s *MemoryStore) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if clock != nil {
		s.clock = clock
	}
}

func (s *MemoryStore) expired(at time.Time) bool {
	return !at.IsZero() && s.clock().After(at)
}

// Get returns the stored value for key.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.values[key]
	if !ok || s.expired(entry.expiresAt) {
		delete(s.values, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key with a TTL.
func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = s.clock().Add(ttl)
	}
	s.values[key] = entry
	return nil
}

// IncrField atomically increments a hash field.
func (s *MemoryStore) IncrField(ctx context.Context, hashKey, field string, by int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, ok := s.hashes[hashKey]
	if !ok || s.expired(hash.expiresAt) {
		hash = memoryHash{fields: make(map[string]int64)}
	}
	hash.fields[field] += by
	s.hashes[hashKey] = hash
	return hash.fields[field], nil
}

// Expire refreshes the TTL on a key.
func (s *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := time.Time{}
	if ttl > 0 {
		deadline = s.clock().Add(ttl)
	}

	if entry, ok := s.values[key]; ok {
		entry.expiresAt = deadline
		s.values[key] = entry
	}
	if hash, ok := s.hashes[key]; ok {
		hash.expiresAt = deadline
		s.hashes[key] = hash
	}
	return nil
}

// Fields returns all fields of a hash key.
func (s *MemoryStore) Fields(ctx context.Context, hashKey string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, ok := s.hashes[hashKey]
	if !ok || s.expired(hash.expiresAt) {
		delete(s.hashes, hashKey)
		return map[string]string{}, nil
	}

	fields := make(map[string]string, len(hash.fields))
	for name, value := range hash.fields {
		fields[name] = strconv.FormatInt(value, 10)
	}
	return fields, nil
}
