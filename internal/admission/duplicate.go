package admission

import (
	"slices"
	"strings"
	"sync"
)

// DefaultDuplicateCapacity bounds the fingerprints remembered per
// (identity, question) bucket.
const DefaultDuplicateCapacity = 100

// DuplicateFilter remembers normalized fingerprints of prior submissions so a
// repeat submission from the same identity to the same question is rejected.
// State lives entirely in process memory: it is never persisted, and a second
// server instance has its own independent view. Buckets are capacity-bounded,
// keeping the most recent insertions, so detection is probabilistic for
// high-volume identities rather than exact.
type DuplicateFilter struct {
	mu       sync.Mutex
	buckets  map[string][]string
	capacity int
}

// NewDuplicateFilter returns a filter with the given per-bucket capacity.
// Non-positive capacities fall back to DefaultDuplicateCapacity.
func NewDuplicateFilter(capacity int) *DuplicateFilter {
	if capacity <= 0 {
		capacity = DefaultDuplicateCapacity
	}
	return &DuplicateFilter{
		buckets:  make(map[string][]string),
		capacity: capacity,
	}
}

// Fingerprint normalizes submission text for duplicate comparison.
func Fingerprint(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Seen reports whether text was already submitted by identity to the given
// question. A previously unseen fingerprint is recorded and false is
// returned; a known fingerprint is not re-inserted.
func (f *DuplicateFilter) Seen(questionID, identity, text string) bool {
	fingerprint := Fingerprint(text)
	key := identity + "|" + questionID

	f.mu.Lock()
	defer f.mu.Unlock()

	bucket := f.buckets[key]
	if slices.Contains(bucket, fingerprint) {
		return true
	}

	bucket = append(bucket, fingerprint)
	if len(bucket) > f.capacity {
		bucket = bucket[len(bucket)-f.capacity:]
	}
	f.buckets[key] = bucket
	return false
}

// Len reports the number of fingerprints currently held for one bucket;
// intended for tests.
func (f *DuplicateFilter) Len(questionID, identity string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buckets[identity+"|"+questionID])
}
