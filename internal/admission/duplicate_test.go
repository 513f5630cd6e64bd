package admission

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateFilterSeen(t *testing.T) {
	filter := NewDuplicateFilter(10)

	assert.False(t, filter.Seen("q-1", "203.0.113.7", "Great docs!"))
	assert.True(t, filter.Seen("q-1", "203.0.113.7", "Great docs!"))

	// Normalization: case and surrounding whitespace do not make a new entry.
	assert.True(t, filter.Seen("q-1", "203.0.113.7", "  great docs!  "))
}

func TestDuplicateFilterBucketsAreIndependent(t *testing.T) {
	filter := NewDuplicateFilter(10)

	require.False(t, filter.Seen("q-1", "203.0.113.7", "same text"))

	assert.False(t, filter.Seen("q-2", "203.0.113.7", "same text"), "different question, same identity")
	assert.False(t, filter.Seen("q-1", "198.51.100.9", "same text"), "same question, different identity")
}

func TestDuplicateFilterCapacityEvictsOldest(t *testing.T) {
	filter := NewDuplicateFilter(3)

	for i := 0; i < 5; i++ {
		require.False(t, filter.Seen("q-1", "id", fmt.Sprintf("entry %d", i)))
	}
	assert.Equal(t, 3, filter.Len("q-1", "id"))

	// The two oldest entries were evicted and read as unseen again.
	assert.False(t, filter.Seen("q-1", "id", "entry 0"))
	assert.False(t, filter.Seen("q-1", "id", "entry 1"))

	// The most recent survivors are still remembered.
	assert.True(t, filter.Seen("q-1", "id", "entry 4"))
}

func TestDuplicateFilterNonPositiveCapacityFallsBack(t *testing.T) {
	filter := NewDuplicateFilter(0)

	for i := 0; i < DefaultDuplicateCapacity+10; i++ {
		filter.Seen("q-1", "id", fmt.Sprintf("entry %d", i))
	}
	assert.Equal(t, DefaultDuplicateCapacity, filter.Len("q-1", "id"))
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "hello world", Fingerprint("  Hello World  "))
	assert.Equal(t, "", Fingerprint("   "))
}
