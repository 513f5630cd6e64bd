package counter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClockedStore(t *testing.T) (*MemoryStore, *time.Time) {
	t.Helper()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.SetClock(func() time.Time { return now })
	return store, &now
}

func TestMemoryStoreGetSet(t *testing.T) {
	store, _ := newClockedStore(t)

	_, found, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(context.Background(), "k", "v", time.Minute))

	value, found, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v", value)
}

func TestMemoryStoreValueExpiry(t *testing.T) {
	store, now := newClockedStore(t)

	require.NoError(t, store.Set(context.Background(), "k", "v", time.Minute))

	*now = now.Add(59 * time.Second)
	_, found, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, found)

	*now = now.Add(2 * time.Second)
	_, found, err = store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreZeroTTLNeverExpires(t *testing.T) {
	store, now := newClockedStore(t)

	require.NoError(t, store.Set(context.Background(), "k", "v", 0))

	*now = now.Add(1000 * time.Hour)
	_, found, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMemoryStoreIncrField(t *testing.T) {
	store, _ := newClockedStore(t)

	value, err := store.IncrField(context.Background(), "h", "tokens", 150)
	require.NoError(t, err)
	assert.Equal(t, int64(150), value)

	value, err = store.IncrField(context.Background(), "h", "tokens", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(200), value)

	value, err = store.IncrField(context.Background(), "h", "requests", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), value)

	fields, err := store.Fields(context.Background(), "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"tokens": "200", "requests": "1"}, fields)
}

func TestMemoryStoreHashExpiry(t *testing.T) {
	store, now := newClockedStore(t)

	_, err := store.IncrField(context.Background(), "h", "requests", 1)
	require.NoError(t, err)
	require.NoError(t, store.Expire(context.Background(), "h", time.Hour))

	*now = now.Add(2 * time.Hour)

	fields, err := store.Fields(context.Background(), "h")
	require.NoError(t, err)
	assert.Empty(t, fields)

	// A fresh increment after expiry starts from zero.
	value, err := store.IncrField(context.Background(), "h", "requests", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), value)
}

func TestMemoryStoreExpireRefreshesDeadline(t *testing.T) {
	store, now := newClockedStore(t)

	require.NoError(t, store.Set(context.Background(), "k", "v", time.Minute))

	*now = now.Add(50 * time.Second)
	require.NoError(t, store.Expire(context.Background(), "k", time.Minute))

	*now = now.Add(50 * time.Second)
	_, found, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, found, "the refreshed TTL outlives the original deadline")
}

func TestMemoryStoreFieldsAbsentKey(t *testing.T) {
	store, _ := newClockedStore(t)

	fields, err := store.Fields(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, fields)
	assert.Empty(t, fields)
}
