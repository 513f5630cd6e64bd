package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askboxhq/askbox/internal/counter"
)

type failingStore struct {
	counter.Store
}

func (failingStore) IncrField(ctx context.Context, hashKey, field string, by int64) (int64, error) {
	return 0, errors.New("store down")
}

func (failingStore) Fields(ctx context.Context, hashKey string) (map[string]string, error) {
	return nil, errors.New("store down")
}

func TestDayKey(t *testing.T) {
	at := time.Date(2026, 8, 29, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "usage:2026-08-29", DayKey(at))

	// Non-UTC times bucket by their UTC day.
	est := time.FixedZone("EST", -5*60*60)
	late := time.Date(2026, 8, 29, 22, 0, 0, 0, est)
	assert.Equal(t, "usage:2026-08-30", DayKey(late))
}

func TestAccountantRecord(t *testing.T) {
	store := counter.NewMemoryStore()
	accountant := NewAccountant(store, nil)

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	accountant.Record(context.Background(), "q-1", 150, now)
	accountant.Record(context.Background(), "q-1", 80, now)
	accountant.Record(context.Background(), "q-2", 20, now)

	fields, err := store.Fields(context.Background(), "usage:2026-08-29")
	require.NoError(t, err)
	assert.Equal(t, "250", fields["tokens"])
	assert.Equal(t, "3", fields["requests"])
	assert.Equal(t, "2", fields["q:q-1"])
	assert.Equal(t, "1", fields["q:q-2"])
}

func TestAccountantRecordSeparateDays(t *testing.T) {
	store := counter.NewMemoryStore()
	accountant := NewAccountant(store, nil)

	accountant.Record(context.Background(), "q-1", 100, time.Date(2026, 8, 29, 23, 0, 0, 0, time.UTC))
	accountant.Record(context.Background(), "q-1", 100, time.Date(2026, 8, 30, 1, 0, 0, 0, time.UTC))

	first, err := store.Fields(context.Background(), "usage:2026-08-29")
	require.NoError(t, err)
	second, err := store.Fields(context.Background(), "usage:2026-08-30")
	require.NoError(t, err)

	assert.Equal(t, "1", first["requests"])
	assert.Equal(t, "1", second["requests"])
}

func TestAccountantRecordSwallowsStoreErrors(t *testing.T) {
	accountant := NewAccountant(failingStore{}, nil)

	assert.NotPanics(t, func() {
		accountant.Record(context.Background(), "q-1", 100, time.Now().UTC())
	})
}

func TestAccountantReport(t *testing.T) {
	store := counter.NewMemoryStore()
	accountant := NewAccountant(store, nil)

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	accountant.Record(context.Background(), "q-1", 150, now)
	accountant.Record(context.Background(), "q-2", 50, now)

	report, err := accountant.Report(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, "2026-08-29", report.Day)
	assert.Equal(t, int64(200), report.TotalTokens)
	assert.Equal(t, int64(2), report.TotalRequests)
	assert.Equal(t, map[string]int64{"q-1": 1, "q-2": 1}, report.ByQuestion)
}

func TestAccountantReportEmptyDay(t *testing.T) {
	accountant := NewAccountant(counter.NewMemoryStore(), nil)

	report, err := accountant.Report(context.Background(), time.Now().UTC())
	require.NoError(t, err)

	assert.Zero(t, report.TotalTokens)
	assert.Zero(t, report.TotalRequests)
	assert.Empty(t, report.ByQuestion)
}

func TestAccountantReportStoreError(t *testing.T) {
	accountant := NewAccountant(failingStore{}, nil)

	_, err := accountant.Report(context.Background(), time.Now().UTC())
	assert.Error(t, err)
}
