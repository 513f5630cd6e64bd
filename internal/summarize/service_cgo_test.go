//go:build cgo

package summarize

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askboxhq/askbox/internal/config"
	"github.com/askboxhq/askbox/internal/core"
	"github.com/askboxhq/askbox/internal/core/store"
	"github.com/askboxhq/askbox/internal/counter"
	"github.com/askboxhq/askbox/internal/usage"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()

	ctx := context.Background()
	st, err := store.Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { require.NoError(t, st.Close()) })
	return st
}

func newCompletionServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "Themes: positive."}}],
			"usage": {"total_tokens": 42}
		}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func seedQuestion(t *testing.T, st *store.Store, questionID string, responses int) {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, st.InsertQuestion(ctx, core.Question{
		ID: questionID, Text: "How was it?", CreatedAt: now,
	}))
	for i := 0; i < responses; i++ {
		require.NoError(t, st.InsertResponse(ctx, core.Response{
			ID:         fmt.Sprintf("%s-r%d", questionID, i),
			QuestionID: questionID,
			Text:       fmt.Sprintf("response %d", i),
			CreatedAt:  now,
		}))
	}
}

func TestServiceGenerate(t *testing.T) {
	st := openTestStore(t)
	seedQuestion(t, st, "q-1", 3)

	server := newCompletionServer(t, nil)
	client := NewClient(server.URL, "test-key", "gpt-4o-mini")

	counterStore := counter.NewMemoryStore()
	accountant := usage.NewAccountant(counterStore, nil)

	service := NewService(st, client, accountant, nil)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	service.Clock = func() time.Time { return now }

	summary, err := service.Generate(context.Background(), "q-1")
	require.NoError(t, err)

	assert.Equal(t, "q-1", summary.QuestionID)
	assert.Equal(t, "Themes: positive.", summary.Text)
	assert.Equal(t, 42, summary.Tokens)
	assert.Equal(t, 3, summary.Responses)
	assert.NotEmpty(t, summary.ID)

	// The summary was persisted.
	latest, err := st.LatestSummary(context.Background(), "q-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, summary.ID, latest.ID)

	// Billed usage was accounted against the question.
	fields, err := counterStore.Fields(context.Background(), usage.DayKey(now))
	require.NoError(t, err)
	assert.Equal(t, "42", fields["tokens"])
	assert.Equal(t, "1", fields["requests"])
	assert.Equal(t, "1", fields["q:q-1"])
}

func TestServiceGenerateQuestionNotFound(t *testing.T) {
	st := openTestStore(t)

	service := NewService(st, NewClient("http://localhost:1", "key", "m"), nil, nil)

	_, err := service.Generate(context.Background(), "q-404")
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestServiceGenerateNoResponses(t *testing.T) {
	st := openTestStore(t)
	seedQuestion(t, st, "q-1", 0)

	service := NewService(st, NewClient("http://localhost:1", "key", "m"), nil, nil)

	_, err := service.Generate(context.Background(), "q-1")
	assert.ErrorIs(t, err, ErrNoResponses)
}

func TestServiceGenerateProviderFailure(t *testing.T) {
	st := openTestStore(t)
	seedQuestion(t, st, "q-1", 2)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	service := NewService(st, NewClient(server.URL, "key", "m"), nil, nil)

	_, err := service.Generate(context.Background(), "q-1")
	require.Error(t, err)

	// No summary was stored for the failed attempt.
	latest, err := st.LatestSummary(context.Background(), "q-1")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestWorkerTriggersOnBatchSize(t *testing.T) {
	st := openTestStore(t)
	seedQuestion(t, st, "q-1", 0)

	var calls atomic.Int64
	server := newCompletionServer(t, &calls)
	client := NewClient(server.URL, "test-key", "gpt-4o-mini")

	service := NewService(st, client, nil, nil)
	worker := NewWorker(service, st.Notifier(), Policy{BatchSize: 2, MaxInterval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	// Give the worker a moment to subscribe before the first insert publishes.
	time.Sleep(100 * time.Millisecond)

	now := time.Now().UTC()
	for i := 0; i < 2; i++ {
		require.NoError(t, st.InsertResponse(context.Background(), core.Response{
			ID:         fmt.Sprintf("r-%d", i),
			QuestionID: "q-1",
			Text:       fmt.Sprintf("response %d", i),
			CreatedAt:  now,
		}))
	}

	require.Eventually(t, func() bool {
		return calls.Load() >= 1
	}, 5*time.Second, 10*time.Millisecond, "the second insert should trigger a summary")

	require.Eventually(t, func() bool {
		latest, err := st.LatestSummary(context.Background(), "q-1")
		return err == nil && latest != nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}

func TestWorkerTriggersOnMaxInterval(t *testing.T) {
	st := openTestStore(t)
	seedQuestion(t, st, "q-1", 0)

	var calls atomic.Int64
	server := newCompletionServer(t, &calls)
	client := NewClient(server.URL, "test-key", "gpt-4o-mini")

	service := NewService(st, client, nil, nil)
	worker := NewWorker(service, st.Notifier(), Policy{BatchSize: 100, MaxInterval: 50 * time.Millisecond}, nil)
	worker.tick = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(ctx)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, st.InsertResponse(context.Background(), core.Response{
		ID: "r-1", QuestionID: "q-1", Text: "lonely response", CreatedAt: time.Now().UTC(),
	}))

	require.Eventually(t, func() bool {
		return calls.Load() >= 1
	}, 5*time.Second, 10*time.Millisecond, "the interval deadline should trigger a summary")
}

func TestNewWorkerDefaults(t *testing.T) {
	worker := NewWorker(nil, nil, Policy{}, nil)
	assert.Equal(t, DefaultPolicy.BatchSize, worker.Policy.BatchSize)
	assert.Equal(t, DefaultPolicy.MaxInterval, worker.Policy.MaxInterval)
}
