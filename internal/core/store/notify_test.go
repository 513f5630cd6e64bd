package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askboxhq/askbox/internal/core"
)

func TestNotifierPublishReachesSubscribers(t *testing.T) {
	notifier := NewNotifier()
	defer notifier.Close()

	first, cancelFirst := notifier.Subscribe(4)
	defer cancelFirst()
	second, cancelSecond := notifier.Subscribe(4)
	defer cancelSecond()

	notifier.Publish(core.Response{ID: "r-1", QuestionID: "q-1"})

	select {
	case event := <-first:
		assert.Equal(t, "q-1", event.QuestionID)
	case <-time.After(time.Second):
		t.Fatal("first subscriber never received the event")
	}

	select {
	case event := <-second:
		assert.Equal(t, "r-1", event.ID)
	case <-time.After(time.Second):
		t.Fatal("second subscriber never received the event")
	}
}

func TestNotifierPublishNeverBlocks(t *testing.T) {
	notifier := NewNotifier()
	defer notifier.Close()

	events, cancel := notifier.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			notifier.Publish(core.Response{ID: "r", QuestionID: "q"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}

	// The slow subscriber kept only what its buffer held.
	assert.Len(t, events, 1)
}

func TestNotifierCancelClosesChannel(t *testing.T) {
	notifier := NewNotifier()
	defer notifier.Close()

	events, cancel := notifier.Subscribe(1)
	cancel()

	_, open := <-events
	assert.False(t, open)

	// Cancelling twice is harmless.
	assert.NotPanics(t, cancel)

	// Publishing after cancel must not reach the closed channel.
	assert.NotPanics(t, func() {
		notifier.Publish(core.Response{ID: "r"})
	})
}

func TestNotifierClose(t *testing.T) {
	notifier := NewNotifier()

	events, cancel := notifier.Subscribe(1)
	defer cancel()

	notifier.Close()

	_, open := <-events
	require.False(t, open)

	// Subscribing after close yields an already-closed channel.
	late, lateCancel := notifier.Subscribe(1)
	defer lateCancel()
	_, open = <-late
	assert.False(t, open)

	assert.NotPanics(t, notifier.Close)
}
