package store

import (
	"sync"

	"github.com/askboxhq/askbox/internal/core"
)

// Notifier fans response-insert events out to in-process subscribers. Sends
// never block: a subscriber whose buffer is full misses the event, so the
// stream is a wake-up signal, not a durable log.
type Notifier struct {
	mu     sync.Mutex
	subs   map[int]chan core.Response
	nextID int
	closed bool
}

// NewNotifier returns an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan core.Response)}
}

// Subscribe registers a subscriber with the given buffer size and returns the
// event channel plus a cancel function. The channel is closed on cancel or
// when the notifier shuts down.
func (n *Notifier) Subscribe(buffer int) (<-chan core.Response, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan core.Response, buffer)
	if n.closed {
		close(ch)
		return ch, func() {}
	}

	id := n.nextID
	n.nextID++
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers a response event to all current subscribers.
func (n *Notifier) Publish(response core.Response) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	for _, sub := range n.subs {
		select {
		case sub <- response:
		default:
		}
	}
}

// Close shuts down the notifier and closes all subscriber channels.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true

	for id, sub := range n.subs {
		delete(n.subs, id)
		close(sub)
	}
}
