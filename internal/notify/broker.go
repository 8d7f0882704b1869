// Package notify is a small in-process event broker. Services publish a
// change event after each committed write; subscribers (the SSE endpoint)
// register a cancellable channel per topic. Reconciliation itself never
// depends on it — it only needs point-in-time reads.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

type Event struct {
	Topic string    `json:"topic"`
	Kind  Kind      `json:"kind"`
	ID    uuid.UUID `json:"id"`
	At    time.Time `json:"at"`
}

// subscriber channels are buffered; a subscriber that falls this far behind
// starts losing events rather than blocking publishers.
const subscriberBuffer = 16

type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a channel for events on topic. The returned cancel
// func unregisters and closes the channel; it is safe to call twice.
func (b *Broker) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[chan Event]struct{})
	}

	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once

	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[topic], ch)
			b.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

// Publish delivers ev to every subscriber of its topic. A nil broker is a
// no-op so services can run without live updates wired in.
func (b *Broker) Publish(ev Event) {
	if b == nil {
		return
	}

	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[ev.Topic] {
		select {
		case ch <- ev:
		default:
		}
	}
}
