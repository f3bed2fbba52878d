// Package feed is the in-process change feed. The domain publishes
// entity-change events into a broker; observers subscribe and receive them
// in publish order. Delivery is at-least-once from the subscriber's point of
// view and best-effort overall: a subscriber that stops draining its channel
// loses events rather than blocking publishers.
package feed

import (
	"log"
	"sync"
	"time"
)

const defaultSubscriberBuffer = 64

// Event is one entity change.
type Event struct {
	Seq        uint64    `json:"seq"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id"`
	ChangeKind string    `json:"change_kind"`
	At         time.Time `json:"at"`
}

type subscriber struct {
	id int
	ch chan Event
}

// Broker fans entity-change events out to subscribers.
type Broker struct {
	mu          sync.Mutex
	nextID      int
	seq         uint64
	subscribers map[int]subscriber
	clock       func() time.Time
	buffer      int
}

// NewBroker constructs an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[int]subscriber),
		clock:       time.Now,
		buffer:      defaultSubscriberBuffer,
	}
}

// WithClock overrides the broker clock. Intended for tests.
func (b *Broker) WithClock(clock func() time.Time) *Broker {
	b.clock = clock
	return b
}

// Publish delivers one entity-change event to every current subscriber.
// Events published from one goroutine reach each subscriber in publish
// order; the broker lock extends that guarantee across goroutines.
func (b *Broker) Publish(entityKind string, entityID string, changeKind string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	event := Event{
		Seq:        b.seq,
		EntityKind: entityKind,
		EntityID:   entityID,
		ChangeKind: changeKind,
		At:         b.clock().UTC(),
	}

	for _, sub := range b.subscribers {
		select {
		case sub.ch <- event:
		default:
			log.Printf("feed: subscriber %d lagging, dropping event %d", sub.id, event.Seq)
		}
	}
}

// Subscribe registers a new observer. The returned cancel func unregisters
// it and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := subscriber{id: b.nextID, ch: make(chan Event, b.buffer)}
	b.subscribers[sub.id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subscribers, sub.id)
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// SubscriberCount reports how many observers are registered.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
