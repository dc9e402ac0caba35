// Package event is the in-process change feed that replaces polling.
// Publishers never block: a subscriber whose buffer is full misses events
// and is expected to resync through the regular read endpoints.
package event

import (
	"sync"
	"sync/atomic"
	"time"
)

// AdminTopic receives everything the back-office needs to see.
const AdminTopic = "admin"

// CatalogTopic carries product and category changes to every storefront.
const CatalogTopic = "catalog"

// ClientTopic is the private topic of one client.
func ClientTopic(clientID string) string { return "client:" + clientID }

// Names of the events published by the services.
const (
	ChatMessage   = "chat.message"
	ChatRead      = "chat.read"
	OrderPlaced   = "order.placed"
	OrderStatus   = "order.status"
	Notification  = "notification"
	CatalogChange = "catalog.change"
)

// Event is one published change.
type Event struct {
	Topic string    `json:"topic"`
	Name  string    `json:"name"`
	Data  any       `json:"data"`
	At    time.Time `json:"at"`
}

// Bus fans events out to subscriptions by topic.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	closed bool
}

// NewBus creates a bus whose subscriptions buffer up to buffer events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{subs: map[string]map[*Subscription]struct{}{}, buffer: buffer}
}

// Publish delivers an event to every subscriber of topic.
func (b *Bus) Publish(topic, name string, data any) {
	ev := Event{Topic: topic, Name: name, Data: data, At: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs[topic] {
		select {
		case s.c <- ev:
		default:
			s.dropped.Add(1)
		}
	}
}

// Subscribe listens on one or more topics until Close.
func (b *Bus) Subscribe(topics ...string) *Subscription {
	s := &Subscription{bus: b, topics: topics, c: make(chan Event, b.buffer)}
	s.C = s.c

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		s.once.Do(func() { close(s.c) })
		return s
	}
	for _, t := range topics {
		if b.subs[t] == nil {
			b.subs[t] = map[*Subscription]struct{}{}
		}
		b.subs[t][s] = struct{}{}
	}
	b.mu.Unlock()
	return s
}

// Close ends every live subscription; later subscriptions start closed.
// Streams reading from the bus finish when their channel closes.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	live := map[*Subscription]struct{}{}
	for _, set := range b.subs {
		for s := range set {
			live[s] = struct{}{}
		}
	}
	b.mu.Unlock()

	for s := range live {
		s.Close()
	}
}

// Subscribers counts subscriptions on topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Subscription is a live listener. Read from C; call Close when done.
type Subscription struct {
	C <-chan Event

	c       chan Event
	bus     *Bus
	topics  []string
	once    sync.Once
	dropped atomic.Int64
}

// Close unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		for _, t := range s.topics {
			delete(s.bus.subs[t], s)
			if len(s.bus.subs[t]) == 0 {
				delete(s.bus.subs, t)
			}
		}
		s.bus.mu.Unlock()
		close(s.c)
	})
}

// Dropped is how many events this subscription missed because it was full.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }
