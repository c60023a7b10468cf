// Package eventbus carries node events from the ingestion endpoint to listeners.
package eventbus

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Event is one node event as published by the node webhook plugin.
type Event struct {
	Name string
	Data json.RawMessage
	Time time.Time
}

// Bus fans node events out to subscribers.
//
// Contract:
//   - Publish never blocks and reports how many subscribers received the event.
//   - Subscribers get a buffered channel; when it is full the event is dropped
//     for that subscriber only.
//   - A subscriber may restrict itself to a set of event names. Events outside
//     the set never occupy its buffer.
//   - Unsubscribe closes the channel. A Publish racing with it may attempt a send
//     on the closed channel; that send is recovered and counts as a drop.
type Bus interface {
	Publish(e Event) int
	Subscribe(buffer int, names ...string) (ch <-chan Event, unsubscribe func())
}

// New returns an in-memory fan-out bus. It owns no goroutines.
func New() Bus {
	return &memBus{subs: map[uint64]subscriber{}}
}

type subscriber struct {
	ch    chan Event
	names map[string]struct{}
}

func (s subscriber) wants(name string) bool {
	if len(s.names) == 0 {
		return true
	}
	_, ok := s.names[name]
	return ok
}

type memBus struct {
	mu   sync.RWMutex
	subs map[uint64]subscriber
	seq  atomic.Uint64
}

func (b *memBus) Publish(e Event) int {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	b.mu.RLock()
	targets := make([]chan Event, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.wants(e.Name) {
			targets = append(targets, sub.ch)
		}
	}
	b.mu.RUnlock()

	delivered := 0
	for _, ch := range targets {
		if trySend(ch, e) {
			delivered++
		}
	}
	return delivered
}

func trySend(ch chan Event, e Event) (sent bool) {
	defer func() {
		if recover() != nil {
			sent = false
		}
	}()
	select {
	case ch <- e:
		return true
	default:
		return false
	}
}

func (b *memBus) Subscribe(buffer int, names ...string) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	sub := subscriber{ch: make(chan Event, buffer)}
	if len(names) > 0 {
		sub.names = make(map[string]struct{}, len(names))
		for _, name := range names {
			sub.names[name] = struct{}{}
		}
	}
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, unsub
}
