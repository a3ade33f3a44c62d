package bus

import (
	"context"
	"sync"
)

// Memory is an in-process Bus. It backs tests and the degraded mode used
// when Redis is unreachable: same-process subscribers still hear events,
// other instances do not.
type Memory struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*memorySub
	closed bool
}

type memorySub struct {
	pattern string
	fn      Handler
}

// NewMemory constructs an in-process bus.
func NewMemory() *Memory {
	return &Memory{subs: make(map[int]*memorySub)}
}

// Publish fans the message out synchronously to matching subscribers.
func (b *Memory) Publish(_ context.Context, topic, origin string, payload []byte) error {
	b.mu.RLock()
	var matched []Handler
	for _, sub := range b.subs {
		if patternMatches(sub.pattern, topic) {
			matched = append(matched, sub.fn)
		}
	}
	closed := b.closed
	b.mu.RUnlock()

	if closed {
		return nil
	}
	msg := Message{Topic: topic, Origin: origin, Payload: payload}
	for _, fn := range matched {
		fn(msg)
	}
	return nil
}

// Subscribe registers a handler for a topic pattern.
func (b *Memory) Subscribe(pattern string, fn Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = &memorySub{pattern: pattern, fn: fn}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Close drops all subscriptions.
func (b *Memory) Close() error {
	b.mu.Lock()
	b.closed = true
	b.subs = make(map[int]*memorySub)
	b.mu.Unlock()
	return nil
}
