// Package bus provides a small publish/subscribe abstraction used for
// cross-instance signals: key-value change events and faculty sync
// snapshots. Delivery is best-effort with no ordering guarantee across
// topics; the latest message wins.
package bus

import (
	"context"
	"strings"
)

// Message is a published payload tagged with the topic it was sent on and
// the instance that produced it. Subscribers that mirror their own writes
// elsewhere use Origin to skip self-produced messages.
type Message struct {
	Topic   string `json:"topic"`
	Origin  string `json:"origin"`
	Payload []byte `json:"payload"`
}

// Handler consumes a message. Handlers must not block; long work should be
// handed off to the caller's own goroutines.
type Handler func(Message)

// Bus publishes messages to topics and fans them out to subscribers.
// A subscription pattern is either an exact topic or a prefix ending in
// "*" (e.g. "sync.student.*").
type Bus interface {
	Publish(ctx context.Context, topic string, origin string, payload []byte) error
	Subscribe(pattern string, fn Handler) (unsubscribe func())
	Close() error
}

func patternMatches(pattern, topic string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(topic, prefix)
	}
	return pattern == topic
}
