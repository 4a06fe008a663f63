// Package broadcast implements a generic multi-producer/multi-consumer
// fan-out primitive: a Topic accepts published payloads and delivers
// them to every currently registered Subscription. A subscription that
// falls behind is handed a lag marker rather than being disconnected —
// the only intentional data loss in the system.
//
// This generalizes the register/unregister/broadcast select-loop shape
// used by a connection hub into "fan out per named channel, with
// bounded per-subscriber queues and lag signaling" instead of "fan out
// to every connected client."
package broadcast

import "sync"

// Capacity is the default per-subscriber queue depth.
const Capacity = 1024

// Message is delivered to a Subscription's channel. Lagged is true when
// the subscriber's queue overflowed and this message stands in for the
// messages that were dropped; Payload is nil in that case.
type Message struct {
	Payload []byte
	Lagged  bool
}

// Topic is a single named broadcast channel. The zero value is not
// usable; construct with NewTopic.
type Topic struct {
	mu     sync.Mutex
	closed bool
	subs   map[*Subscription]struct{}
}

// NewTopic returns an empty, open Topic.
func NewTopic() *Topic {
	return &Topic{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new Subscription and returns it. The
// subscription receives only messages published after this call
// returns.
func (t *Topic) Subscribe() *Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()

	sub := &Subscription{
		topic: t,
		ch:    make(chan Message, Capacity),
	}
	t.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes sub from the topic. Safe to call more than once.
func (t *Topic) Unsubscribe(sub *Subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.subs, sub)
}

// Publish delivers payload to every currently registered subscription
// and returns the number of subscriptions that existed at the moment
// Publish acquired the topic's lock — this is the count PUBLISH reports
// to the client, independent of whether an individual subscriber's
// queue happened to be full.
func (t *Topic) Publish(payload []byte) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || len(t.subs) == 0 {
		return 0
	}
	for sub := range t.subs {
		sub.deliver(Message{Payload: payload})
	}
	return len(t.subs)
}

// Close closes every live subscription's channel, causing their next
// Recv to observe termination, and marks the topic closed so further
// Publish calls are no-ops. Close is idempotent.
func (t *Topic) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for sub := range t.subs {
		close(sub.ch)
	}
	t.subs = make(map[*Subscription]struct{})
}

// Subscription is one receiver's view of a Topic.
type Subscription struct {
	topic *Topic
	ch    chan Message
}

// C returns the channel on which messages and lag markers arrive. It is
// closed when the topic is closed.
func (s *Subscription) C() <-chan Message { return s.ch }

// Close unregisters the subscription from its topic.
func (s *Subscription) Close() { s.topic.Unsubscribe(s) }

// deliver performs a non-blocking send to sub's channel. If the channel
// is full, m is discarded, the oldest queued message is dropped, and a
// lag marker is enqueued at the tail so the subscriber learns it missed
// something without ever blocking the publisher.
func (s *Subscription) deliver(m Message) {
	select {
	case s.ch <- m:
		return
	default:
	}

	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- Message{Lagged: true}:
	default:
	}
}
