// Package store implements the shared, concurrency-safe key-value
// database: a map of entries, a min-ordered expiration index, per-channel
// broadcast topics, and a background reaper that removes expired entries.
// All state transitions happen under a single non-reentrant mutex;
// because no operation performs I/O or blocks on unrelated work, the
// critical sections stay bounded and a reader-writer split buys nothing.
package store

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/coregx/miniredis/broadcast"
	"github.com/coregx/miniredis/metrics"
)

// Store is the shared key-value and pub/sub database. The zero value is
// not usable; construct with New.
type Store struct {
	mu sync.Mutex

	entries     map[string]Entry
	pubsub      map[string]*broadcast.Topic
	expirations *expirationIndex
	nextID      uint64
	shutdown    bool

	wake    *wakeSignal
	log     *logrus.Entry
	metrics *metrics.Collector

	reaperDone chan struct{}
}

// New constructs a Store and starts its background expiration reaper.
// Callers own the returned Store for the life of the process; call
// Close to stop the reaper.
func New(log *logrus.Entry, collector *metrics.Collector) *Store {
	s := &Store{
		entries:     make(map[string]Entry),
		pubsub:      make(map[string]*broadcast.Topic),
		expirations: newExpirationIndex(),
		wake:        newWakeSignal(),
		log:         log,
		metrics:     collector,
		reaperDone:  make(chan struct{}),
	}
	go s.runReaper()
	return s
}

// Close signals the reaper to stop and waits for it to exit. It is the
// drop-guard described in §3 / §4.5: the database is owned by the
// listener, and tearing it down stops the reaper.
func (s *Store) Close() {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	s.wake.signal()
	<-s.reaperDone
}

// Get clones and returns the byte payload stored under key, or false if
// absent. Reads do not consult ExpiresAt directly — see §4.5.1's
// design note — so a GET can briefly observe data the reaper has not
// yet collected after its deadline passed.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(entry.Data))
	copy(out, entry.Data)
	return out, true
}

// Set stores value under key, replacing any prior entry atomically, and
// arms expire (if non-nil) as the new entry's absolute deadline.
func (s *Store) Set(key string, value []byte, expire *time.Duration) {
	s.mu.Lock()

	id := s.nextID
	s.nextID++

	var deadline *time.Time
	notify := false
	if expire != nil {
		t := time.Now().Add(*expire)
		deadline = &t
		min, hasMin := s.expirations.min()
		notify = !hasMin || t.Before(min.at)
	}

	if old, ok := s.entries[key]; ok && old.ExpiresAt != nil {
		s.expirations.remove(expKey{at: *old.ExpiresAt, id: old.ID})
	}

	data := make([]byte, len(value))
	copy(data, value)
	s.entries[key] = Entry{ID: id, Data: data, ExpiresAt: deadline}

	if deadline != nil {
		s.expirations.insert(expKey{at: *deadline, id: id}, key)
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.KeysStored.Set(float64(len(s.entries)))
	}
	if notify {
		s.wake.signal()
	}
}

// Subscribe returns a fresh Subscription on channel, creating its topic
// lazily if this is the channel's first subscriber ever.
func (s *Store) Subscribe(channel string) *broadcast.Subscription {
	s.mu.Lock()
	topic, ok := s.pubsub[channel]
	if !ok {
		topic = broadcast.NewTopic()
		s.pubsub[channel] = topic
	}
	s.mu.Unlock()

	sub := topic.Subscribe()
	if s.metrics != nil {
		s.metrics.Subscribers.WithLabelValues(channel).Inc()
	}
	return sub
}

// Unsubscribe detaches sub from channel's topic.
func (s *Store) Unsubscribe(channel string, sub *broadcast.Subscription) {
	sub.Close()
	if s.metrics != nil {
		s.metrics.Subscribers.WithLabelValues(channel).Dec()
	}
}

// Publish delivers message to channel and returns the number of
// subscriptions that existed at the moment Publish acquired the lock.
// A channel with no topic (no subscription has ever been created for
// it) returns 0.
func (s *Store) Publish(channel string, message []byte) int {
	s.mu.Lock()
	topic, ok := s.pubsub[channel]
	s.mu.Unlock()

	if !ok {
		return 0
	}
	return topic.Publish(message)
}

// runReaper is the background task described in §4.5.1.
func (s *Store) runReaper() {
	defer close(s.reaperDone)
	for {
		s.mu.Lock()
		if s.shutdown {
			s.mu.Unlock()
			return
		}

		now := time.Now()
		expired := s.expirations.popExpired(now)
		for _, key := range expired {
			delete(s.entries, key)
		}
		nextWake, hasWake := s.expirations.min()
		stored := len(s.entries)
		s.mu.Unlock()

		if len(expired) > 0 && s.metrics != nil {
			s.metrics.KeysExpired.Add(float64(len(expired)))
			s.metrics.KeysStored.Set(float64(stored))
		}
		if s.log != nil && len(expired) > 0 {
			s.log.WithField("count", len(expired)).Debug("reaper: purged expired keys")
		}

		if hasWake {
			d := time.Until(nextWake.at)
			if d <= 0 {
				continue
			}
			timer := time.NewTimer(d)
			select {
			case <-timer.C:
			case <-s.wake.C():
				timer.Stop()
			}
		} else {
			s.wake.wait()
		}
	}
}
