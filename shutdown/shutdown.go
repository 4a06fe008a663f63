// Package shutdown implements the three cooperating primitives behind
// graceful teardown (§4.6): a one-shot broadcast every handler observes,
// a drain channel the listener awaits until every handler has exited,
// and a thin per-handler helper that caches "have I seen shutdown yet?"
// so repeated checks are cheap.
package shutdown

import "sync"

// Broadcast is a one-shot "shutdown requested" notification observable
// by any number of handlers. The zero value is not usable; construct with
// NewBroadcast.
type Broadcast struct {
	once sync.Once
	ch   chan struct{}
}

// NewBroadcast returns a ready Broadcast.
func NewBroadcast() *Broadcast {
	return &Broadcast{ch: make(chan struct{})}
}

// Fire closes the underlying channel, waking every current and future
// observer. Safe to call more than once; only the first call has an
// effect.
func (b *Broadcast) Fire() {
	b.once.Do(func() { close(b.ch) })
}

// Done returns a channel that is closed once Fire has been called.
func (b *Broadcast) Done() <-chan struct{} { return b.ch }

// Observer is a thin per-handler helper that flips to "shutdown
// observed" on first receipt from a Broadcast, so a handler's hot loop
// can check cheaply without re-selecting on the broadcast channel every
// time.
type Observer struct {
	broadcast *Broadcast
	observed  bool
}

// NewObserver returns an Observer over b.
func NewObserver(b *Broadcast) *Observer {
	return &Observer{broadcast: b}
}

// Done returns the broadcast's channel, for use directly in a select.
func (o *Observer) Done() <-chan struct{} { return o.broadcast.Done() }

// Observed reports whether shutdown has fired, caching the result after
// the first true observation.
func (o *Observer) Observed() bool {
	if o.observed {
		return true
	}
	select {
	case <-o.broadcast.Done():
		o.observed = true
		return true
	default:
		return false
	}
}

// Drain tracks outstanding handlers: every handler acquires a Token on
// start and releases it on exit, and Wait returns only once every
// acquired token has been released — the idiomatic Go shape of
// "sender cloned into every handler, closes once all clones are
// dropped" (a sync.WaitGroup's Add/Done pairing is race-safe in a way a
// hand-rolled counter is not, so it is the right primitive here, not a
// manual count plus a condition variable).
type Drain struct {
	wg sync.WaitGroup
}

// NewDrain returns an empty Drain.
func NewDrain() *Drain { return &Drain{} }

// Token represents one handler's participation in the drain. Release it
// (typically via defer) when the handler exits.
type Token struct {
	wg *sync.WaitGroup
}

// Acquire registers a new handler with the drain and returns its token.
func (d *Drain) Acquire() Token {
	d.wg.Add(1)
	return Token{wg: &d.wg}
}

// Release marks this handler as finished.
func (t Token) Release() { t.wg.Done() }

// Wait blocks until every acquired token has been released.
func (d *Drain) Wait() { d.wg.Wait() }
