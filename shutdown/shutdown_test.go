package shutdown

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestBroadcastFireWakesAllObservers(t *testing.T) {
	b := NewBroadcast()
	observers := make([]*Observer, 5)
	for i := range observers {
		observers[i] = NewObserver(b)
	}

	for _, o := range observers {
		assert.Equal(t, o.Observed(), false)
	}

	b.Fire()

	for _, o := range observers {
		assert.Equal(t, o.Observed(), true)
	}
}

func TestBroadcastFireIdempotent(t *testing.T) {
	b := NewBroadcast()
	b.Fire()
	b.Fire() // must not panic on double-close
}

func TestDrainWaitsForAllTokens(t *testing.T) {
	d := NewDrain()
	done := make(chan struct{})

	tokens := make([]Token, 3)
	for i := range tokens {
		tokens[i] = d.Acquire()
	}

	go func() {
		d.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before all tokens released")
	case <-time.After(20 * time.Millisecond):
	}

	for _, tok := range tokens {
		tok.Release()
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after all tokens released")
	}
}
