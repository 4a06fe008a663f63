package store

// wakeSignal is an edge-triggered, coalescing notification: any number
// of calls to signal before the reaper observes one collapse into a
// single wakeup, mirroring the "notify" primitive the reaper relies on
// in §4.5.1. A buffered channel of depth 1 gives exactly that semantic
// with a non-blocking send.
type wakeSignal struct {
	ch chan struct{}
}

func newWakeSignal() *wakeSignal {
	return &wakeSignal{ch: make(chan struct{}, 1)}
}

// signal wakes a waiter if one is blocked, or leaves a pending wakeup
// for the next wait call if none is.
func (w *wakeSignal) signal() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

// wait blocks until signal has fired at least once since the last wait.
func (w *wakeSignal) wait() {
	<-w.ch
}

// C exposes the channel for use directly in a select statement.
func (w *wakeSignal) C() <-chan struct{} { return w.ch }
