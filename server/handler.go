package server

import (
	"github.com/sirupsen/logrus"

	"github.com/coregx/miniredis/command"
	"github.com/coregx/miniredis/metrics"
	"github.com/coregx/miniredis/resp"
	"github.com/coregx/miniredis/shutdown"
	"github.com/coregx/miniredis/store"
)

// Handler owns one accepted connection for its entire lifetime: the
// normal-mode dispatch loop below, and — once a SUBSCRIBE is seen — the
// subscribed-mode sub-loop in subscribed.go.
type Handler struct {
	db       *store.Store
	metrics  *metrics.Collector
	log      *logrus.Entry
	conn     *resp.Conn
	observer *shutdown.Observer
	token    shutdown.Token
}

// frameOrErr is one element of the background reader's feed: exactly
// one of frame, err is non-nil, or both are nil on clean EOF.
type frameOrErr struct {
	frame *resp.Frame
	err   error
}

// readFrames runs in its own goroutine for the life of the connection,
// feeding decoded-from-the-wire frames to out so the handler loops can
// race a read against the shutdown observer without blocking on the
// socket directly. It exits (closing out) on EOF or any read error.
func readFrames(conn *resp.Conn, out chan<- frameOrErr) {
	defer close(out)
	for {
		frame, err := conn.ReadFrame()
		out <- frameOrErr{frame: frame, err: err}
		if err != nil || frame == nil {
			return
		}
	}
}

// run is the entry point spawned by Serve for each accepted connection.
func (h *Handler) run() {
	defer h.token.Release()
	defer h.conn.Close()

	if h.metrics != nil {
		h.metrics.ActiveConnections.Inc()
		defer h.metrics.ActiveConnections.Dec()
	}

	frames := make(chan frameOrErr)
	go readFrames(h.conn, frames)

	h.normalLoop(frames)

	// Keep receiving until readFrames exits (the deferred Close makes its
	// pending read fail), so its final send never blocks.
	go func() {
		for range frames {
		}
	}()
}

// normalLoop dispatches every command except Subscribe directly against
// the database; Subscribe transfers the connection into subscribedLoop,
// which this function never returns from except via connection close or
// shutdown.
func (h *Handler) normalLoop(frames chan frameOrErr) {
	for {
		select {
		case <-h.observer.Done():
			return
		case item, ok := <-frames:
			if !ok {
				return
			}
			if item.err != nil {
				h.log.WithError(item.err).Debug("connection closed on read error")
				return
			}
			if item.frame == nil {
				return // clean EOF
			}

			cmd, err := command.Decode(*item.frame)
			if err != nil {
				h.log.WithError(err).Debug("protocol error, closing connection")
				return
			}

			if h.metrics != nil {
				h.metrics.CommandsTotal.WithLabelValues(command.NameOf(cmd)).Inc()
			}

			if sub, ok := cmd.(*command.Subscribe); ok {
				h.subscribedLoop(frames, sub.Channels)
				return
			}

			reply := command.Apply(cmd, h.db)
			if err := h.conn.WriteFrame(reply); err != nil {
				h.log.WithError(err).Debug("write failed, closing connection")
				return
			}
		}
	}
}
