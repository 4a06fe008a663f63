// Package server implements the listener/handler runtime: an accept
// loop with admission control and backoff, and per-connection handlers
// that run either the normal-mode dispatch loop or the subscribed-mode
// sub-loop.
package server

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/coregx/miniredis/metrics"
	"github.com/coregx/miniredis/resp"
	"github.com/coregx/miniredis/shutdown"
	"github.com/coregx/miniredis/store"
)

// MaxConnections is the global cap on concurrent connections.
const MaxConnections = 255

// initialBackoff, maxBackoff bound the accept-error retry schedule:
// 1s, 2s, 4s, ... capped at maxBackoff.
const (
	initialBackoff = time.Second
	maxBackoff     = 64 * time.Second
)

// Server owns the listening socket and every live connection handler.
type Server struct {
	db       *store.Store
	metrics  *metrics.Collector
	log      *logrus.Entry
	sem      *semaphore.Weighted
	bcast    *shutdown.Broadcast
	drain    *shutdown.Drain
	admitCtx context.Context
}

// New constructs a Server bound to db.
func New(db *store.Store, collector *metrics.Collector, log *logrus.Entry) *Server {
	bcast := shutdown.NewBroadcast()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-bcast.Done()
		cancel()
	}()

	return &Server{
		db:       db,
		metrics:  collector,
		log:      log,
		sem:      semaphore.NewWeighted(MaxConnections),
		bcast:    bcast,
		drain:    shutdown.NewDrain(),
		admitCtx: ctx,
	}
}

// Shutdown fires the shutdown broadcast; in-flight handlers observe it
// at their next suspension point. It does not block — call Wait after
// Shutdown to await drain.
func (s *Server) Shutdown() {
	s.bcast.Fire()
}

// Wait blocks until every handler spawned by Serve has exited.
func (s *Server) Wait() {
	s.drain.Wait()
}

// Serve runs the accept loop against ln until the shutdown broadcast
// fires or an accept error exceeds the backoff ceiling, in which case
// that error is returned. Once the shutdown broadcast has fired, Serve
// returns nil. Serve does not close ln itself — it is the caller's
// responsibility to close ln after firing Shutdown so Accept unblocks.
func (s *Server) Serve(ln net.Listener) error {
	backoff := time.Duration(0)
	for {
		if err := s.sem.Acquire(s.admitCtx, 1); err != nil {
			return nil // shutdown fired while waiting for a connection slot
		}

		conn, err := ln.Accept()
		if err != nil {
			s.sem.Release(1)

			select {
			case <-s.bcast.Done():
				return nil
			default:
			}

			if backoff == 0 {
				backoff = initialBackoff
			} else {
				backoff *= 2
				if backoff > maxBackoff {
					return err
				}
			}
			s.log.WithError(err).WithField("backoff", backoff).Warn("accept error, retrying")
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		token := s.drain.Acquire()
		h := &Handler{
			db:       s.db,
			metrics:  s.metrics,
			log:      s.log.WithField("conn_id", uuid.NewString()),
			conn:     resp.NewConn(conn),
			observer: shutdown.NewObserver(s.bcast),
			token:    token,
		}
		go func() {
			defer s.sem.Release(1)
			h.run()
		}()
	}
}
