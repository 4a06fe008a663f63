package server

import (
	"github.com/coregx/miniredis/broadcast"
	"github.com/coregx/miniredis/command"
	"github.com/coregx/miniredis/resp"
)

// inboundMessage is one broadcast payload forwarded into the shared
// inbox, tagged with the channel it arrived on.
type inboundMessage struct {
	channel string
	payload []byte
}

// subscription is one channel's live subscription plus the bookkeeping
// needed to stop its forwarder goroutine when it is replaced or
// removed.
type subscription struct {
	channel string
	sub     *broadcast.Subscription
	stop    chan struct{}
}

// subscribedLoop implements the sub-state machine: channels starts as
// the channel list of the SUBSCRIBE that entered this state. It never
// returns to normalLoop; it exits only on connection close or shutdown.
func (h *Handler) subscribedLoop(frames chan frameOrErr, channels []string) {
	subs := make(map[string]*subscription)
	order := make([]string, 0, len(channels)) // subscription order, for unsubscribe-all (§8 scenario 5)
	inbox := make(chan inboundMessage)
	pending := append([]string(nil), channels...)

	defer func() {
		for _, s := range subs {
			close(s.stop)
			h.db.Unsubscribe(s.channel, s.sub)
		}
	}()

	for {
		for _, ch := range pending {
			h.addSubscription(subs, &order, inbox, ch)
			if err := h.conn.WriteFrame(subscribeReply("subscribe", ch, len(subs))); err != nil {
				h.log.WithError(err).Debug("write failed, closing connection")
				return
			}
		}
		pending = pending[:0]

		select {
		case <-h.observer.Done():
			return

		case msg := <-inbox:
			f := resp.NewArray(
				resp.NewBulkString("message"),
				resp.NewBulkString(msg.channel),
				resp.NewBulk(msg.payload),
			)
			if err := h.conn.WriteFrame(f); err != nil {
				h.log.WithError(err).Debug("write failed, closing connection")
				return
			}

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

			switch c := cmd.(type) {
			case *command.Subscribe:
				pending = append(pending, c.Channels...)

			case *command.Unsubscribe:
				targets := c.Channels
				if len(targets) == 0 {
					targets = append([]string(nil), order...)
				}
				for _, ch := range targets {
					s, ok := subs[ch]
					if !ok {
						continue
					}
					close(s.stop)
					h.db.Unsubscribe(ch, s.sub)
					delete(subs, ch)
					order = removeChannel(order, ch)
					if err := h.conn.WriteFrame(subscribeReply("unsubscribe", ch, len(subs))); err != nil {
						h.log.WithError(err).Debug("write failed, closing connection")
						return
					}
				}

			default:
				name := command.NameOf(cmd)
				reply := (&command.Unknown{Name: name}).ErrorReply()
				if err := h.conn.WriteFrame(reply); err != nil {
					h.log.WithError(err).Debug("write failed, closing connection")
					return
				}
			}
		}
	}
}

// addSubscription subscribes to ch, replacing (and stopping) any prior
// subscription under the same name. order records first-subscription
// order across the connection's lifetime; re-subscribing to an
// already-subscribed channel does not change its position.
func (h *Handler) addSubscription(subs map[string]*subscription, order *[]string, inbox chan<- inboundMessage, ch string) {
	old, existed := subs[ch]
	if existed {
		close(old.stop)
		h.db.Unsubscribe(ch, old.sub)
	}

	sub := h.db.Subscribe(ch)
	stop := make(chan struct{})
	subs[ch] = &subscription{channel: ch, sub: sub, stop: stop}
	if !existed {
		*order = append(*order, ch)
	}

	go forward(ch, sub, inbox, stop)
}

// removeChannel returns order with ch removed, preserving the relative
// order of the remaining channels.
func removeChannel(order []string, ch string) []string {
	for i, c := range order {
		if c == ch {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// forward copies messages from sub into inbox, silently discarding lag
// markers (§4.4's "lazy stream that drops lag errors silently"), and
// exits when sub's topic closes or stop fires.
func forward(channel string, sub *broadcast.Subscription, inbox chan<- inboundMessage, stop <-chan struct{}) {
	for {
		select {
		case m, ok := <-sub.C():
			if !ok {
				return
			}
			if m.Lagged {
				continue
			}
			select {
			case inbox <- inboundMessage{channel: channel, payload: m.Payload}:
			case <-stop:
				return
			}
		case <-stop:
			return
		}
	}
}

func subscribeReply(kind, channel string, count int) resp.Frame {
	return resp.NewArray(
		resp.NewBulkString(kind),
		resp.NewBulkString(channel),
		resp.NewInteger(uint64(count)),
	)
}
