package command

import (
	"github.com/coregx/miniredis/resp"
	"github.com/coregx/miniredis/store"
)

// Apply executes a normal-mode command (everything except Subscribe,
// which instead transfers the connection into the subscribed-mode
// sub-loop — see server.Handler) against db and returns the reply
// frame to write back to the client.
//
// Unsubscribe is only meaningful inside subscribed mode; received here
// it is reported as an unknown command, per §4.3.
func Apply(cmd Command, db *store.Store) resp.Frame {
	switch c := cmd.(type) {
	case *Get:
		v, ok := db.Get(c.Key)
		if !ok {
			return resp.NewNull()
		}
		return resp.NewBulk(v)

	case *Set:
		db.Set(c.Key, c.Value, c.Expire)
		return resp.NewSimple("OK")

	case *Publish:
		n := db.Publish(c.Channel, c.Message)
		return resp.NewInteger(uint64(n))

	case *Ping:
		if !c.HasMsg {
			return resp.NewSimple("PONG")
		}
		return resp.NewBulk(c.Message)

	case *Subscribe:
		// Never reached in practice: the connection handler intercepts
		// Subscribe before calling Apply.
		return (&Unknown{Name: "subscribe"}).ErrorReply()

	case *Unsubscribe:
		return (&Unknown{Name: "unsubscribe"}).ErrorReply()

	case *Unknown:
		return c.ErrorReply()

	default:
		return (&Unknown{Name: "?"}).ErrorReply()
	}
}
