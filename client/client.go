// Package client implements a thin blocking client over the RESP
// subset (§6's "Client CLI surface"). It exists to drive the CLI
// binary and compatibility tests; it is not meant as a general-purpose
// driver.
package client

import (
	"fmt"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/coregx/miniredis/resp"
)

// Client is a single connection issuing commands one at a time and
// reading replies in request order.
type Client struct {
	conn *resp.Conn
}

// Dial connects to addr ("host:port").
func Dial(addr string) (*Client, error) {
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "client: dial %s", addr)
	}
	return &Client{conn: resp.NewConn(nc)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) roundTrip(f resp.Frame) (*resp.Frame, error) {
	if err := c.conn.WriteFrame(f); err != nil {
		return nil, errors.Wrap(err, "client: write")
	}
	reply, err := c.conn.ReadFrame()
	if err != nil {
		return nil, errors.Wrap(err, "client: read")
	}
	if reply == nil {
		return nil, errors.New("client: connection closed by peer")
	}
	return reply, nil
}

// Ping sends PING, optionally with msg, and returns the echoed text.
func (c *Client) Ping(msg string) (string, error) {
	f := resp.NewArray(resp.NewBulkString("ping"))
	if msg != "" {
		f.PushBulk([]byte(msg))
	}
	reply, err := c.roundTrip(f)
	if err != nil {
		return "", err
	}
	return string(reply.Text), nil
}

// Get returns the value stored under key, or ok=false if absent.
func (c *Client) Get(key string) (value []byte, ok bool, err error) {
	reply, err := c.roundTrip(resp.NewArray(resp.NewBulkString("get"), resp.NewBulkString(key)))
	if err != nil {
		return nil, false, err
	}
	if reply.Kind == resp.Null {
		return nil, false, nil
	}
	return reply.Text, true, nil
}

// Set stores value under key, with an optional TTL (0 means no expiry).
// A positive ttl is transmitted as PX with its whole-millisecond value,
// per the CLI surface's convention.
func (c *Client) Set(key string, value []byte, ttl time.Duration) error {
	f := resp.NewArray(resp.NewBulkString("set"), resp.NewBulkString(key), resp.NewBulk(value))
	if ttl > 0 {
		f.PushBulk([]byte("px"))
		f.PushInteger(uint64(ttl.Milliseconds()))
	}
	reply, err := c.roundTrip(f)
	if err != nil {
		return err
	}
	if !reply.EqualsString("OK") {
		return fmt.Errorf("client: unexpected SET reply %v", reply)
	}
	return nil
}

// Publish sends message to channel and returns the subscriber count
// the server reports.
func (c *Client) Publish(channel string, message []byte) (int, error) {
	reply, err := c.roundTrip(resp.NewArray(
		resp.NewBulkString("publish"), resp.NewBulkString(channel), resp.NewBulk(message)))
	if err != nil {
		return 0, err
	}
	return int(reply.Int), nil
}

// Subscribe sends SUBSCRIBE for channels. It does not read any reply;
// the subsequent frames (subscribe acks and message pushes) are read by
// the caller in a loop via Next.
func (c *Client) Subscribe(channels ...string) error {
	f := resp.NewArray(resp.NewBulkString("subscribe"))
	for _, ch := range channels {
		f.PushBulk([]byte(ch))
	}
	return c.conn.WriteFrame(f)
}

// Next reads the next frame from a subscribed connection (an ack or a
// message push).
func (c *Client) Next() (*resp.Frame, error) {
	reply, err := c.conn.ReadFrame()
	if err != nil {
		return nil, errors.Wrap(err, "client: read")
	}
	return reply, nil
}
