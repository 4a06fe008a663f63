// Package command implements the tagged command model (§4.3): each
// variant knows how to parse itself from a frame, encode itself back to
// a frame, and apply itself against the store.
package command

import (
	"time"

	"github.com/coregx/miniredis/resp"
)

// Command is satisfied by every decoded request variant.
type Command interface {
	// Encode serializes the command back to the Array frame it was (or
	// could have been) decoded from.
	Encode() resp.Frame
}

// Decode parses f as a command. f must be an Array frame; the first
// element, lowercased via ASCII case folding, selects the variant and
// the remaining elements are consumed by that variant's parser. An
// unrecognized command name yields *Unknown and does not fail — only
// a malformed frame or a type mismatch within a known command's
// arguments returns an error.
func Decode(f resp.Frame) (Command, error) {
	p, err := resp.NewParser(f)
	if err != nil {
		return nil, err
	}
	name, err := p.NextString()
	if err != nil {
		return nil, err
	}
	lower := asciiLower(name)

	var cmd Command
	switch lower {
	case "get":
		cmd, err = decodeGet(p)
	case "set":
		cmd, err = decodeSet(p)
	case "publish":
		cmd, err = decodePublish(p)
	case "subscribe":
		cmd, err = decodeSubscribe(p)
	case "unsubscribe":
		cmd, err = decodeUnsubscribe(p)
	case "ping":
		cmd, err = decodePing(p)
	default:
		return &Unknown{Name: lower}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := p.Finish(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// asciiLower lowercases only ASCII letters, matching "ASCII case
// folding" rather than a locale-aware transform.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Get retrieves the value stored under Key.
type Get struct {
	Key string
}

func decodeGet(p *resp.Parser) (Command, error) {
	key, err := p.NextString()
	if err != nil {
		return nil, err
	}
	return &Get{Key: key}, nil
}

// Encode implements Command.
func (c *Get) Encode() resp.Frame {
	return resp.NewArray(resp.NewBulkString("get"), resp.NewBulkString(c.Key))
}

// Set stores Value under Key, optionally expiring after Expire.
type Set struct {
	Key    string
	Value  []byte
	Expire *time.Duration
}

func decodeSet(p *resp.Parser) (Command, error) {
	key, err := p.NextString()
	if err != nil {
		return nil, err
	}
	value, err := p.NextBytes()
	if err != nil {
		return nil, err
	}
	set := &Set{Key: key, Value: value}

	if p.Len() == 0 {
		return set, nil
	}
	token, err := p.NextString()
	if err != nil {
		return nil, err
	}
	switch asciiLower(token) {
	case "ex":
		secs, err := p.NextInteger()
		if err != nil {
			return nil, err
		}
		d := time.Duration(secs) * time.Second
		set.Expire = &d
	case "px":
		ms, err := p.NextInteger()
		if err != nil {
			return nil, err
		}
		d := time.Duration(ms) * time.Millisecond
		set.Expire = &d
	default:
		return nil, resp.ErrTrailingElements
	}
	return set, nil
}

// Encode implements Command.
func (c *Set) Encode() resp.Frame {
	f := resp.NewArray(resp.NewBulkString("set"), resp.NewBulkString(c.Key), resp.NewBulk(c.Value))
	if c.Expire != nil {
		f.PushBulk([]byte("px"))
		f.PushInteger(uint64(c.Expire.Milliseconds()))
	}
	return f
}

// Publish sends Message to every subscriber of Channel.
type Publish struct {
	Channel string
	Message []byte
}

func decodePublish(p *resp.Parser) (Command, error) {
	channel, err := p.NextString()
	if err != nil {
		return nil, err
	}
	message, err := p.NextBytes()
	if err != nil {
		return nil, err
	}
	return &Publish{Channel: channel, Message: message}, nil
}

// Encode implements Command.
func (c *Publish) Encode() resp.Frame {
	return resp.NewArray(resp.NewBulkString("publish"), resp.NewBulkString(c.Channel), resp.NewBulk(c.Message))
}

// Subscribe requests subscription to one or more channels; at least one
// is required.
type Subscribe struct {
	Channels []string
}

func decodeSubscribe(p *resp.Parser) (Command, error) {
	channels, err := decodeChannelList(p, true)
	if err != nil {
		return nil, err
	}
	return &Subscribe{Channels: channels}, nil
}

// Encode implements Command.
func (c *Subscribe) Encode() resp.Frame {
	f := resp.NewArray(resp.NewBulkString("subscribe"))
	for _, ch := range c.Channels {
		f.PushBulk([]byte(ch))
	}
	return f
}

// Unsubscribe requests removal from zero or more channels; zero means
// "every channel currently subscribed."
type Unsubscribe struct {
	Channels []string
}

func decodeUnsubscribe(p *resp.Parser) (Command, error) {
	channels, err := decodeChannelList(p, false)
	if err != nil {
		return nil, err
	}
	return &Unsubscribe{Channels: channels}, nil
}

// Encode implements Command.
func (c *Unsubscribe) Encode() resp.Frame {
	f := resp.NewArray(resp.NewBulkString("unsubscribe"))
	for _, ch := range c.Channels {
		f.PushBulk([]byte(ch))
	}
	return f
}

func decodeChannelList(p *resp.Parser, atLeastOne bool) ([]string, error) {
	var channels []string
	if atLeastOne {
		first, err := p.NextString()
		if err != nil {
			return nil, err
		}
		channels = append(channels, first)
	}
	for p.Len() > 0 {
		ch, err := p.NextString()
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// Ping optionally echoes Message back as a Bulk reply.
type Ping struct {
	Message []byte
	HasMsg  bool
}

func decodePing(p *resp.Parser) (Command, error) {
	if p.Len() == 0 {
		return &Ping{}, nil
	}
	msg, err := p.NextBytes()
	if err != nil {
		return nil, err
	}
	return &Ping{Message: msg, HasMsg: true}, nil
}

// Encode implements Command.
func (c *Ping) Encode() resp.Frame {
	if !c.HasMsg {
		return resp.NewArray(resp.NewBulkString("ping"))
	}
	return resp.NewArray(resp.NewBulkString("ping"), resp.NewBulk(c.Message))
}

// Unknown is any command name the server does not recognize. Name is
// already ASCII-lowercased.
type Unknown struct {
	Name string
}

// Encode implements Command.
func (c *Unknown) Encode() resp.Frame {
	return resp.NewArray(resp.NewBulkString(c.Name))
}

// ErrorReply builds the literal error frame a connection sends back for
// an Unknown command, used both for genuinely unrecognized commands and
// for commands that are out of place in subscribed mode (§4.4).
func (c *Unknown) ErrorReply() resp.Frame {
	return resp.NewError("Err: unknown command '" + c.Name + "'")
}

// NameOf returns a decoded command's lowercased wire name, for callers
// (the subscribed-mode sub-state handler) that need to report an
// arbitrary Command as "unknown" using the same name Decode would have
// used.
func NameOf(cmd Command) string {
	switch c := cmd.(type) {
	case *Get:
		return "get"
	case *Set:
		return "set"
	case *Publish:
		return "publish"
	case *Subscribe:
		return "subscribe"
	case *Unsubscribe:
		return "unsubscribe"
	case *Ping:
		return "ping"
	case *Unknown:
		return c.Name
	default:
		return ""
	}
}
