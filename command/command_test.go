package command

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/coregx/miniredis/resp"
)

func decodeHelper(t *testing.T, elems ...resp.Frame) Command {
	t.Helper()
	cmd, err := Decode(resp.NewArray(elems...))
	assert.NilError(t, err)
	return cmd
}

func TestDecodeGet(t *testing.T) {
	cmd := decodeHelper(t, resp.NewBulkString("GET"), resp.NewBulkString("hello"))
	get, ok := cmd.(*Get)
	assert.Equal(t, ok, true)
	assert.Equal(t, get.Key, "hello")
}

func TestDecodeSetWithEX(t *testing.T) {
	cmd := decodeHelper(t,
		resp.NewBulkString("SET"), resp.NewBulkString("hello"), resp.NewBulkString("world"),
		resp.NewSimple("EX"), resp.NewInteger(1))
	set, ok := cmd.(*Set)
	assert.Equal(t, ok, true)
	assert.Equal(t, set.Key, "hello")
	assert.Equal(t, string(set.Value), "world")
	assert.Assert(t, set.Expire != nil)
	assert.Equal(t, *set.Expire, time.Second)
}

func TestDecodeSetWithPX(t *testing.T) {
	cmd := decodeHelper(t,
		resp.NewBulkString("set"), resp.NewBulkString("k"), resp.NewBulkString("v"),
		resp.NewBulkString("px"), resp.NewInteger(500))
	set := cmd.(*Set)
	assert.Equal(t, *set.Expire, 500*time.Millisecond)
}

func TestDecodeSetNoExpire(t *testing.T) {
	cmd := decodeHelper(t, resp.NewBulkString("SET"), resp.NewBulkString("k"), resp.NewBulkString("v"))
	set := cmd.(*Set)
	if set.Expire != nil {
		t.Fatalf("expected no expiry, got %v", *set.Expire)
	}
}

func TestDecodeUnknownCommandDoesNotFail(t *testing.T) {
	cmd := decodeHelper(t, resp.NewBulkString("FOO"), resp.NewBulkString("hello"))
	unk, ok := cmd.(*Unknown)
	assert.Equal(t, ok, true)
	assert.Equal(t, unk.Name, "foo")
	assert.Equal(t, unk.ErrorReply().Text != nil, true)
	assert.Equal(t, string(unk.ErrorReply().Text), "Err: unknown command 'foo'")
}

func TestDecodeSubscribeRequiresOneChannel(t *testing.T) {
	_, err := Decode(resp.NewArray(resp.NewBulkString("SUBSCRIBE")))
	assert.Assert(t, err != nil)
}

func TestDecodeUnsubscribeAllowsZeroChannels(t *testing.T) {
	cmd := decodeHelper(t, resp.NewBulkString("UNSUBSCRIBE"))
	un := cmd.(*Unsubscribe)
	assert.Equal(t, len(un.Channels), 0)
}

func TestDecodePingVariants(t *testing.T) {
	cmd := decodeHelper(t, resp.NewBulkString("PING"))
	ping := cmd.(*Ping)
	assert.Equal(t, ping.HasMsg, false)

	cmd = decodeHelper(t, resp.NewBulkString("PING"), resp.NewBulkString("你好"))
	ping = cmd.(*Ping)
	assert.Equal(t, ping.HasMsg, true)
	assert.Equal(t, string(ping.Message), "你好")
}

func TestDecodeTrailingElementsIsError(t *testing.T) {
	_, err := Decode(resp.NewArray(
		resp.NewBulkString("GET"), resp.NewBulkString("k"), resp.NewBulkString("extra")))
	assert.Assert(t, err != nil)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := 250 * time.Millisecond
	cmds := []Command{
		&Get{Key: "k"},
		&Set{Key: "k", Value: []byte("v")},
		&Set{Key: "k", Value: []byte("v"), Expire: &d},
		&Publish{Channel: "c", Message: []byte("m")},
		&Subscribe{Channels: []string{"a", "b"}},
		&Unsubscribe{Channels: []string{"a"}},
		&Ping{},
		&Ping{Message: []byte("hi"), HasMsg: true},
	}
	for _, cmd := range cmds {
		decoded, err := Decode(cmd.Encode())
		assert.NilError(t, err)
		if decoded.Encode().String() != cmd.Encode().String() {
			t.Errorf("round trip mismatch: %v vs %v", decoded, cmd)
		}
	}
}
