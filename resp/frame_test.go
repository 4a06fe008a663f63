package resp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
)

func roundTrip(t *testing.T, f Frame) Frame {
	t.Helper()
	buf, err := Encode(nil, f)
	assert.NilError(t, err)

	cur := NewCursor(buf)
	assert.NilError(t, Check(cur))

	cur2 := NewCursor(buf)
	got, err := Parse(cur2)
	assert.NilError(t, err)
	assert.Equal(t, cur2.Pos(), len(buf))
	return got
}

func TestFrameRoundTrip(t *testing.T) {
	cases := []Frame{
		NewSimple("OK"),
		NewError("Err: unknown command 'foo'"),
		NewInteger(0),
		NewInteger(1<<63 + 7),
		NewNull(),
		NewBulk([]byte("hello")),
		NewBulk([]byte{}),
		NewArray(NewBulkString("GET"), NewBulkString("hello")),
		NewArray(),
		NewArray(NewArray(NewInteger(1), NewInteger(2)), NewBulkString("x")),
	}

	for _, want := range cases {
		got := roundTrip(t, want)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestCheckIncomplete(t *testing.T) {
	full, err := Encode(nil, NewArray(NewBulkString("SET"), NewBulkString("k"), NewBulkString("v")))
	assert.NilError(t, err)

	for n := 0; n < len(full); n++ {
		cur := NewCursor(full[:n])
		err := Check(cur)
		assert.Equal(t, err, ErrIncomplete)
	}

	cur := NewCursor(full)
	assert.NilError(t, Check(cur))
	assert.Equal(t, cur.Pos(), len(full))
}

func TestCheckProtocolErrors(t *testing.T) {
	cases := [][]byte{
		[]byte("@foo\r\n"),
		[]byte(":notanumber\r\n"),
		[]byte("$abc\r\nxx\r\n"),
		[]byte("*abc\r\n"),
	}
	for _, c := range cases {
		cur := NewCursor(c)
		err := Check(cur)
		if _, ok := err.(*ProtocolError); !ok {
			t.Errorf("Check(%q) = %v, want *ProtocolError", c, err)
		}
	}
}

func TestEqualsString(t *testing.T) {
	assert.Equal(t, NewSimple("OK").EqualsString("OK"), true)
	assert.Equal(t, NewBulk([]byte("hi")).EqualsString("hi"), true)
	assert.Equal(t, NewInteger(1).EqualsString("1"), false)
	assert.Equal(t, NewNull().EqualsString(""), false)
}

func TestWriteNonArrayRefusesArray(t *testing.T) {
	_, err := encodeNonArray(nil, NewArray())
	assert.Equal(t, err, ErrWriteArrayAsScalar)
}
