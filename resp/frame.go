// Package resp implements a subset of the Redis Serialization Protocol
// (RESP) wire format: the frame codec (this file and cursor.go), the
// buffered framed connection (conn.go), and a typed accessor over an
// array frame's elements (parser.go).
//
// Wire grammar (bit-exact):
//
//	Simple(s)   -> '+' s '\r\n'
//	Error(s)    -> '-' s '\r\n'
//	Integer(n)  -> ':' decimal(n) '\r\n'
//	Null        -> "$-1\r\n"
//	Bulk(b)     -> '$' decimal(len(b)) '\r\n' b '\r\n'
//	Array(xs)   -> '*' decimal(len(xs)) '\r\n' concat(encode(x) for x in xs)
//
// Decoding is pure and side-effect-free: it never reads from a socket.
// The framed connection is responsible for refilling its buffer between
// decode attempts.
package resp

import "fmt"

// Kind tags the six frame variants.
type Kind byte

const (
	Simple Kind = iota
	Error
	Integer
	Null
	Bulk
	Array
)

func (k Kind) String() string {
	switch k {
	case Simple:
		return "Simple"
	case Error:
		return "Error"
	case Integer:
		return "Integer"
	case Null:
		return "Null"
	case Bulk:
		return "Bulk"
	case Array:
		return "Array"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// Frame is a single RESP value. Only one of the fields is meaningful for
// a given Kind: Text for Simple/Error/Bulk, Int for Integer, Elems for
// Array. Null carries none.
type Frame struct {
	Kind  Kind
	Text  []byte
	Int   uint64
	Elems []Frame
}

// NewSimple builds a Simple frame.
func NewSimple(s string) Frame { return Frame{Kind: Simple, Text: []byte(s)} }

// NewError builds an Error frame.
func NewError(s string) Frame { return Frame{Kind: Error, Text: []byte(s)} }

// NewInteger builds an Integer frame.
func NewInteger(n uint64) Frame { return Frame{Kind: Integer, Int: n} }

// NewNull builds the Null frame.
func NewNull() Frame { return Frame{Kind: Null} }

// NewBulk builds a Bulk frame from raw bytes.
func NewBulk(b []byte) Frame { return Frame{Kind: Bulk, Text: b} }

// NewBulkString builds a Bulk frame from a string.
func NewBulkString(s string) Frame { return Frame{Kind: Bulk, Text: []byte(s)} }

// NewArray builds an Array frame from its elements.
func NewArray(elems ...Frame) Frame { return Frame{Kind: Array, Elems: elems} }

// PushBulk appends a Bulk element. f must be an Array frame.
func (f *Frame) PushBulk(b []byte) {
	if f.Kind != Array {
		panic("resp: PushBulk on non-array frame")
	}
	f.Elems = append(f.Elems, NewBulk(b))
}

// PushInteger appends an Integer element. f must be an Array frame.
func (f *Frame) PushInteger(n uint64) {
	if f.Kind != Array {
		panic("resp: PushInteger on non-array frame")
	}
	f.Elems = append(f.Elems, NewInteger(n))
}

// EqualsString reports whether f is a Simple, Error, or Bulk frame whose
// text equals s. Equality is undefined (always false) for Integer, Null,
// and Array.
func (f Frame) EqualsString(s string) bool {
	switch f.Kind {
	case Simple, Error, Bulk:
		return string(f.Text) == s
	default:
		return false
	}
}

func (f Frame) String() string {
	switch f.Kind {
	case Simple:
		return "+" + string(f.Text)
	case Error:
		return "-" + string(f.Text)
	case Integer:
		return fmt.Sprintf(":%d", f.Int)
	case Null:
		return "$-1"
	case Bulk:
		return fmt.Sprintf("$%d %q", len(f.Text), f.Text)
	case Array:
		return fmt.Sprintf("*%d %v", len(f.Elems), f.Elems)
	default:
		return "invalid frame"
	}
}
