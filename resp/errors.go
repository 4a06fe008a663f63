package resp

import (
	"errors"
	"fmt"
)

// Sentinel and structured errors produced by the frame codec and framed
// connection.

var (
	// ErrIncomplete indicates the cursor reached the end of the buffer
	// before a whole frame could be confirmed. Check returns this to ask
	// the caller for more bytes; it is never surfaced to a client.
	ErrIncomplete = errors.New("resp: incomplete frame")

	// ErrConnectionReset indicates the underlying stream reached EOF with
	// a partial frame still buffered.
	ErrConnectionReset = errors.New("resp: connection reset mid-frame")

	// ErrNotArray indicates a top-level frame that was expected to be an
	// Array (a command request) was some other kind.
	ErrNotArray = errors.New("resp: expected array frame")

	// ErrTrailingElements indicates a command consumed fewer elements of
	// an array than the array contained.
	ErrTrailingElements = errors.New("resp: trailing array elements")

	// ErrWriteArrayAsScalar indicates an internal coding error: a helper
	// that only handles non-array frames was handed an Array.
	ErrWriteArrayAsScalar = errors.New("resp: cannot write array frame as scalar")
)

// ProtocolError reports a malformed RESP header encountered while
// decoding. It always terminates the connection that produced it.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "resp: protocol error: " + e.Reason
}

func newProtocolError(format string, args ...any) error {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}
