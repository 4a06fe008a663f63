package resp

import "strconv"

// appendDecimal renders n as base-10 decimal, appended to dst. It uses
// strconv's append form so no intermediate string allocation is needed;
// no separate scratch buffer is kept here.
func appendDecimal(dst []byte, n uint64) []byte {
	return strconv.AppendUint(dst, n, 10)
}

// encodeNonArray appends the wire bytes for any non-Array frame to dst.
// It refuses an Array frame with ErrWriteArrayAsScalar, catching coding
// errors where a caller meant to recurse instead of writing a scalar.
func encodeNonArray(dst []byte, f Frame) ([]byte, error) {
	switch f.Kind {
	case Simple:
		dst = append(dst, '+')
		dst = append(dst, f.Text...)
		return append(dst, '\r', '\n'), nil
	case Error:
		dst = append(dst, '-')
		dst = append(dst, f.Text...)
		return append(dst, '\r', '\n'), nil
	case Integer:
		dst = append(dst, ':')
		dst = appendDecimal(dst, f.Int)
		return append(dst, '\r', '\n'), nil
	case Null:
		return append(dst, '$', '-', '1', '\r', '\n'), nil
	case Bulk:
		dst = append(dst, '$')
		dst = appendDecimal(dst, uint64(len(f.Text)))
		dst = append(dst, '\r', '\n')
		dst = append(dst, f.Text...)
		return append(dst, '\r', '\n'), nil
	case Array:
		return nil, ErrWriteArrayAsScalar
	default:
		return nil, newProtocolError("unknown frame kind %v", f.Kind)
	}
}

// Encode appends the wire-format bytes for f to dst, handling Array by
// emitting the '*' header and recursing on each element.
func Encode(dst []byte, f Frame) ([]byte, error) {
	if f.Kind != Array {
		return encodeNonArray(dst, f)
	}
	dst = append(dst, '*')
	dst = appendDecimal(dst, uint64(len(f.Elems)))
	dst = append(dst, '\r', '\n')
	for _, elem := range f.Elems {
		var err error
		dst, err = Encode(dst, elem)
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}
