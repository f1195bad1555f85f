package transport

import (
	"errors"
	"fmt"
)

// Decode failures. Every DecodeError unwraps to exactly one of these.
var (
	// ErrTooShort indicates fewer bytes than a packet header were received
	ErrTooShort = errors.New("packet too short")

	// ErrTruncated indicates the declared length exceeds the bytes received
	ErrTruncated = errors.New("packet truncated")

	// ErrUnknownType indicates a type byte the receiver does not accept
	ErrUnknownType = errors.New("unknown packet type")

	// ErrTransportClosed indicates an operation on a closed transport
	ErrTransportClosed = errors.New("transport closed")
)

// DecodeKind classifies a decode failure.
type DecodeKind int

const (
	KindTooShort DecodeKind = iota + 1
	KindTruncated
	KindUnknownType
)

// String returns the log name of the kind.
func (k DecodeKind) String() string {
	switch k {
	case KindTooShort:
		return "too_short"
	case KindTruncated:
		return "truncated"
	case KindUnknownType:
		return "unknown_type"
	default:
		return "invalid"
	}
}

// DecodeError describes why a received datagram could not be used.
type DecodeError struct {
	Kind     DecodeKind
	Type     Direction // type byte, when at least a header was received
	Length   int       // declared payload length, when known
	Received int       // bytes actually received
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case KindTooShort:
		return fmt.Sprintf("%v: %d bytes", ErrTooShort, e.Received)
	case KindTruncated:
		return fmt.Sprintf("%v: declared %d payload bytes, received %d total", ErrTruncated, e.Length, e.Received)
	case KindUnknownType:
		return fmt.Sprintf("%v: 0x%02x", ErrUnknownType, byte(e.Type))
	default:
		return "invalid decode error"
	}
}

func (e *DecodeError) Unwrap() error {
	switch e.Kind {
	case KindTooShort:
		return ErrTooShort
	case KindTruncated:
		return ErrTruncated
	case KindUnknownType:
		return ErrUnknownType
	default:
		return nil
	}
}

// IsUnknownType reports whether err is a decode failure caused only by the
// packet's type byte.
func IsUnknownType(err error) bool {
	return errors.Is(err, ErrUnknownType)
}
