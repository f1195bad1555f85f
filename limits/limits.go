// Package limits provides centralized wire-size limits for the radio bridge.
package limits

import (
	"errors"
	"fmt"
)

const (
	// HeaderSize is the fixed wire header: [Type:1][Channel:1][Length:2]
	HeaderSize = 4

	// MaxPayloadSize is the largest payload the 2-byte length field can encode
	MaxPayloadSize = 0xFFFF

	// MaxPacketSize is the largest well-formed wire packet
	MaxPacketSize = HeaderSize + MaxPayloadSize

	// DefaultReadBuffer is the receive buffer used by the inbound socket.
	// A UDP datagram never exceeds 65535 bytes including headers, so this
	// holds anything the kernel can hand us.
	DefaultReadBuffer = 64 * 1024
)

var (
	// ErrPayloadTooLarge indicates a payload does not fit the 16-bit length field
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrBufferTooSmall indicates a receive buffer cannot hold a packet header
	ErrBufferTooSmall = errors.New("buffer too small")
)

// ValidatePayloadSize checks that payload fits in a single wire packet.
// Returns an error wrapping ErrPayloadTooLarge with the actual and maximum sizes.
func ValidatePayloadSize(payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}
	return nil
}

// ValidateReadBuffer checks that a configured receive buffer size can hold at
// least a packet header.
func ValidateReadBuffer(size int) error {
	if size < HeaderSize {
		return fmt.Errorf("%w: size %d is below header size %d", ErrBufferTooSmall, size, HeaderSize)
	}
	return nil
}
