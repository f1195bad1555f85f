package transport

import (
	"encoding/binary"
	"fmt"

	"github.com/opd-ai/radiobridge/limits"
)

// Direction identifies which way a packet travels relative to the simulation.
type Direction byte

const (
	// DirectionOutbound marks frames leaving the simulation for the peer.
	DirectionOutbound Direction = 0x01
	// DirectionInbound marks frames from the peer destined for the simulation.
	DirectionInbound Direction = 0x02
)

// String returns a short name for log fields.
func (d Direction) String() string {
	switch d {
	case DirectionOutbound:
		return "outbound"
	case DirectionInbound:
		return "inbound"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(d))
	}
}

// Packet represents a single radio frame on the wire.
type Packet struct {
	Direction Direction
	Channel   uint8
	Payload   []byte
}

// String renders the packet header for logging.
func (p *Packet) String() string {
	return fmt.Sprintf("%s ch=%d len=%d", p.Direction, p.Channel, len(p.Payload))
}

// Serialize converts a packet to a byte slice for transmission.
func (p *Packet) Serialize() ([]byte, error) {
	return Encode(p.Direction, p.Channel, p.Payload)
}

// Encode builds a wire packet. The result is always exactly
// limits.HeaderSize+len(payload) bytes. Payloads that do not fit the 16-bit
// length field are rejected.
func Encode(direction Direction, channel uint8, payload []byte) ([]byte, error) {
	if err := limits.ValidatePayloadSize(payload); err != nil {
		return nil, fmt.Errorf("encode %s packet: %w", direction, err)
	}

	result := make([]byte, limits.HeaderSize+len(payload))
	result[0] = byte(direction)
	result[1] = channel
	binary.LittleEndian.PutUint16(result[2:4], uint16(len(payload)))
	copy(result[limits.HeaderSize:], payload)

	return result, nil
}

// ParsePacket converts a byte slice received from the peer into a Packet.
//
// Only inbound packets are accepted. A packet with any other type byte is
// returned together with a DecodeError of kind KindUnknownType so callers can
// log what they discarded. Trailing bytes beyond the declared length are
// ignored. ParsePacket never panics for any input.
func ParsePacket(data []byte) (*Packet, error) {
	return ParsePacketAs(data, DirectionInbound)
}

// Decode is an alias for ParsePacket.
func Decode(data []byte) (*Packet, error) {
	return ParsePacket(data)
}

// ParsePacketAs is ParsePacket for a receiver that accepts packets of the
// given direction. The peer side of the link accepts DirectionOutbound.
func ParsePacketAs(data []byte, accept Direction) (*Packet, error) {
	if len(data) < limits.HeaderSize {
		return nil, &DecodeError{Kind: KindTooShort, Received: len(data)}
	}

	length := int(binary.LittleEndian.Uint16(data[2:4]))
	if len(data) < limits.HeaderSize+length {
		return nil, &DecodeError{
			Kind:     KindTruncated,
			Type:     Direction(data[0]),
			Length:   length,
			Received: len(data),
		}
	}

	packet := &Packet{
		Direction: Direction(data[0]),
		Channel:   data[1],
		Payload:   make([]byte, length),
	}
	copy(packet.Payload, data[limits.HeaderSize:limits.HeaderSize+length])

	if packet.Direction != accept {
		return packet, &DecodeError{
			Kind:     KindUnknownType,
			Type:     packet.Direction,
			Length:   length,
			Received: len(data),
		}
	}

	return packet, nil
}

// ParseAny decodes a packet without filtering on direction.
func ParseAny(data []byte) (*Packet, error) {
	packet, err := ParsePacket(data)
	if packet != nil && IsUnknownType(err) {
		return packet, nil
	}
	return packet, err
}
