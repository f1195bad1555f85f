package transport

import (
	"bytes"
	"errors"
	"testing"

	"github.com/opd-ai/radiobridge/limits"
)

// TestPacketSerialize tests the Packet.Serialize method.
func TestPacketSerialize(t *testing.T) {
	tests := []struct {
		name    string
		packet  *Packet
		want    []byte
		wantErr bool
	}{
		{
			name: "outbound advertising frame",
			packet: &Packet{
				Direction: DirectionOutbound,
				Channel:   37,
				Payload:   []byte{0xAA, 0xBB},
			},
			want: []byte{0x01, 0x25, 0x02, 0x00, 0xAA, 0xBB},
		},
		{
			name: "inbound frame",
			packet: &Packet{
				Direction: DirectionInbound,
				Channel:   5,
				Payload:   []byte{0x11, 0x22, 0x33},
			},
			want: []byte{0x02, 0x05, 0x03, 0x00, 0x11, 0x22, 0x33},
		},
		{
			name: "empty payload",
			packet: &Packet{
				Direction: DirectionOutbound,
				Channel:   0,
				Payload:   []byte{},
			},
			want: []byte{0x01, 0x00, 0x00, 0x00},
		},
		{
			name: "nil payload",
			packet: &Packet{
				Direction: DirectionOutbound,
				Channel:   255,
			},
			want: []byte{0x01, 0xFF, 0x00, 0x00},
		},
		{
			name: "payload over length field",
			packet: &Packet{
				Direction: DirectionOutbound,
				Payload:   make([]byte, limits.MaxPayloadSize+1),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.packet.Serialize()
			if tt.wantErr {
				if !errors.Is(err, limits.ErrPayloadTooLarge) {
					t.Errorf("Expected ErrPayloadTooLarge, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !bytes.Equal(result, tt.want) {
				t.Errorf("Expected % X, got % X", tt.want, result)
			}
		})
	}
}

// TestEncodeLengthIsLittleEndian verifies the high byte of the length field
// is written for payloads over 255 bytes.
func TestEncodeLengthIsLittleEndian(t *testing.T) {
	payload := make([]byte, 0x0134)
	result, err := Encode(DirectionOutbound, 1, payload)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result) != limits.HeaderSize+len(payload) {
		t.Errorf("Expected length %d, got %d", limits.HeaderSize+len(payload), len(result))
	}
	if result[2] != 0x34 || result[3] != 0x01 {
		t.Errorf("Expected length bytes 34 01, got %02X %02X", result[2], result[3])
	}

	full, err := Encode(DirectionOutbound, 1, make([]byte, limits.MaxPayloadSize))
	if err != nil {
		t.Fatalf("Unexpected error at max payload: %v", err)
	}
	if full[2] != 0xFF || full[3] != 0xFF {
		t.Errorf("Expected length bytes FF FF, got %02X %02X", full[2], full[3])
	}
}

// TestParsePacket tests the ParsePacket function.
func TestParsePacket(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		wantChannel uint8
		wantPayload []byte
		wantErr     error
	}{
		{
			name:        "valid inbound packet",
			data:        []byte{0x02, 0x05, 0x03, 0x00, 0x11, 0x22, 0x33},
			wantChannel: 5,
			wantPayload: []byte{0x11, 0x22, 0x33},
		},
		{
			name:        "trailing bytes ignored",
			data:        []byte{0x02, 0x07, 0x01, 0x00, 0x42, 0xDE, 0xAD},
			wantChannel: 7,
			wantPayload: []byte{0x42},
		},
		{
			name:        "zero length payload",
			data:        []byte{0x02, 0x27, 0x00, 0x00},
			wantChannel: 39,
			wantPayload: []byte{},
		},
		{
			name:    "nil data",
			data:    nil,
			wantErr: ErrTooShort,
		},
		{
			name:    "two bytes",
			data:    []byte{0x02, 0x05},
			wantErr: ErrTooShort,
		},
		{
			name:    "three bytes",
			data:    []byte{0x02, 0x05, 0x00},
			wantErr: ErrTooShort,
		},
		{
			name:    "declared length exceeds data",
			data:    []byte{0x02, 0x05, 0x04, 0x00, 0x11, 0x22},
			wantErr: ErrTruncated,
		},
		{
			name:    "high length byte exceeds data",
			data:    []byte{0x02, 0x05, 0x01, 0x01, 0x11},
			wantErr: ErrTruncated,
		},
		{
			name:    "outbound marker",
			data:    []byte{0x01, 0x25, 0x02, 0x00, 0xAA, 0xBB},
			wantErr: ErrUnknownType,
		},
		{
			name:    "garbage marker",
			data:    []byte{0x7F, 0x00, 0x00, 0x00},
			wantErr: ErrUnknownType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packet, err := ParsePacket(tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if packet.Direction != DirectionInbound {
				t.Errorf("Expected inbound direction, got %s", packet.Direction)
			}
			if packet.Channel != tt.wantChannel {
				t.Errorf("Expected channel %d, got %d", tt.wantChannel, packet.Channel)
			}
			if !bytes.Equal(packet.Payload, tt.wantPayload) {
				t.Errorf("Expected payload %v, got %v", tt.wantPayload, packet.Payload)
			}
		})
	}
}

// TestParsePacketDoesNotAliasInput verifies the payload is copied out of the
// receive buffer, which the receive loop reuses.
func TestParsePacketDoesNotAliasInput(t *testing.T) {
	data := []byte{0x02, 0x01, 0x02, 0x00, 0x10, 0x20}
	packet, err := ParsePacket(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	data[4] = 0xFF
	if packet.Payload[0] != 0x10 {
		t.Errorf("Payload changed with input buffer: %v", packet.Payload)
	}
}

// TestDecodeErrorDetails verifies DecodeError carries the sizes it reports.
func TestDecodeErrorDetails(t *testing.T) {
	_, err := ParsePacket([]byte{0x02, 0x05, 0x09, 0x00, 0x11})

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected *DecodeError, got %T", err)
	}
	if decodeErr.Kind != KindTruncated {
		t.Errorf("Expected kind truncated, got %s", decodeErr.Kind)
	}
	if decodeErr.Length != 9 || decodeErr.Received != 5 {
		t.Errorf("Expected length 9 received 5, got length %d received %d", decodeErr.Length, decodeErr.Received)
	}
}

// TestRoundTrip checks decode(encode(c, f)) recovers channel and payload for
// every channel and a spread of payload sizes.
func TestRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 2, 255, 256, 1024, limits.MaxPayloadSize}

	for channel := 0; channel <= 255; channel++ {
		for _, size := range sizes {
			payload := make([]byte, size)
			for i := range payload {
				payload[i] = byte(i * 7)
			}

			data, err := Encode(DirectionOutbound, uint8(channel), payload)
			if err != nil {
				t.Fatalf("Encode(ch=%d, size=%d): %v", channel, size, err)
			}

			packet, err := ParseAny(data)
			if err != nil {
				t.Fatalf("ParseAny(ch=%d, size=%d): %v", channel, size, err)
			}
			if packet.Channel != uint8(channel) || !bytes.Equal(packet.Payload, payload) {
				t.Fatalf("Round trip mismatch for ch=%d size=%d", channel, size)
			}
		}
	}
}

// TestParsePacketUnknownTypeReturnsPacket verifies the discarded packet is
// still available for logging.
func TestParsePacketUnknownTypeReturnsPacket(t *testing.T) {
	packet, err := ParsePacket([]byte{0x01, 0x25, 0x02, 0x00, 0xAA, 0xBB})
	if !IsUnknownType(err) {
		t.Fatalf("Expected unknown type error, got %v", err)
	}
	if packet == nil || packet.Direction != DirectionOutbound || packet.Channel != 37 {
		t.Errorf("Expected outbound packet on channel 37, got %v", packet)
	}
}

// FuzzParsePacket verifies ParsePacket never panics and that accepted
// packets re-encode to the consumed prefix of the input.
func FuzzParsePacket(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x02})
	f.Add([]byte{0x02, 0x05, 0x03, 0x00, 0x11, 0x22, 0x33})
	f.Add([]byte{0x01, 0x25, 0x02, 0x00, 0xAA, 0xBB})
	f.Add([]byte{0x02, 0x05, 0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		packet, err := ParsePacket(data)
		if err != nil {
			return
		}
		encoded, err := packet.Serialize()
		if err != nil {
			t.Fatalf("Re-encode failed: %v", err)
		}
		if !bytes.Equal(encoded, data[:len(encoded)]) {
			t.Fatalf("Re-encoded % X does not prefix input % X", encoded, data)
		}
	})
}
