package transport

import (
	"net"
)

// PacketHandler processes a decoded inbound packet. It runs on the receive
// loop goroutine; a returned error is logged and the loop continues.
type PacketHandler func(packet *Packet, addr net.Addr) error

// Transport defines the socket pair used by the bridge engine.
type Transport interface {
	// Send encodes a packet and writes it to the configured peer.
	Send(packet *Packet) error

	// Close stops the receive loop and releases both sockets.
	Close() error

	// LocalAddr returns the address the inbound socket is bound to.
	LocalAddr() net.Addr

	// RemoteAddr returns the peer address outbound packets are sent to.
	RemoteAddr() net.Addr

	// RegisterHandler sets the handler for decoded inbound packets.
	RegisterHandler(handler PacketHandler)

	// Counters returns a snapshot of traffic and drop counters.
	Counters() Counters
}

// Counters is a point-in-time snapshot of transport activity.
type Counters struct {
	Received    uint64 // datagrams read from the inbound socket
	Dispatched  uint64 // inbound packets handed to the handler
	TooShort    uint64
	Truncated   uint64
	UnknownType uint64
	ReadErrors  uint64
	Sent        uint64
	SendErrors  uint64
}

// Dropped returns the number of inbound datagrams discarded for any reason.
func (c Counters) Dropped() uint64 {
	return c.TooShort + c.Truncated + c.UnknownType
}
