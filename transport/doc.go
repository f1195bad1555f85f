// Package transport implements the wire codec and the UDP socket pair that
// carry radio frames between a simulated radio and an external peer.
//
// # Wire Format
//
// Every datagram holds exactly one frame:
//
//	Byte 0:     Type      (0x01 = outbound, from the simulation)
//	                      (0x02 = inbound, to the simulation)
//	Byte 1:     Channel   (0-255)
//	Bytes 2-3:  Length    (uint16, little-endian)
//	Bytes 4..:  Payload   (exactly Length bytes)
//
// Encode and Packet.Serialize build packets; payloads longer than 65535
// bytes are rejected with limits.ErrPayloadTooLarge rather than truncated.
// ParsePacket never panics: every failure is a *DecodeError whose Kind is one
// of KindTooShort, KindTruncated or KindUnknownType, and which unwraps to the
// matching sentinel (ErrTooShort, ErrTruncated, ErrUnknownType). Bytes past
// the declared length are ignored.
//
// # UDP Transport
//
//	tr, err := transport.NewUDPTransport(":5000", peerAddr)
//	if err != nil {
//	    log.Fatal(err) // inbound bind failure
//	}
//	tr.RegisterHandler(func(p *transport.Packet, from net.Addr) error {
//	    return deliver(p.Channel, p.Payload)
//	})
//	err = tr.Send(&transport.Packet{Direction: transport.DirectionOutbound, Channel: 37, Payload: frame})
//
// The receive loop is the only reader of the inbound socket. Each read is
// bounded by a poll interval (100ms by default) so the loop notices Close
// promptly; timeouts are silent, other read errors are logged and the loop
// continues, and net.ErrClosed ends the loop. Handlers run on the loop
// goroutine, so inbound packets are delivered in arrival order.
//
// WithAcceptDirection(DirectionOutbound) flips the accepted type so the same
// transport serves the peer end of the link.
//
// Send uses a separate unbound socket and is safe for concurrent use. There
// are no acknowledgements or retries: a failed send is returned to the caller
// and nothing else happens.
//
// Close is idempotent. It clears the running flag, waits a bounded time for
// the loop, then closes both sockets regardless.
package transport
