// Package limits provides centralized size constants and validation functions
// for the radio bridge wire protocol. Every component that builds or reads a
// wire packet checks sizes against the values defined here.
//
// # Size Hierarchy
//
//   - HeaderSize (4 bytes): type, channel and the little-endian length field.
//
//   - MaxPayloadSize (65535 bytes): the largest payload the 16-bit length
//     field can describe. Larger frames are rejected, never truncated.
//
//   - MaxPacketSize (65539 bytes): HeaderSize + MaxPayloadSize, the largest
//     well-formed wire packet.
//
//   - DefaultReadBuffer (65536 bytes): receive buffer large enough for any
//     UDP datagram the kernel will deliver.
//
// # Validation Functions
//
//	if err := limits.ValidatePayloadSize(frame); err != nil {
//	    // errors.Is(err, limits.ErrPayloadTooLarge)
//	}
//
// Empty payloads are valid: a zero-length frame is still a frame.
package limits
