// Package interfaces defines the collaborator contracts the radio bridge
// consumes: a radio that can be retuned and fed frames, and a medium that
// announces every frame its radios emit.
//
// # Core Interfaces
//
// [IRadio] is the simulated peripheral. The bridge reads its channel to label
// outbound packets, and on inbound traffic sets the channel and delivers the
// frame:
//
//	radio.SetChannel(packet.Channel)
//	radio.ReceiveFrame(packet.Payload, from.String())
//
// [IMedium] raises a [FrameEvent] for each emitted frame. Subscribers register
// explicitly and must unsubscribe explicitly; nothing is removed implicitly:
//
//	sub := medium.Subscribe(func(ev interfaces.FrameEvent) {
//	    if ev.Sender != radio {
//	        return
//	    }
//	    forward(ev.Sender.Channel(), ev.Frame)
//	})
//	defer sub.Unsubscribe()
//
// # Identity
//
// Radios are compared by identity (==), never by channel or any other
// attribute. Implement IRadio on a pointer type.
//
// # Implementations
//
// The sim package provides in-process implementations of both interfaces for
// tests and for running the bridge without an emulator attached.
package interfaces
