package interfaces

// IRadio is the simulated radio peripheral the bridge attaches to.
//
// Implementations must be comparable, normally a pointer type, because the
// bridge filters frame events by radio identity using ==.
type IRadio interface {
	// Channel returns the channel the radio is currently tuned to. It labels
	// outbound packets.
	Channel() uint8

	// SetChannel retunes the radio before an inbound frame is delivered.
	SetChannel(channel uint8)

	// ReceiveFrame hands a frame to the radio as if it arrived over the air.
	// source is an annotation for logs and may be empty.
	ReceiveFrame(frame []byte, source string)
}

// FrameEvent is raised by a medium each time one of its radios emits a frame.
type FrameEvent struct {
	// Source names what caused the emission (a hook, a test, a peripheral).
	Source string
	// Sender is the radio that emitted the frame.
	Sender IRadio
	// Frame is the raw link-layer payload. Subscribers must not modify it.
	Frame []byte
}

// FrameHandler receives frame events from a medium.
type FrameHandler func(event FrameEvent)

// IMedium is the shared transmission environment radios emit frames into.
type IMedium interface {
	// Subscribe registers handler for every frame processed by the medium.
	// The handler runs synchronously on the emitting goroutine.
	Subscribe(handler FrameHandler) ISubscription
}

// ISubscription is the handle returned by IMedium.Subscribe.
type ISubscription interface {
	// Unsubscribe removes the handler. Calling it more than once is a no-op.
	Unsubscribe()
}
