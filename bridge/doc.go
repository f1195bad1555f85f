// Package bridge implements the radio bridge engine: it binds to exactly one
// simulated radio at a time and exchanges that radio's frames with an
// external peer over the UDP protocol in package transport.
//
// # Lifecycle
//
// New binds the inbound socket and starts the receive loop; a bind failure is
// returned. The engine then stays in StateRunning until Shutdown moves it to
// StateStopped for good. Shutdown is safe to call more than once.
//
//	engine, err := bridge.New(bridge.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Shutdown()
//
//	if err := engine.Attach(medium, radio); err != nil {
//	    // bridge.ErrAlreadyAttached: Detach first
//	}
//
// # Forwarding
//
// Attach subscribes to the medium. Each frame event whose sender is the
// attached radio (by identity) becomes an outbound packet labeled with the
// radio's current channel. Events from any other radio are ignored, as are
// events that race with Detach. Send failures are logged and counted; the
// link has no acknowledgements and no retries.
//
// Inbound packets are delivered on the receive loop: the attached radio is
// retuned to the packet's channel and then given the frame. With no radio
// attached the frame is dropped with a warning.
//
// # Concurrency
//
// The binding is an immutable snapshot behind an atomic pointer. Attach,
// Detach and Shutdown serialize on a mutex; the frame callback and the
// receive loop read the snapshot without locking.
package bridge
