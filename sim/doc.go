// Package sim provides in-memory implementations of the bridge collaborator
// interfaces: a shared Medium and a Radio that records what it receives.
//
// # Overview
//
// The bridge is normally attached to an emulator's radio and medium. This
// package stands in for both so the bridge can be exercised without an
// emulator, in tests and from the radiobridge serve command.
//
//	medium := sim.NewMedium()
//	radio := sim.NewRadio("nrf52", 37)
//
//	engine.Attach(medium, radio)
//	radio.Transmit(medium, advFrame) // forwarded to the peer
//
//	for _, rx := range radio.Received() {
//	    fmt.Printf("ch=%d % X\n", rx.Channel, rx.Frame)
//	}
//
// # Thread Safety
//
// Medium and Radio are safe for concurrent use. Medium.Transmit calls
// subscribers synchronously on the caller's goroutine without holding the
// medium's lock.
package sim
