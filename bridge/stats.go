package bridge

import "github.com/opd-ai/radiobridge/transport"

// Stats is a point-in-time snapshot of engine activity.
type Stats struct {
	State State

	// FramesForwarded counts frames sent to the peer.
	FramesForwarded uint64
	// FramesInjected counts inbound frames delivered to the attached radio.
	FramesInjected uint64
	// FramesIgnored counts frame events from radios other than the attached one.
	FramesIgnored uint64
	// InboundUnbound counts inbound frames dropped because no radio was attached.
	InboundUnbound uint64
	// SendErrors counts outbound frames that could not be sent.
	SendErrors uint64

	Transport transport.Counters
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		State:           e.State(),
		FramesForwarded: e.forwarded.Load(),
		FramesInjected:  e.injected.Load(),
		FramesIgnored:   e.ignored.Load(),
		InboundUnbound:  e.unbound.Load(),
		SendErrors:      e.sendErrors.Load(),
		Transport:       e.transport.Counters(),
	}
}
