package sim

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Reception is a frame delivered to a simulated radio.
type Reception struct {
	Channel   uint8
	Frame     []byte
	Source    string
	Timestamp time.Time
}

// Radio is a simulated radio peripheral. It records every frame it receives
// and can transmit frames into a Medium.
type Radio struct {
	name      string
	channel   uint8
	received  []Reception
	onReceive func(Reception)
	mu        sync.RWMutex
}

// NewRadio creates a radio tuned to channel.
func NewRadio(name string, channel uint8) *Radio {
	return &Radio{
		name:    name,
		channel: channel,
	}
}

// Name returns the radio's name.
func (r *Radio) Name() string {
	return r.name
}

// Channel implements IRadio.Channel.
func (r *Radio) Channel() uint8 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

// SetChannel implements IRadio.SetChannel. Any value is accepted.
func (r *Radio) SetChannel(channel uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channel = channel
}

// ReceiveFrame implements IRadio.ReceiveFrame.
func (r *Radio) ReceiveFrame(frame []byte, source string) {
	r.mu.Lock()
	rec := Reception{
		Channel:   r.channel,
		Frame:     append([]byte(nil), frame...),
		Source:    source,
		Timestamp: time.Now(),
	}
	r.received = append(r.received, rec)
	callback := r.onReceive
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":   "Radio.ReceiveFrame",
		"radio":      r.name,
		"channel":    rec.Channel,
		"frame_size": len(frame),
		"source":     source,
	}).Debug("Simulated radio received frame")

	if callback != nil {
		callback(rec)
	}
}

// OnReceive registers a callback invoked after each received frame.
func (r *Radio) OnReceive(callback func(Reception)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onReceive = callback
}

// Transmit emits frame on the radio's current channel through medium.
func (r *Radio) Transmit(medium *Medium, frame []byte) int {
	return medium.Transmit(r.name, r, frame)
}

// Received returns a copy of every frame delivered to the radio.
func (r *Radio) Received() []Reception {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Reception, len(r.received))
	copy(out, r.received)
	return out
}

// ClearReceived discards the reception log.
func (r *Radio) ClearReceived() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = nil
}
