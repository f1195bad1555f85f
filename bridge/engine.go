package bridge

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/opd-ai/radiobridge/interfaces"
	"github.com/opd-ai/radiobridge/transport"
	"github.com/sirupsen/logrus"
)

// State is the engine lifecycle state.
type State int32

const (
	// StateRunning is the state from construction until Shutdown.
	StateRunning State = iota + 1
	// StateStopped is terminal; an engine cannot be restarted.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// binding is the attached medium/radio pair. It is immutable once published.
type binding struct {
	medium interfaces.IMedium
	radio  interfaces.IRadio
	sub    interfaces.ISubscription
}

// Engine bridges one simulated radio to an external peer over UDP.
//
// Frames the attached radio emits on its medium are encoded as outbound
// packets and sent to the peer. Inbound packets from the peer retune the
// attached radio and are delivered to it. At most one radio is attached at a
// time.
type Engine struct {
	id        string
	config    Config
	transport transport.Transport

	// binding is read lock-free by the frame callback and the receive loop.
	// Writers hold mu.
	binding atomic.Pointer[binding]
	mu      sync.Mutex

	state        atomic.Int32
	shutdownOnce sync.Once

	forwarded  atomic.Uint64
	injected   atomic.Uint64
	ignored    atomic.Uint64
	unbound    atomic.Uint64
	sendErrors atomic.Uint64
}

// New binds the inbound socket, starts the receive loop and returns a running
// engine. Failure to bind is returned to the caller.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	remote, err := net.ResolveUDPAddr("udp", cfg.OutboundAddr())
	if err != nil {
		return nil, fmt.Errorf("resolve outbound address %s: %w", cfg.OutboundAddr(), err)
	}

	tr, err := transport.NewUDPTransport(cfg.ListenAddr(), remote, cfg.transportOptions()...)
	if err != nil {
		return nil, err
	}

	return newWithTransport(cfg, tr), nil
}

// newWithTransport wires an engine onto an already running transport.
func newWithTransport(cfg Config, tr transport.Transport) *Engine {
	e := &Engine{
		id:        uuid.NewString(),
		config:    cfg,
		transport: tr,
	}
	e.state.Store(int32(StateRunning))
	tr.RegisterHandler(e.inject)

	logrus.WithFields(logrus.Fields{
		"function":  "bridge.New",
		"bridge_id": e.id,
		"listen":    tr.LocalAddr().String(),
		"peer":      tr.RemoteAddr().String(),
	}).Info("Radio bridge started")

	return e
}

// ID returns the engine's instance identifier used in log fields.
func (e *Engine) ID() string {
	return e.id
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// LocalAddr returns the address the inbound socket is bound to.
func (e *Engine) LocalAddr() net.Addr {
	return e.transport.LocalAddr()
}

// Attached returns the attached radio, or nil when unbound.
func (e *Engine) Attached() interfaces.IRadio {
	if b := e.binding.Load(); b != nil {
		return b.radio
	}
	return nil
}

// Attach binds the engine to radio on medium and subscribes to the medium's
// frame events. It fails with ErrAlreadyAttached if a radio is already bound;
// the caller must Detach first.
func (e *Engine) Attach(medium interfaces.IMedium, radio interfaces.IRadio) error {
	if medium == nil || radio == nil {
		return ErrNilCollaborator
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.State() == StateStopped {
		return ErrStopped
	}
	if e.binding.Load() != nil {
		logrus.WithFields(logrus.Fields{
			"function":  "Engine.Attach",
			"bridge_id": e.id,
		}).Warn("Attach rejected, bridge already attached")
		return ErrAlreadyAttached
	}

	b := &binding{medium: medium, radio: radio}
	b.sub = medium.Subscribe(e.onFrameEmitted)
	e.binding.Store(b)

	logrus.WithFields(logrus.Fields{
		"function":  "Engine.Attach",
		"bridge_id": e.id,
		"channel":   radio.Channel(),
	}).Info("Bridge attached to radio")

	return nil
}

// Detach unsubscribes from the medium and clears the binding. It is a no-op
// when nothing is attached.
func (e *Engine) Detach() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.detachLocked()
}

func (e *Engine) detachLocked() {
	b := e.binding.Swap(nil)
	if b == nil {
		return
	}
	b.sub.Unsubscribe()

	logrus.WithFields(logrus.Fields{
		"function":  "Engine.Detach",
		"bridge_id": e.id,
	}).Info("Bridge detached from radio")
}

// Shutdown stops the engine: it detaches any radio, stops the receive loop
// with a bounded wait, and closes both sockets. Only the first call has any
// effect; later calls return nil.
func (e *Engine) Shutdown() error {
	var err error
	e.shutdownOnce.Do(func() {
		e.mu.Lock()
		e.state.Store(int32(StateStopped))
		e.detachLocked()
		e.mu.Unlock()

		err = e.transport.Close()

		logrus.WithFields(logrus.Fields{
			"function":  "Engine.Shutdown",
			"bridge_id": e.id,
			"forwarded": e.forwarded.Load(),
			"injected":  e.injected.Load(),
		}).Info("Radio bridge stopped")
	})
	return err
}

// onFrameEmitted is subscribed to the medium. Frames from any radio other
// than the attached one are ignored, which also covers events still in
// flight when Detach ran.
func (e *Engine) onFrameEmitted(event interfaces.FrameEvent) {
	b := e.binding.Load()
	if b == nil || event.Sender != b.radio {
		e.ignored.Add(1)
		logrus.WithFields(logrus.Fields{
			"function":  "Engine.onFrameEmitted",
			"bridge_id": e.id,
			"source":    event.Source,
		}).Debug("Ignoring frame from unattached radio")
		return
	}

	packet := &transport.Packet{
		Direction: transport.DirectionOutbound,
		Channel:   event.Sender.Channel(),
		Payload:   event.Frame,
	}

	if err := e.transport.Send(packet); err != nil {
		e.sendErrors.Add(1)
		entry := logrus.WithFields(logrus.Fields{
			"function":  "Engine.onFrameEmitted",
			"bridge_id": e.id,
			"packet":    packet.String(),
			"error":     err.Error(),
		})
		if errors.Is(err, transport.ErrTransportClosed) {
			entry.Debug("Dropping frame, transport closed")
			return
		}
		entry.Warn("Failed to forward frame to peer")
		return
	}

	e.forwarded.Add(1)
	logrus.WithFields(logrus.Fields{
		"function":  "Engine.onFrameEmitted",
		"bridge_id": e.id,
		"channel":   packet.Channel,
		"size":      len(packet.Payload),
	}).Debug("Forwarded frame to peer")
}

// inject is the transport's packet handler. It runs on the receive loop.
func (e *Engine) inject(packet *transport.Packet, from net.Addr) error {
	b := e.binding.Load()
	if b == nil {
		e.unbound.Add(1)
		logrus.WithFields(logrus.Fields{
			"function":  "Engine.inject",
			"bridge_id": e.id,
			"packet":    packet.String(),
			"from":      from.String(),
		}).Warn("Dropping inbound frame, no radio attached")
		return nil
	}

	b.radio.SetChannel(packet.Channel)
	b.radio.ReceiveFrame(packet.Payload, from.String())
	e.injected.Add(1)

	logrus.WithFields(logrus.Fields{
		"function":  "Engine.inject",
		"bridge_id": e.id,
		"channel":   packet.Channel,
		"size":      len(packet.Payload),
		"from":      from.String(),
	}).Debug("Injected frame into radio")

	return nil
}
