package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/radiobridge/limits"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultPollInterval bounds each blocking read so the receive loop
	// observes shutdown promptly.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultShutdownTimeout bounds how long Close waits for the receive loop.
	DefaultShutdownTimeout = time.Second
)

// UDPTransport owns the inbound (listening) and outbound (sending) UDP
// sockets of the bridge. It satisfies the Transport interface.
type UDPTransport struct {
	inbound  net.PacketConn
	outbound net.PacketConn
	remote   net.Addr
	accept   Direction
	handler  PacketHandler
	mu       sync.RWMutex

	running   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once

	pollInterval    time.Duration
	shutdownTimeout time.Duration
	bufferSize      int

	received    atomic.Uint64
	dispatched  atomic.Uint64
	tooShort    atomic.Uint64
	truncated   atomic.Uint64
	unknownType atomic.Uint64
	readErrors  atomic.Uint64
	sent        atomic.Uint64
	sendErrors  atomic.Uint64
}

// UDPOption customizes a UDPTransport.
type UDPOption func(*UDPTransport)

// WithPollInterval sets the read deadline used by the receive loop.
func WithPollInterval(d time.Duration) UDPOption {
	return func(t *UDPTransport) {
		if d > 0 {
			t.pollInterval = d
		}
	}
}

// WithShutdownTimeout sets how long Close waits for the receive loop to exit.
func WithShutdownTimeout(d time.Duration) UDPOption {
	return func(t *UDPTransport) {
		if d > 0 {
			t.shutdownTimeout = d
		}
	}
}

// WithReadBufferSize sets the receive buffer size.
func WithReadBufferSize(size int) UDPOption {
	return func(t *UDPTransport) {
		if size >= limits.HeaderSize {
			t.bufferSize = size
		}
	}
}

// WithAcceptDirection sets which packet type the receive loop accepts. The
// bridge accepts DirectionInbound, the default; a peer accepts
// DirectionOutbound.
func WithAcceptDirection(d Direction) UDPOption {
	return func(t *UDPTransport) {
		t.accept = d
	}
}

// NewUDPTransport binds the inbound socket to listenAddr, opens an outbound
// socket that sends to remote, and starts the receive loop. A bind failure
// is returned to the caller.
func NewUDPTransport(listenAddr string, remote net.Addr, opts ...UDPOption) (*UDPTransport, error) {
	if remote == nil {
		return nil, errors.New("remote address is nil")
	}

	inbound, err := net.ListenPacket("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("bind inbound socket %s: %w", listenAddr, err)
	}

	outbound, err := net.ListenPacket("udp", ":0")
	if err != nil {
		inbound.Close()
		return nil, fmt.Errorf("open outbound socket: %w", err)
	}

	t := &UDPTransport{
		inbound:         inbound,
		outbound:        outbound,
		remote:          remote,
		accept:          DirectionInbound,
		done:            make(chan struct{}),
		pollInterval:    DefaultPollInterval,
		shutdownTimeout: DefaultShutdownTimeout,
		bufferSize:      limits.DefaultReadBuffer,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.running.Store(true)

	logrus.WithFields(logrus.Fields{
		"function":    "NewUDPTransport",
		"listen_addr": inbound.LocalAddr().String(),
		"remote_addr": remote.String(),
		"poll":        t.pollInterval,
	}).Info("UDP transport started")

	go t.processPackets()

	return t, nil
}

// RegisterHandler sets the handler for decoded inbound packets.
func (t *UDPTransport) RegisterHandler(handler PacketHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.handler = handler
}

// Send encodes packet and writes it to the remote peer. It is safe to call
// concurrently with the receive loop and with other senders.
func (t *UDPTransport) Send(packet *Packet) error {
	if !t.running.Load() {
		return ErrTransportClosed
	}

	data, err := packet.Serialize()
	if err != nil {
		t.sendErrors.Add(1)
		return err
	}

	if _, err := t.outbound.WriteTo(data, t.remote); err != nil {
		t.sendErrors.Add(1)
		return fmt.Errorf("send to %s: %w", t.remote, err)
	}
	t.sent.Add(1)

	logrus.WithFields(logrus.Fields{
		"function": "UDPTransport.Send",
		"packet":   packet.String(),
		"remote":   t.remote.String(),
	}).Debug("Packet sent")

	return nil
}

// Close stops the receive loop and closes both sockets. It waits at most the
// shutdown timeout for the loop before closing the sockets regardless; a read
// still in flight then fails with net.ErrClosed, which the loop treats as an
// exit signal. Calls after the first return nil.
func (t *UDPTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.running.Store(false)

		timer := time.NewTimer(t.shutdownTimeout)
		defer timer.Stop()

		select {
		case <-t.done:
		case <-timer.C:
			logrus.WithFields(logrus.Fields{
				"function": "UDPTransport.Close",
				"timeout":  t.shutdownTimeout,
			}).Warn("Receive loop did not stop in time, closing sockets")
		}

		err = errors.Join(t.inbound.Close(), t.outbound.Close())

		logrus.WithFields(logrus.Fields{
			"function":    "UDPTransport.Close",
			"listen_addr": t.inbound.LocalAddr().String(),
		}).Info("UDP transport closed")
	})
	return err
}

// Done is closed once the receive loop has exited.
func (t *UDPTransport) Done() <-chan struct{} {
	return t.done
}

// LocalAddr returns the local address the inbound socket is bound to.
func (t *UDPTransport) LocalAddr() net.Addr {
	return t.inbound.LocalAddr()
}

// RemoteAddr returns the address outbound packets are sent to.
func (t *UDPTransport) RemoteAddr() net.Addr {
	return t.remote
}

// Counters returns a snapshot of traffic and drop counters.
func (t *UDPTransport) Counters() Counters {
	return Counters{
		Received:    t.received.Load(),
		Dispatched:  t.dispatched.Load(),
		TooShort:    t.tooShort.Load(),
		Truncated:   t.truncated.Load(),
		UnknownType: t.unknownType.Load(),
		ReadErrors:  t.readErrors.Load(),
		Sent:        t.sent.Load(),
		SendErrors:  t.sendErrors.Load(),
	}
}

// processPackets is the receive loop. It is the only reader of the inbound
// socket.
func (t *UDPTransport) processPackets() {
	defer close(t.done)

	buffer := make([]byte, t.bufferSize)

	for t.running.Load() {
		if !t.processIncomingPacket(buffer) {
			return
		}
	}
}

// processIncomingPacket reads and handles a single datagram. It returns false
// when the socket has been closed.
func (t *UDPTransport) processIncomingPacket(buffer []byte) bool {
	data, addr, err := t.readPacketData(buffer)
	if err != nil {
		return !errors.Is(err, net.ErrClosed)
	}

	packet, ok := t.parsePacketData(data, addr)
	if !ok {
		return true
	}

	t.dispatchPacketToHandler(packet, addr)
	return true
}

// readPacketData reads data from the connection with timeout handling.
func (t *UDPTransport) readPacketData(buffer []byte) ([]byte, net.Addr, error) {
	_ = t.inbound.SetReadDeadline(time.Now().Add(t.pollInterval))

	n, addr, err := t.inbound.ReadFrom(buffer)
	if err != nil {
		return nil, nil, t.handleReadError(err)
	}

	t.received.Add(1)
	return buffer[:n], addr, nil
}

// handleReadError classifies read errors. Timeouts are routine, a closed
// socket ends the loop, anything else is logged.
func (t *UDPTransport) handleReadError(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return err
	}

	t.readErrors.Add(1)
	logrus.WithFields(logrus.Fields{
		"function": "UDPTransport.readPacketData",
		"error":    err.Error(),
	}).Warn("Inbound receive failed")
	return err
}

// parsePacketData decodes a datagram, logging and counting anything that is
// not a usable inbound packet.
func (t *UDPTransport) parsePacketData(data []byte, addr net.Addr) (*Packet, bool) {
	packet, err := ParsePacketAs(data, t.accept)
	if err == nil {
		return packet, true
	}

	fields := logrus.Fields{
		"function": "UDPTransport.parsePacketData",
		"from":     addr.String(),
		"size":     len(data),
		"error":    err.Error(),
	}

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		logrus.WithFields(fields).Warn("Discarding inbound packet")
		return nil, false
	}

	switch decodeErr.Kind {
	case KindTooShort:
		t.tooShort.Add(1)
		logrus.WithFields(fields).Warn("Discarding short inbound packet")
	case KindTruncated:
		t.truncated.Add(1)
		logrus.WithFields(fields).Warn("Discarding truncated inbound packet")
	case KindUnknownType:
		t.unknownType.Add(1)
		logrus.WithFields(fields).Debug("Ignoring packet with unrecognized type")
	}
	return nil, false
}

// dispatchPacketToHandler runs the registered handler on the loop goroutine so
// inbound frames are delivered in arrival order.
func (t *UDPTransport) dispatchPacketToHandler(packet *Packet, addr net.Addr) {
	t.mu.RLock()
	handler := t.handler
	t.mu.RUnlock()

	if handler == nil {
		logrus.WithFields(logrus.Fields{
			"function": "UDPTransport.dispatchPacketToHandler",
			"packet":   packet.String(),
		}).Debug("No handler registered, dropping packet")
		return
	}

	t.dispatched.Add(1)
	if err := handler(packet, addr); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "UDPTransport.dispatchPacketToHandler",
			"packet":   packet.String(),
			"from":     addr.String(),
			"error":    err.Error(),
		}).Warn("Inbound packet handler failed")
	}
}
