package transport

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPeer opens a loopback socket standing in for the external peer.
func newTestPeer(t *testing.T) net.PacketConn {
	t.Helper()
	peer, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { peer.Close() })
	return peer
}

// newTestTransport starts a transport on an ephemeral loopback port that
// sends to peer.
func newTestTransport(t *testing.T, peer net.PacketConn) *UDPTransport {
	t.Helper()
	tr, err := NewUDPTransport("127.0.0.1:0", peer.LocalAddr(), WithPollInterval(20*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

// readFromPeer reads one datagram from the peer socket with a deadline.
func readFromPeer(t *testing.T, peer net.PacketConn) []byte {
	t.Helper()
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 2048)
	n, _, err := peer.ReadFrom(buf)
	require.NoError(t, err)
	return buf[:n]
}

type packetRecorder struct {
	mu      sync.Mutex
	packets []*Packet
}

func (r *packetRecorder) handle(packet *Packet, _ net.Addr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packets = append(r.packets, packet)
	return nil
}

func (r *packetRecorder) snapshot() []*Packet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Packet(nil), r.packets...)
}

func TestUDPTransportSend(t *testing.T) {
	peer := newTestPeer(t)
	tr := newTestTransport(t, peer)

	err := tr.Send(&Packet{Direction: DirectionOutbound, Channel: 37, Payload: []byte{0xAA, 0xBB}})
	require.NoError(t, err)

	assert.Equal(t, []byte{0x01, 0x25, 0x02, 0x00, 0xAA, 0xBB}, readFromPeer(t, peer))
	assert.Equal(t, uint64(1), tr.Counters().Sent)
	assert.Equal(t, peer.LocalAddr(), tr.RemoteAddr())
}

func TestUDPTransportSendRejectsOversizedPayload(t *testing.T) {
	peer := newTestPeer(t)
	tr := newTestTransport(t, peer)

	err := tr.Send(&Packet{Direction: DirectionOutbound, Payload: make([]byte, 70000)})
	assert.Error(t, err)
	assert.Equal(t, uint64(1), tr.Counters().SendErrors)
}

func TestUDPTransportDispatchesInbound(t *testing.T) {
	peer := newTestPeer(t)
	tr := newTestTransport(t, peer)

	rec := &packetRecorder{}
	tr.RegisterHandler(rec.handle)

	_, err := peer.WriteTo([]byte{0x02, 0x05, 0x03, 0x00, 0x11, 0x22, 0x33}, tr.LocalAddr())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)

	got := rec.snapshot()[0]
	assert.Equal(t, DirectionInbound, got.Direction)
	assert.Equal(t, uint8(5), got.Channel)
	assert.Equal(t, []byte{0x11, 0x22, 0x33}, got.Payload)
}

func TestUDPTransportPreservesArrivalOrder(t *testing.T) {
	peer := newTestPeer(t)
	tr := newTestTransport(t, peer)

	rec := &packetRecorder{}
	tr.RegisterHandler(rec.handle)

	for i := 0; i < 20; i++ {
		_, err := peer.WriteTo([]byte{0x02, byte(i), 0x01, 0x00, byte(i)}, tr.LocalAddr())
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 20 }, 2*time.Second, 10*time.Millisecond)
	for i, p := range rec.snapshot() {
		assert.Equal(t, uint8(i), p.Channel)
	}
}

func TestUDPTransportDropsMalformed(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(logrus.InfoLevel)

	peer := newTestPeer(t)
	tr := newTestTransport(t, peer)

	rec := &packetRecorder{}
	tr.RegisterHandler(rec.handle)

	datagrams := [][]byte{
		{0x02, 0x05},                         // too short
		{0x02, 0x05, 0x05, 0x00, 0x11},       // truncated
		{0x01, 0x25, 0x02, 0x00, 0xAA, 0xBB}, // our own outbound marker
	}
	for _, d := range datagrams {
		_, err := peer.WriteTo(d, tr.LocalAddr())
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return tr.Counters().Dropped() == 3 }, 2*time.Second, 10*time.Millisecond)

	c := tr.Counters()
	assert.Equal(t, uint64(1), c.TooShort)
	assert.Equal(t, uint64(1), c.Truncated)
	assert.Equal(t, uint64(1), c.UnknownType)
	assert.Empty(t, rec.snapshot())

	var warnings int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings, "short and truncated packets are warnings, unknown type is debug")
}

func TestUDPTransportCloseIsIdempotent(t *testing.T) {
	peer := newTestPeer(t)
	tr, err := NewUDPTransport("127.0.0.1:0", peer.LocalAddr(), WithPollInterval(20*time.Millisecond))
	require.NoError(t, err)

	assert.NoError(t, tr.Close())
	assert.NoError(t, tr.Close())

	select {
	case <-tr.Done():
	default:
		t.Fatal("receive loop still running after Close")
	}

	err = tr.Send(&Packet{Direction: DirectionOutbound, Payload: []byte{1}})
	assert.ErrorIs(t, err, ErrTransportClosed)
}

func TestUDPTransportCloseUnblocksLongPoll(t *testing.T) {
	peer := newTestPeer(t)
	tr, err := NewUDPTransport("127.0.0.1:0", peer.LocalAddr(),
		WithPollInterval(time.Minute),
		WithShutdownTimeout(50*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, tr.Close())

	select {
	case <-tr.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("receive loop did not exit after sockets were closed")
	}
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestUDPTransportBindFailure(t *testing.T) {
	peer := newTestPeer(t)
	first := newTestTransport(t, peer)

	_, err := NewUDPTransport(first.LocalAddr().String(), peer.LocalAddr())
	assert.Error(t, err)
}

func TestUDPTransportRequiresRemote(t *testing.T) {
	_, err := NewUDPTransport("127.0.0.1:0", nil)
	assert.Error(t, err)
}

func TestUDPTransportAcceptOutbound(t *testing.T) {
	bridgeSide := newTestPeer(t)
	peerSide, err := NewUDPTransport("127.0.0.1:0", bridgeSide.LocalAddr(),
		WithPollInterval(20*time.Millisecond),
		WithAcceptDirection(DirectionOutbound))
	require.NoError(t, err)
	defer peerSide.Close()

	rec := &packetRecorder{}
	peerSide.RegisterHandler(rec.handle)

	_, err = bridgeSide.WriteTo([]byte{0x02, 0x05, 0x01, 0x00, 0x11}, peerSide.LocalAddr())
	require.NoError(t, err)
	_, err = bridgeSide.WriteTo([]byte{0x01, 0x25, 0x02, 0x00, 0xAA, 0xBB}, peerSide.LocalAddr())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	got := rec.snapshot()[0]
	assert.Equal(t, DirectionOutbound, got.Direction)
	assert.Equal(t, uint8(37), got.Channel)
	require.Eventually(t, func() bool { return peerSide.Counters().UnknownType == 1 }, 2*time.Second, 10*time.Millisecond)
}
