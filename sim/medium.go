package sim

import (
	"sync"
	"time"

	"github.com/opd-ai/radiobridge/interfaces"
	"github.com/sirupsen/logrus"
)

// Medium is an in-memory shared transmission environment. Every frame a
// radio transmits is announced synchronously to all subscribers.
type Medium struct {
	subscribers map[uint64]interfaces.FrameHandler
	nextID      uint64
	transmitLog []TransmitRecord
	mu          sync.RWMutex
}

// TransmitRecord represents a frame emission for test verification.
type TransmitRecord struct {
	Source    string
	Sender    interfaces.IRadio
	FrameSize int
	Notified  int
	Timestamp time.Time
}

// NewMedium creates an empty medium.
func NewMedium() *Medium {
	return &Medium{
		subscribers: make(map[uint64]interfaces.FrameHandler),
	}
}

// Subscribe implements IMedium.Subscribe.
func (m *Medium) Subscribe(handler interfaces.FrameHandler) interfaces.ISubscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.subscribers[id] = handler

	logrus.WithFields(logrus.Fields{
		"function":      "Medium.Subscribe",
		"subscription":  id,
		"total_handler": len(m.subscribers),
	}).Debug("Handler subscribed to medium")

	return &subscription{medium: m, id: id}
}

// Transmit raises a frame event for sender and returns the number of
// handlers notified. Handlers run on the calling goroutine, outside the
// medium's lock, so a handler may unsubscribe itself.
func (m *Medium) Transmit(source string, sender interfaces.IRadio, frame []byte) int {
	m.mu.RLock()
	handlers := make([]interfaces.FrameHandler, 0, len(m.subscribers))
	for _, h := range m.subscribers {
		handlers = append(handlers, h)
	}
	m.mu.RUnlock()

	event := interfaces.FrameEvent{Source: source, Sender: sender, Frame: frame}
	for _, h := range handlers {
		h(event)
	}

	m.mu.Lock()
	m.transmitLog = append(m.transmitLog, TransmitRecord{
		Source:    source,
		Sender:    sender,
		FrameSize: len(frame),
		Notified:  len(handlers),
		Timestamp: time.Now(),
	})
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":   "Medium.Transmit",
		"source":     source,
		"frame_size": len(frame),
		"notified":   len(handlers),
	}).Debug("Frame processed by medium")

	return len(handlers)
}

// Subscribers returns the number of registered handlers.
func (m *Medium) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}

// GetTransmitLog returns a copy of every emission seen by the medium.
func (m *Medium) GetTransmitLog() []TransmitRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	log := make([]TransmitRecord, len(m.transmitLog))
	copy(log, m.transmitLog)
	return log
}

func (m *Medium) unsubscribe(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.subscribers, id)

	logrus.WithFields(logrus.Fields{
		"function":      "Medium.unsubscribe",
		"subscription":  id,
		"total_handler": len(m.subscribers),
	}).Debug("Handler unsubscribed from medium")
}

type subscription struct {
	medium *Medium
	id     uint64
	once   sync.Once
}

// Unsubscribe implements ISubscription.Unsubscribe.
func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.medium.unsubscribe(s.id)
	})
}
