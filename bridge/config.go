package bridge

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/opd-ai/radiobridge/limits"
	"github.com/opd-ai/radiobridge/transport"
)

const (
	// DefaultInboundPort is where the bridge listens for frames from the peer.
	DefaultInboundPort = 5000
	// DefaultOutboundPort is where the bridge sends frames for the peer.
	DefaultOutboundPort = 5001
	// DefaultOutboundHost is the peer host.
	DefaultOutboundHost = "127.0.0.1"
)

var (
	// ErrInvalidConfig is wrapped by every Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid bridge config")
)

// Config holds the engine configuration. It is copied into the engine at
// construction and never changes afterwards.
type Config struct {
	// ListenHost is the address the inbound socket binds to. Empty means all
	// interfaces.
	ListenHost string

	// InboundPort is the UDP port the bridge listens on. Zero picks an
	// ephemeral port.
	InboundPort uint16

	// OutboundHost is the peer host outbound frames are sent to.
	OutboundHost string

	// OutboundPort is the peer port outbound frames are sent to.
	OutboundPort uint16

	// PollInterval bounds each blocking read of the receive loop.
	PollInterval time.Duration

	// ShutdownTimeout bounds how long Shutdown waits for the receive loop.
	ShutdownTimeout time.Duration

	// ReadBufferSize is the inbound receive buffer size in bytes.
	ReadBufferSize int
}

// DefaultConfig returns the configuration used when nothing is overridden:
// listen on 5000, send to 127.0.0.1:5001.
func DefaultConfig() Config {
	return Config{
		InboundPort:     DefaultInboundPort,
		OutboundHost:    DefaultOutboundHost,
		OutboundPort:    DefaultOutboundPort,
		PollInterval:    transport.DefaultPollInterval,
		ShutdownTimeout: transport.DefaultShutdownTimeout,
		ReadBufferSize:  limits.DefaultReadBuffer,
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.OutboundHost == "" {
		return fmt.Errorf("%w: outbound host cannot be empty", ErrInvalidConfig)
	}
	if c.OutboundPort == 0 {
		return fmt.Errorf("%w: outbound port must be between 1 and 65535", ErrInvalidConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", ErrInvalidConfig)
	}
	if err := limits.ValidateReadBuffer(c.ReadBufferSize); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ListenAddr returns the host:port the inbound socket binds to.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.ListenHost, strconv.Itoa(int(c.InboundPort)))
}

// OutboundAddr returns the host:port outbound frames are sent to.
func (c Config) OutboundAddr() string {
	return net.JoinHostPort(c.OutboundHost, strconv.Itoa(int(c.OutboundPort)))
}

// transportOptions maps the config onto UDP transport options.
func (c Config) transportOptions() []transport.UDPOption {
	return []transport.UDPOption{
		transport.WithPollInterval(c.PollInterval),
		transport.WithShutdownTimeout(c.ShutdownTimeout),
		transport.WithReadBufferSize(c.ReadBufferSize),
	}
}
