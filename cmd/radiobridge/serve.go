package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/radiobridge/bridge"
	"github.com/opd-ai/radiobridge/sim"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	radioName      string
	channel        uint8
	beaconInterval time.Duration
	beaconHex      string
}

func newServeCmd(c *cli) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge attached to a simulated radio",
		Long: `serve starts the bridge engine and attaches it to an in-process simulated
radio. Frames injected by the peer are logged as the radio receives them.
With --beacon-interval the radio also emits --beacon-hex periodically, which
the bridge forwards to the peer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, c.cfg.Bridge, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.radioName, "radio-name", "sim-radio", "name of the simulated radio")
	flags.Uint8Var(&opts.channel, "channel", 37, "initial radio channel")
	flags.DurationVar(&opts.beaconInterval, "beacon-interval", 0, "emit the beacon frame at this interval (0 = off)")
	flags.StringVar(&opts.beaconHex, "beacon-hex", "D6BE898E00", "beacon frame as hex")

	return cmd
}

// runServe runs the bridge until ctx is cancelled.
func runServe(ctx context.Context, cfg bridge.Config, opts *serveOptions) error {
	var beacon []byte
	if opts.beaconInterval > 0 {
		frame, err := parseHexFrame(opts.beaconHex)
		if err != nil {
			return fmt.Errorf("invalid beacon: %w", err)
		}
		beacon = frame
	}

	engine, err := bridge.New(cfg)
	if err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}
	defer engine.Shutdown()

	medium := sim.NewMedium()
	radio := sim.NewRadio(opts.radioName, opts.channel)
	radio.OnReceive(func(rx sim.Reception) {
		logrus.WithFields(logrus.Fields{
			"function": "runServe",
			"radio":    opts.radioName,
			"channel":  rx.Channel,
			"source":   rx.Source,
			"frame":    fmt.Sprintf("% X", rx.Frame),
		}).Info("Radio received frame")
	})

	if err := engine.Attach(medium, radio); err != nil {
		return fmt.Errorf("attach radio: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "runServe",
		"listen":   engine.LocalAddr().String(),
		"peer":     cfg.OutboundAddr(),
		"radio":    opts.radioName,
		"channel":  opts.channel,
	}).Info("Bridge serving, press Ctrl+C to stop")

	if beacon != nil {
		go runBeacon(ctx, medium, radio, beacon, opts.beaconInterval)
	}

	<-ctx.Done()

	engine.Detach()
	if err := engine.Shutdown(); err != nil {
		logrus.WithError(err).Warn("Bridge shutdown reported an error")
	}
	logStats(engine.Stats())
	return nil
}

// runBeacon makes radio emit frame every interval until ctx is cancelled.
func runBeacon(ctx context.Context, medium *sim.Medium, radio *sim.Radio, frame []byte, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			radio.Transmit(medium, frame)
		}
	}
}

func logStats(s bridge.Stats) {
	logrus.WithFields(logrus.Fields{
		"function":        "logStats",
		"state":           s.State.String(),
		"forwarded":       s.FramesForwarded,
		"injected":        s.FramesInjected,
		"ignored":         s.FramesIgnored,
		"inbound_unbound": s.InboundUnbound,
		"send_errors":     s.SendErrors,
		"received":        s.Transport.Received,
		"dropped":         s.Transport.Dropped(),
		"read_errors":     s.Transport.ReadErrors,
	}).Info("Bridge statistics")
}
