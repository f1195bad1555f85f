package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/opd-ai/radiobridge/bridge"
	"github.com/opd-ai/radiobridge/transport"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// bleAdvAccessAddress is the BLE advertising access address. Frames that
// start with it (little-endian) are labeled "advertising" in peer output.
const bleAdvAccessAddress = 0x8E89BED6

type peerOptions struct {
	listen     string
	bridgeHost string
	echo       bool
}

func newPeerCmd(c *cli) *cobra.Command {
	opts := &peerOptions{}

	cmd := &cobra.Command{
		Use:   "peer",
		Short: "Act as the external peer: print frames from the bridge",
		Long: `peer listens where the bridge sends outbound frames (outbound-host:outbound-port
by default), prints each frame, and with --echo sends it straight back to
the bridge as an inbound frame on the same channel.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			listen := opts.listen
			if listen == "" {
				listen = c.cfg.Bridge.OutboundAddr()
			}
			bridgeAddr := net.JoinHostPort(opts.bridgeHost, strconv.Itoa(int(c.cfg.Bridge.InboundPort)))

			return runPeer(ctx, c.cfg.Bridge, listen, bridgeAddr, opts.echo, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.listen, "listen", "", "address to receive outbound frames on (default outbound-host:outbound-port)")
	flags.StringVar(&opts.bridgeHost, "bridge-host", "127.0.0.1", "host of the bridge inbound socket")
	flags.BoolVar(&opts.echo, "echo", false, "send every received frame back to the bridge")

	return cmd
}

// runPeer receives outbound frames on listen until ctx is cancelled.
func runPeer(ctx context.Context, cfg bridge.Config, listen, bridgeAddr string, echo bool, out io.Writer) error {
	remote, err := net.ResolveUDPAddr("udp", bridgeAddr)
	if err != nil {
		return fmt.Errorf("resolve bridge address %s: %w", bridgeAddr, err)
	}

	tr, err := transport.NewUDPTransport(listen, remote,
		transport.WithAcceptDirection(transport.DirectionOutbound),
		transport.WithPollInterval(cfg.PollInterval),
		transport.WithShutdownTimeout(cfg.ShutdownTimeout))
	if err != nil {
		return fmt.Errorf("start peer: %w", err)
	}
	defer tr.Close()

	tr.RegisterHandler(peerHandler(tr, echo, out))

	logrus.WithFields(logrus.Fields{
		"function": "runPeer",
		"listen":   tr.LocalAddr().String(),
		"bridge":   remote.String(),
		"echo":     echo,
	}).Info("Peer listening for bridge frames")

	<-ctx.Done()

	if err := tr.Close(); err != nil {
		logrus.WithError(err).Warn("Peer transport close reported an error")
	}

	counters := tr.Counters()
	logrus.WithFields(logrus.Fields{
		"function": "runPeer",
		"received": counters.Dispatched,
		"echoed":   counters.Sent,
		"dropped":  counters.Dropped(),
	}).Info("Peer stopped")
	return nil
}

// peerHandler prints each frame and optionally echoes it back inbound.
func peerHandler(tr transport.Transport, echo bool, out io.Writer) transport.PacketHandler {
	return func(packet *transport.Packet, from net.Addr) error {
		fmt.Fprintf(out, "ch=%-3d len=%-5d %-11s % X\n",
			packet.Channel, len(packet.Payload), frameKind(packet.Payload), packet.Payload)

		if !echo {
			return nil
		}
		return tr.Send(&transport.Packet{
			Direction: transport.DirectionInbound,
			Channel:   packet.Channel,
			Payload:   packet.Payload,
		})
	}
}

// frameKind labels a frame for display only; no link-layer state is kept.
func frameKind(frame []byte) string {
	if len(frame) >= 4 && binary.LittleEndian.Uint32(frame[:4]) == bleAdvAccessAddress {
		return "advertising"
	}
	return "data"
}
