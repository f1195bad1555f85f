package main

import (
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/opd-ai/radiobridge/transport"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type sendOptions struct {
	channel    uint8
	bridgeHost string
}

func newSendCmd(c *cli) *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send HEX",
		Short: "Send one inbound frame to the bridge",
		Example: `  radiobridge send --channel 5 112233
  radiobridge send --channel 37 "D6 BE 89 8E 00"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := parseHexFrame(args[0])
			if err != nil {
				return err
			}
			addr := net.JoinHostPort(opts.bridgeHost, strconv.Itoa(int(c.cfg.Bridge.InboundPort)))
			return sendFrame(addr, opts.channel, frame)
		},
	}

	flags := cmd.Flags()
	flags.Uint8Var(&opts.channel, "channel", 37, "channel to deliver the frame on")
	flags.StringVar(&opts.bridgeHost, "bridge-host", "127.0.0.1", "host of the bridge inbound socket")

	return cmd
}

// sendFrame encodes frame as an inbound packet and sends it to addr.
func sendFrame(addr string, channel uint8, frame []byte) error {
	data, err := transport.Encode(transport.DirectionInbound, channel, frame)
	if err != nil {
		return err
	}

	conn, err := net.Dial("udp", addr)
	if err != nil {
		return fmt.Errorf("dial bridge %s: %w", addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("send to bridge %s: %w", addr, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "sendFrame",
		"bridge":   addr,
		"channel":  channel,
		"size":     len(frame),
	}).Info("Frame sent to bridge")
	return nil
}

// parseHexFrame decodes hex with optional 0x prefix and space, colon or dash
// separators.
func parseHexFrame(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.NewReplacer(" ", "", ":", "", "-", "").Replace(s)

	frame, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex frame: %w", err)
	}
	return frame, nil
}
