package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cli carries state shared by the subcommands of one invocation.
type cli struct {
	v       *viper.Viper
	cfg     *appConfig
	logFile io.Closer
}

// newRootCmd builds the command tree. Each call returns an independent tree
// with its own viper instance.
func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "radiobridge",
		Short: "Bridge simulated radio frames to an external peer over UDP",
		Long: `radiobridge exchanges low-level radio frames between a simulated radio
and an external process using a length-prefixed UDP protocol:

  [Type:1][Channel:1][Length:2 LE][Payload]
  Type 0x01 = outbound (from simulation), 0x02 = inbound (to simulation)

By default the bridge listens on UDP 5000 and sends to 127.0.0.1:5001.
Every setting can come from flags, RADIOBRIDGE_* environment variables
or a config file.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) { c.teardown() },
	}

	addConfigFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(c),
		newPeerCmd(c),
		newSendCmd(c),
		newVersionCmd(),
	)

	return root
}

// setup resolves configuration and logging before any subcommand runs.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if err := bindFlags(c.v, cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	if err := initViper(c.v); err != nil {
		return err
	}

	cfg, err := loadConfig(c.v)
	if err != nil {
		return err
	}
	c.cfg = cfg

	closer, err := setupLogging(cfg.Log)
	if err != nil {
		return err
	}
	c.logFile = closer

	watchLogLevel(c.v)
	return nil
}

func (c *cli) teardown() {
	if c.logFile != nil {
		c.logFile.Close()
	}
}
