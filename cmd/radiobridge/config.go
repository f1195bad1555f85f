package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opd-ai/radiobridge/bridge"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. RADIOBRIDGE_INBOUND_PORT.
const envPrefix = "RADIOBRIDGE"

// appConfig is everything the commands need, resolved from defaults, config
// file, environment and flags in increasing order of precedence.
type appConfig struct {
	Bridge bridge.Config
	Log    logConfig
}

// logConfig controls logrus output.
type logConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// setDefaults registers every key with its default so environment variables
// are honored even for keys no flag is bound to.
func setDefaults(v *viper.Viper) {
	defaults := bridge.DefaultConfig()

	v.SetDefault("listen_host", defaults.ListenHost)
	v.SetDefault("inbound_port", defaults.InboundPort)
	v.SetDefault("outbound_host", defaults.OutboundHost)
	v.SetDefault("outbound_port", defaults.OutboundPort)
	v.SetDefault("poll_interval", defaults.PollInterval)
	v.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)
	v.SetDefault("read_buffer", defaults.ReadBufferSize)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
}

// addConfigFlags registers the persistent flags shared by every command.
func addConfigFlags(flags *pflag.FlagSet) {
	defaults := bridge.DefaultConfig()

	flags.StringP("config", "c", "", "config file (TOML, YAML or JSON)")

	flags.String("listen-host", defaults.ListenHost, "address the bridge inbound socket binds to (empty = all)")
	flags.Uint16("inbound-port", defaults.InboundPort, "UDP port the bridge listens on for frames from the peer")
	flags.String("outbound-host", defaults.OutboundHost, "peer host the bridge sends frames to")
	flags.Uint16("outbound-port", defaults.OutboundPort, "peer UDP port the bridge sends frames to")
	flags.Duration("poll-interval", defaults.PollInterval, "receive loop read timeout")
	flags.Duration("shutdown-timeout", defaults.ShutdownTimeout, "how long shutdown waits for the receive loop")

	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("log-file", "", "log file path, rotated automatically (default: stderr)")
}

// bindFlags maps flag names onto config keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"config":           "config",
		"listen_host":      "listen-host",
		"inbound_port":     "inbound-port",
		"outbound_host":    "outbound-host",
		"outbound_port":    "outbound-port",
		"poll_interval":    "poll-interval",
		"shutdown_timeout": "shutdown-timeout",
		"log.level":        "log-level",
		"log.format":       "log-format",
		"log.file":         "log-file",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// initViper sets defaults, environment handling and the config file, then
// reads the file if one was given.
func initViper(v *viper.Viper) error {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfgFile := v.GetString("config")
	if cfgFile == "" {
		return nil
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	return nil
}

// loadConfig resolves the application config from v.
func loadConfig(v *viper.Viper) (*appConfig, error) {
	inbound, err := portValue(v, "inbound_port")
	if err != nil {
		return nil, err
	}
	outbound, err := portValue(v, "outbound_port")
	if err != nil {
		return nil, err
	}

	cfg := &appConfig{
		Bridge: bridge.Config{
			ListenHost:      v.GetString("listen_host"),
			InboundPort:     inbound,
			OutboundHost:    v.GetString("outbound_host"),
			OutboundPort:    outbound,
			PollInterval:    v.GetDuration("poll_interval"),
			ShutdownTimeout: v.GetDuration("shutdown_timeout"),
			ReadBufferSize:  v.GetInt("read_buffer"),
		},
		Log: logConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
			Compress:   v.GetBool("log.compress"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateConfig validates the application configuration.
func validateConfig(cfg *appConfig) error {
	if err := cfg.Bridge.Validate(); err != nil {
		return err
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", cfg.Log.Format)
	}
	if cfg.Log.MaxSizeMB <= 0 {
		return errors.New("log max size must be positive")
	}
	return nil
}

// portValue reads a UDP port, rejecting values that do not fit in 16 bits.
func portValue(v *viper.Viper, key string) (uint16, error) {
	port := v.GetInt(key)
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("invalid %s %d: must be between 0 and 65535", key, port)
	}
	return uint16(port), nil
}
