package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// parseLevel accepts logrus level names in any case, plus "warn".
func parseLevel(level string) (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// setupLogging configures the standard logrus logger. The returned closer is
// nil unless logs go to a file.
func setupLogging(cfg logConfig) (io.Closer, error) {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(lvl)

	if strings.EqualFold(cfg.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
	}

	if cfg.File == "" {
		logrus.SetOutput(os.Stderr)
		return nil, nil
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	logrus.SetOutput(rotator)

	logrus.WithFields(logrus.Fields{
		"function":    "setupLogging",
		"file":        cfg.File,
		"max_size_mb": cfg.MaxSizeMB,
		"max_backups": cfg.MaxBackups,
	}).Info("Logging to rotating file")

	return rotator, nil
}

// watchLogLevel re-applies log.level whenever the config file changes. The
// bridge configuration itself is fixed at startup and is not reloaded.
func watchLogLevel(v *viper.Viper) {
	if v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		lvl, err := parseLevel(v.GetString("log.level"))
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "watchLogLevel",
				"file":     e.Name,
				"error":    err.Error(),
			}).Warn("Ignoring invalid log level from reloaded config")
			return
		}
		if lvl == logrus.GetLevel() {
			return
		}
		logrus.SetLevel(lvl)
		logrus.WithFields(logrus.Fields{
			"function": "watchLogLevel",
			"file":     e.Name,
			"level":    lvl.String(),
		}).Info("Log level updated from config file")
	})
	v.WatchConfig()
}
