package config

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// ConfigureLogging applies level and format to the standard logrus logger.
// Unknown levels fall back to info.
func ConfigureLogging(cfg Log) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
