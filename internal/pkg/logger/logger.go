package logger

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexoraai/nexora_server/config"
)

var log = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stdout
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Init configures the shared logger from config. Release mode always logs JSON.
func Init(cfg config.LogConfig, mode string) {
	if level, err := logrus.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
		log.SetLevel(level)
	}

	if cfg.Format == "json" || mode == "release" {
		log.Formatter = &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	} else {
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	}
}

// L returns the shared logger.
func L() *logrus.Logger {
	return log
}

// WithComponent returns an entry tagged with the calling component.
func WithComponent(name string) *logrus.Entry {
	return log.WithField("component", name)
}
