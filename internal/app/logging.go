package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// LoggerConfig configures NewLogger.
type LoggerConfig struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string

	// Format is "text" or "json". Default: text.
	Format string

	// Output is where logs are written. Default: stderr.
	Output io.Writer
}

// ParseLogLevel parses a level name. Unknown or empty names are Info.
func ParseLogLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// NewLogger creates a logger from cfg.
func NewLogger(cfg LoggerConfig) (*logrus.Logger, error) {
	log := logrus.New()

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)
	log.SetLevel(ParseLogLevel(cfg.Level))

	switch strings.ToLower(cfg.Format) {
	case "", LogFormatText:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case LogFormatJSON:
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return log, nil
}

// discardLogger returns a logger that writes nowhere.
func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
