package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the root logger for one binary. Every entry carries the
// binary name under "cmd" so api and seed output can share a sink.
func NewLogger(cfg LoggerConfig, cmd string) zerolog.Logger {
	return newLogger(cfg, cmd, os.Stdout)
}

func newLogger(cfg LoggerConfig, cmd string, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("cmd", cmd).
		Logger()
}
