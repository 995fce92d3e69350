// Package logger builds the zerolog logger shared by the HTTP layer and the broker client.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the output format and the minimum level.
type Config struct {
	Level   string // debug, info, warn, error; unknown values mean info
	Console bool   // human readable output instead of JSON lines
	Output  io.Writer
}

// New returns a logger with timestamps. Output defaults to stdout.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Nop discards everything; used by tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
