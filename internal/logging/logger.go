//-------------------------------------------------------------------------
//
// Fourth Coffee Commerce Lab
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package logging provides structured logging for fc-commerce.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Config holds logging configuration.
type Config struct {
	Level  string
	Pretty bool

	// TimeFormat applies to console output; JSON lines use RFC3339.
	TimeFormat string

	// Output overrides the destination; stderr when nil.
	Output io.Writer
}

// DefaultConfig returns the logging configuration used before the
// config file has been read.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Pretty:     true,
		TimeFormat: time.TimeOnly,
	}
}

// Init replaces the global logger.
func Init(cfg Config) {
	Logger = New(cfg)
}

// New builds a logger without touching the global one.
func New(cfg Config) zerolog.Logger {
	var out io.Writer = os.Stderr
	if cfg.Output != nil {
		out = cfg.Output
	}

	if cfg.Pretty {
		format := cfg.TimeFormat
		if format == "" {
			format = time.TimeOnly
		}
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: format}
	}

	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to a zerolog level. Unknown or empty names
// mean info.
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Redact keeps the first few characters of a secret for recognition and
// masks the rest.
func Redact(secret string) string {
	const keep = 8
	if secret == "" {
		return ""
	}
	if len(secret) <= keep {
		return "****"
	}
	return secret[:keep] + "****"
}

func Debug() *zerolog.Event { return Logger.Debug() }
func Info() *zerolog.Event { return Logger.Info() }
func Warn() *zerolog.Event { return Logger.Warn() }
func Error() *zerolog.Event { return Logger.Error() }
func Fatal() *zerolog.Event { return Logger.Fatal() }

func init() {
	Init(DefaultConfig())
}
