// Package logger provides structured logging for the ledger layer, backed by
// zerolog. Services accept a *Logger and fall back to NewDefault when nil.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggingConfig controls logger construction.
type LoggingConfig struct {
	Level  string // debug, info, warn, error (default info)
	Format string // json or console (default json)
	Output string // stdout, stderr, or a file path (default stdout)
}

// Logger wraps a zerolog.Logger with the field-chaining helpers used across
// the codebase.
type Logger struct {
	zl zerolog.Logger
}

// New constructs a logger from the given configuration. Invalid settings fall
// back to sane defaults rather than failing.
func New(cfg LoggingConfig) *Logger {
	var out io.Writer
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			out = os.Stdout
		} else {
			out = f
		}
	}

	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// NewDefault returns an info-level JSON logger tagged with a component name.
func NewDefault(component string) *Logger {
	zl := zerolog.New(os.Stdout).Level(zerolog.InfoLevel).With().
		Timestamp().Str("component", component).Logger()
	return &Logger{zl: zl}
}

// WithField returns a logger with an additional field attached.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// WithError returns a logger with the error attached.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().Err(err).Logger()}
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.zl.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.zl.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.zl.Error().Msgf(format, args...) }

// Fatalf logs at fatal level and exits the process.
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.zl.Fatal().Msg(fmt.Sprintf(format, args...))
}
