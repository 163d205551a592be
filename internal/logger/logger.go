// Package logger provides the process-wide structured logger. Components
// derive their own sub-loggers from Get with a "component" field.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	once          sync.Once
)

// Init initializes the default logger exactly once. level accepts zerolog
// level names ("debug", "info", "warn", "error"); anything else falls back to
// info. When pretty is true the output is human-readable console text instead
// of JSON, for interactive CLI use.
func Init(level string, pretty bool) {
	once.Do(func() {
		lvl, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil || lvl == zerolog.NoLevel {
			lvl = zerolog.InfoLevel
		}
		var out io.Writer = os.Stderr
		if pretty {
			out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		}
		defaultLogger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	})
}

// Get returns the default logger, initializing it with defaults if Init was
// never called.
func Get() zerolog.Logger {
	Init("info", false)
	return defaultLogger
}

// Debug logs a debug message on the default logger.
func Debug(msg string) {
	l := Get()
	l.Debug().Msg(msg)
}

// Info logs an informational message on the default logger.
func Info(msg string) {
	l := Get()
	l.Info().Msg(msg)
}

// Warn logs a warning on the default logger.
func Warn(msg string) {
	l := Get()
	l.Warn().Msg(msg)
}

// Error logs an error with its cause on the default logger.
func Error(msg string, err error) {
	l := Get()
	l.Error().Err(err).Msg(msg)
}
