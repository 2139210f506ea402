// Package logger provides process-wide logging for siteassist.
// Warnings and errors are always written. When verbose mode is enabled via
// the --verbose flag, debug and info messages are written too, which shows
// how the resolver scores candidates and how calls move between states.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	log               = newLogger(os.Stderr, false)
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

func newLogger(w io.Writer, v bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if v {
		level = zerolog.DebugLevel
	}
	cw := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		PartsOrder: []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel: func(i any) string {
			if s, ok := i.(string); ok {
				return fmt.Sprintf("[%s]", levelTag(s))
			}
			return "[LOG]"
		},
	}
	return zerolog.New(cw).Level(level)
}

func levelTag(level string) string {
	switch level {
	case zerolog.LevelDebugValue:
		return "DEBUG"
	case zerolog.LevelInfoValue:
		return "INFO"
	case zerolog.LevelWarnValue:
		return "WARN"
	case zerolog.LevelErrorValue:
		return "ERROR"
	default:
		return "LOG"
	}
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	log = newLogger(output, v)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	log = newLogger(w, verbose)
}

// Debug logs a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Debug().Msgf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info logs an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Info().Msgf(format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Warn().Msgf(format, args...)
}

// Error logs err with a message. Errors built with github.com/pkg/errors
// include their stack trace.
func Error(err error, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if _, ok := err.(interface{ StackTrace() errors.StackTrace }); ok {
		log.Error().Stack().Err(err).Msgf(format, args...)
		return
	}
	log.Error().Err(err).Msgf(format, args...)
}
