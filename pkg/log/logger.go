// Package log provides structured logging for glassbox, backed by zerolog.
//
// Loggers take a message plus alternating key/value pairs:
//
//	logger := log.GetLoggerWithName("interaction")
//	logger.Info("scored pair", "feature1", i, "feature2", j, "strength", s)
package log

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger with a key/value call surface.
type Logger struct {
	zl zerolog.Logger
}

var (
	mu     sync.RWMutex
	global = newLogger(zerolog.New(os.Stderr).With().Timestamp().Logger())
)

func newLogger(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

// SetupLogger configures the global log level. Any level name zerolog
// parses ("trace", "debug", "info", "warn", "error", ...) is applied; an
// empty or unrecognized name sets "info".
func SetupLogger(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// GetLogger returns the process-wide logger.
func GetLogger() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return newLogger(global.zl.With().Str("component", name).Logger())
}

// SetOutput redirects the global logger, mainly for tests.
func SetOutput(w *os.File) {
	mu.Lock()
	defer mu.Unlock()
	global = newLogger(zerolog.New(w).With().Timestamp().Logger())
}

// LogError logs err at error level with a message.
func LogError(err error, msg string) {
	GetLogger().Error(msg, "error", err)
}

// Trace logs at trace level.
func (l *Logger) Trace(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Trace(), msg, keysAndValues)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Debug(), msg, keysAndValues)
}

// Info logs at info level.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Info(), msg, keysAndValues)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Warn(), msg, keysAndValues)
}

// Error logs at error level.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Error(), msg, keysAndValues)
}

func emit(ev *zerolog.Event, msg string, keysAndValues []interface{}) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		ev = ev.Interface(key, keysAndValues[i+1])
	}
	if len(keysAndValues)%2 != 0 {
		ev = ev.Interface("value", keysAndValues[len(keysAndValues)-1])
	}
	ev.Msg(msg)
}
