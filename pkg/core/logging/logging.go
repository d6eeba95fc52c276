package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	baseMu   sync.RWMutex
	baseOut  io.Writer = os.Stderr
	baseText bool
)

// Configure sets the process-wide log level and output format.
// Called once at startup; loggers created afterwards pick it up.
func Configure(level, format string) {
	zerolog.SetGlobalLevel(parseLevel(level))
	zerolog.TimeFieldFormat = time.RFC3339

	baseMu.Lock()
	baseText = strings.EqualFold(format, "text")
	baseMu.Unlock()
}

// SetOutput redirects all subsequently created loggers. Used by tests.
func SetOutput(w io.Writer) {
	baseMu.Lock()
	baseOut = w
	baseMu.Unlock()
}

// Logger is a named structured logger with key-value pair methods.
type Logger struct {
	zl   zerolog.Logger
	name string
}

// New creates a logger for a component.
func New(name string) *Logger {
	baseMu.RLock()
	out := baseOut
	text := baseText
	baseMu.RUnlock()

	if text {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zl := zerolog.New(out).With().
		Timestamp().
		Str("component", name).
		Logger()

	return &Logger{zl: zl, name: name}
}

// Name returns the component name of the logger.
func (l *Logger) Name() string {
	return l.name
}

// Debug logs a debug message with key-value pairs.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	withFields(l.zl.Debug(), keysAndValues).Msg(msg)
}

// Info logs an info message with key-value pairs.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	withFields(l.zl.Info(), keysAndValues).Msg(msg)
}

// Warn logs a warning message with key-value pairs.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	withFields(l.zl.Warn(), keysAndValues).Msg(msg)
}

// Error logs an error message with key-value pairs.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	withFields(l.zl.Error(), keysAndValues).Msg(msg)
}

func withFields(ev *zerolog.Event, keysAndValues []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, keysAndValues[i+1])
	}
	return ev
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
