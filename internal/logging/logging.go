// Package logging provides a leveled, structured logger.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level string.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "info", "INFO":
		return LevelInfo
	case "warn", "WARN", "warning", "WARNING":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) option() level.Option {
	switch l {
	case LevelDebug:
		return level.AllowDebug()
	case LevelInfo:
		return level.AllowInfo()
	case LevelWarn:
		return level.AllowWarn()
	case LevelError:
		return level.AllowError()
	default:
		return level.AllowNone()
	}
}

// Logger writes logfmt lines with a timestamp and level, e.g.
//
//	ts=2024-06-15T06:00:00.000Z level=info msg="computed snapshot" body=Sun
type Logger struct {
	mu      sync.Mutex
	level   Level
	output  io.Writer
	context []interface{}
	kit     log.Logger
}

// New creates a new logger writing to stderr.
func New(lvl Level) *Logger {
	l := &Logger{
		level:  lvl,
		output: os.Stderr,
	}
	l.rebuild()
	return l
}

// SetOutput sets the log output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
	l.rebuild()
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(lvl Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = lvl
	l.rebuild()
}

// With returns a child logger that adds keyvals to every line.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	child := &Logger{
		level:   l.level,
		output:  l.output,
		context: append(append([]interface{}{}, l.context...), keyvals...),
	}
	child.rebuild()
	return child
}

// rebuild assembles the go-kit chain. Callers hold mu.
func (l *Logger) rebuild() {
	var kl log.Logger
	if l.output == io.Discard {
		kl = log.NewNopLogger()
	} else {
		kl = log.NewLogfmtLogger(log.NewSyncWriter(l.output))
		kl = log.With(kl, "ts", log.DefaultTimestampUTC)
	}
	if len(l.context) > 0 {
		kl = log.With(kl, l.context...)
	}
	l.kit = level.NewFilter(kl, l.level.option())
}

func (l *Logger) log(lvl Level, msg string, keyvals ...interface{}) {
	l.mu.Lock()
	kl := l.kit
	l.mu.Unlock()

	var leveled log.Logger
	switch lvl {
	case LevelDebug:
		leveled = level.Debug(kl)
	case LevelInfo:
		leveled = level.Info(kl)
	case LevelWarn:
		leveled = level.Warn(kl)
	default:
		leveled = level.Error(kl)
	}
	_ = leveled.Log(append([]interface{}{"msg", msg}, keyvals...)...)
}

// Debug logs a debug message with optional key/value pairs.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.log(LevelDebug, msg, keyvals...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.log(LevelInfo, msg, keyvals...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.log(LevelWarn, msg, keyvals...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.log(LevelError, msg, keyvals...)
}

// Discard returns a logger that discards all output.
func Discard() *Logger {
	l := &Logger{
		level:  LevelError + 1, // Higher than any level
		output: io.Discard,
	}
	l.rebuild()
	return l
}
