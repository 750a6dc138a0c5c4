package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Logger defines the interface for logging messages.
type Logger interface {
	Error(msg string, err error)
	Warn(msg string)
	Info(msg string)
	Debug(msg string)
}

// Level is the minimum severity a logger writes.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config value such as "debug" or "WARN" to a Level.
// Unknown values fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type simpleLogger struct {
	logger *log.Logger
	level  Level
}

// New creates a logger writing to stdout at the given minimum level.
func New(level Level) Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, level Level) Logger {
	return &simpleLogger{
		logger: log.New(w, "", log.LstdFlags|log.Lshortfile),
		level:  level,
	}
}

// Error logs an error message with the 🔴 emoji.
func (l *simpleLogger) Error(msg string, err error) {
	if l.level > LevelError {
		return
	}
	l.logger.Output(2, fmt.Sprintf("🔴 ERROR: %s - %v", msg, err))
}

// Warn logs a warning message with the ⚠️ emoji.
func (l *simpleLogger) Warn(msg string) {
	if l.level > LevelWarn {
		return
	}
	l.logger.Output(2, fmt.Sprintf("⚠️ WARN: %s", msg))
}

// Info logs an informational message.
func (l *simpleLogger) Info(msg string) {
	if l.level > LevelInfo {
		return
	}
	l.logger.Output(2, fmt.Sprintf("INFO: %s", msg))
}

// Debug logs a debug message.
func (l *simpleLogger) Debug(msg string) {
	if l.level > LevelDebug {
		return
	}
	l.logger.Output(2, fmt.Sprintf("DEBUG: %s", msg))
}

type nopLogger struct{}

func (nopLogger) Error(string, error) {}
func (nopLogger) Warn(string)         {}
func (nopLogger) Info(string)         {}
func (nopLogger) Debug(string)        {}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}
