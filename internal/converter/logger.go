package converter

import (
	"io"
	"log"
	"os"
	"strings"
)

// Logger is an interface for logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Log levels, lowest first.
const (
	LevelDebug = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a configured log level name to a level. Unknown names map
// to LevelInfo.
func ParseLevel(name string) int {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// LevelLogger writes messages at or above a minimum level through a
// standard library logger.
type LevelLogger struct {
	level int
	out   *log.Logger
}

// NewLogger returns a logger writing to w.
func NewLogger(w io.Writer, level int) *LevelLogger {
	return &LevelLogger{level: level, out: log.New(w, "", log.LstdFlags)}
}

// DefaultLogger logs info and above to stdout.
func DefaultLogger() *LevelLogger {
	return NewLogger(os.Stdout, LevelInfo)
}

func (l *LevelLogger) logf(level int, tag, msg string, args ...interface{}) {
	if level < l.level {
		return
	}
	l.out.Printf("["+tag+"] "+msg, args...)
}

func (l *LevelLogger) Debug(msg string, args ...interface{}) { l.logf(LevelDebug, "DEBUG", msg, args...) }
func (l *LevelLogger) Info(msg string, args ...interface{})  { l.logf(LevelInfo, "INFO", msg, args...) }
func (l *LevelLogger) Warn(msg string, args ...interface{})  { l.logf(LevelWarn, "WARN", msg, args...) }
func (l *LevelLogger) Error(msg string, args ...interface{}) { l.logf(LevelError, "ERROR", msg, args...) }
