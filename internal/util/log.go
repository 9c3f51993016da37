package util

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

type LogLevel int32

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var levelTags = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

func (lvl LogLevel) String() string {
	if lvl < LevelTrace || int(lvl) >= len(levelTags) {
		return fmt.Sprintf("LEVEL(%d)", int32(lvl))
	}
	return levelTags[lvl]
}

// ParseLogLevel converts a level name, in any case, into a LogLevel.
// Unknown names fall back to info.
func ParseLogLevel(s string) LogLevel {
	want := strings.ToUpper(strings.TrimSpace(s))
	for i, tag := range levelTags {
		if tag == want {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

// Logger is a level-filtered line logger. Loggers derived with Named share
// the parent's level and destination.
type Logger struct {
	level *atomic.Int32
	base  *log.Logger
	name  string
}

// NewLogger creates a logger writing to stderr.
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

func NewLoggerWithWriter(level LogLevel, w io.Writer) *Logger {
	l := &Logger{
		level: new(atomic.Int32),
		base:  log.New(w, "", log.LstdFlags|log.Lmsgprefix),
	}
	l.level.Store(int32(level))
	return l
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLoggerWithWriter(LevelError+1, io.Discard)
}

// Named returns a child logger whose lines carry "name: " after the level tag.
func (l *Logger) Named(name string) *Logger {
	if l == nil {
		return nil
	}
	child := *l
	if child.name != "" {
		name = child.name + "." + name
	}
	child.name = name
	return &child
}

// SetLevel changes the level of l and every logger derived from it.
func (l *Logger) SetLevel(level LogLevel) {
	if l != nil {
		l.level.Store(int32(level))
	}
}

func (l *Logger) Enabled(level LogLevel) bool {
	if l == nil {
		return false
	}
	return level >= LogLevel(l.level.Load())
}

func (l *Logger) logf(level LogLevel, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.name != "" {
		msg = l.name + ": " + msg
	}
	l.base.Printf("[%s] %s", level, msg)
}

func (l *Logger) Tracef(format string, args ...any) { l.logf(LevelTrace, format, args...) }
func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }
