package logger

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Level represents the severity level of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	NoticeLevel
	ErrorLevel
)

// ParseLevel converts a level name into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "notice", "warn", "warning":
		return NoticeLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level: %s", s)
}

type chainStyle struct {
	prefix string
	color  color.Attribute
}

// chainStyles maps chain IDs to their log prefix and color
var chainStyles = map[int64]chainStyle{
	1:        {"[ETH]     ", color.FgHiGreen},
	10:       {"[OP]      ", color.FgHiRed},
	42161:    {"[ARB]     ", color.FgHiBlue},
	8453:     {"[BASE]    ", color.FgBlue},
	11155111: {"[SEP]     ", color.FgGreen},
	421614:   {"[ARB-SEP] ", color.FgCyan},
	11155420: {"[OP-SEP]  ", color.FgRed},
	84532:    {"[BASE-SEP]", color.FgMagenta},
}

// Logger is a simple interface for logging messages.
type Logger interface {
	// Info logs an informational message.
	Info(format string, args ...interface{})
	InfoWithChain(chainID int64, format string, args ...interface{})

	// Error logs an error message.
	Error(format string, args ...interface{})
	ErrorWithChain(chainID int64, format string, args ...interface{})

	// Debug logs a debug message.
	Debug(format string, args ...interface{})
	DebugWithChain(chainID int64, format string, args ...interface{})

	// Notice logs a message that needs attention but does not stop processing.
	Notice(format string, args ...interface{})
	NoticeWithChain(chainID int64, format string, args ...interface{})
}

// EmptyLogger is a simple implementation of the Logger interface that does nothing.
type EmptyLogger struct{}

var _ Logger = (*EmptyLogger)(nil)

func (l *EmptyLogger) Info(_ string, _ ...interface{})                     {}
func (l *EmptyLogger) InfoWithChain(_ int64, _ string, _ ...interface{})   {}
func (l *EmptyLogger) Error(_ string, _ ...interface{})                    {}
func (l *EmptyLogger) ErrorWithChain(_ int64, _ string, _ ...interface{})  {}
func (l *EmptyLogger) Debug(_ string, _ ...interface{})                    {}
func (l *EmptyLogger) DebugWithChain(_ int64, _ string, _ ...interface{})  {}
func (l *EmptyLogger) Notice(_ string, _ ...interface{})                   {}
func (l *EmptyLogger) NoticeWithChain(_ int64, _ string, _ ...interface{}) {}

// StdLogger is a standard implementation of the Logger interface that logs messages to the console.
type StdLogger struct {
	enableColoring bool
	level          Level
	mu             sync.Mutex
}

var _ Logger = (*StdLogger)(nil)

func NewStdLogger(enableColoring bool, level Level) *StdLogger {
	return &StdLogger{
		enableColoring: enableColoring,
		level:          level,
	}
}

// chainPrefix returns the prefix for a chain, falling back to the numeric id for unknown chains.
func (l *StdLogger) chainPrefix(chainID int64) string {
	if chainID == 0 {
		return ""
	}
	style, ok := chainStyles[chainID]
	if !ok {
		return fmt.Sprintf("[%d] ", chainID)
	}
	if l.enableColoring {
		return color.New(style.color).Sprint(style.prefix) + " "
	}
	return style.prefix + " "
}

// formatMessage formats the log message with the level, chain prefix and coloring if enabled.
func (l *StdLogger) formatMessage(level Level, chainID int64, format string) string {
	var levelStr string
	switch level {
	case DebugLevel:
		levelStr = "[DEBUG]  "
	case InfoLevel:
		levelStr = "[INFO]   "
	case NoticeLevel:
		levelStr = "[NOTICE] "
		if l.enableColoring {
			levelStr = color.New(color.FgYellow).Sprint(levelStr)
		}
	case ErrorLevel:
		levelStr = "[ERROR]  "
		if l.enableColoring {
			levelStr = color.New(color.FgHiRed).Sprint(levelStr)
		}
	}

	return levelStr + l.chainPrefix(chainID) + format
}

func (l *StdLogger) logf(level Level, chainID int64, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= level {
		log.Printf(l.formatMessage(level, chainID, format), args...)
	}
}

func (l *StdLogger) Info(format string, args ...interface{}) {
	l.logf(InfoLevel, 0, format, args...)
}

func (l *StdLogger) InfoWithChain(chainID int64, format string, args ...interface{}) {
	l.logf(InfoLevel, chainID, format, args...)
}

func (l *StdLogger) Error(format string, args ...interface{}) {
	l.logf(ErrorLevel, 0, format, args...)
}

func (l *StdLogger) ErrorWithChain(chainID int64, format string, args ...interface{}) {
	l.logf(ErrorLevel, chainID, format, args...)
}

func (l *StdLogger) Debug(format string, args ...interface{}) {
	l.logf(DebugLevel, 0, format, args...)
}

func (l *StdLogger) DebugWithChain(chainID int64, format string, args ...interface{}) {
	l.logf(DebugLevel, chainID, format, args...)
}

func (l *StdLogger) Notice(format string, args ...interface{}) {
	l.logf(NoticeLevel, 0, format, args...)
}

func (l *StdLogger) NoticeWithChain(chainID int64, format string, args ...interface{}) {
	l.logf(NoticeLevel, chainID, format, args...)
}
