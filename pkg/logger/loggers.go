package logger

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Verbosity controls which build log levels reach a sink
type Verbosity string

const (
	VerbosityQuiet      Verbosity = "quiet"
	VerbosityMinimal    Verbosity = "minimal"
	VerbosityNormal     Verbosity = "normal"
	VerbosityDetailed   Verbosity = "detailed"
	VerbosityDiagnostic Verbosity = "diagnostic"
)

// ParseVerbosity parses a verbosity name. The logrus level names
// (error, warn, info, debug) are accepted as aliases.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet", "q", "error":
		return VerbosityQuiet, nil
	case "minimal", "m", "warn", "warning":
		return VerbosityMinimal, nil
	case "", "normal", "n", "info":
		return VerbosityNormal, nil
	case "detailed", "d", "debug":
		return VerbosityDetailed, nil
	case "diagnostic", "diag", "trace":
		return VerbosityDiagnostic, nil
	}
	return "", fmt.Errorf("unknown verbosity: %q", s)
}

// Allows reports whether a line of the given level is written at this verbosity
func (v Verbosity) Allows(level Level) bool {
	switch level {
	case LevelNone:
		return false
	case LevelError:
		return true
	case LevelWarn, LevelStarted, LevelEnded, LevelCopyright:
		return v != VerbosityQuiet
	case LevelInfo:
		return v == VerbosityNormal || v == VerbosityDetailed || v == VerbosityDiagnostic
	}
	return false
}

func (v Verbosity) logrusLevel() logrus.Level {
	switch v {
	case VerbosityQuiet:
		return logrus.ErrorLevel
	case VerbosityMinimal:
		return logrus.WarnLevel
	case VerbosityDetailed:
		return logrus.DebugLevel
	case VerbosityDiagnostic:
		return logrus.TraceLevel
	default:
		return logrus.InfoLevel
	}
}

// Write dispatches a message to the Logger method matching level
func Write(l Logger, level Level, message string, fields ...Field) {
	switch level {
	case LevelStarted:
		l.Started(message, fields...)
	case LevelEnded:
		l.Ended(message, fields...)
	case LevelInfo:
		l.Info(message, fields...)
	case LevelWarn:
		l.Warn(message, fields...)
	case LevelError:
		l.Error(message, fields...)
	case LevelCopyright:
		l.Info(message, append(fields, WithField(levelField, LevelCopyright))...)
	}
}

// Loggers fans every message out to a set of child loggers
type Loggers struct {
	mu      sync.RWMutex
	loggers []Logger
}

var _ Logger = (*Loggers)(nil)

// NewLoggers creates a composite logger
func NewLoggers(loggers ...Logger) *Loggers {
	l := &Loggers{}
	for _, child := range loggers {
		l.Add(child)
	}
	return l
}

// Add appends a child logger. Nil loggers are ignored.
func (l *Loggers) Add(child Logger) {
	if child == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loggers = append(l.loggers, child)
}

// Remove detaches a child logger without closing it
func (l *Loggers) Remove(child Logger) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, existing := range l.loggers {
		if existing == child {
			l.loggers = append(l.loggers[:i], l.loggers[i+1:]...)
			return true
		}
	}
	return false
}

// Count returns the number of child loggers
func (l *Loggers) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.loggers)
}

// Clear detaches all child loggers without closing them
func (l *Loggers) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loggers = nil
}

func (l *Loggers) each(fn func(Logger)) {
	l.mu.RLock()
	children := make([]Logger, len(l.loggers))
	copy(children, l.loggers)
	l.mu.RUnlock()

	for _, child := range children {
		fn(child)
	}
}

// Info logs an info message on every child
func (l *Loggers) Info(message string, fields ...Field) {
	l.each(func(c Logger) { c.Info(message, fields...) })
}

// Error logs an error message on every child
func (l *Loggers) Error(message string, fields ...Field) {
	l.each(func(c Logger) { c.Error(message, fields...) })
}

// Warn logs a warning on every child
func (l *Loggers) Warn(message string, fields ...Field) {
	l.each(func(c Logger) { c.Warn(message, fields...) })
}

// Debug logs a debug message on every child
func (l *Loggers) Debug(message string, fields ...Field) {
	l.each(func(c Logger) { c.Debug(message, fields...) })
}

// Success logs a success message on every child
func (l *Loggers) Success(message string, fields ...Field) {
	l.each(func(c Logger) { c.Success(message, fields...) })
}

// Started logs a section start on every child
func (l *Loggers) Started(message string, fields ...Field) {
	l.each(func(c Logger) { c.Started(message, fields...) })
}

// Ended logs a section end on every child
func (l *Loggers) Ended(message string, fields ...Field) {
	l.each(func(c Logger) { c.Ended(message, fields...) })
}

// WithTarget returns a composite whose children are all target-scoped
func (l *Loggers) WithTarget(target string) Logger {
	scoped := &Loggers{}
	l.each(func(c Logger) { scoped.Add(c.WithTarget(target)) })
	return scoped
}

// Close closes every child and reports all failures together
func (l *Loggers) Close() error {
	var errs []error
	l.each(func(c Logger) {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}
