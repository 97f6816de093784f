// Package logger provides leveled build logging with console and file sinks
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Logger interface for abstracted logging
type Logger interface {
	Info(message string, fields ...Field)
	Error(message string, fields ...Field)
	Warn(message string, fields ...Field)
	Debug(message string, fields ...Field)
	Success(message string, fields ...Field)
	Started(message string, fields ...Field)
	Ended(message string, fields ...Field)
	WithTarget(target string) Logger
	Close() error
}

// Field represents a structured logging field
type Field struct {
	Key   string
	Value interface{}
}

// WithField creates a new field
func WithField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Level is the category of a build log line
type Level string

const (
	LevelNone      Level = "none"
	LevelStarted   Level = "started"
	LevelInfo      Level = "info"
	LevelWarn      Level = "warn"
	LevelError     Level = "error"
	LevelEnded     Level = "ended"
	LevelCopyright Level = "copyright"
)

const levelField = "build_level"

// TargetLogger implements Logger on top of logrus
type TargetLogger struct {
	logger     *logrus.Logger
	targetName string
	closer     io.Closer
	mu         sync.RWMutex
}

// CustomFormatter formats logs with colors
type CustomFormatter struct {
	TimestampFormat string
	DisableColors   bool
}

// Format implements logrus.Formatter
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format(f.TimestampFormat)

	var levelColor *color.Color
	var levelText string

	switch entry.Level {
	case logrus.ErrorLevel:
		levelColor = color.New(color.FgRed, color.Bold)
		levelText = "ERROR"
	case logrus.WarnLevel:
		levelColor = color.New(color.FgYellow, color.Bold)
		levelText = "WARN"
	case logrus.InfoLevel:
		levelColor = color.New(color.FgCyan)
		levelText = "INFO"
	case logrus.DebugLevel:
		levelColor = color.New(color.FgWhite, color.Faint)
		levelText = "DEBUG"
	default:
		levelColor = color.New(color.FgGreen)
		levelText = "TRACE"
	}

	data := make(logrus.Fields, len(entry.Data))
	for k, v := range entry.Data {
		data[k] = v
	}

	if lvl, ok := data[levelField]; ok {
		switch Level(fmt.Sprint(lvl)) {
		case LevelStarted:
			levelColor = color.New(color.FgMagenta)
			levelText = "START"
		case LevelEnded:
			levelColor = color.New(color.FgMagenta)
			levelText = "END"
		case LevelCopyright:
			levelColor = color.New(color.FgWhite)
			levelText = "NOTE"
		}
		delete(data, levelField)
	}

	targetPrefix := ""
	if target, ok := data["target"]; ok {
		if f.DisableColors {
			targetPrefix = fmt.Sprintf("[%v] ", target)
		} else {
			targetPrefix = fmt.Sprintf("[%s] ", color.New(color.FgBlue).Sprint(target))
		}
		delete(data, "target")
	}

	var output string
	if f.DisableColors {
		output = fmt.Sprintf("[%s] %s: %s%s", timestamp, levelText, targetPrefix, entry.Message)
	} else {
		output = fmt.Sprintf("[%s] %s: %s%s", timestamp, levelColor.Sprint(levelText), targetPrefix, entry.Message)
	}

	if len(data) > 0 {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
		}
		fields := " {" + strings.Join(parts, ", ") + "}"
		if f.DisableColors {
			output += fields
		} else {
			output += color.New(color.FgWhite, color.Faint).Sprint(fields)
		}
	}

	return []byte(output + "\n"), nil
}

// CreateLogger creates a logger writing to stdout and, when logFile is set, to that file
func CreateLogger(logFile string, logLevel string) Logger {
	log := logrus.New()
	log.SetLevel(parseLevel(logLevel))
	log.SetFormatter(&CustomFormatter{
		TimestampFormat: "15:04:05",
		DisableColors:   false,
	})

	tl := &TargetLogger{logger: log}

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			log.SetOutput(io.MultiWriter(os.Stdout, file))
			tl.closer = file
		}
	}

	return tl
}

// CreateLoggerWithOutput creates a logger with custom output (for testing)
func CreateLoggerWithOutput(logLevel string, output io.Writer) Logger {
	log := logrus.New()
	log.SetLevel(parseLevel(logLevel))
	log.SetFormatter(&CustomFormatter{
		TimestampFormat: "15:04:05",
		DisableColors:   true,
	})
	log.SetOutput(output)

	return &TargetLogger{logger: log}
}

// NewConsoleLogger creates a colored stdout logger gated by verbosity
func NewConsoleLogger(verbosity Verbosity) Logger {
	log := logrus.New()
	log.SetLevel(verbosity.logrusLevel())
	log.SetFormatter(&CustomFormatter{TimestampFormat: "15:04:05"})
	log.SetOutput(os.Stdout)

	return &TargetLogger{logger: log}
}

// NewFileLogger creates a plain-text logger that appends to path.
// The file is created if it does not exist.
func NewFileLogger(path string, verbosity Verbosity) (Logger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	log := logrus.New()
	log.SetLevel(verbosity.logrusLevel())
	log.SetFormatter(&CustomFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})
	log.SetOutput(file)

	return &TargetLogger{logger: log, closer: file}, nil
}

func parseLevel(logLevel string) logrus.Level {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// WithTarget creates a new logger with target context
func (l *TargetLogger) WithTarget(target string) Logger {
	return &TargetLogger{
		logger:     l.logger,
		targetName: target,
	}
}

// convertFields converts Field slice to logrus.Fields
func (l *TargetLogger) convertFields(fields []Field) logrus.Fields {
	result := make(logrus.Fields)
	if l.targetName != "" {
		result["target"] = l.targetName
	}
	for _, f := range fields {
		result[f.Key] = f.Value
	}
	return result
}

// Info logs an info message
func (l *TargetLogger) Info(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Info(message)
}

// Error logs an error message
func (l *TargetLogger) Error(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Error(message)
}

// Warn logs a warning message
func (l *TargetLogger) Warn(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Warn(message)
}

// Debug logs a debug message
func (l *TargetLogger) Debug(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Debug(message)
}

// Success logs a success message (info level with special formatting)
func (l *TargetLogger) Success(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Info("✅ " + message)
}

// Started logs the beginning of a build section.
// Started and ended lines are emitted at warn severity so that minimal
// verbosity keeps the section brackets.
func (l *TargetLogger) Started(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f := l.convertFields(fields)
	f[levelField] = LevelStarted
	l.logger.WithFields(f).Log(bracketLevel(l.logger), message)
}

// Ended logs the end of a build section
func (l *TargetLogger) Ended(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f := l.convertFields(fields)
	f[levelField] = LevelEnded
	l.logger.WithFields(f).Log(bracketLevel(l.logger), message)
}

// bracketLevel picks the logrus level for section brackets: info when the
// logger shows info lines, warn otherwise so Minimal still prints them.
func bracketLevel(log *logrus.Logger) logrus.Level {
	if log.IsLevelEnabled(logrus.InfoLevel) {
		return logrus.InfoLevel
	}
	return logrus.WarnLevel
}

// Close releases the file held by the logger, if any.
// Loggers derived with WithTarget share the parent's sink and never close it.
func (l *TargetLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// NopLogger discards everything
type NopLogger struct{}

// NewNopLogger returns a logger that discards all output
func NewNopLogger() Logger { return NopLogger{} }

func (NopLogger) Info(string, ...Field)      {}
func (NopLogger) Error(string, ...Field)     {}
func (NopLogger) Warn(string, ...Field)      {}
func (NopLogger) Debug(string, ...Field)     {}
func (NopLogger) Success(string, ...Field)   {}
func (NopLogger) Started(string, ...Field)   {}
func (NopLogger) Ended(string, ...Field)     {}
func (n NopLogger) WithTarget(string) Logger { return n }
func (NopLogger) Close() error               { return nil }

// Printer provides simple console output for CLI messages
type Printer struct {
	out io.Writer
	err io.Writer
}

// NewPrinter creates a CLI printer
func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{out: out, err: errOut}
}

// Info prints info message
func (p *Printer) Info(message string) {
	fmt.Fprintf(p.out, "%s %s\n", color.CyanString("[helpbuild]"), message)
}

// Error prints error message
func (p *Printer) Error(message string) {
	fmt.Fprintf(p.err, "%s %s\n", color.RedString("[helpbuild]"), message)
}

// Warn prints warning message
func (p *Printer) Warn(message string) {
	fmt.Fprintf(p.out, "%s %s\n", color.YellowString("[helpbuild]"), message)
}

// Success prints success message
func (p *Printer) Success(message string) {
	fmt.Fprintf(p.out, "%s ✅ %s\n", color.GreenString("[helpbuild]"), message)
}
