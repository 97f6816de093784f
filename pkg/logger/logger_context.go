package logger

import (
	"context"

	bcontext "github.com/sandcastle-helpers/helpbuild/pkg/context"
)

// WithContext creates a logger that automatically includes the build
// tracing fields found on ctx
func WithContext(ctx context.Context, log Logger) Logger {
	if ctx == nil {
		return log
	}
	return &contextualLogger{ctx: ctx, logger: log}
}

// contextualLogger wraps a logger with automatic context field extraction
type contextualLogger struct {
	ctx    context.Context
	logger Logger
}

// tracingKeys fixes the order of the context fields in log lines
var tracingKeys = []string{"build_id", "engine", "step", "duration_ms"}

// contextFields extracts tracing fields from the context
func (cl *contextualLogger) contextFields(fields []Field) []Field {
	tracing := bcontext.TracingFields(cl.ctx)
	out := make([]Field, 0, len(tracing)+len(fields))
	for _, key := range tracingKeys {
		if v, ok := tracing[key]; ok {
			out = append(out, WithField(key, v))
		}
	}
	return append(out, fields...)
}

func (cl *contextualLogger) Info(message string, fields ...Field) {
	cl.logger.Info(message, cl.contextFields(fields)...)
}

func (cl *contextualLogger) Error(message string, fields ...Field) {
	cl.logger.Error(message, cl.contextFields(fields)...)
}

func (cl *contextualLogger) Warn(message string, fields ...Field) {
	cl.logger.Warn(message, cl.contextFields(fields)...)
}

func (cl *contextualLogger) Debug(message string, fields ...Field) {
	cl.logger.Debug(message, cl.contextFields(fields)...)
}

func (cl *contextualLogger) Success(message string, fields ...Field) {
	cl.logger.Success(message, cl.contextFields(fields)...)
}

func (cl *contextualLogger) Started(message string, fields ...Field) {
	cl.logger.Started(message, cl.contextFields(fields)...)
}

func (cl *contextualLogger) Ended(message string, fields ...Field) {
	cl.logger.Ended(message, cl.contextFields(fields)...)
}

func (cl *contextualLogger) WithTarget(target string) Logger {
	return &contextualLogger{
		ctx:    cl.ctx,
		logger: cl.logger.WithTarget(target),
	}
}

// Close closes the wrapped logger
func (cl *contextualLogger) Close() error {
	return cl.logger.Close()
}
