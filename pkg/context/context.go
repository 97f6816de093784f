// Package context carries build tracing values on a context.Context
package context

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey int

// Context keys for build tracing
const (
	buildIDKey contextKey = iota
	engineKey
	stepKey
	startTimeKey
)

const (
	unknownBuild  = "unknown-build"
	unknownEngine = "unknown-engine"
	unknownStep   = "unknown-step"
)

// WithBuildID adds a build ID to the context
func WithBuildID(parent context.Context, buildID string) context.Context {
	if buildID == "" {
		buildID = GenerateBuildID()
	}
	return context.WithValue(parent, buildIDKey, buildID)
}

// GetBuildID retrieves the build ID from context
func GetBuildID(ctx context.Context) string {
	if id, ok := ctx.Value(buildIDKey).(string); ok && id != "" {
		return id
	}
	return unknownBuild
}

// WithEngine records the sub-build (reference or conceptual) running on the context
func WithEngine(parent context.Context, engine string) context.Context {
	return context.WithValue(parent, engineKey, engine)
}

// GetEngine retrieves the engine name from context
func GetEngine(ctx context.Context) string {
	if name, ok := ctx.Value(engineKey).(string); ok && name != "" {
		return name
	}
	return unknownEngine
}

// WithStep adds the executing step name to the context
func WithStep(parent context.Context, step string) context.Context {
	return context.WithValue(parent, stepKey, step)
}

// GetStep retrieves the step name from context
func GetStep(ctx context.Context) string {
	if name, ok := ctx.Value(stepKey).(string); ok && name != "" {
		return name
	}
	return unknownStep
}

// WithStartTime adds the operation start time to the context
func WithStartTime(parent context.Context, startTime time.Time) context.Context {
	return context.WithValue(parent, startTimeKey, startTime)
}

// GetStartTime retrieves the operation start time from context
func GetStartTime(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(startTimeKey).(time.Time)
	return t, ok
}

// GetDuration calculates the duration since the start time in context.
// It returns zero when no start time was recorded.
func GetDuration(ctx context.Context) time.Duration {
	start, ok := GetStartTime(ctx)
	if !ok {
		return 0
	}
	return time.Since(start)
}

// GenerateBuildID creates a new unique build ID
func GenerateBuildID() string {
	return "build_" + uuid.New().String()
}

// EnrichContext adds a build ID (if missing) and a start time
func EnrichContext(parent context.Context) context.Context {
	ctx := parent
	if GetBuildID(ctx) == unknownBuild {
		ctx = WithBuildID(ctx, GenerateBuildID())
	}
	return WithStartTime(ctx, time.Now())
}

// TracingFields returns the build tracing fields set on ctx for structured
// logging. Unset values are omitted; duration_ms needs a start time.
func TracingFields(ctx context.Context) map[string]interface{} {
	fields := make(map[string]interface{}, 4)
	if id := GetBuildID(ctx); id != unknownBuild {
		fields["build_id"] = id
	}
	if engine := GetEngine(ctx); engine != unknownEngine {
		fields["engine"] = engine
	}
	if step := GetStep(ctx); step != unknownStep {
		fields["step"] = step
	}
	if _, ok := GetStartTime(ctx); ok {
		fields["duration_ms"] = GetDuration(ctx).Milliseconds()
	}
	return fields
}
