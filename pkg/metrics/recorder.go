// Package metrics records build and step timings.
package metrics

import "time"

// ResultLabel enumerates step result categories for counters
type ResultLabel string

const (
	ResultSuccess   ResultLabel = "success"
	ResultFailed    ResultLabel = "failed"
	ResultTolerated ResultLabel = "tolerated"
	ResultSkipped   ResultLabel = "skipped"
)

// Outcome is the final status of a build
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// Recorder receives build observations. Implementations must be safe to call
// from the single step-running goroutine and from converter workers.
type Recorder interface {
	ObserveStepDuration(step string, d time.Duration)
	IncStepResult(step string, result ResultLabel)
	ObserveBuildDuration(engine string, d time.Duration)
	IncBuildOutcome(engine string, outcome Outcome)
}

// NoopRecorder is used when metrics are not configured
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, time.Duration)  {}
func (NoopRecorder) IncStepResult(string, ResultLabel)          {}
func (NoopRecorder) ObserveBuildDuration(string, time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string, Outcome)            {}
