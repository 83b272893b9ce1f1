// Package metrics records conversion run metrics. Components depend on the
// Recorder interface; NoopRecorder is the default when no metrics output is
// configured.
package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Reorganizer outcomes.
const (
	OutcomeMoved    = "moved"
	OutcomeSkipped  = "skipped"
	OutcomeUnlinked = "unlinked"
)

// Recorder defines observability hooks for a conversion run.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	AddPagesConverted(n int)
	AddReorganized(stage, outcome string, n int)
	AddLinksRewritten(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) AddPagesConverted(int)                      {}
func (NoopRecorder) AddReorganized(string, string, int)         {}
func (NoopRecorder) AddLinksRewritten(int)                      {}
