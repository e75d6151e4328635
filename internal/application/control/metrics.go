package control

import "time"

// MetricsRecorder receives control-plane measurements. Implementations must
// be safe for concurrent use.
type MetricsRecorder interface {
	RecordBufferLevel(level float64)
	RecordBufferState(state string)
	RecordCycle(loop string, took time.Duration)
	RecordTasksCreated(count int)
	RecordSolve(status string, took time.Duration)
	RecordIngestedRows(entity string, count int)
}

// NoopMetrics discards all measurements.
type NoopMetrics struct{}

func (NoopMetrics) RecordBufferLevel(float64)         {}
func (NoopMetrics) RecordBufferState(string)          {}
func (NoopMetrics) RecordCycle(string, time.Duration) {}
func (NoopMetrics) RecordTasksCreated(int)            {}
func (NoopMetrics) RecordSolve(string, time.Duration) {}
func (NoopMetrics) RecordIngestedRows(string, int)    {}
