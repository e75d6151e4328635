// Package backtest replays a historical wave through the scheduler to
// quantify how much the optimized plan would have saved.
package backtest

import (
	"context"
	"time"

	"github.com/wareflow/wareflow-go/internal/application/predict"
	"github.com/wareflow/wareflow-go/internal/domain/history"
)

// DecisionType classifies one scheduler choice in the decision log.
type DecisionType string

const (
	DecisionAssignRepl     DecisionType = "assign_repl"
	DecisionAssignDist     DecisionType = "assign_dist"
	DecisionSkipNoCapacity DecisionType = "skip_no_capacity"
	DecisionSkipNoWorker   DecisionType = "skip_no_worker"
	DecisionBufferWait     DecisionType = "buffer_wait"
)

// Constraint names the binding constraint behind a decision.
type Constraint string

const (
	ConstraintBufferFull   Constraint = "buffer_full"
	ConstraintPrecedence   Constraint = "precedence"
	ConstraintWaveDeadline Constraint = "wave_deadline"
	ConstraintNone         Constraint = "none"
)

// Decision is one entry of the ordered decision log.
type Decision struct {
	Seq          int
	Day          int
	SimTime      time.Time
	Type         DecisionType
	WorkerID     string
	WorkerName   string
	TaskPriority int
	DurationS    float64
	WeightKg     float64
	BufferBefore float64
	BufferAfter  float64
	Constraint   Constraint
	Reason       string
}

// Timeline distinguishes the two schedules carried in the event table.
type Timeline string

const (
	TimelineFact      Timeline = "fact"
	TimelineOptimized Timeline = "optimized"
)

// ScheduleEvent is one per-worker Gantt row.
type ScheduleEvent struct {
	Timeline    Timeline
	WorkerID    string
	WorkerName  string
	Role        history.WorkerRole
	Start       time.Time
	End         time.Time
	DurationS   float64
	ProductName string
	FromBin     string
	ToBin       string
	WeightKg    float64
	BufferLevel float64
	TransitionS float64
}

// DayBreakdown compares one calendar day of the fact schedule against the
// same simulated day of the optimized one.
type DayBreakdown struct {
	Date           time.Time
	Workers        int
	FactPallets    int
	OptPallets     int
	Delta          int
	BufferLevelEnd float64
	FactActiveS    float64
	OptActiveS     float64
	ImprovementPct float64
}

// WorkerBreakdown compares one worker across the two schedules.
type WorkerBreakdown struct {
	WorkerID    string
	WorkerName  string
	Role        history.WorkerRole
	FactTasks   int
	OptTasks    int
	FactActiveS float64
	OptActiveS  float64
}

// Summary is the headline comparison of a backtest run.
type Summary struct {
	WaveNumber     int
	OriginalDays   int
	OptimizedDays  int
	DaysSaved      int
	ImprovementPct float64
	FactWallClockS float64
	FactActiveS    float64
	OptActiveS     float64
	SourceCounts   map[predict.Source]int
	Days           []DayBreakdown
	Workers        []WorkerBreakdown
}

// Result is the full output of one backtest run.
type Result struct {
	RunID      int64
	RunAt      time.Time
	Summary    Summary
	Decisions  []Decision
	Events     []ScheduleEvent
	ReportPath string
}

// Store persists backtest artifacts. Saving a wave again replaces the whole
// prior artifact set for that wave number.
type Store interface {
	SaveRun(ctx context.Context, result *Result) (int64, error)
}
