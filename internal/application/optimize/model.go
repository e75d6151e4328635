// Package optimize formulates and solves the task-to-forklift assignment
// problem: minimize total travel while honoring stream order, heavy-first
// order inside a stream, critical boosts and wave deadlines.
package optimize

import "time"

// SolveStatus is the solver result contract.
type SolveStatus string

const (
	StatusOptimal    SolveStatus = "OPTIMAL"
	StatusFeasible   SolveStatus = "FEASIBLE"
	StatusInfeasible SolveStatus = "INFEASIBLE"
)

// TaskSpec is one pending task as seen by the solver.
type TaskSpec struct {
	TaskID         string
	StreamID       string
	StreamSequence int
	WeightKg       float64
	Priority       int
	// Critical marks tasks issued under a critical buffer state; they are
	// scheduled strictly before non-critical tasks of the same or later
	// stream.
	Critical bool
	// WaveDeadline, when set, bounds the task's completion.
	WaveDeadline *time.Time
}

// ForkliftSpec is one available forklift as seen by the solver.
type ForkliftSpec struct {
	ForkliftID string
}

// CostFunc returns the estimated execution cost in seconds of a task on a
// forklift.
type CostFunc func(task TaskSpec, forklift ForkliftSpec) float64

// Problem is a full solver input.
type Problem struct {
	Tasks     []TaskSpec
	Forklifts []ForkliftSpec
	Cost      CostFunc
	// BalanceWeight is the lambda applied to workload variance when ranking
	// otherwise-equal candidates.
	BalanceWeight float64
	// Budget caps solver wall clock. Zero means no cap.
	Budget time.Duration
	// WarmStart carries the prior solution's task-to-forklift choices; they
	// are preferred when their cost is not worse.
	WarmStart map[string]string
	// Start anchors the schedule offsets.
	Start time.Time
}

// PlannedAssignment is one task bound to one forklift with its scheduled
// window, offsets in seconds from Problem.Start.
type PlannedAssignment struct {
	TaskID       string
	ForkliftID   string
	StartOffsetS float64
	EndOffsetS   float64
	CostS        float64
}

// Solution is the solver output.
type Solution struct {
	Status           SolveStatus
	Assignments      []PlannedAssignment
	ObjectiveS       float64
	TotalTravelS     float64
	WorkloadVariance float64
	SolveTime        time.Duration
	// UnassignedTasks lists the tasks an infeasible solve could not place.
	UnassignedTasks []string
}
