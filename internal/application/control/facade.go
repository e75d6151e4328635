package control

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of the control plane for telemetry and
// the operator surface.
type Snapshot struct {
	BufferLevel        float64
	BufferState        string
	ConsumptionRate    float64
	RequiredRate       float64
	PalletsRequested   int
	ActivePickers      int
	ActiveForklifts    int
	PendingTasks       int
	AssignedTasks      int
	CompletedStreams   int
	PipelineRho        float64
	PipelineOverloaded bool
	Understaffed       bool
	LastSolveStatus    string
	LastSolveTime      time.Duration
	RealtimeCycles     uint64
	TacticalCycles     uint64
	HistoricalCycles   uint64
	LastRealtimeTick   time.Time
	LastTacticalTick   time.Time
	LastHistoricalTick time.Time
}

// facade is the only mutable state the three loops share directly. All
// access goes through its lock.
type facade struct {
	mu   sync.Mutex
	snap Snapshot
}

func (f *facade) update(fn func(*Snapshot)) {
	f.mu.Lock()
	fn(&f.snap)
	f.mu.Unlock()
}

func (f *facade) snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}
