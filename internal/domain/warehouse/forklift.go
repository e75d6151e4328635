package warehouse

import (
	"math"
	"time"

	"github.com/wareflow/wareflow-go/internal/domain/shared"
)

// ForkliftState is the operational state of a forklift. Non-idle states
// (except Offline) imply a bound delivery task.
type ForkliftState string

const (
	ForkliftStateIdle           ForkliftState = "IDLE"
	ForkliftStateMovingToPallet ForkliftState = "MOVING_TO_PALLET"
	ForkliftStateLoading        ForkliftState = "LOADING"
	ForkliftStateMovingToBuffer ForkliftState = "MOVING_TO_BUFFER"
	ForkliftStateUnloading      ForkliftState = "UNLOADING"
	ForkliftStateOffline        ForkliftState = "OFFLINE"
)

// Forklift replenishes the buffer from storage. At most one task at a time;
// the task back-reference is by id only (the task stores the forklift id,
// neither owns the other).
type Forklift struct {
	id               string
	name             string
	speedMPerS       float64
	loadUnloadS      float64
	currentPositionM float64
	state            ForkliftState
	currentTaskID    string
}

// NewForklift creates an idle forklift positioned at the buffer (0 m).
func NewForklift(id, name string, speedMPerS, loadUnloadS float64) (*Forklift, error) {
	if id == "" {
		return nil, shared.NewValidationError("id", "cannot be empty")
	}
	if speedMPerS <= 0 {
		return nil, shared.NewValidationError("speed_m_per_s", "must be positive")
	}
	if loadUnloadS < 0 {
		return nil, shared.NewValidationError("load_unload_s", "cannot be negative")
	}

	return &Forklift{
		id:          id,
		name:        name,
		speedMPerS:  speedMPerS,
		loadUnloadS: loadUnloadS,
		state:       ForkliftStateIdle,
	}, nil
}

func (f *Forklift) ID() string                { return f.id }
func (f *Forklift) Name() string              { return f.name }
func (f *Forklift) SpeedMPerS() float64       { return f.speedMPerS }
func (f *Forklift) LoadUnloadS() float64      { return f.loadUnloadS }
func (f *Forklift) CurrentPositionM() float64 { return f.currentPositionM }
func (f *Forklift) State() ForkliftState      { return f.state }
func (f *Forklift) CurrentTaskID() string     { return f.currentTaskID }

// IsAvailable reports whether the forklift can accept a task right now.
func (f *Forklift) IsAvailable() bool {
	return f.state == ForkliftStateIdle && f.currentTaskID == ""
}

// EstimateDeliveryTime estimates the full delivery round for a pallet:
// drive to the pallet, load, drive back to the buffer, unload.
func (f *Forklift) EstimateDeliveryTime(pallet *Pallet) time.Duration {
	distanceToPallet := math.Abs(pallet.StorageDistanceM() - f.currentPositionM)
	distanceBack := pallet.StorageDistanceM()

	seconds := distanceToPallet/f.speedMPerS + f.loadUnloadS +
		distanceBack/f.speedMPerS + f.loadUnloadS
	return time.Duration(seconds * float64(time.Second))
}

// AssignTask binds a delivery task and starts the drive to the pallet.
func (f *Forklift) AssignTask(taskID string) error {
	if !f.IsAvailable() {
		return shared.NewForkliftBusyError(f.id)
	}
	f.currentTaskID = taskID
	f.state = ForkliftStateMovingToPallet
	return nil
}

// advanceStates encodes the delivery leg order.
var advanceStates = map[ForkliftState]ForkliftState{
	ForkliftStateMovingToPallet: ForkliftStateLoading,
	ForkliftStateLoading:        ForkliftStateMovingToBuffer,
	ForkliftStateMovingToBuffer: ForkliftStateUnloading,
}

// AdvanceLeg moves the forklift to the next leg of its delivery.
func (f *Forklift) AdvanceLeg() error {
	next, ok := advanceStates[f.state]
	if !ok {
		return shared.NewInvalidTransitionError("forklift "+f.id, string(f.state), "next leg")
	}
	f.state = next
	return nil
}

// CompleteDelivery releases the task and returns the forklift to the buffer,
// idle.
func (f *Forklift) CompleteDelivery() error {
	if f.currentTaskID == "" {
		return shared.NewInvalidTransitionError("forklift "+f.id, string(f.state), string(ForkliftStateIdle))
	}
	f.currentTaskID = ""
	f.currentPositionM = 0
	f.state = ForkliftStateIdle
	return nil
}

// SetOffline takes the forklift out of service. A bound task is released so
// the dispatcher can re-seat it.
func (f *Forklift) SetOffline() string {
	released := f.currentTaskID
	f.currentTaskID = ""
	f.state = ForkliftStateOffline
	return released
}

// SetOnline returns an offline forklift to the idle pool.
func (f *Forklift) SetOnline() error {
	if f.state != ForkliftStateOffline {
		return shared.NewInvalidTransitionError("forklift "+f.id, string(f.state), string(ForkliftStateIdle))
	}
	f.state = ForkliftStateIdle
	return nil
}

// SetPosition updates the forklift position along the storage axis.
func (f *Forklift) SetPosition(positionM float64) {
	f.currentPositionM = positionM
}
