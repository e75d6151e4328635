package buffer

import (
	"github.com/wareflow/wareflow-go/internal/domain/shared"
)

// State is one of the four operating states of the buffer zone.
type State string

const (
	StateNormal   State = "NORMAL"
	StateLow      State = "LOW"
	StateCritical State = "CRITICAL"
	StateOverflow State = "OVERFLOW"
)

// Thresholds holds the fill-level bands driving the state machine.
// Invariant: Critical < Low < High, all in (0, 1).
type Thresholds struct {
	Critical float64
	Low      float64
	High     float64
	DeadBand float64
}

// StateMachine is the four-state buffer FSM with hysteresis guards.
//
// Transitions fire at the raw threshold when moving away from Normal and
// require the dead-band margin on the way back, so a level oscillating
// within the dead-band around any single threshold never flips the state
// back and forth.
type StateMachine struct {
	thresholds Thresholds
	state      State
	level      float64
	bus        *shared.EventBus
}

// NewStateMachine creates an FSM in the Normal state.
// The bus may be nil; transitions are then silent.
func NewStateMachine(thresholds Thresholds, bus *shared.EventBus) (*StateMachine, error) {
	if !(thresholds.Critical < thresholds.Low && thresholds.Low < thresholds.High) {
		return nil, shared.NewValidationError("thresholds", "must satisfy critical < low < high")
	}
	if thresholds.DeadBand < 0 {
		return nil, shared.NewValidationError("dead_band", "cannot be negative")
	}

	return &StateMachine{
		thresholds: thresholds,
		state:      StateNormal,
		bus:        bus,
	}, nil
}

// State returns the current state.
func (m *StateMachine) State() State { return m.state }

// Level returns the last observed fill level.
func (m *StateMachine) Level() float64 { return m.level }

// Thresholds returns the configured bands.
func (m *StateMachine) Thresholds() Thresholds { return m.thresholds }

// Update feeds a new fill level into the machine and returns the state after
// all transitions settle. A large jump may cross several bands; transitions
// cascade until the state is stable for the level.
func (m *StateMachine) Update(level float64) State {
	m.level = level

	for {
		next, changed := m.step(level)
		if !changed {
			break
		}
		prev := m.state
		m.state = next
		m.emit(prev, next, level)
	}
	return m.state
}

// step computes a single transition for the level, if any.
func (m *StateMachine) step(level float64) (State, bool) {
	t := m.thresholds

	// Critical entry has no dead-band: an empty buffer is an emergency
	// regardless of the state it was observed from.
	if level < t.Critical && m.state != StateCritical {
		return StateCritical, true
	}

	switch m.state {
	case StateNormal:
		if level < t.Low {
			return StateLow, true
		}
		if level > t.High+t.DeadBand {
			return StateOverflow, true
		}
	case StateLow:
		if level > t.Low+t.DeadBand {
			return StateNormal, true
		}
	case StateCritical:
		if level > t.Critical+t.DeadBand {
			return StateLow, true
		}
	case StateOverflow:
		if level < t.High {
			return StateNormal, true
		}
	}
	return m.state, false
}

func (m *StateMachine) emit(prev, next State, level float64) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(shared.EventBufferStateChanged, shared.BufferStateChangedPayload{
		Previous: string(prev),
		Current:  string(next),
		Level:    level,
	})
}

// RecommendedForkliftCount maps the state to the number of forklifts that
// should be active out of total.
func (m *StateMachine) RecommendedForkliftCount(total int) int {
	switch m.state {
	case StateCritical:
		return total
	case StateLow:
		return max(2, total-1)
	case StateOverflow:
		return 1
	default:
		return max(1, total/2)
	}
}

// DeliveryPriority maps the state to the priority attached to delivery
// requests issued while in it.
func (m *StateMachine) DeliveryPriority() int {
	switch m.state {
	case StateCritical:
		return 100
	case StateLow:
		return 75
	case StateOverflow:
		return 10
	default:
		return 50
	}
}
