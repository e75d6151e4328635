package buffer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-go/internal/domain/buffer"
	"github.com/wareflow/wareflow-go/internal/domain/shared"
)

func testTime() time.Time {
	return time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
}

func newMachine(t *testing.T) *buffer.StateMachine {
	t.Helper()
	machine, err := buffer.NewStateMachine(buffer.Thresholds{
		Critical: 0.10,
		Low:      0.30,
		High:     0.80,
		DeadBand: 0.05,
	}, nil)
	require.NoError(t, err)
	return machine
}

func TestStateMachine_StartsNormal(t *testing.T) {
	machine := newMachine(t)

	assert.Equal(t, buffer.StateNormal, machine.State())
}

func TestStateMachine_InvalidThresholds(t *testing.T) {
	_, err := buffer.NewStateMachine(buffer.Thresholds{Critical: 0.5, Low: 0.3, High: 0.8}, nil)
	assert.Error(t, err)

	_, err = buffer.NewStateMachine(buffer.Thresholds{Critical: 0.1, Low: 0.3, High: 0.8, DeadBand: -0.1}, nil)
	assert.Error(t, err)
}

func TestStateMachine_NormalToLowAndBack(t *testing.T) {
	machine := newMachine(t)

	// Dropping below the low threshold enters Low immediately.
	assert.Equal(t, buffer.StateLow, machine.Update(0.29))

	// Recovery needs the dead-band margin above the threshold.
	assert.Equal(t, buffer.StateLow, machine.Update(0.33))
	assert.Equal(t, buffer.StateNormal, machine.Update(0.36))
}

func TestStateMachine_NormalToOverflowAndBack(t *testing.T) {
	machine := newMachine(t)

	// Entering Overflow needs the dead-band margin above the high threshold.
	assert.Equal(t, buffer.StateNormal, machine.Update(0.82))
	assert.Equal(t, buffer.StateOverflow, machine.Update(0.86))

	// Return fires as soon as the level drops below the raw threshold.
	assert.Equal(t, buffer.StateOverflow, machine.Update(0.81))
	assert.Equal(t, buffer.StateNormal, machine.Update(0.79))
}

func TestStateMachine_CriticalEntryHasNoDeadBand(t *testing.T) {
	machine := newMachine(t)

	// Critical is entered from any state at the raw threshold.
	assert.Equal(t, buffer.StateCritical, machine.Update(0.05))

	// Leaving Critical requires the dead-band margin and lands in Low.
	assert.Equal(t, buffer.StateCritical, machine.Update(0.12))
	assert.Equal(t, buffer.StateLow, machine.Update(0.17))
}

func TestStateMachine_LargeJumpCascades(t *testing.T) {
	machine := newMachine(t)
	machine.Update(0.05)
	require.Equal(t, buffer.StateCritical, machine.State())

	// A single refill past every band settles in Normal, not Low.
	assert.Equal(t, buffer.StateNormal, machine.Update(0.60))
}

func TestStateMachine_OscillationInsideDeadBandIsStable(t *testing.T) {
	machine := newMachine(t)
	machine.Update(0.29)
	require.Equal(t, buffer.StateLow, machine.State())

	// Bouncing within the dead band around the low threshold never flips
	// the state back and forth.
	for i := 0; i < 10; i++ {
		assert.Equal(t, buffer.StateLow, machine.Update(0.31))
		assert.Equal(t, buffer.StateLow, machine.Update(0.34))
	}
}

func TestStateMachine_EmitsTransitionEvents(t *testing.T) {
	clock := shared.NewMockClock(testTime())
	bus := shared.NewEventBus(clock)
	machine, err := buffer.NewStateMachine(buffer.Thresholds{
		Critical: 0.10, Low: 0.30, High: 0.80, DeadBand: 0.05,
	}, bus)
	require.NoError(t, err)

	var payloads []shared.BufferStateChangedPayload
	bus.Subscribe(shared.EventBufferStateChanged, func(event shared.Event) {
		payloads = append(payloads, event.Payload.(shared.BufferStateChangedPayload))
	})

	machine.Update(0.05)

	require.Len(t, payloads, 1)
	assert.Equal(t, "NORMAL", payloads[0].Previous)
	assert.Equal(t, "CRITICAL", payloads[0].Current)
	assert.Equal(t, 0.05, payloads[0].Level)
}

func TestStateMachine_RecommendedForkliftCount(t *testing.T) {
	machine := newMachine(t)

	assert.Equal(t, 2, machine.RecommendedForkliftCount(4)) // Normal: half

	machine.Update(0.05)
	assert.Equal(t, 4, machine.RecommendedForkliftCount(4)) // Critical: all

	machine.Update(0.20)
	assert.Equal(t, 3, machine.RecommendedForkliftCount(4)) // Low: all but one

	machine.Update(0.60)
	machine.Update(0.90)
	assert.Equal(t, 1, machine.RecommendedForkliftCount(4)) // Overflow: one
}

func TestStateMachine_DeliveryPriority(t *testing.T) {
	machine := newMachine(t)

	assert.Equal(t, 50, machine.DeliveryPriority())
	machine.Update(0.05)
	assert.Equal(t, 100, machine.DeliveryPriority())
}
