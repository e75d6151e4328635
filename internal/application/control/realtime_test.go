package control

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-go/internal/domain/buffer"
	"github.com/wareflow/wareflow-go/internal/domain/queueing"
	"github.com/wareflow/wareflow-go/internal/domain/scheduling"
	"github.com/wareflow/wareflow-go/internal/domain/shared"
	"github.com/wareflow/wareflow-go/internal/domain/wms"
)

func tickTime() time.Time {
	return time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
}

// stubWms serves canned realtime readings and records the write calls the
// tick issues against the WMS.
type stubWms struct {
	wms.Client
	buffer    wms.BufferStatus
	pickers   []wms.PickerStatus
	forklifts []wms.ForkliftStatus

	bufferCalls    int
	pickersCalls   int
	forkliftsCalls int

	created     []wms.CreateTaskRequest
	deactivated []string
}

func (s *stubWms) Buffer(ctx context.Context) (wms.BufferStatus, error) {
	s.bufferCalls++
	return s.buffer, nil
}

func (s *stubWms) Pickers(ctx context.Context) ([]wms.PickerStatus, error) {
	s.pickersCalls++
	return s.pickers, nil
}

func (s *stubWms) Forklifts(ctx context.Context) ([]wms.ForkliftStatus, error) {
	s.forkliftsCalls++
	return s.forklifts, nil
}

func (s *stubWms) CreateTask(ctx context.Context, req wms.CreateTaskRequest) (int64, error) {
	s.created = append(s.created, req)
	return int64(len(s.created)), nil
}

func (s *stubWms) UpdateForkliftStatus(ctx context.Context, forkliftID, state string) error {
	s.deactivated = append(s.deactivated, forkliftID)
	return nil
}

// tickService wires a Service around the stub with the stock thresholds
// (critical 0.10, low 0.30, high 0.80, dead band 0.05) over a capacity of 20.
func tickService(t *testing.T, cfg Config, client *stubWms, clock shared.Clock) *Service {
	t.Helper()
	bus := shared.NewEventBus(nil)
	machine, err := buffer.NewStateMachine(buffer.Thresholds{
		Critical: 0.10,
		Low:      0.30,
		High:     0.80,
		DeadBand: 0.05,
	}, bus)
	require.NoError(t, err)
	controller := buffer.NewController(machine, 20, queueing.Bands{Overload: 0.8, Critical: 0.95})
	return NewService(cfg, client, nil, controller, buffer.NewEngine(), scheduling.NewDispatcher(clock, bus), nil, nil, clock, zerolog.Nop(), nil)
}

func TestRealtimeTick_CriticalCreatesCappedAtBudget(t *testing.T) {
	client := &stubWms{buffer: wms.BufferStatus{Level: 0.05, ConsumptionRate: 40}}
	svc := tickService(t, Config{MaxCreatesPerCycle: 3, ReplenishFromZone: "D", ReplenishToZone: "BUFFER"}, client, shared.NewMockClock(tickTime()))

	svc.realtimeTick(context.Background())

	// Target level 0.55 over capacity 20 leaves a deficit of 10 pallets;
	// the per-cycle budget cuts that to 3.
	require.Len(t, client.created, 3)
	for _, req := range client.created {
		assert.Equal(t, wms.PriorityHigh, req.Priority)
		assert.Equal(t, "D", req.FromZone)
		assert.Equal(t, "BUFFER", req.ToZone)
	}
	snap := svc.Stats()
	assert.Equal(t, string(buffer.StateCritical), snap.BufferState)
	assert.Equal(t, 3, snap.PalletsRequested)
}

func TestRealtimeTick_LowRequestClampedByAction(t *testing.T) {
	client := &stubWms{
		buffer:    wms.BufferStatus{Level: 0.25, ConsumptionRate: 40},
		forklifts: []wms.ForkliftStatus{{ID: "F1", Name: "F1", State: "IDLE"}},
	}
	svc := tickService(t, Config{MaxCreatesPerCycle: 5}, client, shared.NewMockClock(tickTime()))

	svc.realtimeTick(context.Background())

	// The low rule asks for 3 pallets with one idle forklift, under the
	// raw deficit of 6, so the action clamps the request.
	require.Len(t, client.created, 3)
	for _, req := range client.created {
		assert.Equal(t, wms.PriorityMedium, req.Priority)
	}
	assert.Empty(t, client.deactivated)
}

func TestRealtimeTick_OverflowRetiresIdleForklifts(t *testing.T) {
	client := &stubWms{
		buffer: wms.BufferStatus{Level: 0.90, ConsumptionRate: 40},
		forklifts: []wms.ForkliftStatus{
			{ID: "F1", Name: "F1", State: "IDLE"},
			{ID: "F2", Name: "F2", State: "IDLE"},
			{ID: "F3", Name: "F3", State: "LOADING", TaskID: "T1"},
		},
	}
	svc := tickService(t, Config{}, client, shared.NewMockClock(tickTime()))

	svc.realtimeTick(context.Background())

	// Three active, keep one: both idle forklifts go offline, the loaded
	// one keeps its task.
	assert.Equal(t, []string{"F1", "F2"}, client.deactivated)
	assert.Empty(t, client.created)
}

func TestRealtimeTick_BufferPollReusesFreshReading(t *testing.T) {
	client := &stubWms{buffer: wms.BufferStatus{Level: 0.5, ConsumptionRate: 40}}
	clock := shared.NewMockClock(tickTime())
	svc := tickService(t, Config{BufferPoll: time.Second}, client, clock)

	svc.realtimeTick(context.Background())
	svc.realtimeTick(context.Background())

	// Second tick lands inside the poll interval and reuses the reading;
	// the unthrottled picker read still happens every tick.
	assert.Equal(t, 1, client.bufferCalls)
	assert.Equal(t, 2, client.pickersCalls)

	clock.Advance(2 * time.Second)
	svc.realtimeTick(context.Background())
	assert.Equal(t, 2, client.bufferCalls)
}

func TestRealtimeTick_UnderstaffedCrewFlagsSnapshot(t *testing.T) {
	client := &stubWms{
		buffer:  wms.BufferStatus{Level: 0.5, ConsumptionRate: 40},
		pickers: []wms.PickerStatus{{ID: "P1", State: "PICKING"}, {ID: "P2", State: "OFFLINE"}},
		forklifts: []wms.ForkliftStatus{
			{ID: "F1", Name: "F1", State: "IDLE"},
		},
	}
	svc := tickService(t, Config{ExpectedForklifts: 2, ExpectedPickers: 2}, client, shared.NewMockClock(tickTime()))

	svc.realtimeTick(context.Background())

	snap := svc.Stats()
	assert.True(t, snap.Understaffed)
	assert.Equal(t, 1, snap.ActivePickers)
	assert.Equal(t, 1, snap.ActiveForklifts)
}
