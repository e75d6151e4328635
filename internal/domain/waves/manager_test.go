package waves_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-go/internal/domain/product"
	"github.com/wareflow/wareflow-go/internal/domain/shared"
	"github.com/wareflow/wareflow-go/internal/domain/warehouse"
	"github.com/wareflow/wareflow-go/internal/domain/waves"
)

func testTime() time.Time {
	return time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
}

func newManager(t *testing.T, clock *shared.MockClock) *waves.Manager {
	t.Helper()
	return waves.NewManager(waves.Settings{
		Duration:          2 * time.Hour,
		SafetyMargin:      5 * time.Minute,
		MaxPalletsPerWave: 10,
	}, clock)
}

func storedPallet(t *testing.T, id, sku string, unitWeightKg float64, quantity int, distanceM float64) *warehouse.Pallet {
	t.Helper()
	prod, err := product.NewProduct(sku, "widget", unitWeightKg)
	require.NoError(t, err)
	pallet, err := warehouse.NewPallet(id, prod, quantity, distanceM)
	require.NoError(t, err)
	return pallet
}

func newOrder(t *testing.T, id string, lines ...waves.OrderLine) *waves.Order {
	t.Helper()
	order, err := waves.NewOrder(id, lines)
	require.NoError(t, err)
	return order
}

func TestNewOrder_Validation(t *testing.T) {
	_, err := waves.NewOrder("", []waves.OrderLine{{SKU: "A", Quantity: 1}})
	assert.Error(t, err)

	_, err = waves.NewOrder("ORD-1", nil)
	assert.Error(t, err)

	_, err = waves.NewOrder("ORD-1", []waves.OrderLine{{SKU: "", Quantity: 1}})
	assert.Error(t, err)

	_, err = waves.NewOrder("ORD-1", []waves.OrderLine{{SKU: "A", Quantity: 0}})
	assert.Error(t, err)
}

func TestManager_CreateWaveClaimsWholePallets(t *testing.T) {
	clock := shared.NewMockClock(testTime())
	manager := newManager(t, clock)
	pallets := []*warehouse.Pallet{
		storedPallet(t, "P1", "A", 1, 10, 50),
		storedPallet(t, "P2", "A", 1, 10, 60),
		storedPallet(t, "P3", "B", 2, 10, 70),
	}

	// 15 units of A need two whole 10-unit pallets.
	order := newOrder(t, "ORD-1",
		waves.OrderLine{SKU: "A", Quantity: 15},
		waves.OrderLine{SKU: "B", Quantity: 10},
	)

	wave, err := manager.CreateWave([]*waves.Order{order}, pallets)

	require.NoError(t, err)
	assert.Equal(t, 1, wave.SequenceNumber())
	assert.Equal(t, waves.WaveStatusPending, wave.Status())
	assert.Equal(t, testTime().Add(2*time.Hour), wave.Deadline())
	require.Len(t, wave.Streams(), 1)
	assert.Equal(t, 3, wave.TaskCount())
}

func TestManager_CreateWaveShortage(t *testing.T) {
	clock := shared.NewMockClock(testTime())
	manager := newManager(t, clock)
	pallets := []*warehouse.Pallet{storedPallet(t, "P1", "A", 1, 10, 50)}

	order := newOrder(t, "ORD-1", waves.OrderLine{SKU: "A", Quantity: 25})

	_, err := manager.CreateWave([]*waves.Order{order}, pallets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough pallets")
	assert.Empty(t, manager.Waves())
}

func TestManager_CreateWavePalletCap(t *testing.T) {
	clock := shared.NewMockClock(testTime())
	manager := waves.NewManager(waves.Settings{Duration: time.Hour, MaxPalletsPerWave: 1}, clock)
	pallets := []*warehouse.Pallet{
		storedPallet(t, "P1", "A", 1, 10, 50),
		storedPallet(t, "P2", "A", 1, 10, 60),
	}

	order := newOrder(t, "ORD-1", waves.OrderLine{SKU: "A", Quantity: 20})

	_, err := manager.CreateWave([]*waves.Order{order}, pallets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pallet cap")
}

func TestManager_StreamTasksHeaviestFirst(t *testing.T) {
	clock := shared.NewMockClock(testTime())
	manager := newManager(t, clock)
	pallets := []*warehouse.Pallet{
		storedPallet(t, "light", "A", 1, 10, 50), // 10 kg
		storedPallet(t, "heavy", "A", 5, 10, 60), // 50 kg
	}

	order := newOrder(t, "ORD-1", waves.OrderLine{SKU: "A", Quantity: 20})
	wave, err := manager.CreateWave([]*waves.Order{order}, pallets)
	require.NoError(t, err)

	tasks := wave.Streams()[0].Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "heavy", tasks[0].Pallet().ID())
	assert.Equal(t, "light", tasks[1].Pallet().ID())
}

func TestManager_StreamSequenceIsMonotoneAcrossWaves(t *testing.T) {
	clock := shared.NewMockClock(testTime())
	manager := newManager(t, clock)

	first, err := manager.CreateWave(
		[]*waves.Order{newOrder(t, "ORD-1", waves.OrderLine{SKU: "A", Quantity: 10})},
		[]*warehouse.Pallet{storedPallet(t, "P1", "A", 1, 10, 50)},
	)
	require.NoError(t, err)
	second, err := manager.CreateWave(
		[]*waves.Order{newOrder(t, "ORD-2", waves.OrderLine{SKU: "B", Quantity: 10})},
		[]*warehouse.Pallet{storedPallet(t, "P2", "B", 1, 10, 50)},
	)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Streams()[0].SequenceNumber())
	assert.Equal(t, 2, second.Streams()[0].SequenceNumber())
	assert.Equal(t, 2, second.SequenceNumber())
}

func TestManager_NextPendingWave(t *testing.T) {
	clock := shared.NewMockClock(testTime())
	manager := newManager(t, clock)
	require.Nil(t, manager.NextPendingWave())

	first, err := manager.CreateWave(
		[]*waves.Order{newOrder(t, "ORD-1", waves.OrderLine{SKU: "A", Quantity: 10})},
		[]*warehouse.Pallet{storedPallet(t, "P1", "A", 1, 10, 50)},
	)
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	_, err = manager.CreateWave(
		[]*waves.Order{newOrder(t, "ORD-2", waves.OrderLine{SKU: "B", Quantity: 10})},
		[]*warehouse.Pallet{storedPallet(t, "P2", "B", 1, 10, 50)},
	)
	require.NoError(t, err)

	// The earlier wave has the earlier deadline.
	next := manager.NextPendingWave()
	require.NotNil(t, next)
	assert.Equal(t, first.ID(), next.ID())

	require.NoError(t, manager.Start(first))
	next = manager.NextPendingWave()
	require.NotNil(t, next)
	assert.NotEqual(t, first.ID(), next.ID())
}

func TestManager_UpdateStatusesMarksOverdueAndCompleted(t *testing.T) {
	clock := shared.NewMockClock(testTime())
	manager := newManager(t, clock)
	wave, err := manager.CreateWave(
		[]*waves.Order{newOrder(t, "ORD-1", waves.OrderLine{SKU: "A", Quantity: 10})},
		[]*warehouse.Pallet{storedPallet(t, "P1", "A", 1, 10, 50)},
	)
	require.NoError(t, err)

	// Past the deadline with open tasks the wave goes overdue.
	clock.Advance(3 * time.Hour)
	changed := manager.UpdateStatuses()
	require.Len(t, changed, 1)
	assert.Equal(t, waves.WaveStatusOverdue, wave.Status())

	// An overdue wave can still start and finish.
	require.NoError(t, manager.Start(wave))
	for _, task := range wave.Streams()[0].Tasks() {
		require.NoError(t, task.Assign("F1", clock.Now()))
		require.NoError(t, task.Complete(clock.Now()))
	}
	changed = manager.UpdateStatuses()
	require.Len(t, changed, 1)
	assert.Equal(t, waves.WaveStatusCompleted, wave.Status())
	require.NotNil(t, wave.CompletedAt())

	// Completed never regresses.
	clock.Advance(time.Hour)
	assert.Empty(t, manager.UpdateStatuses())
}

func TestManager_WaveBySequence(t *testing.T) {
	clock := shared.NewMockClock(testTime())
	manager := newManager(t, clock)
	wave, err := manager.CreateWave(
		[]*waves.Order{newOrder(t, "ORD-1", waves.OrderLine{SKU: "A", Quantity: 10})},
		[]*warehouse.Pallet{storedPallet(t, "P1", "A", 1, 10, 50)},
	)
	require.NoError(t, err)

	assert.Equal(t, wave.ID(), manager.WaveBySequence(1).ID())
	assert.Nil(t, manager.WaveBySequence(99))
}

func TestManager_LeadTime(t *testing.T) {
	clock := shared.NewMockClock(testTime())
	manager := newManager(t, clock)
	wave, err := manager.CreateWave(
		[]*waves.Order{newOrder(t, "ORD-1", waves.OrderLine{SKU: "A", Quantity: 20})},
		[]*warehouse.Pallet{
			storedPallet(t, "P1", "A", 1, 10, 90),
			storedPallet(t, "P2", "A", 1, 10, 300),
		},
	)
	require.NoError(t, err)

	forklifts := []*warehouse.Forklift{mustForklift(t, "F1", 1.0), mustForklift(t, "F2", 2.0)}

	// Farthest pallet at 300 m, mean speed 1.5 m/s: 200 s travel + margin.
	lead := manager.LeadTime(wave, forklifts)
	assert.Equal(t, 200*time.Second+5*time.Minute, lead)

	// Without forklifts only the safety margin remains.
	assert.Equal(t, 5*time.Minute, manager.LeadTime(wave, nil))
}

func mustForklift(t *testing.T, id string, speed float64) *warehouse.Forklift {
	t.Helper()
	forklift, err := warehouse.NewForklift(id, "lift "+id, speed, 30)
	require.NoError(t, err)
	return forklift
}
