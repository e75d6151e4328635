package warehouse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-go/internal/domain/warehouse"
)

func TestNewForklift_Validation(t *testing.T) {
	_, err := warehouse.NewForklift("", "Kara", 1.5, 30)
	assert.Error(t, err)

	_, err = warehouse.NewForklift("F1", "Kara", 0, 30)
	assert.Error(t, err)

	_, err = warehouse.NewForklift("F1", "Kara", 1.5, -1)
	assert.Error(t, err)
}

func TestForklift_EstimateDeliveryTime(t *testing.T) {
	forklift, err := warehouse.NewForklift("F1", "Kara", 2, 30)
	require.NoError(t, err)
	pallet := newPallet(t, "P1", 1, 10, 100)

	// From the buffer (0 m): 100 m out + load + 100 m back + unload
	// at 2 m/s = 50 + 30 + 50 + 30 seconds.
	eta := forklift.EstimateDeliveryTime(pallet)
	assert.Equal(t, 160*time.Second, eta)

	// Halfway down the aisle the outbound leg halves.
	forklift.SetPosition(50)
	assert.Equal(t, 135*time.Second, forklift.EstimateDeliveryTime(pallet))
}

func TestForklift_TaskLifecycle(t *testing.T) {
	forklift, err := warehouse.NewForklift("F1", "Kara", 1.5, 30)
	require.NoError(t, err)
	require.True(t, forklift.IsAvailable())

	require.NoError(t, forklift.AssignTask("T1"))
	assert.False(t, forklift.IsAvailable())
	assert.Equal(t, warehouse.ForkliftStateMovingToPallet, forklift.State())

	// Second task while busy is rejected.
	assert.Error(t, forklift.AssignTask("T2"))

	require.NoError(t, forklift.AdvanceLeg())
	assert.Equal(t, warehouse.ForkliftStateLoading, forklift.State())
	require.NoError(t, forklift.AdvanceLeg())
	require.NoError(t, forklift.AdvanceLeg())
	assert.Equal(t, warehouse.ForkliftStateUnloading, forklift.State())

	// Unloading has no next leg; delivery completion closes the round.
	assert.Error(t, forklift.AdvanceLeg())
	require.NoError(t, forklift.CompleteDelivery())
	assert.True(t, forklift.IsAvailable())
	assert.Equal(t, 0.0, forklift.CurrentPositionM())
}

func TestForklift_CompleteWithoutTaskFails(t *testing.T) {
	forklift, err := warehouse.NewForklift("F1", "Kara", 1.5, 30)
	require.NoError(t, err)

	assert.Error(t, forklift.CompleteDelivery())
}

func TestForklift_OfflineReleasesTask(t *testing.T) {
	forklift, err := warehouse.NewForklift("F1", "Kara", 1.5, 30)
	require.NoError(t, err)
	require.NoError(t, forklift.AssignTask("T1"))

	released := forklift.SetOffline()

	assert.Equal(t, "T1", released)
	assert.Equal(t, warehouse.ForkliftStateOffline, forklift.State())
	assert.False(t, forklift.IsAvailable())

	require.NoError(t, forklift.SetOnline())
	assert.True(t, forklift.IsAvailable())
}

func TestForklift_SetOnlineOnlyFromOffline(t *testing.T) {
	forklift, err := warehouse.NewForklift("F1", "Kara", 1.5, 30)
	require.NoError(t, err)

	assert.Error(t, forklift.SetOnline())
}
