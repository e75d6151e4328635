package warehouse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-go/internal/domain/product"
	"github.com/wareflow/wareflow-go/internal/domain/warehouse"
)

func newPallet(t *testing.T, id string, unitWeightKg float64, quantity int, distanceM float64) *warehouse.Pallet {
	t.Helper()
	prod, err := product.NewProduct("SKU-"+id, "widget", unitWeightKg)
	require.NoError(t, err)
	pallet, err := warehouse.NewPallet(id, prod, quantity, distanceM)
	require.NoError(t, err)
	return pallet
}

func TestNewPallet_Validation(t *testing.T) {
	prod, err := product.NewProduct("SKU-1", "widget", 1)
	require.NoError(t, err)

	_, err = warehouse.NewPallet("", prod, 1, 0)
	assert.Error(t, err)

	_, err = warehouse.NewPallet("P1", nil, 1, 0)
	assert.Error(t, err)

	_, err = warehouse.NewPallet("P1", prod, 0, 0)
	assert.Error(t, err)
}

func TestPallet_TotalWeight(t *testing.T) {
	pallet := newPallet(t, "P1", 2.5, 40, 100)

	assert.Equal(t, 100.0, pallet.TotalWeightKg())
}

func TestPallet_LifecycleForwardOnly(t *testing.T) {
	pallet := newPallet(t, "P1", 1, 10, 50)
	require.Equal(t, warehouse.PalletLocationStorage, pallet.Location())

	// Skipping a step is rejected.
	err := pallet.MoveTo(warehouse.PalletLocationBuffer)
	assert.Error(t, err)

	require.NoError(t, pallet.MoveTo(warehouse.PalletLocationInTransit))
	require.NoError(t, pallet.MoveTo(warehouse.PalletLocationBuffer))
	require.NoError(t, pallet.MoveTo(warehouse.PalletLocationPicking))
	require.NoError(t, pallet.MoveTo(warehouse.PalletLocationCompleted))

	// Completed is terminal.
	err = pallet.MoveTo(warehouse.PalletLocationStorage)
	assert.Error(t, err)
}

func TestPallet_PickUpBindsCarrier(t *testing.T) {
	pallet := newPallet(t, "P1", 1, 10, 50)

	require.NoError(t, pallet.PickUp("F1"))

	assert.Equal(t, warehouse.PalletLocationInTransit, pallet.Location())
	assert.Equal(t, "F1", pallet.CarrierForkliftID())

	// Arriving at the buffer clears the carrier.
	require.NoError(t, pallet.MoveTo(warehouse.PalletLocationBuffer))
	assert.Empty(t, pallet.CarrierForkliftID())
}

func TestPallet_DoublePickUpFails(t *testing.T) {
	pallet := newPallet(t, "P1", 1, 10, 50)
	require.NoError(t, pallet.PickUp("F1"))

	err := pallet.PickUp("F2")

	assert.Error(t, err)
	assert.Equal(t, "F1", pallet.CarrierForkliftID())
}
