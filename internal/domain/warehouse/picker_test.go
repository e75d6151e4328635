package warehouse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-go/internal/domain/warehouse"
)

func TestNewPicker_Validation(t *testing.T) {
	_, err := warehouse.NewPicker("", "Anna", 10)
	assert.Error(t, err)

	_, err = warehouse.NewPicker("PK1", "Anna", -1)
	assert.Error(t, err)
}

func TestPicker_IsActive(t *testing.T) {
	picker, err := warehouse.NewPicker("PK1", "Anna", 10)
	require.NoError(t, err)

	assert.True(t, picker.IsActive())

	picker.SetState(warehouse.PickerStatePicking)
	assert.True(t, picker.IsActive())

	picker.SetState(warehouse.PickerStateBreak)
	assert.False(t, picker.IsActive())

	picker.SetState(warehouse.PickerStateOffline)
	assert.False(t, picker.IsActive())
}

func TestPicker_ObserveRates(t *testing.T) {
	picker, err := warehouse.NewPicker("PK1", "Anna", 10)
	require.NoError(t, err)

	picker.ObserveRates(12.5, 3.2)

	assert.Equal(t, 12.5, picker.CurrentRate())
	assert.Equal(t, 3.2, picker.PalletConsumptionRate())
	assert.Equal(t, 10.0, picker.AvgRate())
}
