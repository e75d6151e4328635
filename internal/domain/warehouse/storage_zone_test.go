package warehouse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-go/internal/domain/warehouse"
)

func TestStorageZone_AddTake(t *testing.T) {
	zone := warehouse.NewStorageZone()
	pallet := newPallet(t, "P1", 1, 10, 120)

	zone.Add(pallet)
	require.Equal(t, 1, zone.Count())

	taken, err := zone.Take("P1")
	require.NoError(t, err)
	assert.Equal(t, pallet, taken)
	assert.Equal(t, 0, zone.Count())

	_, err = zone.Take("P1")
	assert.Error(t, err)
}

func TestStorageZone_Nearest(t *testing.T) {
	zone := warehouse.NewStorageZone()
	zone.Add(newPallet(t, "far", 1, 10, 200))
	zone.Add(newPallet(t, "near", 1, 10, 40))

	nearest := zone.Nearest(50)

	require.NotNil(t, nearest)
	assert.Equal(t, "near", nearest.ID())
	assert.Equal(t, 2, zone.Count()) // peek, not take
}

func TestStorageZone_NearestEmpty(t *testing.T) {
	zone := warehouse.NewStorageZone()

	assert.Nil(t, zone.Nearest(0))
}
