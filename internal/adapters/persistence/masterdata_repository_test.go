package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-go/internal/adapters/persistence"
	"github.com/wareflow/wareflow-go/internal/domain/wms"
	"github.com/wareflow/wareflow-go/test/helpers"
)

func TestMasterDataRepository_UpsertWorkers(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewMasterDataRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveWorkers(ctx, []wms.WorkerRow{
		{ID: 1, Code: "F1", Name: "Kara", Role: "FORKLIFT"},
	}))
	// Re-scanning the same id updates in place.
	require.NoError(t, repo.SaveWorkers(ctx, []wms.WorkerRow{
		{ID: 1, Code: "F1", Name: "Kara Renamed", Role: "FORKLIFT"},
	}))

	assert.Equal(t, int64(1), countRows(t, db, &persistence.WmsWorkerModel{}))
	var model persistence.WmsWorkerModel
	require.NoError(t, db.First(&model, 1).Error)
	assert.Equal(t, "Kara Renamed", model.Name)
}

func TestMasterDataRepository_CellDistance(t *testing.T) {
	repo := persistence.NewMasterDataRepository(helpers.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SaveCells(ctx, []wms.CellRow{
		{ID: 1, Code: "01D-02-15-03", ZoneCode: "D", DistanceM: 120},
	}))

	distance, ok, err := repo.CellDistance(ctx, "01D-02-15-03")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 120.0, distance)

	_, ok, err = repo.CellDistance(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMasterDataRepository_ZonesAndProducts(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewMasterDataRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveZones(ctx, []wms.ZoneRow{{ID: 1, Code: "D", Name: "storage D"}}))
	require.NoError(t, repo.SaveProducts(ctx, []wms.ProductRow{{ID: 1, SKU: "A", Name: "widget", WeightKg: 2}}))
	require.NoError(t, repo.SaveZones(ctx, nil)) // empty scans are no-ops

	assert.Equal(t, int64(1), countRows(t, db, &persistence.ZoneModel{}))
	assert.Equal(t, int64(1), countRows(t, db, &persistence.ProductModel{}))
}
