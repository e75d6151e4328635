package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wareflow/wareflow-go/internal/domain/wms"
)

// MasterDataRepositoryGORM persists WMS master-data scans. All writes are
// upserts by the WMS id so re-running a scan is harmless.
type MasterDataRepositoryGORM struct {
	db *gorm.DB
}

// NewMasterDataRepository creates a GORM-backed master-data repository.
func NewMasterDataRepository(db *gorm.DB) *MasterDataRepositoryGORM {
	return &MasterDataRepositoryGORM{db: db}
}

func (r *MasterDataRepositoryGORM) SaveWorkers(ctx context.Context, rows []wms.WorkerRow) error {
	if len(rows) == 0 {
		return nil
	}
	models := make([]WmsWorkerModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, WmsWorkerModel{ID: row.ID, Code: row.Code, Name: row.Name, Role: row.Role})
	}
	if err := r.upsertByID(ctx, models); err != nil {
		return fmt.Errorf("failed to save workers: %w", err)
	}
	return nil
}

func (r *MasterDataRepositoryGORM) SaveZones(ctx context.Context, rows []wms.ZoneRow) error {
	if len(rows) == 0 {
		return nil
	}
	models := make([]ZoneModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, ZoneModel{ID: row.ID, Code: row.Code, Name: row.Name})
	}
	if err := r.upsertByID(ctx, models); err != nil {
		return fmt.Errorf("failed to save zones: %w", err)
	}
	return nil
}

func (r *MasterDataRepositoryGORM) SaveCells(ctx context.Context, rows []wms.CellRow) error {
	if len(rows) == 0 {
		return nil
	}
	models := make([]CellModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, CellModel{ID: row.ID, Code: row.Code, ZoneCode: row.ZoneCode, DistanceM: row.DistanceM})
	}
	if err := r.upsertByID(ctx, models); err != nil {
		return fmt.Errorf("failed to save cells: %w", err)
	}
	return nil
}

func (r *MasterDataRepositoryGORM) SaveProducts(ctx context.Context, rows []wms.ProductRow) error {
	if len(rows) == 0 {
		return nil
	}
	models := make([]ProductModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, ProductModel{ID: row.ID, SKU: row.SKU, Name: row.Name, WeightKg: row.WeightKg})
	}
	if err := r.upsertByID(ctx, models); err != nil {
		return fmt.Errorf("failed to save products: %w", err)
	}
	return nil
}

// CellDistance returns the configured distance for a bin code, false when
// the cell is unknown.
func (r *MasterDataRepositoryGORM) CellDistance(ctx context.Context, code string) (float64, bool, error) {
	var model CellModel
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load cell %s: %w", code, err)
	}
	return model.DistanceM, true, nil
}

func (r *MasterDataRepositoryGORM) upsertByID(ctx context.Context, models interface{}) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).CreateInBatches(models, 200).Error
}
