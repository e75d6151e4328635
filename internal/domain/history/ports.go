package history

import (
	"context"
	"time"
)

// Repository is the persistence port for the action log, the snapshot
// time-series and the derived aggregate tables.
type Repository interface {
	// SaveTaskBatch upserts action rows by id. Existing rows only refresh
	// started/completed/status/duration/failure_reason.
	SaveTaskBatch(ctx context.Context, records []TaskActionRecord) error
	// TruncateTasks wipes the action log.
	TruncateTasks(ctx context.Context) error
	TaskCount(ctx context.Context) (int64, error)
	TasksByWave(ctx context.Context, waveNumber int) ([]TaskActionRecord, error)
	TasksBetween(ctx context.Context, from, to time.Time) ([]TaskActionRecord, error)

	// SaveBufferSnapshot upserts the snapshot by its timestamp.
	SaveBufferSnapshot(ctx context.Context, snapshot BufferSnapshot) error
	SnapshotsBetween(ctx context.Context, from, to time.Time) ([]BufferSnapshot, error)

	// AggregateWorkersFromTasks recomputes and persists the worker table.
	AggregateWorkersFromTasks(ctx context.Context) ([]WorkerRecord, error)
	// AggregateRoutes recomputes and persists per-route statistics with IQR
	// trimming applied.
	AggregateRoutes(ctx context.Context) ([]RouteStatistics, error)
	// AggregatePickerProduct recomputes and persists picker-by-product
	// throughput statistics.
	AggregatePickerProduct(ctx context.Context) ([]PickerProductStats, error)
	// WorkerTransitionStats computes per-worker median switchover gaps for
	// the role.
	WorkerTransitionStats(ctx context.Context, role WorkerRole) ([]WorkerTransitionStats, error)

	WorkerRecords(ctx context.Context) ([]WorkerRecord, error)
	RouteStatistics(ctx context.Context) ([]RouteStatistics, error)
	PickerProductStatistics(ctx context.Context) ([]PickerProductStats, error)

	ExportRouteTraining(ctx context.Context) ([]RouteTrainingRow, error)
	ExportPickerTraining(ctx context.Context) ([]PickerTrainingRow, error)
}
