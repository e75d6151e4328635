// Package wms defines the port to the external warehouse management system:
// paged historical reads, current-state reads and the task mutations the
// control service issues.
package wms

import (
	"context"
	"time"
)

// WireTaskStatus is the WMS task status enum as carried on the wire.
type WireTaskStatus int

const (
	WirePending    WireTaskStatus = 0
	WireAssigned   WireTaskStatus = 1
	WireInProgress WireTaskStatus = 2
	WireCompleted  WireTaskStatus = 3
	WireFailed     WireTaskStatus = 4
	WireCancelled  WireTaskStatus = 5
)

// TaskPriority is the WMS task priority: 1 highest, 3 lowest.
type TaskPriority int

const (
	PriorityHigh   TaskPriority = 1
	PriorityMedium TaskPriority = 2
	PriorityLow    TaskPriority = 3
)

// Page carries one page of a monotonically increasing id scan. Re-requesting
// with AfterID = LastID never re-yields already returned items.
type Page[T any] struct {
	Items   []T
	LastID  int64
	HasMore bool
}

// TaskRow is one task action row as read from the WMS.
type TaskRow struct {
	ID          int64
	WaveNumber  int
	WorkerID    string
	WorkerName  string
	Role        string
	Template    string
	BasisNumber string
	FromBin     string
	ToBin       string
	ProductSKU  string
	ProductName string
	WeightKg    float64
	Quantity    int
	LineCount   int
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Status      WireTaskStatus
	Failure     string
}

// WorkerRow is one worker master-data row.
type WorkerRow struct {
	ID   int64
	Code string
	Name string
	Role string
}

// ZoneRow is one storage zone master-data row.
type ZoneRow struct {
	ID   int64
	Code string
	Name string
}

// CellRow is one storage cell (bin) master-data row.
type CellRow struct {
	ID        int64
	Code      string
	ZoneCode  string
	DistanceM float64
}

// ProductRow is one product master-data row.
type ProductRow struct {
	ID       int64
	SKU      string
	Name     string
	WeightKg float64
}

// PickerStatus is the current state of one picker.
type PickerStatus struct {
	ID              string
	Name            string
	State           string
	CurrentRate     float64
	ConsumptionRate float64
}

// ForkliftStatus is the current state of one forklift.
type ForkliftStatus struct {
	ID        string
	Name      string
	State     string
	PositionM float64
	TaskID    string
}

// BufferStatus is the current observed state of the buffer zone.
type BufferStatus struct {
	Level           float64
	PalletsCount    int
	Capacity        int
	ConsumptionRate float64
	DeliveryRate    float64
	QueueLength     int
	PendingTasks    int
}

// CreateTaskRequest asks the WMS to create a pallet movement task.
type CreateTaskRequest struct {
	FromZone string
	FromSlot string
	ToZone   string
	ToSlot   string
	PalletID string
	Priority TaskPriority
}

// Client is the WMS port. Paged reads scan by id after the cursor; current
// reads reflect the live system.
type Client interface {
	Tasks(ctx context.Context, afterID int64, limit int) (Page[TaskRow], error)
	Workers(ctx context.Context, afterID int64, limit int) (Page[WorkerRow], error)
	Zones(ctx context.Context, afterID int64, limit int) (Page[ZoneRow], error)
	Cells(ctx context.Context, afterID int64, limit int) (Page[CellRow], error)
	Products(ctx context.Context, afterID int64, limit int) (Page[ProductRow], error)

	Pickers(ctx context.Context) ([]PickerStatus, error)
	Forklifts(ctx context.Context) ([]ForkliftStatus, error)
	Buffer(ctx context.Context) (BufferStatus, error)

	CreateTask(ctx context.Context, req CreateTaskRequest) (taskID int64, err error)
	UpdateTaskStatus(ctx context.Context, taskID int64, status WireTaskStatus) error
	ConfirmPalletDelivery(ctx context.Context, palletID string) error
	ConfirmPalletConsumed(ctx context.Context, palletID string) error
	UpdateForkliftStatus(ctx context.Context, forkliftID, state string) error
}
