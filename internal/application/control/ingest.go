package control

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wareflow/wareflow-go/internal/domain/history"
	"github.com/wareflow/wareflow-go/internal/domain/wms"
)

// MasterDataStore persists the WMS master-data scans.
type MasterDataStore interface {
	SaveWorkers(ctx context.Context, rows []wms.WorkerRow) error
	SaveZones(ctx context.Context, rows []wms.ZoneRow) error
	SaveCells(ctx context.Context, rows []wms.CellRow) error
	SaveProducts(ctx context.Context, rows []wms.ProductRow) error
}

// actionNamespace makes action row ids a pure function of the WMS task id,
// so re-ingesting a page upserts instead of duplicating.
var actionNamespace = uuid.MustParse("8f9d6a3e-1f7b-4c1e-9f0a-2d5b8c4e7a10")

// ActionID derives the stable action log id for a WMS task row.
func ActionID(wmsTaskID int64) string {
	return uuid.NewSHA1(actionNamespace, []byte(fmt.Sprintf("task:%d", wmsTaskID))).String()
}

// Ingestor pulls WMS pages into the historical store. Each entity keeps a
// monotone after-id cursor; rows already saved are never re-processed unless
// the log is explicitly truncated.
type Ingestor struct {
	client   wms.Client
	repo     history.Repository
	master   MasterDataStore
	log      zerolog.Logger
	metrics  MetricsRecorder
	pageSize int

	mu         sync.Mutex
	taskCursor int64
	workerCur  int64
	zoneCursor int64
	cellCursor int64
	productCur int64
}

// NewIngestor creates an ingestor. Page size defaults to 500.
func NewIngestor(client wms.Client, repo history.Repository, master MasterDataStore, log zerolog.Logger, metrics MetricsRecorder, pageSize int) *Ingestor {
	if pageSize <= 0 {
		pageSize = 500
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Ingestor{
		client:   client,
		repo:     repo,
		master:   master,
		log:      log.With().Str("component", "ingest").Logger(),
		metrics:  metrics,
		pageSize: pageSize,
	}
}

// ResetTaskCursor restarts the task scan from the beginning, used together
// with a truncate.
func (in *Ingestor) ResetTaskCursor() {
	in.mu.Lock()
	in.taskCursor = 0
	in.mu.Unlock()
}

// Truncate wipes the local action log and resets the task cursor so the next
// SyncTasks re-ingests from the beginning.
func (in *Ingestor) Truncate(ctx context.Context) error {
	if err := in.repo.TruncateTasks(ctx); err != nil {
		return fmt.Errorf("truncating action log: %w", err)
	}
	in.ResetTaskCursor()
	in.log.Info().Msg("action log truncated")
	return nil
}

// SyncTasks drains all task pages after the cursor into the action log.
func (in *Ingestor) SyncTasks(ctx context.Context) (int, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	total := 0
	for {
		page, err := in.client.Tasks(ctx, in.taskCursor, in.pageSize)
		if err != nil {
			return total, fmt.Errorf("fetching tasks after %d: %w", in.taskCursor, err)
		}
		if len(page.Items) == 0 {
			break
		}

		records := make([]history.TaskActionRecord, 0, len(page.Items))
		for _, row := range page.Items {
			records = append(records, in.recordFromRow(row))
		}
		if err := in.repo.SaveTaskBatch(ctx, records); err != nil {
			return total, fmt.Errorf("saving task batch: %w", err)
		}

		total += len(records)
		in.taskCursor = page.LastID
		if !page.HasMore {
			break
		}
	}

	in.metrics.RecordIngestedRows("tasks", total)
	in.log.Info().Int("rows", total).Int64("cursor", in.taskCursor).Msg("task sync complete")
	return total, nil
}

// SyncWorkers drains all worker master-data pages.
func (in *Ingestor) SyncWorkers(ctx context.Context) (int, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	total := 0
	for {
		page, err := in.client.Workers(ctx, in.workerCur, in.pageSize)
		if err != nil {
			return total, fmt.Errorf("fetching workers after %d: %w", in.workerCur, err)
		}
		if len(page.Items) == 0 {
			break
		}
		if err := in.master.SaveWorkers(ctx, page.Items); err != nil {
			return total, fmt.Errorf("saving workers: %w", err)
		}
		total += len(page.Items)
		in.workerCur = page.LastID
		if !page.HasMore {
			break
		}
	}
	in.metrics.RecordIngestedRows("workers", total)
	return total, nil
}

// SyncZones drains all zone master-data pages.
func (in *Ingestor) SyncZones(ctx context.Context) (int, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	total := 0
	for {
		page, err := in.client.Zones(ctx, in.zoneCursor, in.pageSize)
		if err != nil {
			return total, fmt.Errorf("fetching zones after %d: %w", in.zoneCursor, err)
		}
		if len(page.Items) == 0 {
			break
		}
		if err := in.master.SaveZones(ctx, page.Items); err != nil {
			return total, fmt.Errorf("saving zones: %w", err)
		}
		total += len(page.Items)
		in.zoneCursor = page.LastID
		if !page.HasMore {
			break
		}
	}
	in.metrics.RecordIngestedRows("zones", total)
	return total, nil
}

// SyncCells drains all cell master-data pages.
func (in *Ingestor) SyncCells(ctx context.Context) (int, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	total := 0
	for {
		page, err := in.client.Cells(ctx, in.cellCursor, in.pageSize)
		if err != nil {
			return total, fmt.Errorf("fetching cells after %d: %w", in.cellCursor, err)
		}
		if len(page.Items) == 0 {
			break
		}
		if err := in.master.SaveCells(ctx, page.Items); err != nil {
			return total, fmt.Errorf("saving cells: %w", err)
		}
		total += len(page.Items)
		in.cellCursor = page.LastID
		if !page.HasMore {
			break
		}
	}
	in.metrics.RecordIngestedRows("cells", total)
	return total, nil
}

// SyncProducts drains all product master-data pages.
func (in *Ingestor) SyncProducts(ctx context.Context) (int, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	total := 0
	for {
		page, err := in.client.Products(ctx, in.productCur, in.pageSize)
		if err != nil {
			return total, fmt.Errorf("fetching products after %d: %w", in.productCur, err)
		}
		if len(page.Items) == 0 {
			break
		}
		if err := in.master.SaveProducts(ctx, page.Items); err != nil {
			return total, fmt.Errorf("saving products: %w", err)
		}
		total += len(page.Items)
		in.productCur = page.LastID
		if !page.HasMore {
			break
		}
	}
	in.metrics.RecordIngestedRows("products", total)
	return total, nil
}

// Run performs a full scan and then re-scans the action log on every tick
// until the context is cancelled. Master data changes rarely; the periodic
// work is the task cursor catching up with the WMS.
func (in *Ingestor) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	if err := in.SyncAll(ctx); err != nil {
		in.log.Error().Err(err).Msg("initial sync failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := in.SyncTasks(ctx); err != nil {
				in.log.Error().Err(err).Msg("task sync failed")
			}
		}
	}
}

/// SyncAll runs every scan in order: master data first, then the action log.
func (in *Ingestor) SyncAll(ctx context.Context) error {
	steps := []func(context.Context) (int, error){
		in.SyncWorkers, in.SyncZones, in.SyncCells, in.SyncProducts, in.SyncTasks,
	}
	for _, step := range steps {
		if _, err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (in *Ingestor) recordFromRow(row wms.TaskRow) history.TaskActionRecord {
	record := history.TaskActionRecord{
		ID:            ActionID(row.ID),
		WmsTaskID:     row.ID,
		WaveNumber:    row.WaveNumber,
		WorkerID:      row.WorkerID,
		WorkerName:    row.WorkerName,
		Role:          roleFromWire(row.Role),
		Template:      row.Template,
		BasisNumber:   row.BasisNumber,
		FromBin:       row.FromBin,
		ToBin:         row.ToBin,
		ProductSKU:    row.ProductSKU,
		ProductName:   row.ProductName,
		WeightKg:      row.WeightKg,
		Quantity:      row.Quantity,
		LineCount:     row.LineCount,
		CreatedAt:     row.CreatedAt,
		StartedAt:     row.StartedAt,
		CompletedAt:   row.CompletedAt,
		Status:        statusFromWire(row.Status),
		FailureReason: row.Failure,
	}
	if row.StartedAt != nil && row.CompletedAt != nil {
		// Completion before start is a WMS clock artifact: the row is kept
		// but carries no measured duration.
		if d := row.CompletedAt.Sub(*row.StartedAt).Seconds(); d >= 0 {
			record.DurationS = d
		} else {
			in.log.Warn().Int64("wms_task", row.ID).Float64("duration_s", d).
				Msg("negative duration dropped")
		}
	}
	return record
}

func roleFromWire(role string) history.WorkerRole {
	if role == "FORKLIFT" || role == "forklift" {
		return history.RoleForklift
	}
	return history.RolePicker
}

func statusFromWire(status wms.WireTaskStatus) string {
	switch status {
	case wms.WirePending:
		return "PENDING"
	case wms.WireAssigned:
		return "ASSIGNED"
	case wms.WireInProgress:
		return "IN_PROGRESS"
	case wms.WireCompleted:
		return "COMPLETED"
	case wms.WireFailed:
		return "FAILED"
	case wms.WireCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}
