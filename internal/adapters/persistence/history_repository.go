package persistence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wareflow/wareflow-go/internal/domain/history"
	"github.com/wareflow/wareflow-go/pkg/utils"
)

// defaultRouteMinTrips is the trimmed trip count at which a statistic
// reaches full confidence when no override is configured.
const defaultRouteMinTrips = 10

// maxTransitionGap bounds the same-day gaps counted as worker switchover.
const maxTransitionGap = 10 * time.Minute

// HistoryRepositoryGORM implements history.Repository on GORM. Aggregates
// are computed in process from the action log and persisted to their tables
// so other consumers can read them without recomputing.
type HistoryRepositoryGORM struct {
	db            *gorm.DB
	routeMinTrips int
}

// NewHistoryRepository creates a GORM-backed history repository with the
// default confidence trip count.
func NewHistoryRepository(db *gorm.DB) *HistoryRepositoryGORM {
	return NewHistoryRepositoryWithMinTrips(db, defaultRouteMinTrips)
}

// NewHistoryRepositoryWithMinTrips sets the observation count at which the
// route and picker-product confidence saturates at 1.
func NewHistoryRepositoryWithMinTrips(db *gorm.DB, minTrips int) *HistoryRepositoryGORM {
	if minTrips <= 0 {
		minTrips = defaultRouteMinTrips
	}
	return &HistoryRepositoryGORM{db: db, routeMinTrips: minTrips}
}

// SaveTaskBatch upserts action rows by id. A conflicting row only refreshes
// the mutable execution fields.
func (r *HistoryRepositoryGORM) SaveTaskBatch(ctx context.Context, records []history.TaskActionRecord) error {
	if len(records) == 0 {
		return nil
	}

	models := make([]TaskActionModel, 0, len(records))
	for _, rec := range records {
		models = append(models, taskModelFromRecord(rec))
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"started_at", "completed_at", "status", "duration_s", "failure_reason",
		}),
	}).CreateInBatches(models, 200).Error; err != nil {
		return fmt.Errorf("failed to save task batch: %w", err)
	}
	return nil
}

// TruncateTasks wipes the action log.
func (r *HistoryRepositoryGORM) TruncateTasks(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&TaskActionModel{}).Error; err != nil {
		return fmt.Errorf("failed to truncate tasks: %w", err)
	}
	return nil
}

// TaskCount returns the number of rows in the action log.
func (r *HistoryRepositoryGORM) TaskCount(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&TaskActionModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

// TasksByWave returns the action rows of one wave ordered by start time.
func (r *HistoryRepositoryGORM) TasksByWave(ctx context.Context, waveNumber int) ([]history.TaskActionRecord, error) {
	var models []TaskActionModel
	if err := r.db.WithContext(ctx).
		Where("wave_number = ?", waveNumber).
		Order("started_at asc").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load wave %d tasks: %w", waveNumber, err)
	}
	return recordsFromModels(models), nil
}

// TasksBetween returns the action rows created inside the window.
func (r *HistoryRepositoryGORM) TasksBetween(ctx context.Context, from, to time.Time) ([]history.TaskActionRecord, error) {
	var models []TaskActionModel
	if err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at asc").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return recordsFromModels(models), nil
}

// SaveBufferSnapshot upserts the snapshot by its timestamp.
func (r *HistoryRepositoryGORM) SaveBufferSnapshot(ctx context.Context, snapshot history.BufferSnapshot) error {
	model := BufferSnapshotModel{
		Time:            snapshot.Time,
		BufferLevel:     snapshot.BufferLevel,
		BufferState:     snapshot.BufferState,
		PalletsCount:    snapshot.PalletsCount,
		ActiveForklifts: snapshot.ActiveForklifts,
		ActivePickers:   snapshot.ActivePickers,
		ConsumptionRate: snapshot.ConsumptionRate,
		DeliveryRate:    snapshot.DeliveryRate,
		QueueLength:     snapshot.QueueLength,
		PendingTasks:    snapshot.PendingTasks,
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "time"}},
		UpdateAll: true,
	}).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// SnapshotsBetween returns the snapshots inside the window in time order.
func (r *HistoryRepositoryGORM) SnapshotsBetween(ctx context.Context, from, to time.Time) ([]history.BufferSnapshot, error) {
	var models []BufferSnapshotModel
	if err := r.db.WithContext(ctx).
		Where("time >= ? AND time < ?", from, to).
		Order("time asc").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	out := make([]history.BufferSnapshot, 0, len(models))
	for _, m := range models {
		out = append(out, history.BufferSnapshot{
			Time:            m.Time,
			BufferLevel:     m.BufferLevel,
			BufferState:     m.BufferState,
			PalletsCount:    m.PalletsCount,
			ActiveForklifts: m.ActiveForklifts,
			ActivePickers:   m.ActivePickers,
			ConsumptionRate: m.ConsumptionRate,
			DeliveryRate:    m.DeliveryRate,
			QueueLength:     m.QueueLength,
			PendingTasks:    m.PendingTasks,
		})
	}
	return out, nil
}

// AggregateWorkersFromTasks recomputes the worker table from completed
// actions.
func (r *HistoryRepositoryGORM) AggregateWorkersFromTasks(ctx context.Context) ([]history.WorkerRecord, error) {
	records, err := r.completedTasks(ctx)
	if err != nil {
		return nil, err
	}

	byWorker := make(map[string][]history.TaskActionRecord)
	for _, rec := range records {
		byWorker[rec.WorkerID] = append(byWorker[rec.WorkerID], rec)
	}

	out := make([]history.WorkerRecord, 0, len(byWorker))
	for _, rows := range byWorker {
		durations := make([]float64, 0, len(rows))
		first, last := rows[0].CreatedAt, rows[0].CreatedAt
		for _, rec := range rows {
			durations = append(durations, rec.DurationS)
			if rec.StartedAt != nil && rec.StartedAt.Before(first) {
				first = *rec.StartedAt
			}
			if rec.CompletedAt != nil && rec.CompletedAt.After(last) {
				last = *rec.CompletedAt
			}
		}

		record := history.WorkerRecord{
			WorkerID:        rows[0].WorkerID,
			WorkerName:      rows[0].WorkerName,
			Role:            rows[0].Role,
			TaskCount:       len(rows),
			AvgDurationS:    utils.Mean(durations),
			MedianDurationS: utils.Median(durations),
			StdDevS:         utils.StdDev(durations),
			P90DurationS:    utils.Percentile(durations, 90),
			FirstActivity:   first,
			LastActivity:    last,
		}
		if span := last.Sub(first).Hours(); span > 0 {
			record.TasksPerHour = float64(len(rows)) / span
		}
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })

	if err := r.replaceWorkerRecords(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// AggregateRoutes recomputes per-route forklift statistics with IQR outlier
// trimming.
func (r *HistoryRepositoryGORM) AggregateRoutes(ctx context.Context) ([]history.RouteStatistics, error) {
	records, err := r.completedTasks(ctx)
	if err != nil {
		return nil, err
	}

	type routeKey struct{ from, to string }
	byRoute := make(map[routeKey][]float64)
	for _, rec := range records {
		if rec.Role != history.RoleForklift {
			continue
		}
		key := routeKey{rec.FromZone(), rec.ToZone()}
		byRoute[key] = append(byRoute[key], rec.DurationS)
	}

	out := make([]history.RouteStatistics, 0, len(byRoute))
	for key, durations := range byRoute {
		kept, removed := utils.TrimOutliersIQR(durations)
		if len(kept) == 0 {
			kept = durations
			removed = 0
		}
		lower, upper := utils.IQRBounds(durations)

		confidence := float64(len(kept)) / float64(r.routeMinTrips)
		if confidence > 1 {
			confidence = 1
		}
		out = append(out, history.RouteStatistics{
			FromZone:           key.from,
			ToZone:             key.to,
			Trips:              len(durations),
			NormalizedTrips:    len(kept),
			AvgDurationS:       utils.Mean(kept),
			MedianDurationS:    utils.Median(kept),
			StdDevS:            utils.StdDev(kept),
			LowerBoundS:        lower,
			UpperBoundS:        upper,
			OutliersRemoved:    removed,
			PredictedDurationS: utils.Median(kept),
			Confidence:         confidence,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromZone != out[j].FromZone {
			return out[i].FromZone < out[j].FromZone
		}
		return out[i].ToZone < out[j].ToZone
	})

	if err := r.replaceRouteStatistics(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// AggregatePickerProduct recomputes per-(picker, product) throughput.
func (r *HistoryRepositoryGORM) AggregatePickerProduct(ctx context.Context) ([]history.PickerProductStats, error) {
	records, err := r.completedTasks(ctx)
	if err != nil {
		return nil, err
	}

	type ppKey struct{ picker, sku string }
	grouped := make(map[ppKey][]history.TaskActionRecord)
	for _, rec := range records {
		if rec.Role != history.RolePicker || rec.ProductSKU == "" {
			continue
		}
		key := ppKey{rec.WorkerID, rec.ProductSKU}
		grouped[key] = append(grouped[key], rec)
	}

	out := make([]history.PickerProductStats, 0, len(grouped))
	for _, rows := range grouped {
		totalMinutes, lines, units, kg := 0.0, 0, 0, 0.0
		durations := make([]float64, 0, len(rows))
		for _, rec := range rows {
			totalMinutes += rec.DurationS / 60
			lines += rec.LineCount
			units += rec.Quantity
			kg += rec.WeightKg
			durations = append(durations, rec.DurationS)
		}

		stats := history.PickerProductStats{
			PickerID:     rows[0].WorkerID,
			PickerName:   rows[0].WorkerName,
			ProductSKU:   rows[0].ProductSKU,
			ProductName:  rows[0].ProductName,
			Observations: len(rows),
			AvgDurationS: utils.Mean(durations),
		}
		if totalMinutes > 0 {
			stats.LinesPerMin = float64(lines) / totalMinutes
			stats.UnitsPerMin = float64(units) / totalMinutes
			stats.KgPerMin = kg / totalMinutes
		}
		stats.Confidence = float64(len(rows)) / float64(r.routeMinTrips)
		if stats.Confidence > 1 {
			stats.Confidence = 1
		}
		out = append(out, stats)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PickerID != out[j].PickerID {
			return out[i].PickerID < out[j].PickerID
		}
		return out[i].ProductSKU < out[j].ProductSKU
	})

	if err := r.replacePickerProduct(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// WorkerTransitionStats computes the median same-day gap between successive
// actions per worker of the role, counting only gaps in (0, 10 min).
func (r *HistoryRepositoryGORM) WorkerTransitionStats(ctx context.Context, role history.WorkerRole) ([]history.WorkerTransitionStats, error) {
	records, err := r.completedTasks(ctx)
	if err != nil {
		return nil, err
	}

	byWorker := make(map[string][]history.TaskActionRecord)
	for _, rec := range records {
		if rec.Role == role {
			byWorker[rec.WorkerID] = append(byWorker[rec.WorkerID], rec)
		}
	}

	out := make([]history.WorkerTransitionStats, 0, len(byWorker))
	for _, rows := range byWorker {
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].StartedAt.Before(*rows[j].StartedAt)
		})

		var gaps []float64
		for i := 1; i < len(rows); i++ {
			prev, cur := rows[i-1], rows[i]
			if !prev.Day().Equal(cur.Day()) {
				continue
			}
			gap := cur.StartedAt.Sub(*prev.CompletedAt)
			if gap > 0 && gap < maxTransitionGap {
				gaps = append(gaps, gap.Seconds())
			}
		}
		if len(gaps) == 0 {
			continue
		}
		out = append(out, history.WorkerTransitionStats{
			WorkerID:     rows[0].WorkerID,
			WorkerName:   rows[0].WorkerName,
			Role:         role,
			MedianGapS:   utils.Median(gaps),
			Observations: len(gaps),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out, nil
}

// WorkerRecords reads the persisted worker aggregate table.
func (r *HistoryRepositoryGORM) WorkerRecords(ctx context.Context) ([]history.WorkerRecord, error) {
	var models []WorkerRecordModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load worker records: %w", err)
	}
	out := make([]history.WorkerRecord, 0, len(models))
	for _, m := range models {
		out = append(out, history.WorkerRecord{
			WorkerID:        m.WorkerID,
			WorkerName:      m.WorkerName,
			Role:            history.WorkerRole(m.Role),
			TaskCount:       m.TaskCount,
			AvgDurationS:    m.AvgDurationS,
			MedianDurationS: m.MedianDurationS,
			StdDevS:         m.StdDevS,
			P90DurationS:    m.P90DurationS,
			TasksPerHour:    m.TasksPerHour,
			FirstActivity:   m.FirstActivity,
			LastActivity:    m.LastActivity,
		})
	}
	return out, nil
}

// RouteStatistics reads the persisted route aggregate table.
func (r *HistoryRepositoryGORM) RouteStatistics(ctx context.Context) ([]history.RouteStatistics, error) {
	var models []RouteStatisticsModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load route statistics: %w", err)
	}
	out := make([]history.RouteStatistics, 0, len(models))
	for _, m := range models {
		out = append(out, history.RouteStatistics{
			FromZone:           m.FromZone,
			ToZone:             m.ToZone,
			Trips:              m.Trips,
			NormalizedTrips:    m.NormalizedTrips,
			AvgDurationS:       m.AvgDurationS,
			MedianDurationS:    m.MedianDurationS,
			StdDevS:            m.StdDevS,
			LowerBoundS:        m.LowerBoundS,
			UpperBoundS:        m.UpperBoundS,
			OutliersRemoved:    m.OutliersRemoved,
			PredictedDurationS: m.PredictedDurationS,
			Confidence:         m.Confidence,
		})
	}
	return out, nil
}

// PickerProductStatistics reads the persisted picker-product table.
func (r *HistoryRepositoryGORM) PickerProductStatistics(ctx context.Context) ([]history.PickerProductStats, error) {
	var models []PickerProductModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load picker-product statistics: %w", err)
	}
	out := make([]history.PickerProductStats, 0, len(models))
	for _, m := range models {
		out = append(out, history.PickerProductStats{
			PickerID:     m.PickerID,
			PickerName:   m.PickerName,
			ProductSKU:   m.ProductSKU,
			ProductName:  m.ProductName,
			Observations: m.Observations,
			LinesPerMin:  m.LinesPerMin,
			UnitsPerMin:  m.UnitsPerMin,
			KgPerMin:     m.KgPerMin,
			AvgDurationS: m.AvgDurationS,
			Confidence:   m.Confidence,
		})
	}
	return out, nil
}

// ExportRouteTraining flattens forklift actions into training rows.
func (r *HistoryRepositoryGORM) ExportRouteTraining(ctx context.Context) ([]history.RouteTrainingRow, error) {
	records, err := r.completedTasks(ctx)
	if err != nil {
		return nil, err
	}
	var out []history.RouteTrainingRow
	for _, rec := range records {
		if rec.Role != history.RoleForklift || rec.StartedAt == nil {
			continue
		}
		out = append(out, history.RouteTrainingRow{
			FromZone:  rec.FromZone(),
			ToZone:    rec.ToZone(),
			WeightKg:  rec.WeightKg,
			Quantity:  rec.Quantity,
			Hour:      rec.StartedAt.UTC().Hour(),
			Weekday:   int(rec.StartedAt.UTC().Weekday()),
			DurationS: rec.DurationS,
		})
	}
	return out, nil
}

// ExportPickerTraining flattens picker actions into training rows.
func (r *HistoryRepositoryGORM) ExportPickerTraining(ctx context.Context) ([]history.PickerTrainingRow, error) {
	records, err := r.completedTasks(ctx)
	if err != nil {
		return nil, err
	}
	var out []history.PickerTrainingRow
	for _, rec := range records {
		if rec.Role != history.RolePicker || rec.StartedAt == nil {
			continue
		}
		out = append(out, history.PickerTrainingRow{
			PickerID:   rec.WorkerID,
			ProductSKU: rec.ProductSKU,
			WeightKg:   rec.WeightKg,
			Quantity:   rec.Quantity,
			LineCount:  rec.LineCount,
			Hour:       rec.StartedAt.UTC().Hour(),
			Weekday:    int(rec.StartedAt.UTC().Weekday()),
			DurationS:  rec.DurationS,
		})
	}
	return out, nil
}

// completedTasks loads the rows with a measured duration.
func (r *HistoryRepositoryGORM) completedTasks(ctx context.Context) ([]history.TaskActionRecord, error) {
	var models []TaskActionModel
	if err := r.db.WithContext(ctx).
		Where("duration_s > 0 AND started_at IS NOT NULL AND completed_at IS NOT NULL").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load completed tasks: %w", err)
	}
	return recordsFromModels(models), nil
}

func (r *HistoryRepositoryGORM) replaceWorkerRecords(ctx context.Context, records []history.WorkerRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&WorkerRecordModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear worker records: %w", err)
		}
		for _, rec := range records {
			model := WorkerRecordModel{
				WorkerID:        rec.WorkerID,
				WorkerName:      rec.WorkerName,
				Role:            string(rec.Role),
				TaskCount:       rec.TaskCount,
				AvgDurationS:    rec.AvgDurationS,
				MedianDurationS: rec.MedianDurationS,
				StdDevS:         rec.StdDevS,
				P90DurationS:    rec.P90DurationS,
				TasksPerHour:    rec.TasksPerHour,
				FirstActivity:   rec.FirstActivity,
				LastActivity:    rec.LastActivity,
			}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("failed to save worker record: %w", err)
			}
		}
		return nil
	})
}

func (r *HistoryRepositoryGORM) replaceRouteStatistics(ctx context.Context, stats []history.RouteStatistics) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&RouteStatisticsModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear route statistics: %w", err)
		}
		for _, s := range stats {
			model := RouteStatisticsModel{
				FromZone:           s.FromZone,
				ToZone:             s.ToZone,
				Trips:              s.Trips,
				NormalizedTrips:    s.NormalizedTrips,
				AvgDurationS:       s.AvgDurationS,
				MedianDurationS:    s.MedianDurationS,
				StdDevS:            s.StdDevS,
				LowerBoundS:        s.LowerBoundS,
				UpperBoundS:        s.UpperBoundS,
				OutliersRemoved:    s.OutliersRemoved,
				PredictedDurationS: s.PredictedDurationS,
				Confidence:         s.Confidence,
			}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("failed to save route statistic: %w", err)
			}
		}
		return nil
	})
}

func (r *HistoryRepositoryGORM) replacePickerProduct(ctx context.Context, stats []history.PickerProductStats) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&PickerProductModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear picker-product statistics: %w", err)
		}
		for _, s := range stats {
			model := PickerProductModel{
				PickerID:     s.PickerID,
				ProductSKU:   s.ProductSKU,
				PickerName:   s.PickerName,
				ProductName:  s.ProductName,
				Observations: s.Observations,
				LinesPerMin:  s.LinesPerMin,
				UnitsPerMin:  s.UnitsPerMin,
				KgPerMin:     s.KgPerMin,
				AvgDurationS: s.AvgDurationS,
				Confidence:   s.Confidence,
			}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("failed to save picker-product statistic: %w", err)
			}
		}
		return nil
	})
}

func taskModelFromRecord(rec history.TaskActionRecord) TaskActionModel {
	return TaskActionModel{
		ID:            rec.ID,
		WmsTaskID:     rec.WmsTaskID,
		WaveNumber:    rec.WaveNumber,
		WorkerID:      rec.WorkerID,
		WorkerName:    rec.WorkerName,
		Role:          string(rec.Role),
		Template:      rec.Template,
		BasisNumber:   rec.BasisNumber,
		FromBin:       rec.FromBin,
		ToBin:         rec.ToBin,
		ProductSKU:    rec.ProductSKU,
		ProductName:   rec.ProductName,
		WeightKg:      rec.WeightKg,
		Quantity:      rec.Quantity,
		LineCount:     rec.LineCount,
		CreatedAt:     rec.CreatedAt,
		StartedAt:     rec.StartedAt,
		CompletedAt:   rec.CompletedAt,
		Status:        rec.Status,
		DurationS:     rec.DurationS,
		FailureReason: rec.FailureReason,
	}
}

func recordsFromModels(models []TaskActionModel) []history.TaskActionRecord {
	out := make([]history.TaskActionRecord, 0, len(models))
	for _, m := range models {
		out = append(out, history.TaskActionRecord{
			ID:            m.ID,
			WmsTaskID:     m.WmsTaskID,
			WaveNumber:    m.WaveNumber,
			WorkerID:      m.WorkerID,
			WorkerName:    m.WorkerName,
			Role:          history.WorkerRole(m.Role),
			Template:      m.Template,
			BasisNumber:   m.BasisNumber,
			FromBin:       m.FromBin,
			ToBin:         m.ToBin,
			ProductSKU:    m.ProductSKU,
			ProductName:   m.ProductName,
			WeightKg:      m.WeightKg,
			Quantity:      m.Quantity,
			LineCount:     m.LineCount,
			CreatedAt:     m.CreatedAt,
			StartedAt:     m.StartedAt,
			CompletedAt:   m.CompletedAt,
			Status:        m.Status,
			DurationS:     m.DurationS,
			FailureReason: m.FailureReason,
		})
	}
	return out
}
