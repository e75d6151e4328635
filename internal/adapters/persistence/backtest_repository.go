package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/wareflow/wareflow-go/internal/application/backtest"
)

// BacktestRepositoryGORM implements backtest.Store. Saving a wave again
// removes the full prior artifact set for that wave number before inserting
// the new one, inside a single transaction.
type BacktestRepositoryGORM struct {
	db *gorm.DB
}

// NewBacktestRepository creates a GORM-backed backtest store.
func NewBacktestRepository(db *gorm.DB) *BacktestRepositoryGORM {
	return &BacktestRepositoryGORM{db: db}
}

// SaveRun persists the run, its decision log and its schedule events
// atomically, returning the run id.
func (r *BacktestRepositoryGORM) SaveRun(ctx context.Context, result *backtest.Result) (int64, error) {
	var runID int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wave := result.Summary.WaveNumber
		for _, model := range []interface{}{&BacktestEventModel{}, &BacktestDecisionModel{}, &BacktestRunModel{}} {
			if err := tx.Where("wave_number = ?", wave).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear prior backtest of wave %d: %w", wave, err)
			}
		}

		run := BacktestRunModel{
			WaveNumber:     wave,
			RunAt:          result.RunAt,
			OriginalDays:   result.Summary.OriginalDays,
			OptimizedDays:  result.Summary.OptimizedDays,
			DaysSaved:      result.Summary.DaysSaved,
			ImprovementPct: result.Summary.ImprovementPct,
			FactWallClockS: result.Summary.FactWallClockS,
			FactActiveS:    result.Summary.FactActiveS,
			OptActiveS:     result.Summary.OptActiveS,
		}
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("failed to save backtest run: %w", err)
		}
		runID = run.ID

		for _, d := range result.Decisions {
			model := BacktestDecisionModel{
				RunID:        runID,
				WaveNumber:   wave,
				Seq:          d.Seq,
				Day:          d.Day,
				SimTime:      d.SimTime,
				DecisionType: string(d.Type),
				WorkerID:     d.WorkerID,
				WorkerName:   d.WorkerName,
				TaskPriority: d.TaskPriority,
				DurationS:    d.DurationS,
				WeightKg:     d.WeightKg,
				BufferBefore: d.BufferBefore,
				BufferAfter:  d.BufferAfter,
				Constraint:   string(d.Constraint),
				Reason:       d.Reason,
			}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("failed to save decision %d: %w", d.Seq, err)
			}
		}

		for _, e := range result.Events {
			model := BacktestEventModel{
				RunID:       runID,
				WaveNumber:  wave,
				Timeline:    string(e.Timeline),
				WorkerID:    e.WorkerID,
				WorkerName:  e.WorkerName,
				Role:        string(e.Role),
				Start:       e.Start,
				End:         e.End,
				DurationS:   e.DurationS,
				ProductName: e.ProductName,
				FromBin:     e.FromBin,
				ToBin:       e.ToBin,
				WeightKg:    e.WeightKg,
				BufferLevel: e.BufferLevel,
				TransitionS: e.TransitionS,
			}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("failed to save schedule event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return runID, nil
}
