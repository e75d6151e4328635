package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-go/internal/adapters/persistence"
	"github.com/wareflow/wareflow-go/internal/application/backtest"
	"github.com/wareflow/wareflow-go/internal/domain/history"
	"github.com/wareflow/wareflow-go/test/helpers"
	"gorm.io/gorm"
)

func sampleResult(wave int, improvement float64) *backtest.Result {
	return &backtest.Result{
		RunAt: testTime(),
		Summary: backtest.Summary{
			WaveNumber:     wave,
			OriginalDays:   3,
			OptimizedDays:  2,
			DaysSaved:      1,
			ImprovementPct: improvement,
		},
		Decisions: []backtest.Decision{
			{Seq: 1, Day: 1, SimTime: testTime(), Type: backtest.DecisionAssignRepl,
				WorkerID: "F1", Constraint: backtest.ConstraintPrecedence, Reason: "first delivery"},
		},
		Events: []backtest.ScheduleEvent{
			{Timeline: backtest.TimelineFact, WorkerID: "F1", Role: history.RoleForklift,
				Start: testTime(), End: testTime().Add(90 * time.Second), DurationS: 90},
			{Timeline: backtest.TimelineOptimized, WorkerID: "F1", Role: history.RoleForklift,
				Start: testTime(), End: testTime().Add(90 * time.Second), DurationS: 90},
		},
	}
}

func TestBacktestRepository_SaveRun(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewBacktestRepository(db)

	runID, err := repo.SaveRun(context.Background(), sampleResult(7, 33.3))

	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))
	assert.Equal(t, int64(1), countRows(t, db, &persistence.BacktestRunModel{}))
	assert.Equal(t, int64(1), countRows(t, db, &persistence.BacktestDecisionModel{}))
	assert.Equal(t, int64(2), countRows(t, db, &persistence.BacktestEventModel{}))
}

func TestBacktestRepository_SaveRunReplacesWave(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewBacktestRepository(db)
	ctx := context.Background()

	_, err := repo.SaveRun(ctx, sampleResult(7, 10))
	require.NoError(t, err)
	_, err = repo.SaveRun(ctx, sampleResult(8, 20))
	require.NoError(t, err)

	// Re-running wave 7 replaces its artifacts, leaving wave 8 intact.
	_, err = repo.SaveRun(ctx, sampleResult(7, 30))
	require.NoError(t, err)

	assert.Equal(t, int64(2), countRows(t, db, &persistence.BacktestRunModel{}))
	assert.Equal(t, int64(2), countRows(t, db, &persistence.BacktestDecisionModel{}))
	assert.Equal(t, int64(4), countRows(t, db, &persistence.BacktestEventModel{}))

	var run persistence.BacktestRunModel
	require.NoError(t, db.Where("wave_number = ?", 7).First(&run).Error)
	assert.InDelta(t, 30.0, run.ImprovementPct, 1e-9)
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}
