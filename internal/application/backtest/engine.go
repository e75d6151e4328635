package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wareflow/wareflow-go/internal/application/optimize"
	"github.com/wareflow/wareflow-go/internal/application/predict"
	"github.com/wareflow/wareflow-go/internal/domain/history"
	"github.com/wareflow/wareflow-go/internal/domain/shared"
	"github.com/wareflow/wareflow-go/pkg/utils"
)

// Config bounds a backtest run.
type Config struct {
	BufferCapacity int
	ShiftLength    time.Duration
	ReportsDir     string
}

func (c Config) withDefaults() Config {
	if c.BufferCapacity <= 0 {
		c.BufferCapacity = 20
	}
	if c.ShiftLength <= 0 {
		c.ShiftLength = 8 * time.Hour
	}
	if c.ReportsDir == "" {
		c.ReportsDir = "reports"
	}
	return c
}

// Engine replays historical waves. Runs against the same frozen snapshot are
// deterministic: the simulation consumes pre-sorted queues and breaks all
// ties by worker id.
type Engine struct {
	cfg       Config
	repo      history.Repository
	store     Store
	predictor *predict.Predictor
	solver    *optimize.Solver
	clock     shared.Clock
	log       zerolog.Logger
}

// NewEngine creates a backtest engine. Store may be nil to skip persistence.
func NewEngine(cfg Config, repo history.Repository, store Store, predictor *predict.Predictor, clock shared.Clock, log zerolog.Logger) *Engine {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Engine{
		cfg:       cfg.withDefaults(),
		repo:      repo,
		store:     store,
		predictor: predictor,
		solver:    optimize.NewSolver(clock),
		clock:     clock,
		log:       log.With().Str("component", "backtest").Logger(),
	}
}

// Run replays the wave: fact timeline, counterfactual schedule, decision
// log, summary, persisted artifacts and the text report.
func (e *Engine) Run(ctx context.Context, waveNumber int) (*Result, error) {
	records, err := e.repo.TasksByWave(ctx, waveNumber)
	if err != nil {
		return nil, fmt.Errorf("loading wave %d: %w", waveNumber, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("wave %d has no recorded actions", waveNumber)
	}

	if err := e.primePredictor(ctx, records); err != nil {
		return nil, err
	}
	defer e.predictor.ClearActuals()

	fact := buildFactTimeline(records)
	if len(fact.records) == 0 {
		return nil, fmt.Errorf("wave %d has no completed actions", waveNumber)
	}

	sim := simulate(ctx, fact.days[0], fact.records, e.predictor, e.solver, simConfig{
		bufferCapacity: e.cfg.BufferCapacity,
		shiftLength:    e.cfg.ShiftLength,
	})

	result := &Result{
		RunAt:     e.clock.Now(),
		Summary:   e.summarize(waveNumber, fact, sim),
		Decisions: sim.decisions,
		Events:    append(append([]ScheduleEvent{}, fact.events...), sim.events...),
	}

	if e.store != nil {
		runID, err := e.store.SaveRun(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("persisting backtest for wave %d: %w", waveNumber, err)
		}
		result.RunID = runID
	}

	path, err := writeReport(e.cfg.ReportsDir, result, e.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	result.ReportPath = path

	e.log.Info().
		Int("wave", waveNumber).
		Int("original_days", result.Summary.OriginalDays).
		Int("optimized_days", result.Summary.OptimizedDays).
		Float64("improvement_pct", result.Summary.ImprovementPct).
		Str("report", path).
		Msg("backtest complete")
	return result, nil
}

// primePredictor switches the predictor into replay mode for the wave.
func (e *Engine) primePredictor(ctx context.Context, records []history.TaskActionRecord) error {
	routes, err := e.repo.RouteStatistics(ctx)
	if err != nil {
		return fmt.Errorf("loading route statistics: %w", err)
	}
	pickerProduct, err := e.repo.PickerProductStatistics(ctx)
	if err != nil {
		return fmt.Errorf("loading picker-product statistics: %w", err)
	}

	e.predictor.LoadRoutes(routes)
	e.predictor.LoadPickerProduct(pickerProduct)
	e.predictor.LoadActuals(records)

	var durations []float64
	for _, r := range records {
		if r.DurationS > 0 {
			durations = append(durations, r.DurationS)
		}
	}
	e.predictor.SetWaveMean(utils.Mean(durations))
	return nil
}

func (e *Engine) summarize(waveNumber int, fact *factTimeline, sim *simResult) Summary {
	summary := Summary{
		WaveNumber:     waveNumber,
		OriginalDays:   len(fact.days),
		OptimizedDays:  sim.optimizedDays,
		FactWallClockS: fact.wallClockS,
		FactActiveS:    fact.activeS,
		OptActiveS:     sim.optActiveS,
		SourceCounts:   sim.sourceCounts,
	}
	if summary.OptimizedDays < summary.OriginalDays {
		summary.DaysSaved = summary.OriginalDays - summary.OptimizedDays
	}
	if summary.DaysSaved > 0 {
		summary.ImprovementPct = 100 * float64(summary.DaysSaved) / float64(summary.OriginalDays)
	} else if summary.FactActiveS > 0 {
		summary.ImprovementPct = 100 * (summary.FactActiveS - summary.OptActiveS) / summary.FactActiveS
	}

	for i, day := range fact.days {
		simDay := i + 1
		breakdown := DayBreakdown{
			Date:           day,
			FactPallets:    fact.perDayTasks[day],
			OptPallets:     sim.perDayTasks[simDay],
			BufferLevelEnd: sim.perDayBuffer[simDay],
			FactActiveS:    fact.perDayActiveS[day],
			OptActiveS:     sim.perDayActiveS[simDay],
		}
		breakdown.Delta = breakdown.OptPallets - breakdown.FactPallets
		if breakdown.FactActiveS > 0 {
			breakdown.ImprovementPct = 100 * (breakdown.FactActiveS - breakdown.OptActiveS) / breakdown.FactActiveS
		}
		for _, w := range sim.perWorker {
			if w.day >= simDay && w.tasks > 0 {
				breakdown.Workers++
			}
		}
		summary.Days = append(summary.Days, breakdown)
	}

	for id, w := range fact.perWorker {
		breakdown := WorkerBreakdown{
			WorkerID:    id,
			WorkerName:  w.name,
			Role:        w.role,
			FactTasks:   w.tasks,
			FactActiveS: w.activeS,
		}
		if sw, ok := sim.perWorker[id]; ok {
			breakdown.OptTasks = sw.tasks
			breakdown.OptActiveS = sw.totalActive
		}
		summary.Workers = append(summary.Workers, breakdown)
	}
	sort.Slice(summary.Workers, func(i, j int) bool {
		return summary.Workers[i].WorkerID < summary.Workers[j].WorkerID
	})
	return summary
}
