package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wareflow/wareflow-go/internal/adapters/persistence"
	"github.com/wareflow/wareflow-go/internal/application/backtest"
	"github.com/wareflow/wareflow-go/internal/application/predict"
)

// NewBacktestCommand creates the backtest command
func NewBacktestCommand() *cobra.Command {
	var (
		bufferCapacity int
		shiftHours     int
		reportsDir     string
		noSave         bool
	)

	cmd := &cobra.Command{
		Use:   "backtest <wave-number>",
		Short: "Replay a historical wave against the optimized schedule",
		Long: `Replay one historical wave: rebuild the factual timeline from the
action log, simulate the counterfactual schedule with predicted
durations, and write a comparison report.

The run artifacts (summary, decision log, both schedules) are persisted
per wave; re-running a wave replaces the previous artifacts.

Examples:
  wareflow backtest 42
  wareflow backtest 42 --buffer-capacity 30 --shift-hours 10
  wareflow backtest 42 --no-save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			waveNumber, err := strconv.Atoi(args[0])
			if err != nil || waveNumber <= 0 {
				return fmt.Errorf("invalid wave number %q", args[0])
			}

			cfg, db, err := openDatabase()
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			repo := persistence.NewHistoryRepositoryWithMinTrips(db, cfg.Historical.RouteMinTrips)

			if bufferCapacity == 0 {
				bufferCapacity = cfg.Reports.BufferCapacity
			}
			if shiftHours == 0 {
				shiftHours = cfg.Reports.ShiftHours
			}
			if reportsDir == "" {
				reportsDir = cfg.Reports.Dir
			}

			var store backtest.Store
			if !noSave {
				store = persistence.NewBacktestRepository(db)
			}

			engine := backtest.NewEngine(backtest.Config{
				BufferCapacity: bufferCapacity,
				ShiftLength:    time.Duration(shiftHours) * time.Hour,
				ReportsDir:     reportsDir,
			}, repo, store, predict.NewPredictor(predict.DefaultMinRouteConfidence), nil, log)

			result, err := engine.Run(context.Background(), waveNumber)
			if err != nil {
				return fmt.Errorf("backtest failed: %w", err)
			}

			displayBacktestSummary(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&bufferCapacity, "buffer-capacity", 0,
		"Buffer capacity in pallets (default: from config)")
	cmd.Flags().IntVar(&shiftHours, "shift-hours", 0,
		"Shift length in hours (default: from config)")
	cmd.Flags().StringVar(&reportsDir, "reports-dir", "",
		"Directory for text reports (default: from config)")
	cmd.Flags().BoolVar(&noSave, "no-save", false,
		"Skip persisting run artifacts to the database")

	return cmd
}

func displayBacktestSummary(result *backtest.Result) {
	s := result.Summary
	fmt.Printf("\nBACKTEST: WAVE %d\n", s.WaveNumber)
	fmt.Println("─────────────────────────────────────────────")
	fmt.Printf("  Original days:    %d\n", s.OriginalDays)
	fmt.Printf("  Optimized days:   %d\n", s.OptimizedDays)
	fmt.Printf("  Days saved:       %d\n", s.DaysSaved)
	fmt.Printf("  Improvement:      %.1f%%\n", s.ImprovementPct)
	fmt.Printf("  Fact active:      %.1f h\n", s.FactActiveS/3600)
	fmt.Printf("  Optimized active: %.1f h\n", s.OptActiveS/3600)
	fmt.Println("─────────────────────────────────────────────")
	fmt.Printf("Report: %s\n", result.ReportPath)
	if result.RunID != 0 {
		fmt.Printf("Run ID: %d\n", result.RunID)
	}
}
