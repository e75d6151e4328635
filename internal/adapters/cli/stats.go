package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wareflow/wareflow-go/internal/adapters/persistence"
	"github.com/wareflow/wareflow-go/internal/domain/history"
)

// NewStatsCommand creates the stats command with subcommands
func NewStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Recompute and inspect historical statistics",
		Long: `Recompute the aggregate tables from the action log and display them.

Aggregates include per-worker performance, per-route travel statistics
with IQR outlier trimming, picker-by-product throughput and worker
switchover gaps.

Examples:
  wareflow stats recompute
  wareflow stats workers
  wareflow stats routes
  wareflow stats pickers
  wareflow stats transitions --role FORKLIFT`,
	}

	cmd.AddCommand(newStatsRecomputeCommand())
	cmd.AddCommand(newStatsWorkersCommand())
	cmd.AddCommand(newStatsRoutesCommand())
	cmd.AddCommand(newStatsPickersCommand())
	cmd.AddCommand(newStatsTransitionsCommand())

	return cmd
}

func newStatsRecomputeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Recompute all aggregate tables from the action log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDatabase()
			if err != nil {
				return err
			}
			repo := persistence.NewHistoryRepositoryWithMinTrips(db, cfg.Historical.RouteMinTrips)
			ctx := context.Background()

			count, err := repo.TaskCount(ctx)
			if err != nil {
				return fmt.Errorf("failed to count actions: %w", err)
			}
			fmt.Printf("Recomputing aggregates from %d actions...\n", count)

			workers, err := repo.AggregateWorkersFromTasks(ctx)
			if err != nil {
				return fmt.Errorf("worker aggregation failed: %w", err)
			}
			routes, err := repo.AggregateRoutes(ctx)
			if err != nil {
				return fmt.Errorf("route aggregation failed: %w", err)
			}
			picker, err := repo.AggregatePickerProduct(ctx)
			if err != nil {
				return fmt.Errorf("picker-product aggregation failed: %w", err)
			}

			fmt.Printf("✓ %d workers, %d routes, %d picker-product pairs\n",
				len(workers), len(routes), len(picker))
			return nil
		},
	}
}

func newStatsWorkersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "workers",
		Short: "Show per-worker performance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDatabase()
			if err != nil {
				return err
			}
			repo := persistence.NewHistoryRepositoryWithMinTrips(db, cfg.Historical.RouteMinTrips)

			records, err := repo.WorkerRecords(context.Background())
			if err != nil {
				return fmt.Errorf("failed to load worker records: %w", err)
			}
			if len(records) == 0 {
				fmt.Println("No worker records found; run 'wareflow stats recompute' first")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Worker\tRole\tTasks\tAvg s\tMedian s\tP90 s\tTasks/h")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%d\t%.1f\t%.1f\t%.1f\t%.2f\n",
					r.WorkerName, r.Role, r.TaskCount,
					r.AvgDurationS, r.MedianDurationS, r.P90DurationS, r.TasksPerHour)
			}
			w.Flush()
			return nil
		},
	}
}

func newStatsRoutesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Show per-route travel statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDatabase()
			if err != nil {
				return err
			}
			repo := persistence.NewHistoryRepositoryWithMinTrips(db, cfg.Historical.RouteMinTrips)

			routes, err := repo.RouteStatistics(context.Background())
			if err != nil {
				return fmt.Errorf("failed to load route statistics: %w", err)
			}
			if len(routes) == 0 {
				fmt.Println("No route statistics found; run 'wareflow stats recompute' first")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Route\tTrips\tKept\tMedian s\tPredicted s\tOutliers\tConfidence")
			for _, r := range routes {
				fmt.Fprintf(w, "%s→%s\t%d\t%d\t%.1f\t%.1f\t%d\t%.2f\n",
					r.FromZone, r.ToZone, r.Trips, r.NormalizedTrips,
					r.MedianDurationS, r.PredictedDurationS, r.OutliersRemoved, r.Confidence)
			}
			w.Flush()
			return nil
		},
	}
}

func newStatsPickersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pickers",
		Short: "Show picker-by-product throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDatabase()
			if err != nil {
				return err
			}
			repo := persistence.NewHistoryRepositoryWithMinTrips(db, cfg.Historical.RouteMinTrips)

			stats, err := repo.PickerProductStatistics(context.Background())
			if err != nil {
				return fmt.Errorf("failed to load picker-product statistics: %w", err)
			}
			if len(stats) == 0 {
				fmt.Println("No picker-product statistics found; run 'wareflow stats recompute' first")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Picker\tProduct\tObs\tLines/min\tUnits/min\tKg/min\tConfidence")
			for _, s := range stats {
				fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
					s.PickerName, s.ProductSKU, s.Observations,
					s.LinesPerMin, s.UnitsPerMin, s.KgPerMin, s.Confidence)
			}
			w.Flush()
			return nil
		},
	}
}

func newStatsTransitionsCommand() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "Show per-worker median switchover gaps",
		RunE: func(cmd *cobra.Command, args []string) error {
			workerRole := history.WorkerRole(role)
			if workerRole != history.RolePicker && workerRole != history.RoleForklift {
				return fmt.Errorf("invalid role %q: expected PICKER or FORKLIFT", role)
			}

			cfg, db, err := openDatabase()
			if err != nil {
				return err
			}
			repo := persistence.NewHistoryRepositoryWithMinTrips(db, cfg.Historical.RouteMinTrips)

			stats, err := repo.WorkerTransitionStats(context.Background(), workerRole)
			if err != nil {
				return fmt.Errorf("failed to compute transition stats: %w", err)
			}
			if len(stats) == 0 {
				fmt.Println("No transition observations found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Worker\tRole\tMedian gap s\tObservations")
			for _, s := range stats {
				fmt.Fprintf(w, "%s\t%s\t%.1f\t%d\n",
					s.WorkerName, s.Role, s.MedianGapS, s.Observations)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "FORKLIFT", "Worker role (PICKER or FORKLIFT)")

	return cmd
}
