package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wareflow/wareflow-go/internal/adapters/persistence"
)

// NewTrainCommand creates the train command with subcommands
func NewTrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Export flattened observations for predictor training",
		Long: `Export completed actions as flat CSV rows suitable for training
external duration models.

Examples:
  wareflow train export --target routes --out routes.csv
  wareflow train export --target pickers --out pickers.csv`,
	}

	cmd.AddCommand(newTrainExportCommand())

	return cmd
}

func newTrainExportCommand() *cobra.Command {
	var (
		target string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export training rows as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if target != "routes" && target != "pickers" {
				return fmt.Errorf("invalid target %q: expected routes or pickers", target)
			}

			cfg, db, err := openDatabase()
			if err != nil {
				return err
			}
			repo := persistence.NewHistoryRepositoryWithMinTrips(db, cfg.Historical.RouteMinTrips)
			ctx := context.Background()

			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer file.Close()

			w := csv.NewWriter(file)
			defer w.Flush()

			var count int
			if target == "routes" {
				count, err = exportRouteRows(ctx, repo, w)
			} else {
				count, err = exportPickerRows(ctx, repo, w)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Exported %d %s rows to %s\n", count, target, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "routes", "Export target (routes or pickers)")
	cmd.Flags().StringVar(&out, "out", "training.csv", "Output CSV path")

	return cmd
}

func exportRouteRows(ctx context.Context, repo *persistence.HistoryRepositoryGORM, w *csv.Writer) (int, error) {
	rows, err := repo.ExportRouteTraining(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to export route rows: %w", err)
	}

	if err := w.Write([]string{"from_zone", "to_zone", "weight_kg", "quantity", "hour", "weekday", "duration_s"}); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.FromZone,
			r.ToZone,
			strconv.FormatFloat(r.WeightKg, 'f', 3, 64),
			strconv.Itoa(r.Quantity),
			strconv.Itoa(r.Hour),
			strconv.Itoa(r.Weekday),
			strconv.FormatFloat(r.DurationS, 'f', 1, 64),
		}
		if err := w.Write(record); err != nil {
			return 0, fmt.Errorf("failed to write row: %w", err)
		}
	}
	return len(rows), nil
}

func exportPickerRows(ctx context.Context, repo *persistence.HistoryRepositoryGORM, w *csv.Writer) (int, error) {
	rows, err := repo.ExportPickerTraining(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to export picker rows: %w", err)
	}

	if err := w.Write([]string{"picker_id", "product_sku", "weight_kg", "quantity", "line_count", "hour", "weekday", "duration_s"}); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.PickerID,
			r.ProductSKU,
			strconv.FormatFloat(r.WeightKg, 'f', 3, 64),
			strconv.Itoa(r.Quantity),
			strconv.Itoa(r.LineCount),
			strconv.Itoa(r.Hour),
			strconv.Itoa(r.Weekday),
			strconv.FormatFloat(r.DurationS, 'f', 1, 64),
		}
		if err := w.Write(record); err != nil {
			return 0, fmt.Errorf("failed to write row: %w", err)
		}
	}
	return len(rows), nil
}
