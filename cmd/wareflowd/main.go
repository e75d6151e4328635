package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/wareflow/wareflow-go/internal/adapters/metrics"
	"github.com/wareflow/wareflow-go/internal/adapters/persistence"
	"github.com/wareflow/wareflow-go/internal/adapters/wmsclient"
	"github.com/wareflow/wareflow-go/internal/application/aggregate"
	"github.com/wareflow/wareflow-go/internal/application/control"
	"github.com/wareflow/wareflow-go/internal/application/optimize"
	"github.com/wareflow/wareflow-go/internal/domain/buffer"
	"github.com/wareflow/wareflow-go/internal/domain/queueing"
	"github.com/wareflow/wareflow-go/internal/domain/scheduling"
	"github.com/wareflow/wareflow-go/internal/domain/shared"
	"github.com/wareflow/wareflow-go/internal/infrastructure/config"
	"github.com/wareflow/wareflow-go/internal/infrastructure/database"
	"github.com/wareflow/wareflow-go/internal/infrastructure/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	fmt.Println("Wareflow Daemon")
	fmt.Println("===============")

	fmt.Println("Loading configuration...")
	cfg := config.MustLoadConfig(*configPath)

	if err := run(cfg); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(cfg *config.Config) error {
	logger := logging.New(cfg.Logging)

	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
	db, err := database.NewConnection(&cfg.Database, cfg.Historical)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	fmt.Println("Database connected")

	historyRepo := persistence.NewHistoryRepositoryWithMinTrips(db, cfg.Historical.RouteMinTrips)

	wmsClient := wmsclient.NewWithConfig(
		cfg.WmsSync.BaseURL,
		cfg.WmsSync.APIKey,
		cfg.WmsSync.RequestsPerSecond,
		cfg.WmsSync.MaxRetries,
		time.Duration(cfg.WmsSync.BackoffBaseMs)*time.Millisecond,
		nil, // nil = use RealClock
	)
	fmt.Printf("WMS client initialized (%s)\n", cfg.WmsSync.BaseURL)

	bus := shared.NewEventBus(nil)
	machine, err := buffer.NewStateMachine(buffer.Thresholds{
		Critical: cfg.Buffer.CriticalThreshold,
		Low:      cfg.Buffer.LowThreshold,
		High:     cfg.Buffer.HighThreshold,
		DeadBand: cfg.Buffer.DeadBand,
	}, bus)
	if err != nil {
		return fmt.Errorf("failed to build buffer state machine: %w", err)
	}

	controller := buffer.NewController(machine, cfg.Buffer.Capacity, queueing.Bands{
		Overload: cfg.Queueing.OverloadBand,
		Critical: cfg.Queueing.CriticalBand,
	})
	rules := buffer.NewEngine()
	dispatcher := scheduling.NewDispatcher(nil, bus)
	solver := optimize.NewSolver(nil)
	fmt.Println("Control plane initialized")

	aggregates := aggregate.NewService(
		historyRepo, nil, logger,
		time.Duration(cfg.WmsSync.AggregationIntervalMs)*time.Millisecond,
		time.Duration(cfg.Historical.DemandWindowDays)*24*time.Hour,
	)

	var recorder control.MetricsRecorder
	if cfg.Metrics.Enabled {
		collector := metrics.NewControlMetricsCollector()
		recorder = collector

		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			fmt.Printf("Metrics listening on %s\n", cfg.Metrics.Listen)
			if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	svc := control.NewService(control.Config{
		RealtimeCycle:      time.Duration(cfg.Timing.RealtimeCycleMs) * time.Millisecond,
		TacticalCycle:      time.Duration(cfg.Timing.TacticalCycleMs) * time.Millisecond,
		HistoricalCycle:    time.Duration(cfg.Timing.HistoricalCycleMs) * time.Millisecond,
		MaxCreatesPerCycle: cfg.Optimization.MaxCreatesPerCycle,
		AggregateEveryN:    cfg.Timing.AggregateEveryN,
		SolverBudget:       time.Duration(cfg.Optimization.MaxSolverTimeMs) * time.Millisecond,
		BalanceWeight:      cfg.Optimization.BalanceWeight,
		WarmStartEnabled:   cfg.Optimization.WarmStartEnabled,
		ExpectedForklifts:  cfg.Workers.ForkliftsCount,
		ExpectedPickers:    cfg.Workers.PickersCount,
		BufferPoll:         time.Duration(cfg.WmsSync.BufferSyncIntervalMs) * time.Millisecond,
		PickersPoll:        time.Duration(cfg.WmsSync.PickersSyncIntervalMs) * time.Millisecond,
		ForkliftsPoll:      time.Duration(cfg.WmsSync.ForkliftsSyncIntervalMs) * time.Millisecond,
		ReplenishFromZone:  cfg.WmsSync.ReplenishFromZone,
		ReplenishToZone:    cfg.WmsSync.ReplenishToZone,
	}, wmsClient, historyRepo, controller, rules, dispatcher, solver, aggregates, nil, logger, recorder)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := aggregates.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("aggregation service stopped")
		}
	}()

	if cfg.WmsSync.Enabled {
		masterRepo := persistence.NewMasterDataRepository(db)
		ingestor := control.NewIngestor(wmsClient, historyRepo, masterRepo, logger, recorder, cfg.WmsSync.PageSize)
		go func() {
			interval := time.Duration(cfg.WmsSync.TasksSyncIntervalMs) * time.Millisecond
			if err := ingestor.Run(ctx, interval); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("ingestion stopped")
			}
		}()
		fmt.Println("WMS ingestion running")
	}

	fmt.Println("\n✓ Daemon is running")
	fmt.Println("Press Ctrl+C to stop")

	if err := svc.Run(ctx); err != nil && err != context.Canceled {
		return fmt.Errorf("control service error: %w", err)
	}

	fmt.Println("\nDaemon stopped")
	return nil
}
