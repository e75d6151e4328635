// Package control runs the three-tier control plane: the realtime buffer
// loop, the tactical optimization loop and the historical persistence loop,
// plus the WMS ingestion scans.
package control

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wareflow/wareflow-go/internal/application/aggregate"
	"github.com/wareflow/wareflow-go/internal/application/optimize"
	"github.com/wareflow/wareflow-go/internal/domain/buffer"
	"github.com/wareflow/wareflow-go/internal/domain/history"
	"github.com/wareflow/wareflow-go/internal/domain/scheduling"
	"github.com/wareflow/wareflow-go/internal/domain/shared"
	"github.com/wareflow/wareflow-go/internal/domain/warehouse"
	"github.com/wareflow/wareflow-go/internal/domain/wms"
)

// Config bounds the loop cadences and per-cycle work.
type Config struct {
	RealtimeCycle   time.Duration
	TacticalCycle   time.Duration
	HistoricalCycle time.Duration
	// MaxCreatesPerCycle caps CreateTask calls issued by one realtime tick.
	MaxCreatesPerCycle int
	// AggregateEveryN runs the aggregation refresh on every Nth historical
	// tick.
	AggregateEveryN int
	SolverBudget    time.Duration
	BalanceWeight   float64
	// WarmStartEnabled feeds the previous solution into the next solve.
	WarmStartEnabled bool
	// ExpectedForklifts and ExpectedPickers are the configured crew sizes:
	// the queue analysis falls back to them before the WMS lists workers,
	// and dropping below them flags the snapshot as understaffed.
	ExpectedForklifts int
	ExpectedPickers   int
	// BufferPoll, PickersPoll and ForkliftsPoll throttle the realtime WMS
	// reads; between polls the tick reuses the last reading. Zero reads on
	// every tick.
	BufferPoll    time.Duration
	PickersPoll   time.Duration
	ForkliftsPoll time.Duration
	// ReplenishFromZone/Slot and ReplenishToZone/Slot address the
	// replenishment CreateTask calls.
	ReplenishFromZone string
	ReplenishToZone   string
}

func (c Config) withDefaults() Config {
	if c.RealtimeCycle <= 0 {
		c.RealtimeCycle = 200 * time.Millisecond
	}
	if c.TacticalCycle <= 0 {
		c.TacticalCycle = 2 * time.Second
	}
	if c.HistoricalCycle <= 0 {
		c.HistoricalCycle = 60 * time.Second
	}
	if c.MaxCreatesPerCycle <= 0 {
		c.MaxCreatesPerCycle = 5
	}
	if c.AggregateEveryN <= 0 {
		c.AggregateEveryN = 5
	}
	if c.SolverBudget <= 0 {
		c.SolverBudget = time.Second
	}
	return c
}

// Service owns the control loops. The loops share state only through the
// observability facade, the dispatcher's own lock and the repository.
type Service struct {
	cfg        Config
	wmsClient  wms.Client
	repo       history.Repository
	controller *buffer.Controller
	rules      *buffer.Engine
	dispatcher *scheduling.Dispatcher
	solver     *optimize.Solver
	aggregates *aggregate.Service
	clock      shared.Clock
	log        zerolog.Logger
	metrics    MetricsRecorder
	facade     *facade

	mu        sync.Mutex
	forklifts map[string]*warehouse.Forklift
	warmStart map[string]string

	// Cached realtime readings, touched only by the realtime loop.
	lastBuffer      wms.BufferStatus
	lastBufferAt    time.Time
	lastPickers     []wms.PickerStatus
	lastPickersAt   time.Time
	lastForklifts   []wms.ForkliftStatus
	lastForkliftsAt time.Time

	pipelineOverloaded bool
	understaffed       bool
}

// NewService wires the control plane.
func NewService(
	cfg Config,
	wmsClient wms.Client,
	repo history.Repository,
	controller *buffer.Controller,
	rules *buffer.Engine,
	dispatcher *scheduling.Dispatcher,
	solver *optimize.Solver,
	aggregates *aggregate.Service,
	clock shared.Clock,
	log zerolog.Logger,
	metrics MetricsRecorder,
) *Service {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Service{
		cfg:        cfg.withDefaults(),
		wmsClient:  wmsClient,
		repo:       repo,
		controller: controller,
		rules:      rules,
		dispatcher: dispatcher,
		solver:     solver,
		aggregates: aggregates,
		clock:      clock,
		log:        log.With().Str("component", "control").Logger(),
		metrics:    metrics,
		facade:     &facade{},
		forklifts:  make(map[string]*warehouse.Forklift),
		warmStart:  make(map[string]string),
	}
}

// Stats returns the current observability snapshot.
func (s *Service) Stats() Snapshot { return s.facade.snapshot() }

// Run starts the three loops and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	loops := []struct {
		name   string
		period time.Duration
		tick   func(context.Context)
	}{
		{"realtime", s.cfg.RealtimeCycle, s.realtimeTick},
		{"tactical", s.cfg.TacticalCycle, s.tacticalTick},
		{"historical", s.cfg.HistoricalCycle, s.historicalTick},
	}

	for _, loop := range loops {
		wg.Add(1)
		go func(name string, period time.Duration, tick func(context.Context)) {
			defer wg.Done()
			s.runLoop(ctx, name, period, tick)
		}(loop.name, loop.period, loop.tick)
	}

	wg.Wait()
	return ctx.Err()
}

func (s *Service) runLoop(ctx context.Context, name string, period time.Duration, tick func(context.Context)) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	s.log.Info().Str("loop", name).Dur("period", period).Msg("loop started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Str("loop", name).Msg("loop stopped")
			return
		case <-ticker.C:
			started := s.clock.Now()
			tick(ctx)
			s.metrics.RecordCycle(name, s.clock.Now().Sub(started))
		}
	}
}

// realtimeTick pulls the live buffer and worker state, updates the
// controller, evaluates the rules, issues urgent replenishment and
// dispatches idle forklifts.
func (s *Service) realtimeTick(ctx context.Context) {
	status, err := s.bufferStatus(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("buffer read failed")
		return
	}
	pickers, err := s.pickerStatuses(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("picker read failed")
		return
	}
	forkliftStatuses, err := s.forkliftStatuses(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("forklift read failed")
		return
	}

	state := s.controller.UpdateLevel(status.Level, status.ConsumptionRate)
	s.metrics.RecordBufferLevel(status.Level)
	s.metrics.RecordBufferState(string(state))

	forklifts := s.reconcileForklifts(forkliftStatuses)
	facts, forkliftFacts := s.buildFacts(status, state, forkliftStatuses)
	actions := s.rules.Evaluate(facts, forkliftFacts)

	created := 0
	for _, action := range actions {
		switch action.Type {
		case buffer.ActionUrgentDelivery, buffer.ActionRequestPallets:
			created += s.requestPallets(ctx, action, created)
		case buffer.ActionDeactivateForklifts:
			s.deactivateForklifts(ctx, forkliftStatuses, action.KeepCount)
		}
	}
	if created > 0 {
		s.metrics.RecordTasksCreated(created)
	}

	if _, err := s.dispatcher.Dispatch(forklifts); err != nil {
		s.log.Warn().Err(err).Msg("dispatch failed")
	}

	dispatchStats := s.dispatcher.Stats()
	activePickers := 0
	for _, p := range pickers {
		if p.State != string(warehouse.PickerStateOffline) && p.State != string(warehouse.PickerStateBreak) {
			activePickers++
		}
	}

	servers := len(forklifts)
	if servers == 0 {
		servers = s.cfg.ExpectedForklifts
	}
	perForklift := 0.0
	if servers > 0 {
		perForklift = status.DeliveryRate / float64(servers)
	}
	pipeline := s.controller.QueueAnalysis(servers, perForklift)
	if pipeline.Overloaded && !s.pipelineOverloaded {
		s.log.Warn().Float64("rho", pipeline.Rho).Int("forklifts", servers).
			Msg("replenishment pipeline overloaded")
	}
	s.pipelineOverloaded = pipeline.Overloaded

	understaffed := len(forklifts) < s.cfg.ExpectedForklifts || activePickers < s.cfg.ExpectedPickers
	if understaffed && !s.understaffed {
		s.log.Warn().Int("forklifts", len(forklifts)).Int("pickers", activePickers).
			Msg("crew below expected size")
	}
	s.understaffed = understaffed

	s.facade.update(func(snap *Snapshot) {
		snap.BufferLevel = status.Level
		snap.BufferState = string(state)
		snap.ConsumptionRate = status.ConsumptionRate
		snap.RequiredRate = s.controller.RequiredDeliveryRate(status.ConsumptionRate)
		snap.PalletsRequested += created
		snap.ActivePickers = activePickers
		snap.ActiveForklifts = len(forklifts)
		snap.PendingTasks = dispatchStats.PendingTasks
		snap.AssignedTasks = dispatchStats.AssignedTasks
		snap.CompletedStreams = dispatchStats.CompletedStreams
		snap.PipelineRho = pipeline.Rho
		snap.PipelineOverloaded = pipeline.Overloaded
		snap.Understaffed = understaffed
		snap.RealtimeCycles++
		snap.LastRealtimeTick = s.clock.Now()
	})
}

// bufferStatus reads the buffer through the WMS, reusing the previous
// reading while it is younger than the configured poll interval.
func (s *Service) bufferStatus(ctx context.Context) (wms.BufferStatus, error) {
	now := s.clock.Now()
	if !s.lastBufferAt.IsZero() && now.Sub(s.lastBufferAt) < s.cfg.BufferPoll {
		return s.lastBuffer, nil
	}
	status, err := s.wmsClient.Buffer(ctx)
	if err != nil {
		return wms.BufferStatus{}, err
	}
	s.lastBuffer, s.lastBufferAt = status, now
	return status, nil
}

func (s *Service) pickerStatuses(ctx context.Context) ([]wms.PickerStatus, error) {
	now := s.clock.Now()
	if !s.lastPickersAt.IsZero() && now.Sub(s.lastPickersAt) < s.cfg.PickersPoll {
		return s.lastPickers, nil
	}
	pickers, err := s.wmsClient.Pickers(ctx)
	if err != nil {
		return nil, err
	}
	s.lastPickers, s.lastPickersAt = pickers, now
	return pickers, nil
}

func (s *Service) forkliftStatuses(ctx context.Context) ([]wms.ForkliftStatus, error) {
	now := s.clock.Now()
	if !s.lastForkliftsAt.IsZero() && now.Sub(s.lastForkliftsAt) < s.cfg.ForkliftsPoll {
		return s.lastForklifts, nil
	}
	forklifts, err := s.wmsClient.Forklifts(ctx)
	if err != nil {
		return nil, err
	}
	s.lastForklifts, s.lastForkliftsAt = forklifts, now
	return forklifts, nil
}

// tacticalTick solves the assignment problem over the pending tasks of the
// current stream and records the solution for warm-starting the next tick.
func (s *Service) tacticalTick(ctx context.Context) {
	stream := s.dispatcher.CurrentStream()
	if stream == nil {
		return
	}

	s.mu.Lock()
	forklifts := make([]*warehouse.Forklift, 0, len(s.forklifts))
	byID := make(map[string]*warehouse.Forklift, len(s.forklifts))
	for _, f := range s.forklifts {
		if f.State() != warehouse.ForkliftStateOffline {
			forklifts = append(forklifts, f)
			byID[f.ID()] = f
		}
	}
	warm := make(map[string]string, len(s.warmStart))
	if s.cfg.WarmStartEnabled {
		for task, forklift := range s.warmStart {
			warm[task] = forklift
		}
	}
	s.mu.Unlock()

	var tasks []optimize.TaskSpec
	taskByID := make(map[string]*scheduling.DeliveryTask)
	for _, task := range stream.PendingTasks() {
		tasks = append(tasks, optimize.TaskSpec{
			TaskID:         task.ID(),
			StreamID:       stream.ID(),
			StreamSequence: stream.SequenceNumber(),
			WeightKg:       task.WeightKg(),
			Priority:       task.Priority(),
			Critical:       s.controller.State() == buffer.StateCritical,
		})
		taskByID[task.ID()] = task
	}
	if len(tasks) == 0 {
		return
	}

	var specs []optimize.ForkliftSpec
	for _, f := range forklifts {
		specs = append(specs, optimize.ForkliftSpec{ForkliftID: f.ID()})
	}

	solution := s.solver.Solve(ctx, optimize.Problem{
		Tasks:     tasks,
		Forklifts: specs,
		Cost: func(task optimize.TaskSpec, forklift optimize.ForkliftSpec) float64 {
			f := byID[forklift.ForkliftID]
			t := taskByID[task.TaskID]
			if f == nil || t == nil {
				return 0
			}
			return f.EstimateDeliveryTime(t.Pallet()).Seconds()
		},
		BalanceWeight: s.cfg.BalanceWeight,
		Budget:        s.cfg.SolverBudget,
		WarmStart:     warm,
		Start:         s.clock.Now(),
	})
	s.metrics.RecordSolve(string(solution.Status), solution.SolveTime)

	s.mu.Lock()
	s.warmStart = make(map[string]string, len(solution.Assignments))
	for _, a := range solution.Assignments {
		s.warmStart[a.TaskID] = a.ForkliftID
	}
	s.mu.Unlock()

	s.facade.update(func(snap *Snapshot) {
		snap.LastSolveStatus = string(solution.Status)
		snap.LastSolveTime = solution.SolveTime
		snap.TacticalCycles++
		snap.LastTacticalTick = s.clock.Now()
	})
}

// historicalTick persists a buffer snapshot and periodically refreshes the
// aggregates.
func (s *Service) historicalTick(ctx context.Context) {
	status, err := s.wmsClient.Buffer(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("buffer read failed")
		return
	}

	snap := s.facade.snapshot()
	record := history.BufferSnapshot{
		Time:            s.clock.Now().UTC(),
		BufferLevel:     status.Level,
		BufferState:     snap.BufferState,
		PalletsCount:    status.PalletsCount,
		ActiveForklifts: snap.ActiveForklifts,
		ActivePickers:   snap.ActivePickers,
		ConsumptionRate: status.ConsumptionRate,
		DeliveryRate:    status.DeliveryRate,
		QueueLength:     status.QueueLength,
		PendingTasks:    status.PendingTasks,
	}
	if err := s.repo.SaveBufferSnapshot(ctx, record); err != nil {
		s.log.Error().Err(err).Msg("snapshot persist failed")
	}

	s.facade.update(func(sn *Snapshot) {
		sn.HistoricalCycles++
		sn.LastHistoricalTick = s.clock.Now()
	})

	if s.aggregates != nil && snap.HistoricalCycles%uint64(s.cfg.AggregateEveryN) == 0 {
		if err := s.aggregates.Refresh(ctx); err != nil {
			s.log.Error().Err(err).Msg("aggregate refresh failed")
		}
	}
}

// reconcileForklifts mirrors the WMS forklift fleet into local entities.
func (s *Service) reconcileForklifts(statuses []wms.ForkliftStatus) []*warehouse.Forklift {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*warehouse.Forklift, 0, len(statuses))
	for _, status := range statuses {
		f, ok := s.forklifts[status.ID]
		if !ok {
			created, err := warehouse.NewForklift(status.ID, status.Name, defaultForkliftSpeedMPerS, defaultLoadUnloadS)
			if err != nil {
				s.log.Warn().Err(err).Str("forklift", status.ID).Msg("forklift rejected")
				continue
			}
			f = created
			s.forklifts[status.ID] = f
		}
		f.SetPosition(status.PositionM)
		if status.State == string(warehouse.ForkliftStateOffline) {
			if released := f.SetOffline(); released != "" {
				for _, id := range s.dispatcher.ReleaseForkliftTasks(f.ID()) {
					s.log.Info().Str("task", id).Str("forklift", f.ID()).Msg("task released")
				}
			}
			continue
		}
		if f.State() == warehouse.ForkliftStateOffline {
			if err := f.SetOnline(); err != nil {
				s.log.Warn().Err(err).Str("forklift", f.ID()).Msg("online failed")
			}
		}
		out = append(out, f)
	}
	return out
}

const (
	defaultForkliftSpeedMPerS = 1.5
	defaultLoadUnloadS        = 30.0
)

func (s *Service) buildFacts(status wms.BufferStatus, state buffer.State, statuses []wms.ForkliftStatus) (buffer.BufferFact, []buffer.ForkliftFact) {
	idle := 0
	facts := make([]buffer.ForkliftFact, 0, len(statuses))
	for _, f := range statuses {
		offline := f.State == string(warehouse.ForkliftStateOffline)
		isIdle := f.State == string(warehouse.ForkliftStateIdle) && f.TaskID == ""
		if isIdle {
			idle++
		}
		facts = append(facts, buffer.ForkliftFact{ForkliftID: f.ID, Idle: isIdle, Offline: offline})
	}
	return buffer.BufferFact{
		FillLevel:       status.Level,
		State:           state,
		PendingTasks:    status.PendingTasks,
		IdleForklifts:   idle,
		ConsumptionRate: status.ConsumptionRate,
	}, facts
}

// requestPallets issues CreateTask calls for the action, bounded by the
// remaining per-cycle budget. Returns the number created.
func (s *Service) requestPallets(ctx context.Context, action buffer.RecommendedAction, alreadyCreated int) int {
	want := s.controller.PalletsToRequest()
	if action.Pallets > 0 && action.Pallets < want {
		want = action.Pallets
	}
	budget := s.cfg.MaxCreatesPerCycle - alreadyCreated
	if want > budget {
		want = budget
	}
	if want <= 0 {
		return 0
	}

	priority := wms.PriorityLow
	switch s.controller.State() {
	case buffer.StateCritical:
		priority = wms.PriorityHigh
	case buffer.StateLow:
		priority = wms.PriorityMedium
	}

	created := 0
	for i := 0; i < want; i++ {
		_, err := s.wmsClient.CreateTask(ctx, wms.CreateTaskRequest{
			FromZone: s.cfg.ReplenishFromZone,
			ToZone:   s.cfg.ReplenishToZone,
			Priority: priority,
		})
		if err != nil {
			s.log.Warn().Err(err).Msg("create task failed")
			break
		}
		created++
	}
	if created > 0 {
		s.log.Info().Int("count", created).Str("reason", action.Reason).Msg("replenishment requested")
	}
	return created
}

// deactivateForklifts sets all but keep idle forklifts offline in the WMS.
func (s *Service) deactivateForklifts(ctx context.Context, statuses []wms.ForkliftStatus, keep int) {
	active := 0
	for _, f := range statuses {
		if f.State != string(warehouse.ForkliftStateOffline) {
			active++
		}
	}
	for _, f := range statuses {
		if active <= keep {
			break
		}
		if f.State == string(warehouse.ForkliftStateIdle) && f.TaskID == "" {
			if err := s.wmsClient.UpdateForkliftStatus(ctx, f.ID, string(warehouse.ForkliftStateOffline)); err != nil {
				s.log.Warn().Err(err).Str("forklift", f.ID).Msg("deactivate failed")
				continue
			}
			active--
		}
	}
}
