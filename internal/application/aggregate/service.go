// Package aggregate runs the periodic statistics refresh and serves cached
// forecasts to the predictor and the control loops.
package aggregate

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wareflow/wareflow-go/internal/domain/history"
	"github.com/wareflow/wareflow-go/internal/domain/shared"
	"github.com/wareflow/wareflow-go/pkg/utils"
)

// DemandBucket keys the hourly demand pattern by hour of day and weekday.
type DemandBucket struct {
	Hour    int
	Weekday time.Weekday
}

// snapshot is one immutable generation of the caches. Refresh builds a new
// snapshot and swaps the pointer, so readers never see a partial refresh.
type snapshot struct {
	workers          map[string]history.WorkerRecord
	routes           map[[2]string]history.RouteStatistics
	pickerProduct    map[[2]string]history.PickerProductStats
	demand           map[DemandBucket]float64
	globalDemand     float64
	globalPickerRate float64
	refreshedAt      time.Time
}

// Service refreshes the aggregate tables on a fixed cadence and answers
// forecast lookups from the last completed snapshot.
type Service struct {
	repo     history.Repository
	clock    shared.Clock
	log      zerolog.Logger
	interval time.Duration
	// DemandWindow bounds how far back snapshots feed the demand pattern.
	demandWindow time.Duration

	mu   sync.RWMutex
	snap *snapshot
}

// NewService creates the aggregation service. Interval defaults to five
// minutes, the demand window to fourteen days.
func NewService(repo history.Repository, clock shared.Clock, log zerolog.Logger, interval, demandWindow time.Duration) *Service {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if demandWindow <= 0 {
		demandWindow = 14 * 24 * time.Hour
	}
	return &Service{
		repo:         repo,
		clock:        clock,
		log:          log.With().Str("component", "aggregation").Logger(),
		interval:     interval,
		demandWindow: demandWindow,
		snap:         &snapshot{},
	}
}

// Run refreshes immediately and then on every tick until the context is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		s.log.Error().Err(err).Msg("initial aggregate refresh failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.log.Error().Err(err).Msg("aggregate refresh failed")
			}
		}
	}
}

// Refresh recomputes every aggregate table and swaps in a new cache
// generation.
func (s *Service) Refresh(ctx context.Context) error {
	started := s.clock.Now()

	workers, err := s.repo.AggregateWorkersFromTasks(ctx)
	if err != nil {
		return err
	}
	routes, err := s.repo.AggregateRoutes(ctx)
	if err != nil {
		return err
	}
	pickerProduct, err := s.repo.AggregatePickerProduct(ctx)
	if err != nil {
		return err
	}
	snapshots, err := s.repo.SnapshotsBetween(ctx, started.Add(-s.demandWindow), started)
	if err != nil {
		return err
	}

	next := &snapshot{
		workers:       make(map[string]history.WorkerRecord, len(workers)),
		routes:        make(map[[2]string]history.RouteStatistics, len(routes)),
		pickerProduct: make(map[[2]string]history.PickerProductStats, len(pickerProduct)),
		refreshedAt:   started,
	}
	for _, w := range workers {
		next.workers[w.WorkerID] = w
	}
	for _, r := range routes {
		next.routes[[2]string{r.FromZone, r.ToZone}] = r
	}
	var pickerRates []float64
	for _, pp := range pickerProduct {
		next.pickerProduct[[2]string{pp.PickerID, pp.ProductSKU}] = pp
		if pp.UnitsPerMin > 0 {
			pickerRates = append(pickerRates, pp.UnitsPerMin)
		}
	}
	next.globalPickerRate = utils.Mean(pickerRates)
	next.demand, next.globalDemand = demandPattern(snapshots)

	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()

	s.log.Info().
		Int("workers", len(workers)).
		Int("routes", len(routes)).
		Int("picker_product", len(pickerProduct)).
		Int("snapshots", len(snapshots)).
		Dur("took", s.clock.Now().Sub(started)).
		Msg("aggregates refreshed")
	return nil
}

// demandPattern buckets snapshot consumption rates by hour and weekday.
func demandPattern(snapshots []history.BufferSnapshot) (map[DemandBucket]float64, float64) {
	sums := make(map[DemandBucket]float64)
	counts := make(map[DemandBucket]int)
	total, n := 0.0, 0
	for _, snap := range snapshots {
		t := snap.Time.UTC()
		bucket := DemandBucket{Hour: t.Hour(), Weekday: t.Weekday()}
		sums[bucket] += snap.ConsumptionRate
		counts[bucket]++
		total += snap.ConsumptionRate
		n++
	}

	pattern := make(map[DemandBucket]float64, len(sums))
	for bucket, sum := range sums {
		pattern[bucket] = sum / float64(counts[bucket])
	}
	if n == 0 {
		return pattern, 0
	}
	return pattern, total / float64(n)
}

func (s *Service) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// RefreshedAt returns when the current cache generation was built, zero
// before the first refresh completes.
func (s *Service) RefreshedAt() time.Time { return s.current().refreshedAt }

// RouteStatistics returns the cached route rows.
func (s *Service) RouteStatistics() []history.RouteStatistics {
	snap := s.current()
	out := make([]history.RouteStatistics, 0, len(snap.routes))
	for _, r := range snap.routes {
		out = append(out, r)
	}
	return out
}

// PickerProductStatistics returns the cached picker-by-product rows.
func (s *Service) PickerProductStatistics() []history.PickerProductStats {
	snap := s.current()
	out := make([]history.PickerProductStats, 0, len(snap.pickerProduct))
	for _, pp := range snap.pickerProduct {
		out = append(out, pp)
	}
	return out
}

// PickerSpeedForecast forecasts a picker's units-per-minute rate. Falls back
// to the global mean picker rate when the picker is unknown.
func (s *Service) PickerSpeedForecast(pickerID string) float64 {
	snap := s.current()
	var rates []float64
	for key, pp := range snap.pickerProduct {
		if key[0] == pickerID && pp.UnitsPerMin > 0 {
			rates = append(rates, pp.UnitsPerMin)
		}
	}
	if len(rates) == 0 {
		return snap.globalPickerRate
	}
	return utils.Mean(rates)
}

// RouteDurationForecast forecasts travel seconds between two zones. Falls
// back to the mean over all routes when the pair is unknown.
func (s *Service) RouteDurationForecast(fromZone, toZone string) float64 {
	snap := s.current()
	if route, ok := snap.routes[[2]string{fromZone, toZone}]; ok {
		return route.PredictedDurationS
	}
	var all []float64
	for _, r := range snap.routes {
		all = append(all, r.PredictedDurationS)
	}
	return utils.Mean(all)
}

// DemandForecast forecasts the consumption rate at the given time from the
// hour-by-weekday pattern, falling back to the global mean rate.
func (s *Service) DemandForecast(at time.Time) float64 {
	snap := s.current()
	t := at.UTC()
	if rate, ok := snap.demand[DemandBucket{Hour: t.Hour(), Weekday: t.Weekday()}]; ok {
		return rate
	}
	return snap.globalDemand
}

// WorkerRecord returns the cached record for a worker.
func (s *Service) WorkerRecord(workerID string) (history.WorkerRecord, bool) {
	record, ok := s.current().workers[workerID]
	return record, ok
}
