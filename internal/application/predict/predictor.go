// Package predict estimates task durations from cached historical
// aggregates. The cascade is a pure read: actual replay rows, then route
// statistics, then picker-by-product throughput, then the wave mean.
package predict

import (
	"sync"

	"github.com/wareflow/wareflow-go/internal/domain/history"
	"github.com/wareflow/wareflow-go/internal/domain/shared"
)

// Source tags where an estimate came from.
type Source string

const (
	SourceActual        Source = "actual"
	SourceRouteStats    Source = "route_stats"
	SourcePickerProduct Source = "picker_product"
	SourceDefault       Source = "default"
)

// Estimate is a predicted duration with its provenance.
type Estimate struct {
	DurationS float64
	Source    Source
}

// Query describes a prospective task.
type Query struct {
	// ActionID, when set, enables replay mode: the logged actual duration
	// for this exact action wins over every aggregate.
	ActionID   string
	WorkerID   string
	Role       history.WorkerRole
	FromBin    string
	ToBin      string
	ProductSKU string
	WeightKg   float64
	Quantity   int
	LineCount  int
}

// DefaultGlobalMeanS backs the cascade when no wave mean has been observed.
const DefaultGlobalMeanS = 120.0

// DefaultMinRouteConfidence gates route statistics out of the cascade until
// enough trips back them.
const DefaultMinRouteConfidence = 0.5

type routeKey struct{ from, to string }
type pickerProductKey struct{ picker, sku string }

// Predictor holds copy-on-write aggregate snapshots. Loads swap whole maps
// under the lock so concurrent Predict calls never see a partial refresh.
type Predictor struct {
	mu                 sync.RWMutex
	actuals            map[string]float64
	routes             map[routeKey]history.RouteStatistics
	pickerProduct      map[pickerProductKey]history.PickerProductStats
	waveMeanS          float64
	minRouteConfidence float64
}

// NewPredictor creates an empty predictor. Route statistics below
// minRouteConfidence are ignored by the cascade.
func NewPredictor(minRouteConfidence float64) *Predictor {
	return &Predictor{
		actuals:            make(map[string]float64),
		routes:             make(map[routeKey]history.RouteStatistics),
		pickerProduct:      make(map[pickerProductKey]history.PickerProductStats),
		minRouteConfidence: minRouteConfidence,
	}
}

// LoadRoutes replaces the route statistics snapshot.
func (p *Predictor) LoadRoutes(routes []history.RouteStatistics) {
	next := make(map[routeKey]history.RouteStatistics, len(routes))
	for _, r := range routes {
		next[routeKey{r.FromZone, r.ToZone}] = r
	}
	p.mu.Lock()
	p.routes = next
	p.mu.Unlock()
}

// LoadPickerProduct replaces the picker-by-product snapshot.
func (p *Predictor) LoadPickerProduct(stats []history.PickerProductStats) {
	next := make(map[pickerProductKey]history.PickerProductStats, len(stats))
	for _, s := range stats {
		next[pickerProductKey{s.PickerID, s.ProductSKU}] = s
	}
	p.mu.Lock()
	p.pickerProduct = next
	p.mu.Unlock()
}

// LoadActuals replaces the replay snapshot with the logged durations of the
// given actions, keyed by action id.
func (p *Predictor) LoadActuals(records []history.TaskActionRecord) {
	next := make(map[string]float64, len(records))
	for _, r := range records {
		if r.DurationS > 0 {
			next[r.ID] = r.DurationS
		}
	}
	p.mu.Lock()
	p.actuals = next
	p.mu.Unlock()
}

// ClearActuals leaves replay mode.
func (p *Predictor) ClearActuals() {
	p.mu.Lock()
	p.actuals = make(map[string]float64)
	p.mu.Unlock()
}

// SetWaveMean sets the default fallback duration.
func (p *Predictor) SetWaveMean(seconds float64) {
	p.mu.Lock()
	p.waveMeanS = seconds
	p.mu.Unlock()
}

// Predict runs the cascade for the query.
func (p *Predictor) Predict(q Query) Estimate {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if q.ActionID != "" {
		if actual, ok := p.actuals[q.ActionID]; ok {
			return Estimate{DurationS: actual, Source: SourceActual}
		}
	}

	if q.Role != history.RolePicker {
		key := routeKey{shared.ZoneFromBinCode(q.FromBin), shared.ZoneFromBinCode(q.ToBin)}
		if route, ok := p.routes[key]; ok && route.Confidence >= p.minRouteConfidence {
			return Estimate{DurationS: route.PredictedDurationS, Source: SourceRouteStats}
		}
	}

	if q.Role == history.RolePicker {
		if stats, ok := p.pickerProduct[pickerProductKey{q.WorkerID, q.ProductSKU}]; ok {
			if seconds := pickerTaskSeconds(stats, q); seconds > 0 {
				return Estimate{DurationS: seconds, Source: SourcePickerProduct}
			}
		}
	}

	fallback := p.waveMeanS
	if fallback <= 0 {
		fallback = DefaultGlobalMeanS
	}
	return Estimate{DurationS: fallback, Source: SourceDefault}
}

// PredictRecord runs the cascade for a logged action, enabling the replay
// branch for its id.
func (p *Predictor) PredictRecord(r history.TaskActionRecord) Estimate {
	return p.Predict(Query{
		ActionID:   r.ID,
		WorkerID:   r.WorkerID,
		Role:       r.Role,
		FromBin:    r.FromBin,
		ToBin:      r.ToBin,
		ProductSKU: r.ProductSKU,
		WeightKg:   r.WeightKg,
		Quantity:   r.Quantity,
		LineCount:  r.LineCount,
	})
}

// pickerTaskSeconds converts per-minute throughput into seconds for the
// queried pick, preferring the densest available rate.
func pickerTaskSeconds(stats history.PickerProductStats, q Query) float64 {
	switch {
	case stats.LinesPerMin > 0 && q.LineCount > 0:
		return float64(q.LineCount) / stats.LinesPerMin * 60
	case stats.UnitsPerMin > 0 && q.Quantity > 0:
		return float64(q.Quantity) / stats.UnitsPerMin * 60
	case stats.KgPerMin > 0 && q.WeightKg > 0:
		return q.WeightKg / stats.KgPerMin * 60
	default:
		return stats.AvgDurationS
	}
}
