package predict_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wareflow/wareflow-go/internal/application/predict"
	"github.com/wareflow/wareflow-go/internal/domain/history"
)

func TestPredict_DefaultFallback(t *testing.T) {
	p := predict.NewPredictor(predict.DefaultMinRouteConfidence)

	estimate := p.Predict(predict.Query{WorkerID: "W1", Role: history.RoleForklift})

	assert.Equal(t, predict.SourceDefault, estimate.Source)
	assert.Equal(t, predict.DefaultGlobalMeanS, estimate.DurationS)
}

func TestPredict_WaveMeanBeatsGlobalDefault(t *testing.T) {
	p := predict.NewPredictor(predict.DefaultMinRouteConfidence)
	p.SetWaveMean(90)

	estimate := p.Predict(predict.Query{Role: history.RoleForklift})

	assert.Equal(t, predict.SourceDefault, estimate.Source)
	assert.Equal(t, 90.0, estimate.DurationS)
}

func TestPredict_RouteStatsForForklifts(t *testing.T) {
	p := predict.NewPredictor(predict.DefaultMinRouteConfidence)
	p.LoadRoutes([]history.RouteStatistics{
		{FromZone: "D", ToZone: "BUFFER", PredictedDurationS: 45, Confidence: 0.8},
	})

	estimate := p.Predict(predict.Query{
		Role:    history.RoleForklift,
		FromBin: "01D-02-15-03",
		ToBin:   "BUFFER",
	})

	assert.Equal(t, predict.SourceRouteStats, estimate.Source)
	assert.Equal(t, 45.0, estimate.DurationS)
}

func TestPredict_LowConfidenceRouteIgnored(t *testing.T) {
	p := predict.NewPredictor(predict.DefaultMinRouteConfidence)
	p.LoadRoutes([]history.RouteStatistics{
		{FromZone: "D", ToZone: "BUFFER", PredictedDurationS: 45, Confidence: 0.2},
	})

	estimate := p.Predict(predict.Query{
		Role:    history.RoleForklift,
		FromBin: "01D-02-15-03",
		ToBin:   "BUFFER",
	})

	assert.Equal(t, predict.SourceDefault, estimate.Source)
}

func TestPredict_RouteStatsNotUsedForPickers(t *testing.T) {
	p := predict.NewPredictor(predict.DefaultMinRouteConfidence)
	p.LoadRoutes([]history.RouteStatistics{
		{FromZone: "D", ToZone: "BUFFER", PredictedDurationS: 45, Confidence: 0.9},
	})

	estimate := p.Predict(predict.Query{
		Role:    history.RolePicker,
		FromBin: "01D-02-15-03",
		ToBin:   "BUFFER",
	})

	assert.Equal(t, predict.SourceDefault, estimate.Source)
}

func TestPredict_PickerProductRates(t *testing.T) {
	p := predict.NewPredictor(predict.DefaultMinRouteConfidence)
	p.LoadPickerProduct([]history.PickerProductStats{
		{PickerID: "PK1", ProductSKU: "A", LinesPerMin: 2, UnitsPerMin: 10, AvgDurationS: 33},
	})

	// Lines rate wins when the query has a line count: 4 lines at 2/min.
	estimate := p.Predict(predict.Query{
		Role: history.RolePicker, WorkerID: "PK1", ProductSKU: "A", LineCount: 4,
	})
	assert.Equal(t, predict.SourcePickerProduct, estimate.Source)
	assert.InDelta(t, 120, estimate.DurationS, 1e-9)

	// Without line count the units rate applies: 20 units at 10/min.
	estimate = p.Predict(predict.Query{
		Role: history.RolePicker, WorkerID: "PK1", ProductSKU: "A", Quantity: 20,
	})
	assert.InDelta(t, 120, estimate.DurationS, 1e-9)

	// With no dimensions at all the stored average duration remains.
	estimate = p.Predict(predict.Query{
		Role: history.RolePicker, WorkerID: "PK1", ProductSKU: "A",
	})
	assert.Equal(t, 33.0, estimate.DurationS)
}

func TestPredict_UnknownPickerProductFallsThrough(t *testing.T) {
	p := predict.NewPredictor(predict.DefaultMinRouteConfidence)
	p.LoadPickerProduct([]history.PickerProductStats{
		{PickerID: "PK1", ProductSKU: "A", UnitsPerMin: 10},
	})

	estimate := p.Predict(predict.Query{
		Role: history.RolePicker, WorkerID: "PK2", ProductSKU: "A", Quantity: 5,
	})

	assert.Equal(t, predict.SourceDefault, estimate.Source)
}

func TestPredict_ActualWinsInReplayMode(t *testing.T) {
	p := predict.NewPredictor(predict.DefaultMinRouteConfidence)
	p.LoadRoutes([]history.RouteStatistics{
		{FromZone: "D", ToZone: "BUFFER", PredictedDurationS: 45, Confidence: 0.9},
	})
	p.LoadActuals([]history.TaskActionRecord{
		{ID: "A1", DurationS: 77},
		{ID: "A2", DurationS: 0}, // zero durations are not replayable
	})

	estimate := p.Predict(predict.Query{
		ActionID: "A1",
		Role:     history.RoleForklift,
		FromBin:  "01D-02-15-03",
		ToBin:    "BUFFER",
	})
	assert.Equal(t, predict.SourceActual, estimate.Source)
	assert.Equal(t, 77.0, estimate.DurationS)

	estimate = p.Predict(predict.Query{
		ActionID: "A2",
		Role:     history.RoleForklift,
		FromBin:  "01D-02-15-03",
		ToBin:    "BUFFER",
	})
	assert.Equal(t, predict.SourceRouteStats, estimate.Source)

	p.ClearActuals()
	estimate = p.Predict(predict.Query{ActionID: "A1", Role: history.RoleForklift,
		FromBin: "01D-02-15-03", ToBin: "BUFFER"})
	assert.Equal(t, predict.SourceRouteStats, estimate.Source)
}

func TestPredictRecord_UsesRecordFields(t *testing.T) {
	p := predict.NewPredictor(predict.DefaultMinRouteConfidence)
	p.LoadActuals([]history.TaskActionRecord{{ID: "A1", DurationS: 55}})

	estimate := p.PredictRecord(history.TaskActionRecord{
		ID:       "A1",
		WorkerID: "W1",
		Role:     history.RoleForklift,
	})

	assert.Equal(t, predict.SourceActual, estimate.Source)
	assert.Equal(t, 55.0, estimate.DurationS)
}
