// Package metrics exports control-plane measurements to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "wareflow"
	subsystem = "control"
)

// ControlMetricsCollector implements control.MetricsRecorder on Prometheus.
type ControlMetricsCollector struct {
	registry *prometheus.Registry

	bufferLevel   prometheus.Gauge
	bufferState   *prometheus.GaugeVec
	cycleDuration *prometheus.HistogramVec
	tasksCreated  prometheus.Counter
	solvesTotal   *prometheus.CounterVec
	solveDuration prometheus.Histogram
	ingestedRows  *prometheus.CounterVec
}

// NewControlMetricsCollector creates and registers the collector on a fresh
// registry.
func NewControlMetricsCollector() *ControlMetricsCollector {
	c := &ControlMetricsCollector{
		registry: prometheus.NewRegistry(),
		bufferLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "buffer_fill_level",
			Help:      "Current buffer fill level in [0, 1]",
		}),
		bufferState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "buffer_state",
			Help:      "Current buffer state, 1 for the active state and 0 otherwise",
		}, []string{"state"}),
		cycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cycle_duration_seconds",
			Help:      "Control loop cycle duration distribution",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
		}, []string{"loop"}),
		tasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "replenishment_tasks_created_total",
			Help:      "Total replenishment tasks created in the WMS",
		}),
		solvesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "solver_runs_total",
			Help:      "Total optimizer runs by result status",
		}, []string{"status"}),
		solveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "solver_duration_seconds",
			Help:      "Optimizer wall-clock distribution",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0},
		}),
		ingestedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ingested_rows_total",
			Help:      "Total WMS rows ingested by entity",
		}, []string{"entity"}),
	}

	c.registry.MustRegister(
		c.bufferLevel, c.bufferState, c.cycleDuration,
		c.tasksCreated, c.solvesTotal, c.solveDuration, c.ingestedRows,
	)
	return c
}

// Handler serves the registry over HTTP for scraping.
func (c *ControlMetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *ControlMetricsCollector) RecordBufferLevel(level float64) {
	c.bufferLevel.Set(level)
}

func (c *ControlMetricsCollector) RecordBufferState(state string) {
	for _, s := range []string{"NORMAL", "LOW", "CRITICAL", "OVERFLOW"} {
		value := 0.0
		if s == state {
			value = 1.0
		}
		c.bufferState.WithLabelValues(s).Set(value)
	}
}

func (c *ControlMetricsCollector) RecordCycle(loop string, took time.Duration) {
	c.cycleDuration.WithLabelValues(loop).Observe(took.Seconds())
}

func (c *ControlMetricsCollector) RecordTasksCreated(count int) {
	c.tasksCreated.Add(float64(count))
}

func (c *ControlMetricsCollector) RecordSolve(status string, took time.Duration) {
	c.solvesTotal.WithLabelValues(status).Inc()
	c.solveDuration.Observe(took.Seconds())
}

func (c *ControlMetricsCollector) RecordIngestedRows(entity string, count int) {
	c.ingestedRows.WithLabelValues(entity).Add(float64(count))
}
