package persistence

import (
	"time"
)

// TaskActionModel represents the task_actions table: the append-only action
// log ingested from the WMS.
type TaskActionModel struct {
	ID            string     `gorm:"column:id;primaryKey"`
	WmsTaskID     int64      `gorm:"column:wms_task_id;index"`
	WaveNumber    int        `gorm:"column:wave_number;index"`
	WorkerID      string     `gorm:"column:worker_id;index"`
	WorkerName    string     `gorm:"column:worker_name"`
	Role          string     `gorm:"column:role"`
	Template      string     `gorm:"column:template"`
	BasisNumber   string     `gorm:"column:basis_number"`
	FromBin       string     `gorm:"column:from_bin"`
	ToBin         string     `gorm:"column:to_bin"`
	ProductSKU    string     `gorm:"column:product_sku"`
	ProductName   string     `gorm:"column:product_name"`
	WeightKg      float64    `gorm:"column:weight_kg"`
	Quantity      int        `gorm:"column:quantity"`
	LineCount     int        `gorm:"column:line_count"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	StartedAt     *time.Time `gorm:"column:started_at"`
	CompletedAt   *time.Time `gorm:"column:completed_at;index"`
	Status        string     `gorm:"column:status"`
	DurationS     float64    `gorm:"column:duration_s"`
	FailureReason string     `gorm:"column:failure_reason"`
}

func (TaskActionModel) TableName() string {
	return "task_actions"
}

// BufferSnapshotModel represents the buffer_snapshots time-series table.
type BufferSnapshotModel struct {
	Time            time.Time `gorm:"column:time;primaryKey"`
	BufferLevel     float64   `gorm:"column:buffer_level"`
	BufferState     string    `gorm:"column:buffer_state"`
	PalletsCount    int       `gorm:"column:pallets_count"`
	ActiveForklifts int       `gorm:"column:active_forklifts"`
	ActivePickers   int       `gorm:"column:active_pickers"`
	ConsumptionRate float64   `gorm:"column:consumption_rate"`
	DeliveryRate    float64   `gorm:"column:delivery_rate"`
	QueueLength     int       `gorm:"column:queue_length"`
	PendingTasks    int       `gorm:"column:pending_tasks"`
}

func (BufferSnapshotModel) TableName() string {
	return "buffer_snapshots"
}

// WorkerRecordModel represents the worker_records aggregate table.
type WorkerRecordModel struct {
	WorkerID        string    `gorm:"column:worker_id;primaryKey"`
	WorkerName      string    `gorm:"column:worker_name"`
	Role            string    `gorm:"column:role"`
	TaskCount       int       `gorm:"column:task_count"`
	AvgDurationS    float64   `gorm:"column:avg_duration_s"`
	MedianDurationS float64   `gorm:"column:median_duration_s"`
	StdDevS         float64   `gorm:"column:stddev_s"`
	P90DurationS    float64   `gorm:"column:p90_duration_s"`
	TasksPerHour    float64   `gorm:"column:tasks_per_hour"`
	FirstActivity   time.Time `gorm:"column:first_activity"`
	LastActivity    time.Time `gorm:"column:last_activity"`
}

func (WorkerRecordModel) TableName() string {
	return "worker_records"
}

// RouteStatisticsModel represents the route_statistics aggregate table.
type RouteStatisticsModel struct {
	FromZone           string  `gorm:"column:from_zone;primaryKey"`
	ToZone             string  `gorm:"column:to_zone;primaryKey"`
	Trips              int     `gorm:"column:trips"`
	NormalizedTrips    int     `gorm:"column:normalized_trips"`
	AvgDurationS       float64 `gorm:"column:avg_duration_s"`
	MedianDurationS    float64 `gorm:"column:median_duration_s"`
	StdDevS            float64 `gorm:"column:stddev_s"`
	LowerBoundS        float64 `gorm:"column:lower_bound_s"`
	UpperBoundS        float64 `gorm:"column:upper_bound_s"`
	OutliersRemoved    int     `gorm:"column:outliers_removed"`
	PredictedDurationS float64 `gorm:"column:predicted_duration_s"`
	Confidence         float64 `gorm:"column:confidence"`
}

func (RouteStatisticsModel) TableName() string {
	return "route_statistics"
}

// PickerProductModel represents the picker_product_stats aggregate table.
type PickerProductModel struct {
	PickerID     string  `gorm:"column:picker_id;primaryKey"`
	ProductSKU   string  `gorm:"column:product_sku;primaryKey"`
	PickerName   string  `gorm:"column:picker_name"`
	ProductName  string  `gorm:"column:product_name"`
	Observations int     `gorm:"column:observations"`
	LinesPerMin  float64 `gorm:"column:lines_per_min"`
	UnitsPerMin  float64 `gorm:"column:units_per_min"`
	KgPerMin     float64 `gorm:"column:kg_per_min"`
	AvgDurationS float64 `gorm:"column:avg_duration_s"`
	Confidence   float64 `gorm:"column:confidence"`
}

func (PickerProductModel) TableName() string {
	return "picker_product_stats"
}

// WmsWorkerModel represents the wms_workers master-data table.
type WmsWorkerModel struct {
	ID   int64  `gorm:"column:id;primaryKey"`
	Code string `gorm:"column:code;index"`
	Name string `gorm:"column:name"`
	Role string `gorm:"column:role"`
}

func (WmsWorkerModel) TableName() string {
	return "wms_workers"
}

// ZoneModel represents the zones master-data table.
type ZoneModel struct {
	ID   int64  `gorm:"column:id;primaryKey"`
	Code string `gorm:"column:code;index"`
	Name string `gorm:"column:name"`
}

func (ZoneModel) TableName() string {
	return "zones"
}

// CellModel represents the cells master-data table.
type CellModel struct {
	ID        int64   `gorm:"column:id;primaryKey"`
	Code      string  `gorm:"column:code;index"`
	ZoneCode  string  `gorm:"column:zone_code;index"`
	DistanceM float64 `gorm:"column:distance_m"`
}

func (CellModel) TableName() string {
	return "cells"
}

// ProductModel represents the products master-data table.
type ProductModel struct {
	ID       int64   `gorm:"column:id;primaryKey"`
	SKU      string  `gorm:"column:sku;index"`
	Name     string  `gorm:"column:name"`
	WeightKg float64 `gorm:"column:weight_kg"`
}

func (ProductModel) TableName() string {
	return "products"
}

// BacktestRunModel represents the backtest_runs table.
type BacktestRunModel struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	WaveNumber     int       `gorm:"column:wave_number;index"`
	RunAt          time.Time `gorm:"column:run_at"`
	OriginalDays   int       `gorm:"column:original_days"`
	OptimizedDays  int       `gorm:"column:optimized_days"`
	DaysSaved      int       `gorm:"column:days_saved"`
	ImprovementPct float64   `gorm:"column:improvement_pct"`
	FactWallClockS float64   `gorm:"column:fact_wall_clock_s"`
	FactActiveS    float64   `gorm:"column:fact_active_s"`
	OptActiveS     float64   `gorm:"column:opt_active_s"`
}

func (BacktestRunModel) TableName() string {
	return "backtest_runs"
}

// BacktestDecisionModel represents the backtest_decisions table.
type BacktestDecisionModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunID        int64     `gorm:"column:run_id;index"`
	WaveNumber   int       `gorm:"column:wave_number;index"`
	Seq          int       `gorm:"column:seq"`
	Day          int       `gorm:"column:day"`
	SimTime      time.Time `gorm:"column:sim_time"`
	DecisionType string    `gorm:"column:decision_type"`
	WorkerID     string    `gorm:"column:worker_id"`
	WorkerName   string    `gorm:"column:worker_name"`
	TaskPriority int       `gorm:"column:task_priority"`
	DurationS    float64   `gorm:"column:duration_s"`
	WeightKg     float64   `gorm:"column:weight_kg"`
	BufferBefore float64   `gorm:"column:buffer_before"`
	BufferAfter  float64   `gorm:"column:buffer_after"`
	Constraint   string    `gorm:"column:active_constraint"`
	Reason       string    `gorm:"column:reason"`
}

func (BacktestDecisionModel) TableName() string {
	return "backtest_decisions"
}

// BacktestEventModel represents the backtest_schedule_events table.
type BacktestEventModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunID       int64     `gorm:"column:run_id;index"`
	WaveNumber  int       `gorm:"column:wave_number;index"`
	Timeline    string    `gorm:"column:timeline"`
	WorkerID    string    `gorm:"column:worker_id"`
	WorkerName  string    `gorm:"column:worker_name"`
	Role        string    `gorm:"column:role"`
	Start       time.Time `gorm:"column:start"`
	End         time.Time `gorm:"column:end"`
	DurationS   float64   `gorm:"column:duration_s"`
	ProductName string    `gorm:"column:product_name"`
	FromBin     string    `gorm:"column:from_bin"`
	ToBin       string    `gorm:"column:to_bin"`
	WeightKg    float64   `gorm:"column:weight_kg"`
	BufferLevel float64   `gorm:"column:buffer_level"`
	TransitionS float64   `gorm:"column:transition_s"`
}

func (BacktestEventModel) TableName() string {
	return "backtest_schedule_events"
}
