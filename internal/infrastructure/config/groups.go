package config

// BufferConfig controls the buffer state machine and the rate controller.
type BufferConfig struct {
	Capacity          int     `mapstructure:"capacity" validate:"gt=0"`
	LowThreshold      float64 `mapstructure:"low_threshold" validate:"gt=0,lt=1"`
	HighThreshold     float64 `mapstructure:"high_threshold" validate:"gt=0,lt=1"`
	CriticalThreshold float64 `mapstructure:"critical_threshold" validate:"gte=0,lt=1"`
	DeadBand          float64 `mapstructure:"dead_band" validate:"gte=0,lt=0.5"`
}

// TimingConfig sets the cadence of the three control loops.
type TimingConfig struct {
	RealtimeCycleMs   int `mapstructure:"realtime_cycle_ms" validate:"gt=0"`
	TacticalCycleMs   int `mapstructure:"tactical_cycle_ms" validate:"gt=0"`
	HistoricalCycleMs int `mapstructure:"historical_cycle_ms" validate:"gt=0"`
	AggregateEveryN   int `mapstructure:"aggregate_every_n"`
}

// WaveConfig shapes wave construction.
type WaveConfig struct {
	DurationMinutes   int `mapstructure:"duration_minutes" validate:"gt=0"`
	SafetyMarginSec   int `mapstructure:"safety_margin_seconds" validate:"gte=0"`
	MaxPalletsPerWave int `mapstructure:"max_pallets_per_wave" validate:"gt=0"`
}

// WorkersConfig describes the workforce defaults and expected crew sizes.
type WorkersConfig struct {
	ForkliftsCount     int     `mapstructure:"forklifts_count" validate:"gt=0"`
	PickersCount       int     `mapstructure:"pickers_count" validate:"gt=0"`
	ForkliftSpeedMPerS float64 `mapstructure:"forklift_speed_m_per_s" validate:"gt=0"`
	LoadUnloadSeconds  int     `mapstructure:"load_unload_seconds" validate:"gte=0"`
	LightMaxKg         float64 `mapstructure:"light_max_kg" validate:"gt=0"`
	HeavyMinKg         float64 `mapstructure:"heavy_min_kg" validate:"gt=0"`
	MaxPalletsCarried  int     `mapstructure:"max_pallets_carried" validate:"gt=0"`
}

// OptimizationConfig bounds the assignment solver.
type OptimizationConfig struct {
	MaxSolverTimeMs    int     `mapstructure:"max_solver_time_ms" validate:"gt=0"`
	BalanceWeight      float64 `mapstructure:"balance_weight" validate:"gte=0"`
	MaxCreatesPerCycle int     `mapstructure:"max_creates_per_cycle" validate:"gt=0"`
	WarmStartEnabled   bool    `mapstructure:"warm_start_enabled"`
}

// QueueingConfig sets the utilisation bands for the M/M/c pipeline analysis.
type QueueingConfig struct {
	OverloadBand float64 `mapstructure:"overload_band" validate:"gt=0,lte=1"`
	CriticalBand float64 `mapstructure:"critical_band" validate:"gt=0,lte=1"`
}

// WmsSyncConfig configures the upstream WMS API client and the ingestion
// cadences. The per-entity intervals throttle how often the loops re-read
// each WMS surface.
type WmsSyncConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	BaseURL           string  `mapstructure:"base_url" validate:"required,url"`
	APIKey            string  `mapstructure:"api_key"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0"`
	BackoffBaseMs     int     `mapstructure:"backoff_base_ms" validate:"gt=0"`
	PageSize          int     `mapstructure:"page_size" validate:"gt=0,lte=1000"`
	ReplenishFromZone string  `mapstructure:"replenish_from_zone"`
	ReplenishToZone   string  `mapstructure:"replenish_to_zone"`

	TasksSyncIntervalMs     int `mapstructure:"tasks_sync_interval_ms" validate:"gt=0"`
	PickersSyncIntervalMs   int `mapstructure:"pickers_sync_interval_ms" validate:"gt=0"`
	ForkliftsSyncIntervalMs int `mapstructure:"forklifts_sync_interval_ms" validate:"gt=0"`
	BufferSyncIntervalMs    int `mapstructure:"buffer_sync_interval_ms" validate:"gt=0"`
	AggregationIntervalMs   int `mapstructure:"aggregation_interval_ms" validate:"gt=0"`
}

// HistoricalConfig tunes the aggregation jobs and the time-series
// housekeeping applied to the snapshot hypertable.
type HistoricalConfig struct {
	DemandWindowDays     int  `mapstructure:"demand_window_days" validate:"gt=0"`
	RouteMinTrips        int  `mapstructure:"route_min_trips" validate:"gt=0"`
	RetentionDays        int  `mapstructure:"retention_days" validate:"gt=0"`
	ChunkIntervalDays    int  `mapstructure:"chunk_interval_days" validate:"gt=0"`
	CompressionEnabled   bool `mapstructure:"compression_enabled"`
	CompressionAfterDays int  `mapstructure:"compression_after_days" validate:"gt=0"`
}

// ReportsConfig configures backtest reporting.
type ReportsConfig struct {
	Dir            string `mapstructure:"dir" validate:"required"`
	ShiftHours     int    `mapstructure:"shift_hours" validate:"gt=0,lte=24"`
	BufferCapacity int    `mapstructure:"buffer_capacity" validate:"gt=0"`
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Type     string `mapstructure:"type" validate:"oneof=postgres sqlite"`
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"`

	MaxOpenConns    int `mapstructure:"max_open_conns"`
	MaxIdleConns    int `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime_minutes"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}
