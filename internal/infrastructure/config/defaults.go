package config

// SetDefaults fills zero-valued fields with sensible defaults.
func SetDefaults(cfg *Config) {
	if cfg.Buffer.Capacity == 0 {
		cfg.Buffer.Capacity = 20
	}
	if cfg.Buffer.LowThreshold == 0 {
		cfg.Buffer.LowThreshold = 0.30
	}
	if cfg.Buffer.HighThreshold == 0 {
		cfg.Buffer.HighThreshold = 0.80
	}
	if cfg.Buffer.CriticalThreshold == 0 {
		cfg.Buffer.CriticalThreshold = 0.10
	}
	if cfg.Buffer.DeadBand == 0 {
		cfg.Buffer.DeadBand = 0.05
	}

	if cfg.Timing.RealtimeCycleMs == 0 {
		cfg.Timing.RealtimeCycleMs = 200
	}
	if cfg.Timing.TacticalCycleMs == 0 {
		cfg.Timing.TacticalCycleMs = 2000
	}
	if cfg.Timing.HistoricalCycleMs == 0 {
		cfg.Timing.HistoricalCycleMs = 60000
	}
	if cfg.Timing.AggregateEveryN == 0 {
		cfg.Timing.AggregateEveryN = 5
	}

	if cfg.Wave.DurationMinutes == 0 {
		cfg.Wave.DurationMinutes = 120
	}
	if cfg.Wave.SafetyMarginSec == 0 {
		cfg.Wave.SafetyMarginSec = 300
	}
	if cfg.Wave.MaxPalletsPerWave == 0 {
		cfg.Wave.MaxPalletsPerWave = 200
	}

	if cfg.Workers.ForkliftsCount == 0 {
		cfg.Workers.ForkliftsCount = 4
	}
	if cfg.Workers.PickersCount == 0 {
		cfg.Workers.PickersCount = 6
	}
	if cfg.Workers.ForkliftSpeedMPerS == 0 {
		cfg.Workers.ForkliftSpeedMPerS = 1.5
	}
	if cfg.Workers.LoadUnloadSeconds == 0 {
		cfg.Workers.LoadUnloadSeconds = 30
	}
	if cfg.Workers.LightMaxKg == 0 {
		cfg.Workers.LightMaxKg = 5
	}
	if cfg.Workers.HeavyMinKg == 0 {
		cfg.Workers.HeavyMinKg = 20
	}
	if cfg.Workers.MaxPalletsCarried == 0 {
		cfg.Workers.MaxPalletsCarried = 1
	}

	if cfg.Optimization.MaxSolverTimeMs == 0 {
		cfg.Optimization.MaxSolverTimeMs = 1000
	}
	if cfg.Optimization.BalanceWeight == 0 {
		cfg.Optimization.BalanceWeight = 0.1
	}
	if cfg.Optimization.MaxCreatesPerCycle == 0 {
		cfg.Optimization.MaxCreatesPerCycle = 5
	}

	if cfg.Queueing.OverloadBand == 0 {
		cfg.Queueing.OverloadBand = 0.80
	}
	if cfg.Queueing.CriticalBand == 0 {
		cfg.Queueing.CriticalBand = 0.95
	}

	if cfg.WmsSync.BaseURL == "" {
		cfg.WmsSync.BaseURL = "http://localhost:8080"
	}
	if cfg.WmsSync.RequestsPerSecond == 0 {
		cfg.WmsSync.RequestsPerSecond = 10
	}
	if cfg.WmsSync.MaxRetries == 0 {
		cfg.WmsSync.MaxRetries = 5
	}
	if cfg.WmsSync.BackoffBaseMs == 0 {
		cfg.WmsSync.BackoffBaseMs = 1000
	}
	if cfg.WmsSync.PageSize == 0 {
		cfg.WmsSync.PageSize = 500
	}
	if cfg.WmsSync.ReplenishFromZone == "" {
		cfg.WmsSync.ReplenishFromZone = "STORAGE"
	}
	if cfg.WmsSync.ReplenishToZone == "" {
		cfg.WmsSync.ReplenishToZone = "BUFFER"
	}
	if cfg.WmsSync.TasksSyncIntervalMs == 0 {
		cfg.WmsSync.TasksSyncIntervalMs = 60000
	}
	if cfg.WmsSync.PickersSyncIntervalMs == 0 {
		cfg.WmsSync.PickersSyncIntervalMs = 5000
	}
	if cfg.WmsSync.ForkliftsSyncIntervalMs == 0 {
		cfg.WmsSync.ForkliftsSyncIntervalMs = 5000
	}
	if cfg.WmsSync.BufferSyncIntervalMs == 0 {
		cfg.WmsSync.BufferSyncIntervalMs = 1000
	}
	if cfg.WmsSync.AggregationIntervalMs == 0 {
		cfg.WmsSync.AggregationIntervalMs = 300000
	}

	if cfg.Historical.DemandWindowDays == 0 {
		cfg.Historical.DemandWindowDays = 14
	}
	if cfg.Historical.RouteMinTrips == 0 {
		cfg.Historical.RouteMinTrips = 10
	}
	if cfg.Historical.RetentionDays == 0 {
		cfg.Historical.RetentionDays = 365
	}
	if cfg.Historical.ChunkIntervalDays == 0 {
		cfg.Historical.ChunkIntervalDays = 7
	}
	if cfg.Historical.CompressionAfterDays == 0 {
		cfg.Historical.CompressionAfterDays = 30
	}

	if cfg.Reports.Dir == "" {
		cfg.Reports.Dir = "reports"
	}
	if cfg.Reports.ShiftHours == 0 {
		cfg.Reports.ShiftHours = 8
	}
	if cfg.Reports.BufferCapacity == 0 {
		cfg.Reports.BufferCapacity = cfg.Buffer.Capacity
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "wareflow"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "wareflow"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "wareflow.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 100
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 3
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = 28
	}

	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9090"
	}
}
