package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-go/internal/infrastructure/config"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig("")

	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Buffer.Capacity)
	assert.InDelta(t, 0.30, cfg.Buffer.LowThreshold, 1e-9)
	assert.InDelta(t, 0.80, cfg.Buffer.HighThreshold, 1e-9)
	assert.InDelta(t, 0.10, cfg.Buffer.CriticalThreshold, 1e-9)
	assert.Equal(t, 200, cfg.Timing.RealtimeCycleMs)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.InDelta(t, 0.80, cfg.Queueing.OverloadBand, 1e-9)
	assert.InDelta(t, 0.95, cfg.Queueing.CriticalBand, 1e-9)
	assert.Equal(t, 500, cfg.WmsSync.PageSize)
	assert.Equal(t, 4, cfg.Workers.ForkliftsCount)
	assert.Equal(t, 6, cfg.Workers.PickersCount)
	assert.Equal(t, 10, cfg.Historical.RouteMinTrips)
	assert.Equal(t, 365, cfg.Historical.RetentionDays)
	assert.Equal(t, 7, cfg.Historical.ChunkIntervalDays)
	assert.Equal(t, 30, cfg.Historical.CompressionAfterDays)
	assert.Equal(t, 60000, cfg.WmsSync.TasksSyncIntervalMs)
	assert.Equal(t, 1000, cfg.WmsSync.BufferSyncIntervalMs)
	assert.Equal(t, 300000, cfg.WmsSync.AggregationIntervalMs)
	// On-by-default switches.
	assert.True(t, cfg.WmsSync.Enabled)
	assert.True(t, cfg.Optimization.WarmStartEnabled)
	assert.True(t, cfg.Historical.CompressionEnabled)
	// Report buffer capacity follows the buffer group when unset.
	assert.Equal(t, cfg.Buffer.Capacity, cfg.Reports.BufferCapacity)
}

func TestLoadConfig_SwitchesCanBeDisabled(t *testing.T) {
	path := writeConfigFile(t, `
wms_sync:
  enabled: false
optimization:
  warm_start_enabled: false
historical:
  compression_enabled: false
`)

	cfg, err := config.LoadConfig(path)

	require.NoError(t, err)
	assert.False(t, cfg.WmsSync.Enabled)
	assert.False(t, cfg.Optimization.WarmStartEnabled)
	assert.False(t, cfg.Historical.CompressionEnabled)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
buffer:
  capacity: 50
logging:
  level: debug
`)

	cfg, err := config.LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Buffer.Capacity)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched groups keep their defaults.
	assert.Equal(t, 200, cfg.Timing.RealtimeCycleMs)
}

func TestLoadConfig_DatabaseURLWithoutPrefix(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://wareflow:secret@db:5432/wareflow")

	cfg, err := config.LoadConfig("")

	require.NoError(t, err)
	assert.Equal(t, "postgres://wareflow:secret@db:5432/wareflow", cfg.Database.URL)
}

func TestLoadConfig_RejectsInvalidLevel(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: loud
`)

	_, err := config.LoadConfig(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Logging.Level")
}

func TestValidateConfig_CrossFieldRules(t *testing.T) {
	base, err := config.LoadConfig("")
	require.NoError(t, err)

	t.Run("critical threshold above low", func(t *testing.T) {
		cfg := *base
		cfg.Buffer.CriticalThreshold = 0.5
		err := config.ValidateConfig(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "critical_threshold")
	})

	t.Run("low threshold above high", func(t *testing.T) {
		cfg := *base
		cfg.Buffer.LowThreshold = 0.9
		err := config.ValidateConfig(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "low_threshold")
	})

	t.Run("weight classes overlap", func(t *testing.T) {
		cfg := *base
		cfg.Workers.LightMaxKg = 25
		err := config.ValidateConfig(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "light_max_kg")
	})

	t.Run("queueing bands inverted", func(t *testing.T) {
		cfg := *base
		cfg.Queueing.OverloadBand = 0.99
		err := config.ValidateConfig(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "overload_band")
	})
}
