// Package config loads the service configuration from environment
// variables, an optional YAML file and built-in defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config combines all configuration groups.
type Config struct {
	Buffer       BufferConfig       `mapstructure:"buffer"`
	Timing       TimingConfig       `mapstructure:"timing"`
	Wave         WaveConfig         `mapstructure:"wave"`
	Workers      WorkersConfig      `mapstructure:"workers"`
	Optimization OptimizationConfig `mapstructure:"optimization"`
	Queueing     QueueingConfig     `mapstructure:"queueing"`
	WmsSync      WmsSyncConfig      `mapstructure:"wms_sync"`
	Historical   HistoricalConfig   `mapstructure:"historical"`
	Reports      ReportsConfig      `mapstructure:"reports"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// LoadConfig loads configuration with priority: environment variables over
// the config file over defaults.
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/wareflow")
	}

	v.SetEnvPrefix("WF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// On-by-default booleans: SetDefaults cannot tell an explicit false from
	// a zero value, so these default through viper.
	v.SetDefault("wms_sync.enabled", true)
	v.SetDefault("optimization.warm_start_enabled", true)
	v.SetDefault("historical.compression_enabled", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// DATABASE_URL works without the WF_ prefix.
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		v.Set("database.url", dbURL)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	SetDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// MustLoadConfig loads configuration and panics on error.
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
