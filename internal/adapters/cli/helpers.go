package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/wareflow/wareflow-go/internal/adapters/wmsclient"
	"github.com/wareflow/wareflow-go/internal/infrastructure/config"
	"github.com/wareflow/wareflow-go/internal/infrastructure/database"
	"github.com/wareflow/wareflow-go/internal/infrastructure/logging"
)

// openDatabase loads the configuration and opens the configured database.
func openDatabase() (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewConnection(&cfg.Database, cfg.Historical)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, db, nil
}

// newLogger builds the root logger, forced to debug level in verbose mode.
func newLogger(cfg *config.Config) zerolog.Logger {
	if verbose {
		lc := cfg.Logging
		lc.Level = "debug"
		return logging.New(lc)
	}
	return logging.New(cfg.Logging)
}

// newWmsClient builds the WMS API client from the sync configuration.
func newWmsClient(cfg *config.Config) *wmsclient.Client {
	return wmsclient.NewWithConfig(
		cfg.WmsSync.BaseURL,
		cfg.WmsSync.APIKey,
		cfg.WmsSync.RequestsPerSecond,
		cfg.WmsSync.MaxRetries,
		time.Duration(cfg.WmsSync.BackoffBaseMs)*time.Millisecond,
		nil, // nil = use RealClock
	)
}
