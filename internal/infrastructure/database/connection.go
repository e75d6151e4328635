// Package database opens and migrates the GORM storage backend.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wareflow/wareflow-go/internal/adapters/persistence"
	"github.com/wareflow/wareflow-go/internal/infrastructure/config"
)

// NewConnection opens a database connection according to the configuration.
// The historical group drives the TimescaleDB housekeeping (chunking,
// retention, compression) applied to the snapshot hypertable on postgres.
func NewConnection(cfg *config.DatabaseConfig, historical config.HistoricalConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Type {
	case "postgres":
		dsn := cfg.URL
		if dsn == "" {
			dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
		}
		dialector = postgres.Open(dsn)
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		dialector = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Type == "postgres" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access connection pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	if cfg.Type == "postgres" {
		enableHypertables(db, historical)
	}
	return db, nil
}

// AutoMigrate creates or updates the schema for all persisted models.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&persistence.TaskActionModel{},
		&persistence.BufferSnapshotModel{},
		&persistence.WorkerRecordModel{},
		&persistence.RouteStatisticsModel{},
		&persistence.PickerProductModel{},
		&persistence.WmsWorkerModel{},
		&persistence.ZoneModel{},
		&persistence.CellModel{},
		&persistence.ProductModel{},
		&persistence.BacktestRunModel{},
		&persistence.BacktestDecisionModel{},
		&persistence.BacktestEventModel{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// enableHypertables converts time-series tables to TimescaleDB hypertables
// and applies the configured retention and compression policies. Best
// effort: plain Postgres without the extension works unchanged.
func enableHypertables(db *gorm.DB, historical config.HistoricalConfig) {
	db.Exec("CREATE EXTENSION IF NOT EXISTS timescaledb")

	chunkDays := historical.ChunkIntervalDays
	if chunkDays <= 0 {
		chunkDays = 7
	}
	db.Exec(fmt.Sprintf(
		"SELECT create_hypertable('buffer_snapshots', 'time', if_not_exists => TRUE, migrate_data => TRUE, chunk_time_interval => INTERVAL '%d days')",
		chunkDays))

	if historical.RetentionDays > 0 {
		db.Exec(fmt.Sprintf(
			"SELECT add_retention_policy('buffer_snapshots', INTERVAL '%d days', if_not_exists => TRUE)",
			historical.RetentionDays))
	}
	if historical.CompressionEnabled {
		db.Exec("ALTER TABLE buffer_snapshots SET (timescaledb.compress, timescaledb.compress_orderby = 'time DESC')")
		afterDays := historical.CompressionAfterDays
		if afterDays <= 0 {
			afterDays = 30
		}
		db.Exec(fmt.Sprintf(
			"SELECT add_compression_policy('buffer_snapshots', INTERVAL '%d days', if_not_exists => TRUE)",
			afterDays))
	}
}

// NewTestConnection opens an in-memory SQLite database with the full schema.
func NewTestConnection() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open test database: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
