package orm

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wonny/stockmarket/internal/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenPostgres opens a gorm session over PostgreSQL
func OpenPostgres(cfg config.DatabaseConfig, logger zerolog.Logger, level gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := open(postgres.Open(cfg.URL), logger, level)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(int(cfg.MaxConns))
	sqlDB.SetMaxIdleConns(int(cfg.MinConns))
	sqlDB.SetConnMaxLifetime(cfg.MaxConnLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	log.Info().Msg("✅ PostgreSQL (gorm) connected successfully")
	return db, nil
}

// OpenSQLite opens a gorm session over an embedded SQLite database.
// path may be ":memory:".
func OpenSQLite(path string, logger zerolog.Logger, level gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := open(sqlite.Open(path), logger, level)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// SQLite has a single writer; one connection also keeps ":memory:" a single database
	sqlDB.SetMaxOpenConns(1)

	log.Info().Str("path", path).Msg("✅ SQLite (gorm) opened")
	return db, nil
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func open(dialector gorm.Dialector, logger zerolog.Logger, level gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewZerologAdapter(logger).LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialector.Name(), err)
	}
	return db, nil
}
