package orm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// slowQueryThreshold marks statements logged at WARN
const slowQueryThreshold = 100 * time.Millisecond

// ZerologAdapter routes gorm's logger.Interface to zerolog
type ZerologAdapter struct {
	logger zerolog.Logger
	level  gormlogger.LogLevel
}

// NewZerologAdapter creates a new adapter logging at Warn and above by default
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger, level: gormlogger.Warn}
}

// LogMode implements gormlogger.Interface
func (l *ZerologAdapter) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *ZerologAdapter) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.Info().Msg(fmt.Sprintf(msg, args...))
	}
}

// Warn implements gormlogger.Interface
func (l *ZerologAdapter) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.Warn().Msg(fmt.Sprintf(msg, args...))
	}
}

// Error implements gormlogger.Interface
func (l *ZerologAdapter) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.Error().Msg(fmt.Sprintf(msg, args...))
	}
}

// Trace implements gormlogger.Interface
func (l *ZerologAdapter) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	duration := time.Since(begin)
	sql, rows := fc()

	switch {
	// NotFound is an expected outcome, not a failure
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		l.logger.Error().Err(err).
			Str("sql", sql).
			Int64("rows", rows).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("Query failed")
	case duration > slowQueryThreshold && l.level >= gormlogger.Warn:
		l.logger.Warn().
			Str("sql", sql).
			Int64("rows", rows).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("⚠️  Slow query detected")
	case l.level >= gormlogger.Info:
		l.logger.Debug().
			Str("sql", sql).
			Int64("rows", rows).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("Query executed")
	}
}
