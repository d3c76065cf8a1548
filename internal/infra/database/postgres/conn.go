package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wonny/stockmarket/internal/pkg/config"
)

const (
	applicationName = "stockmarket"
	connectTimeout  = 5 * time.Second
)

// Pool is the pgx pool backing the raw SQL stock repository
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to cfg.Database.URL and verifies the connection.
// Statements are traced to queryLogger when it is non-nil.
func NewPool(ctx context.Context, cfg *config.Config, queryLogger *zerolog.Logger) (*Pool, error) {
	poolConfig, err := buildPoolConfig(cfg, queryLogger)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("host", poolConfig.ConnConfig.Host).
		Str("database", poolConfig.ConnConfig.Database).
		Int32("max_conns", poolConfig.MaxConns).
		Msg("Connecting stock store to PostgreSQL...")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("✅ PostgreSQL connected successfully")
	return &Pool{Pool: pool}, nil
}

// Close releases every pooled connection
func (p *Pool) Close() {
	log.Info().Msg("Closing PostgreSQL connection pool...")
	p.Pool.Close()
}

func buildPoolConfig(cfg *config.Config, queryLogger *zerolog.Logger) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	db := cfg.Database
	if db.MaxConns > 0 {
		poolConfig.MaxConns = db.MaxConns
	}
	if db.MinConns > 0 && db.MinConns <= poolConfig.MaxConns {
		poolConfig.MinConns = db.MinConns
	}
	poolConfig.MaxConnLifetime = db.MaxConnLifetime
	poolConfig.MaxConnIdleTime = db.MaxConnIdleTime

	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	if queryLogger != nil {
		poolConfig.ConnConfig.Tracer = &multiTracer{
			query: NewQueryLogger(*queryLogger),
			conn: &tracelog.TraceLog{
				Logger:   NewPgxZerologAdapter(*queryLogger),
				LogLevel: pgxLogLevel(cfg.Logging.Level),
			},
		}
	}

	return poolConfig, nil
}

func pgxLogLevel(level string) tracelog.LogLevel {
	switch level {
	case "trace":
		return tracelog.LogLevelTrace
	case "info":
		return tracelog.LogLevelInfo
	case "warn":
		return tracelog.LogLevelWarn
	case "error":
		return tracelog.LogLevelError
	default:
		return tracelog.LogLevelDebug
	}
}
