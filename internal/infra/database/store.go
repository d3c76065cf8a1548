package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wonny/stockmarket/internal/domain/stock"
	"github.com/wonny/stockmarket/internal/infra/database/mongodb"
	"github.com/wonny/stockmarket/internal/infra/database/orm"
	"github.com/wonny/stockmarket/internal/infra/database/postgres"
	"github.com/wonny/stockmarket/internal/pkg/config"
	"github.com/wonny/stockmarket/internal/pkg/metrics"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store is the backend chosen at startup
type Store struct {
	Provider string
	Stocks   stock.Repository

	ping   func(ctx context.Context) error
	pool   *postgres.Pool
	closer func() error
}

// HealthStatus represents storage health
type HealthStatus struct {
	Status       string                 `json:"status"` // "healthy", "degraded", "unhealthy"
	Provider     string                 `json:"provider"`
	ResponseTime string                 `json:"response_time"`
	CheckedAt    time.Time              `json:"checked_at"`
	Error        string                 `json:"error,omitempty"`
	Pool         *postgres.HealthStatus `json:"pool,omitempty"`
}

type options struct {
	metrics     *metrics.Repository
	queryLogger *zerolog.Logger
}

// Option customizes Open
type Option func(*options)

// WithMetrics records repository metrics on m
func WithMetrics(m *metrics.Repository) Option {
	return func(o *options) { o.metrics = m }
}

// WithQueryLogger sends SQL statements to logger
func WithQueryLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.queryLogger = &logger }
}

type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// Open builds exactly one backend from cfg.Database.Provider
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Store, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.NewRepository(prometheus.NewRegistry())
	}

	var (
		store *Store
		repo  stock.Repository
		err   error
	)

	switch cfg.Database.Provider {
	case config.ProviderPostgres:
		store, repo, err = openPostgres(ctx, cfg, o.queryLogger)
	case config.ProviderGorm:
		store, repo, err = openGorm(cfg, o.queryLogger, func(l zerolog.Logger, level gormlogger.LogLevel) (*gorm.DB, error) {
			return orm.OpenPostgres(cfg.Database, l, level)
		})
	case config.ProviderGormSQLite:
		store, repo, err = openGorm(cfg, o.queryLogger, func(l zerolog.Logger, level gormlogger.LogLevel) (*gorm.DB, error) {
			return orm.OpenSQLite(cfg.Database.SQLitePath, l, level)
		})
	case config.ProviderMongoDB:
		store, repo, err = openMongo(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown database provider %q", cfg.Database.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Database.EnsureSchema {
		if err := repo.(schemaEnsurer).EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		log.Info().Str("provider", cfg.Database.Provider).Msg("✅ Stock schema ensured")
	}

	store.Provider = cfg.Database.Provider
	store.Stocks = NewInstrumentedRepository(repo, cfg.Database.Provider, o.metrics)
	return store, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, queryLogger *zerolog.Logger) (*Store, stock.Repository, error) {
	pool, err := postgres.NewPool(ctx, cfg, queryLogger)
	if err != nil {
		return nil, nil, err
	}

	store := &Store{
		ping: pool.Ping,
		pool: pool,
		closer: func() error {
			pool.Close()
			return nil
		},
	}
	return store, postgres.NewStockRepository(postgres.NewPoolContext(pool.Pool)), nil
}

func openGorm(cfg *config.Config, queryLogger *zerolog.Logger, open func(zerolog.Logger, gormlogger.LogLevel) (*gorm.DB, error)) (*Store, stock.Repository, error) {
	logger := log.Logger
	if queryLogger != nil {
		logger = *queryLogger
	}

	db, err := open(logger, gormLogLevel(cfg.Logging.Level))
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	store := &Store{
		ping:   sqlDB.PingContext,
		closer: func() error { return orm.Close(db) },
	}
	return store, orm.NewStockRepository(db), nil
}

// mongoRepository adds the index bootstrap to the collection repository
type mongoRepository struct {
	*mongodb.StockRepository
	client *mongodb.Client
}

func (r mongoRepository) EnsureSchema(ctx context.Context) error {
	return r.client.EnsureIndexes(ctx)
}

func openMongo(ctx context.Context, cfg *config.Config) (*Store, stock.Repository, error) {
	client, err := mongodb.Connect(ctx, cfg.Mongo)
	if err != nil {
		return nil, nil, err
	}

	store := &Store{
		ping: client.Ping,
		closer: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Close(ctx)
		},
	}
	repo := mongoRepository{
		StockRepository: mongodb.NewStockRepository(client.Stocks()),
		client:          client,
	}
	return store, repo, nil
}

// Ping checks the backend is reachable
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return errors.New("store is not open")
	}
	return s.ping(ctx)
}

// Health reports backend health; postgres adds pool statistics
func (s *Store) Health(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{
		Status:    "healthy",
		Provider:  s.Provider,
		CheckedAt: start,
	}

	if s.pool != nil {
		pool := s.pool.Health(ctx)
		status.Pool = pool
		status.Status = pool.Status
		status.Error = pool.Error
		status.ResponseTime = pool.ResponseTime
		return status
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := s.Ping(pingCtx); err != nil {
		status.Status = "unhealthy"
		status.Error = fmt.Sprintf("ping failed: %v", err)
	}
	status.ResponseTime = time.Since(start).String()
	return status
}

// Close releases the backend connections
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}
