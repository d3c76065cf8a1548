package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wonny/stockmarket/internal/domain/stock"
)

// StockDBContext is the narrow query surface StockRepository needs.
// Each call is one round trip on its own connection.
type StockDBContext interface {
	// QueryStocks runs a statement selecting stockColumns and returns every row
	QueryStocks(ctx context.Context, sql string, args ...any) ([]stock.Stock, error)

	// QueryExists reports whether the statement returns at least one row
	QueryExists(ctx context.Context, sql string, args ...any) (bool, error)

	// Exec runs a statement and returns the number of affected rows
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// PoolContext implements StockDBContext on a pgx pool.
// A connection is acquired per call and released on every return path.
type PoolContext struct {
	pool *pgxpool.Pool
}

// NewPoolContext creates a new PoolContext
func NewPoolContext(pool *pgxpool.Pool) *PoolContext {
	return &PoolContext{pool: pool}
}

// QueryStocks implements StockDBContext
func (c *PoolContext) QueryStocks(ctx context.Context, sql string, args ...any) ([]stock.Stock, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}

	stocks, err := pgx.CollectRows(rows, scanStock)
	if err != nil {
		return nil, fmt.Errorf("failed to scan stocks: %w", err)
	}

	return stocks, nil
}

// QueryExists implements StockDBContext
func (c *PoolContext) QueryExists(ctx context.Context, sql string, args ...any) (bool, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	var one int
	err = conn.QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return true, nil
}

// Exec implements StockDBContext
func (c *PoolContext) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func scanStock(row pgx.CollectableRow) (stock.Stock, error) {
	var s stock.Stock
	err := row.Scan(&s.Code, &s.Name, &s.Price, &s.PreviousPrice, &s.Exchange, &s.Favorite)
	return s, err
}
