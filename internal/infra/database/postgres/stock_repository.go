package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/wonny/stockmarket/internal/domain/stock"
)

// uniqueViolation is the PostgreSQL error code for unique_violation
const uniqueViolation = "23505"

// StockRepository implements stock.Repository with hand-written SQL
type StockRepository struct {
	db StockDBContext
}

// NewStockRepository creates a new StockRepository
func NewStockRepository(db StockDBContext) *StockRepository {
	return &StockRepository{db: db}
}

// EnsureSchema creates the stocks table if it does not exist
func (r *StockRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createStocksTableQuery); err != nil {
		return fmt.Errorf("failed to create stocks table: %w", err)
	}
	return nil
}

// GetAll returns stocks whose code contains filter, ordered by code
func (r *StockRepository) GetAll(ctx context.Context, filter string) ([]stock.Stock, error) {
	var (
		stocks []stock.Stock
		err    error
	)

	if filter == "" {
		stocks, err = r.db.QueryStocks(ctx, getStocksQuery)
	} else {
		stocks, err = r.db.QueryStocks(ctx, getStocksWhereQuery, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stocks: %w", err)
	}

	if stocks == nil {
		stocks = []stock.Stock{}
	}
	return stocks, nil
}

// GetOne returns a stock by code
func (r *StockRepository) GetOne(ctx context.Context, code string) (*stock.Stock, error) {
	stocks, err := r.db.QueryStocks(ctx, getStockByCodeQuery, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	if len(stocks) == 0 {
		return nil, stock.ErrStockNotFound
	}

	s := stocks[0]
	return &s, nil
}

// Add inserts a new stock
func (r *StockRepository) Add(ctx context.Context, s stock.Stock) error {
	found, err := r.stockFound(ctx, s.Code)
	if err != nil {
		return err
	}
	if found {
		return stock.ErrStockExists
	}

	_, err = r.db.Exec(ctx, addStockQuery,
		s.Code, s.Name, s.Price, s.PreviousPrice, s.Exchange, s.Favorite,
	)
	if err != nil {
		// Lost the race against a concurrent insert of the same code
		if isUniqueViolation(err) {
			return stock.ErrStockExists
		}
		return fmt.Errorf("failed to add stock: %w", err)
	}

	return nil
}

// Update replaces every mutable field of an existing stock
func (r *StockRepository) Update(ctx context.Context, s stock.Stock) error {
	found, err := r.stockFound(ctx, s.Code)
	if err != nil {
		return err
	}
	if !found {
		return stock.ErrStockNotFound
	}

	affected, err := r.db.Exec(ctx, updateStockQuery,
		s.Code, s.Name, s.Price, s.PreviousPrice, s.Exchange, s.Favorite,
	)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if affected == 0 {
		return stock.ErrStockNotFound
	}

	return nil
}

// Remove deletes a stock by code
func (r *StockRepository) Remove(ctx context.Context, code string) error {
	found, err := r.stockFound(ctx, code)
	if err != nil {
		return err
	}
	if !found {
		return stock.ErrStockNotFound
	}

	affected, err := r.db.Exec(ctx, deleteStockQuery, code)
	if err != nil {
		return fmt.Errorf("failed to delete stock: %w", err)
	}
	if affected == 0 {
		return stock.ErrStockNotFound
	}

	return nil
}

func (r *StockRepository) stockFound(ctx context.Context, code string) (bool, error) {
	found, err := r.db.QueryExists(ctx, stockExistsQuery, code)
	if err != nil {
		return false, fmt.Errorf("failed to check stock %s: %w", code, err)
	}
	return found, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
