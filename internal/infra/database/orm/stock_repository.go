package orm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/wonny/stockmarket/internal/domain/stock"
	"gorm.io/gorm"
)

// StockRepository implements stock.Repository on gorm
type StockRepository struct {
	db *gorm.DB
}

// NewStockRepository creates a new StockRepository
func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

// EnsureSchema creates the stocks table if it does not exist
func (r *StockRepository) EnsureSchema(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&stockRecord{}); err != nil {
		return fmt.Errorf("failed to create stocks table: %w", err)
	}
	return nil
}

// GetAll returns stocks whose code contains filter, ordered by code
func (r *StockRepository) GetAll(ctx context.Context, filter string) ([]stock.Stock, error) {
	query := r.db.WithContext(ctx).Model(&stockRecord{})
	if filter != "" {
		query = query.Where(r.containsCode(), filter)
	}

	var records []stockRecord
	if err := query.Order(r.orderByCode()).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get stocks: %w", err)
	}

	stocks := make([]stock.Stock, 0, len(records))
	for _, rec := range records {
		stocks = append(stocks, rec.toStock())
	}
	return stocks, nil
}

// GetOne returns a stock by code
func (r *StockRepository) GetOne(ctx context.Context, code string) (*stock.Stock, error) {
	var rec stockRecord
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stock.ErrStockNotFound
		}
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}

	s := rec.toStock()
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

	rec := newStockRecord(s)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isDuplicateKey(err) {
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

	result := r.db.WithContext(ctx).
		Model(&stockRecord{}).
		Where("code = ?", s.Code).
		Updates(newStockRecord(s).updates())
	if result.Error != nil {
		return fmt.Errorf("failed to update stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
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

	result := r.db.WithContext(ctx).Where("code = ?", code).Delete(&stockRecord{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return stock.ErrStockNotFound
	}

	return nil
}

func (r *StockRepository) stockFound(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&stockRecord{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check stock %s: %w", code, err)
	}
	return count > 0, nil
}

// containsCode is a literal, case-sensitive substring predicate for the active dialect
func (r *StockRepository) containsCode() string {
	if r.db.Dialector.Name() == "postgres" {
		return "strpos(code, ?) > 0"
	}
	return "instr(code, ?) > 0"
}

// orderByCode sorts byte-wise on every dialect
func (r *StockRepository) orderByCode() string {
	if r.db.Dialector.Name() == "postgres" {
		return `code COLLATE "C"`
	}
	return "code"
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	// sqlite drivers without error translation
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
