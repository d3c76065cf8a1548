package database

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/stockmarket/internal/domain/stock"
	"github.com/wonny/stockmarket/internal/pkg/metrics"
)

// InstrumentedRepository records metrics around another stock.Repository
type InstrumentedRepository struct {
	next    stock.Repository
	backend string
	metrics *metrics.Repository
}

// NewInstrumentedRepository wraps next, labelling every sample with backend
func NewInstrumentedRepository(next stock.Repository, backend string, m *metrics.Repository) *InstrumentedRepository {
	return &InstrumentedRepository{next: next, backend: backend, metrics: m}
}

func (r *InstrumentedRepository) GetAll(ctx context.Context, filter string) ([]stock.Stock, error) {
	start := time.Now()
	stocks, err := r.next.GetAll(ctx, filter)
	r.observe("get_all", start, err)
	return stocks, err
}

func (r *InstrumentedRepository) GetOne(ctx context.Context, code string) (*stock.Stock, error) {
	start := time.Now()
	s, err := r.next.GetOne(ctx, code)
	r.observe("get_one", start, err)
	return s, err
}

func (r *InstrumentedRepository) Add(ctx context.Context, s stock.Stock) error {
	start := time.Now()
	err := r.next.Add(ctx, s)
	r.observe("add", start, err)
	return err
}

func (r *InstrumentedRepository) Update(ctx context.Context, s stock.Stock) error {
	start := time.Now()
	err := r.next.Update(ctx, s)
	r.observe("update", start, err)
	return err
}

func (r *InstrumentedRepository) Remove(ctx context.Context, code string) error {
	start := time.Now()
	err := r.next.Remove(ctx, code)
	r.observe("remove", start, err)
	return err
}

func (r *InstrumentedRepository) observe(operation string, start time.Time, err error) {
	r.metrics.Observe(r.backend, operation, resultOf(err), time.Since(start))
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, stock.ErrStockNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, stock.ErrStockExists):
		return metrics.ResultExists
	default:
		return metrics.ResultError
	}
}
