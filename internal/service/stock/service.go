package stock

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wonny/stockmarket/internal/domain/stock"
)

// Notifier receives successful catalogue mutations.
// Notify must not block the caller.
type Notifier interface {
	Notify(ctx context.Context, change stock.Change)
}

// Service is the stock catalogue service
type Service struct {
	repo     stock.Repository
	notifier Notifier
	now      func() time.Time
}

// NewService creates a new stock service; notifier may be nil
func NewService(repo stock.Repository, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// GetStocks returns stocks whose code contains filter
func (s *Service) GetStocks(ctx context.Context, filter string) ([]stock.Stock, error) {
	return s.repo.GetAll(ctx, filter)
}

// GetStock returns one stock by code
func (s *Service) GetStock(ctx context.Context, code string) (*stock.Stock, error) {
	return s.repo.GetOne(ctx, code)
}

// AddStock validates and inserts a new stock
func (s *Service) AddStock(ctx context.Context, st stock.Stock) error {
	if err := stock.Validate(st); err != nil {
		return err
	}
	if err := s.repo.Add(ctx, st); err != nil {
		return err
	}

	log.Info().Str("code", st.Code).Msg("Stock added")
	s.notify(ctx, stock.ChangeAdded, st.Code)
	return nil
}

// UpdateStock validates and replaces an existing stock
func (s *Service) UpdateStock(ctx context.Context, st stock.Stock) error {
	if err := stock.Validate(st); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, st); err != nil {
		return err
	}

	log.Info().Str("code", st.Code).Msg("Stock updated")
	s.notify(ctx, stock.ChangeUpdated, st.Code)
	return nil
}

// DeleteStock removes a stock by code
func (s *Service) DeleteStock(ctx context.Context, code string) error {
	if err := stock.ValidateCode(code); err != nil {
		return err
	}
	if err := s.repo.Remove(ctx, code); err != nil {
		return err
	}

	log.Info().Str("code", code).Msg("Stock deleted")
	return nil
}

// PatchStock applies field changes in order to the stored stock
func (s *Service) PatchStock(ctx context.Context, code string, changes []stock.FieldChange) (*stock.Stock, error) {
	current, err := s.repo.GetOne(ctx, code)
	if err != nil {
		return nil, err
	}

	patched, err := stock.ApplyChanges(*current, changes)
	if err != nil {
		return nil, err
	}
	if err := stock.Validate(patched); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, patched); err != nil {
		return nil, err
	}

	log.Info().
		Str("code", code).
		Int("changes", len(changes)).
		Msg("Stock patched")
	s.notify(ctx, stock.ChangeUpdated, code)
	return &patched, nil
}

// PatchPrice moves the current price into PreviousPrice and stores the new one
func (s *Service) PatchPrice(ctx context.Context, update stock.PriceUpdate) (*stock.Stock, error) {
	if err := stock.ValidatePriceUpdate(update); err != nil {
		return nil, err
	}

	current, err := s.repo.GetOne(ctx, update.Code)
	if err != nil {
		return nil, err
	}

	patched := *current
	patched.PreviousPrice = current.Price
	patched.Price = update.Price

	if err := s.repo.Update(ctx, patched); err != nil {
		return nil, err
	}

	log.Info().
		Str("code", update.Code).
		Str("previous_price", patched.PreviousPrice.String()).
		Str("price", patched.Price.String()).
		Msg("Stock price updated")
	s.notify(ctx, stock.ChangeUpdated, update.Code)
	return &patched, nil
}

func (s *Service) notify(ctx context.Context, kind stock.ChangeKind, code string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, stock.Change{Kind: kind, Code: code, At: s.now()})
}
