package stock

import "context"

// Repository defines the storage contract for the stock catalogue.
// Every backend must behave identically for every method.
type Repository interface {
	// GetAll returns stocks whose code contains filter (case-sensitive),
	// or every stock when filter is empty, ordered by code ascending
	GetAll(ctx context.Context, filter string) ([]Stock, error)

	// GetOne returns the stock with the given code or ErrStockNotFound
	GetOne(ctx context.Context, code string) (*Stock, error)

	// Add inserts a new stock or fails with ErrStockExists
	Add(ctx context.Context, s Stock) error

	// Update replaces every mutable field of an existing stock or fails with ErrStockNotFound
	Update(ctx context.Context, s Stock) error

	// Remove deletes a stock or fails with ErrStockNotFound
	Remove(ctx context.Context, code string) error
}
