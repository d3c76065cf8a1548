// Package stocktest holds the behaviour every stock.Repository backend must share.
package stocktest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/stockmarket/internal/domain/stock"
)

// Factory returns an empty repository for one subtest
type Factory func(t *testing.T) stock.Repository

// NewStock builds a valid stock with the given code and prices
func NewStock(code string, price, previous int64) stock.Stock {
	return stock.Stock{
		Code:          code,
		Name:          code + " Corp",
		Price:         decimal.NewFromInt(price),
		PreviousPrice: decimal.NewFromInt(previous),
		Exchange:      "NYSE",
	}
}

// RunRepositoryContract runs the shared repository properties against a backend
func RunRepositoryContract(t *testing.T, newRepo Factory) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		repo := newRepo(t)
		want := NewStock("TSC", 84, 80)
		want.Price = decimal.RequireFromString("84.25")
		want.Favorite = true

		require.NoError(t, repo.Add(ctx, want))

		got, err := repo.GetOne(ctx, "TSC")
		require.NoError(t, err)
		assert.True(t, want.Equal(*got), "want %+v, got %+v", want, *got)
	})

	t.Run("prices keep every stored digit", func(t *testing.T) {
		repo := newRepo(t)
		for i, p := range []struct{ price, previous string }{
			{"1234567890.1234", "0.0001"},
			{"99999999999999.9999", "12345678901234.5678"},
			{"84.2500", "0"},
		} {
			want := NewStock(fmt.Sprintf("P%d", i), 1, 0)
			want.Price = decimal.RequireFromString(p.price)
			want.PreviousPrice = decimal.RequireFromString(p.previous)
			require.NoError(t, stock.Validate(want))
			require.NoError(t, repo.Add(ctx, want))

			got, err := repo.GetOne(ctx, want.Code)
			require.NoError(t, err)
			assert.True(t, want.Price.Equal(got.Price), "price: want %s, got %s", want.Price, got.Price)
			assert.True(t, want.PreviousPrice.Equal(got.PreviousPrice), "previous price: want %s, got %s", want.PreviousPrice, got.PreviousPrice)

			want.Price, want.PreviousPrice = want.PreviousPrice.Add(decimal.RequireFromString("0.0001")), want.Price
			require.NoError(t, repo.Update(ctx, want))

			got, err = repo.GetOne(ctx, want.Code)
			require.NoError(t, err)
			assert.True(t, want.Equal(*got), "after update: want %+v, got %+v", want, *got)
		}
	})

	t.Run("add existing code fails", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Add(ctx, NewStock("TSC", 84, 80)))

		other := NewStock("TSC", 10, 9)
		other.Name = "Different"
		err := repo.Add(ctx, other)
		assert.ErrorIs(t, err, stock.ErrStockExists)

		got, err := repo.GetOne(ctx, "TSC")
		require.NoError(t, err)
		assert.Equal(t, "TSC Corp", got.Name)
	})

	t.Run("missing code is not found", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Add(ctx, NewStock("SSC", 30, 32)))

		_, err := repo.GetOne(ctx, "NOPE")
		assert.ErrorIs(t, err, stock.ErrStockNotFound)

		err = repo.Update(ctx, NewStock("NOPE", 1, 1))
		assert.ErrorIs(t, err, stock.ErrStockNotFound)

		err = repo.Remove(ctx, "NOPE")
		assert.ErrorIs(t, err, stock.ErrStockNotFound)

		all, err := repo.GetAll(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 1, "update on a missing code must not create it")
	})

	t.Run("update replaces mutable fields", func(t *testing.T) {
		repo := newRepo(t)
		original := NewStock("TSC", 84, 80)
		original.Favorite = true
		require.NoError(t, repo.Add(ctx, original))

		replacement := stock.Stock{
			Code:          "TSC",
			Name:          "Renamed",
			Price:         decimal.NewFromInt(90),
			PreviousPrice: decimal.NewFromInt(84),
			Exchange:      "LSE",
			Favorite:      false,
		}
		require.NoError(t, repo.Update(ctx, replacement))

		got, err := repo.GetOne(ctx, "TSC")
		require.NoError(t, err)
		assert.True(t, replacement.Equal(*got), "want %+v, got %+v", replacement, *got)
	})

	t.Run("filter by code substring ordered by code", func(t *testing.T) {
		repo := newRepo(t)
		for _, s := range []stock.Stock{
			NewStock("XTSA", 5, 5),
			NewStock("TSC", 84, 80),
			NewStock("SSC", 30, 32),
			NewStock("ATS", 1, 1),
			NewStock("tsx", 2, 2),
		} {
			require.NoError(t, repo.Add(ctx, s))
		}

		got, err := repo.GetAll(ctx, "TS")
		require.NoError(t, err)
		assert.Equal(t, []string{"ATS", "TSC", "XTSA"}, codes(got))

		got, err = repo.GetAll(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"ATS", "SSC", "TSC", "XTSA", "tsx"}, codes(got))

		got, err = repo.GetAll(ctx, "SC")
		require.NoError(t, err)
		assert.Equal(t, []string{"SSC", "TSC"}, codes(got))
	})

	t.Run("filter with no match is empty", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Add(ctx, NewStock("TSC", 84, 80)))

		got, err := repo.GetAll(ctx, "ZZ")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)

		got, err = repo.GetAll(ctx, "%")
		require.NoError(t, err)
		assert.Empty(t, got, "filter characters are literal")
	})

	t.Run("removed code can be added again", func(t *testing.T) {
		repo := newRepo(t)
		s := NewStock("TSC", 84, 80)

		require.NoError(t, repo.Add(ctx, s))
		require.NoError(t, repo.Remove(ctx, s.Code))

		_, err := repo.GetOne(ctx, s.Code)
		assert.ErrorIs(t, err, stock.ErrStockNotFound)

		require.NoError(t, repo.Add(ctx, s))
		_, err = repo.GetOne(ctx, s.Code)
		assert.NoError(t, err)
	})

	t.Run("concurrent adds of one code admit a single winner", func(t *testing.T) {
		repo := newRepo(t)
		const workers = 8

		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = repo.Add(ctx, NewStock("RACE", int64(i+1), 0))
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t, errors.Is(err, stock.ErrStockExists), "unexpected error: %v", err)
		}
		assert.Equal(t, 1, succeeded)
	})
}

func codes(stocks []stock.Stock) []string {
	out := make([]string, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, s.Code)
	}
	return out
}
