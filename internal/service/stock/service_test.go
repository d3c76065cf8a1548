package stock

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/stockmarket/internal/domain/stock"
	"github.com/wonny/stockmarket/internal/domain/stock/stocktest"
)

// memRepository is a map-backed stock.Repository that counts writes
type memRepository struct {
	mu      sync.Mutex
	stocks  map[string]stock.Stock
	writes  int
	failErr error
}

func newMemRepository(stocks ...stock.Stock) *memRepository {
	r := &memRepository{stocks: make(map[string]stock.Stock)}
	for _, s := range stocks {
		r.stocks[s.Code] = s
	}
	return r
}

func (r *memRepository) GetAll(_ context.Context, filter string) ([]stock.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	out := []stock.Stock{}
	for code, s := range r.stocks {
		if strings.Contains(code, filter) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *memRepository) GetOne(_ context.Context, code string) (*stock.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	s, ok := r.stocks[code]
	if !ok {
		return nil, stock.ErrStockNotFound
	}
	return &s, nil
}

func (r *memRepository) Add(_ context.Context, s stock.Stock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	if _, ok := r.stocks[s.Code]; ok {
		return stock.ErrStockExists
	}
	r.stocks[s.Code] = s
	r.writes++
	return nil
}

func (r *memRepository) Update(_ context.Context, s stock.Stock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	if _, ok := r.stocks[s.Code]; !ok {
		return stock.ErrStockNotFound
	}
	r.stocks[s.Code] = s
	r.writes++
	return nil
}

func (r *memRepository) Remove(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	if _, ok := r.stocks[code]; !ok {
		return stock.ErrStockNotFound
	}
	delete(r.stocks, code)
	r.writes++
	return nil
}

type recordingNotifier struct {
	changes []stock.Change
}

func (n *recordingNotifier) Notify(_ context.Context, change stock.Change) {
	n.changes = append(n.changes, change)
}

func newTestService(stocks ...stock.Stock) (*Service, *memRepository, *recordingNotifier) {
	repo := newMemRepository(stocks...)
	notifier := &recordingNotifier{}
	return NewService(repo, notifier), repo, notifier
}

func TestService_PatchPriceKeepsHistory(t *testing.T) {
	ctx := context.Background()
	svc, repo, notifier := newTestService(stocktest.NewStock("TSC", 84, 80))

	got, err := svc.PatchPrice(ctx, stock.PriceUpdate{Code: "TSC", Price: decimal.NewFromInt(76)})
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(76)))
	assert.True(t, got.PreviousPrice.Equal(decimal.NewFromInt(84)))

	stored := repo.stocks["TSC"]
	assert.True(t, stored.Price.Equal(decimal.NewFromInt(76)))
	assert.True(t, stored.PreviousPrice.Equal(decimal.NewFromInt(84)))
	assert.Equal(t, "TSC Corp", stored.Name)

	require.Len(t, notifier.changes, 1)
	assert.Equal(t, stock.ChangeUpdated, notifier.changes[0].Kind)
	assert.Equal(t, "TSC", notifier.changes[0].Code)
}

func TestService_FavoriteScenario(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(
		stocktest.NewStock("TSC", 84, 80),
		stocktest.NewStock("SSC", 30, 32),
	)

	_, err := svc.PatchStock(ctx, "TSC", []stock.FieldChange{
		{Op: stock.OpReplace, Path: "/favorite", Value: true},
	})
	require.NoError(t, err)

	tsc, err := svc.GetStock(ctx, "TSC")
	require.NoError(t, err)
	assert.True(t, tsc.Favorite)
	assert.True(t, tsc.Price.Equal(decimal.NewFromInt(84)))
	assert.True(t, tsc.PreviousPrice.Equal(decimal.NewFromInt(80)))

	all, err := svc.GetStocks(ctx, "SC")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "SSC", all[0].Code)
	assert.Equal(t, "TSC", all[1].Code)
}

func TestService_PatchStockMayRewriteHistory(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(stocktest.NewStock("TSC", 84, 80))

	got, err := svc.PatchStock(ctx, "TSC", []stock.FieldChange{
		{Op: stock.OpReplace, Path: "/price", Value: 90.5},
		{Op: stock.OpReplace, Path: "/previousPrice", Value: "12"},
	})
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("90.5")))
	assert.True(t, got.PreviousPrice.Equal(decimal.NewFromInt(12)))
}

func TestService_NotFoundSymmetry(t *testing.T) {
	ctx := context.Background()
	svc, repo, notifier := newTestService()

	_, err := svc.GetStock(ctx, "NOPE")
	assert.ErrorIs(t, err, stock.ErrStockNotFound)

	err = svc.UpdateStock(ctx, stocktest.NewStock("NOPE", 10, 9))
	assert.ErrorIs(t, err, stock.ErrStockNotFound)

	err = svc.DeleteStock(ctx, "NOPE")
	assert.ErrorIs(t, err, stock.ErrStockNotFound)

	_, err = svc.PatchStock(ctx, "NOPE", []stock.FieldChange{{Op: stock.OpReplace, Path: "/favorite", Value: true}})
	assert.ErrorIs(t, err, stock.ErrStockNotFound)

	_, err = svc.PatchPrice(ctx, stock.PriceUpdate{Code: "NOPE", Price: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, stock.ErrStockNotFound)

	assert.Zero(t, repo.writes)
	assert.Empty(t, notifier.changes)
}

func TestService_ValidationStopsBeforeRepository(t *testing.T) {
	ctx := context.Background()
	svc, repo, notifier := newTestService(stocktest.NewStock("TSC", 84, 80))

	invalid := stocktest.NewStock("", 0, 0)
	assert.ErrorIs(t, svc.AddStock(ctx, invalid), stock.ErrValidation)
	assert.ErrorIs(t, svc.UpdateStock(ctx, invalid), stock.ErrValidation)
	assert.ErrorIs(t, svc.DeleteStock(ctx, strings.Repeat("X", stock.MaxCodeLength+1)), stock.ErrValidation)

	_, err := svc.PatchPrice(ctx, stock.PriceUpdate{Code: "TSC", Price: decimal.Zero})
	assert.ErrorIs(t, err, stock.ErrValidation)

	_, err = svc.PatchStock(ctx, "TSC", []stock.FieldChange{{Op: stock.OpReplace, Path: "/code", Value: "XYZ"}})
	assert.ErrorIs(t, err, stock.ErrImmutableField)

	_, err = svc.PatchStock(ctx, "TSC", []stock.FieldChange{{Op: stock.OpReplace, Path: "/price", Value: -1}})
	assert.ErrorIs(t, err, stock.ErrValidation)

	_, err = svc.PatchStock(ctx, "TSC", []stock.FieldChange{{Op: stock.OpReplace, Path: "/previousPrice", Value: "80.12345"}})
	assert.ErrorIs(t, err, stock.ErrValidation)

	_, err = svc.PatchPrice(ctx, stock.PriceUpdate{Code: "TSC", Price: decimal.RequireFromString("1234567890.123456789")})
	assert.ErrorIs(t, err, stock.ErrValidation)

	assert.Zero(t, repo.writes)
	assert.Empty(t, notifier.changes)
	assert.True(t, repo.stocks["TSC"].Price.Equal(decimal.NewFromInt(84)))
}

func TestService_Notifications(t *testing.T) {
	ctx := context.Background()
	svc, _, notifier := newTestService()

	require.NoError(t, svc.AddStock(ctx, stocktest.NewStock("TSC", 84, 80)))
	assert.ErrorIs(t, svc.AddStock(ctx, stocktest.NewStock("TSC", 84, 80)), stock.ErrStockExists)
	require.NoError(t, svc.UpdateStock(ctx, stocktest.NewStock("TSC", 85, 84)))
	require.NoError(t, svc.DeleteStock(ctx, "TSC"))

	require.Len(t, notifier.changes, 2)
	assert.Equal(t, stock.ChangeAdded, notifier.changes[0].Kind)
	assert.Equal(t, stock.ChangeUpdated, notifier.changes[1].Kind)
	assert.False(t, notifier.changes[0].At.IsZero())
}

func TestService_DeleteThenRecreate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	s := stocktest.NewStock("TSC", 84, 80)

	require.NoError(t, svc.AddStock(ctx, s))
	require.NoError(t, svc.DeleteStock(ctx, "TSC"))
	require.NoError(t, svc.AddStock(ctx, s))
}

func TestService_StorageFailurePassesThrough(t *testing.T) {
	ctx := context.Background()
	svc, repo, notifier := newTestService()
	storageErr := errors.New("connection refused")
	repo.failErr = storageErr

	_, err := svc.GetStocks(ctx, "")
	assert.Same(t, storageErr, err)
	assert.Same(t, storageErr, svc.AddStock(ctx, stocktest.NewStock("TSC", 84, 80)))
	assert.Empty(t, notifier.changes)
}

func TestService_NilNotifier(t *testing.T) {
	svc := NewService(newMemRepository(), nil)
	assert.NoError(t, svc.AddStock(context.Background(), stocktest.NewStock("TSC", 84, 80)))
}
