package mongodb

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/stockmarket/internal/domain/stock"
	"github.com/wonny/stockmarket/internal/domain/stock/stocktest"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeCollection keeps documents in memory and enforces a unique code like the real index
type fakeCollection struct {
	mu       sync.Mutex
	docs     map[string]StockDocument
	lastFind *options.FindOptions
	err      error
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{docs: make(map[string]StockDocument)}
}

func (f *fakeCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(ctx); err != nil {
		return nil, err
	}

	findOpts := options.MergeFindOptions(opts...)
	f.lastFind = findOpts

	var matched []StockDocument
	for _, d := range f.docs {
		if matches(filter, d) {
			matched = append(matched, d)
		}
	}
	if findOpts.Sort != nil {
		sort.Slice(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })
	}
	if findOpts.Limit != nil && int64(len(matched)) > *findOpts.Limit {
		matched = matched[:*findOpts.Limit]
	}

	docs := make([]interface{}, 0, len(matched))
	for _, d := range matched {
		docs = append(docs, d)
	}
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

func (f *fakeCollection) CountDocuments(ctx context.Context, filter interface{}, _ ...*options.CountOptions) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(ctx); err != nil {
		return 0, err
	}

	var n int64
	for _, d := range f.docs {
		if matches(filter, d) {
			n++
		}
	}
	return n, nil
}

func (f *fakeCollection) InsertOne(ctx context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(ctx); err != nil {
		return nil, err
	}

	d, err := roundTrip(document)
	if err != nil {
		return nil, err
	}
	if _, ok := f.docs[d.Code]; ok {
		return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
	}
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	f.docs[d.Code] = d
	return &mongo.InsertOneResult{InsertedID: d.ID}, nil
}

func (f *fakeCollection) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, _ ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(ctx); err != nil {
		return nil, err
	}

	d, err := roundTrip(replacement)
	if err != nil {
		return nil, err
	}
	for code, existing := range f.docs {
		if matches(filter, existing) {
			if !d.ID.IsZero() && d.ID != existing.ID {
				return nil, errors.New("_id is immutable")
			}
			d.ID = existing.ID
			delete(f.docs, code)
			f.docs[d.Code] = d
			return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return &mongo.UpdateResult{}, nil
}

func (f *fakeCollection) DeleteOne(ctx context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(ctx); err != nil {
		return nil, err
	}

	for code, d := range f.docs {
		if matches(filter, d) {
			delete(f.docs, code)
			return &mongo.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return &mongo.DeleteResult{}, nil
}

func (f *fakeCollection) fail(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.err
}

func matches(filter interface{}, d StockDocument) bool {
	m, _ := filter.(bson.M)
	cond, ok := m["code"]
	if !ok {
		return true
	}
	switch c := cond.(type) {
	case string:
		return d.Code == c
	case bson.M:
		return regexp.MustCompile(c["$regex"].(string)).MatchString(d.Code)
	}
	return false
}

// roundTrip stores what the driver would send, so bson tags are exercised
func roundTrip(v interface{}) (StockDocument, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return StockDocument{}, err
	}
	var d StockDocument
	err = bson.Unmarshal(raw, &d)
	return d, err
}

func TestStockRepository_Contract(t *testing.T) {
	stocktest.RunRepositoryContract(t, func(t *testing.T) stock.Repository {
		return NewStockRepository(newFakeCollection())
	})
}

func TestStockRepository_GetAllSortsByCode(t *testing.T) {
	coll := newFakeCollection()
	repo := NewStockRepository(coll)

	_, err := repo.GetAll(context.Background(), "")
	require.NoError(t, err)

	require.NotNil(t, coll.lastFind)
	assert.Equal(t, bson.D{{Key: "code", Value: 1}}, coll.lastFind.Sort)
}

func TestStockRepository_FilterIsLiteral(t *testing.T) {
	ctx := context.Background()
	repo := NewStockRepository(newFakeCollection())
	require.NoError(t, repo.Add(ctx, stocktest.NewStock("A.B", 10, 9)))
	require.NoError(t, repo.Add(ctx, stocktest.NewStock("AXB", 10, 9)))

	got, err := repo.GetAll(ctx, ".")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A.B", got[0].Code)
}

func TestStockRepository_UpdateKeepsDocumentID(t *testing.T) {
	ctx := context.Background()
	coll := newFakeCollection()
	repo := NewStockRepository(coll)

	s := stocktest.NewStock("TSC", 84, 80)
	require.NoError(t, repo.Add(ctx, s))
	id := coll.docs["TSC"].ID

	s.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, s))

	assert.Equal(t, id, coll.docs["TSC"].ID)
	assert.Equal(t, "Renamed", coll.docs["TSC"].Name)
}

func TestStockRepository_StorageFailurePropagates(t *testing.T) {
	ctx := context.Background()
	coll := newFakeCollection()
	coll.err = errors.New("connection reset")
	repo := NewStockRepository(coll)

	_, err := repo.GetOne(ctx, "TSC")
	require.Error(t, err)
	assert.NotErrorIs(t, err, stock.ErrStockNotFound)

	err = repo.Update(ctx, stocktest.NewStock("TSC", 84, 80))
	require.Error(t, err)
	assert.NotErrorIs(t, err, stock.ErrStockNotFound)
}

func TestMappingProfile(t *testing.T) {
	var mapping MappingProfile

	s := stocktest.NewStock("TSC", 84, 80)
	s.Price = decimal.RequireFromString("84.2500")
	s.Favorite = true

	doc, err := mapping.ToDocument(s)
	require.NoError(t, err)
	assert.True(t, doc.ID.IsZero())
	assert.Equal(t, "84.2500", doc.Price.String())

	back, err := mapping.ToStock(doc)
	require.NoError(t, err)
	assert.True(t, s.Equal(back))

	whole, err := toDecimal128(decimal.New(84, 2))
	require.NoError(t, err)
	assert.Equal(t, "8400", whole.String())

	nan, err := primitive.ParseDecimal128("NaN")
	require.NoError(t, err)
	doc.Price = nan
	_, err = mapping.ToStock(doc)
	assert.Error(t, err)
}
