package mongodb

import (
	"context"
	"fmt"
	"regexp"

	"github.com/wonny/stockmarket/internal/domain/stock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the part of *mongo.Collection the repository uses
type Collection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// StockRepository implements stock.Repository on a mongo collection
type StockRepository struct {
	stocks  Collection
	mapping MappingProfile
}

// NewStockRepository creates a new StockRepository
func NewStockRepository(stocks Collection) *StockRepository {
	return &StockRepository{stocks: stocks}
}

// GetAll returns stocks whose code contains filter, ordered by code
func (r *StockRepository) GetAll(ctx context.Context, filter string) ([]stock.Stock, error) {
	query := bson.M{}
	if filter != "" {
		query["code"] = bson.M{"$regex": regexp.QuoteMeta(filter)}
	}
	opts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})

	cursor, err := r.stocks.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get stocks: %w", err)
	}

	var docs []StockDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read stocks: %w", err)
	}

	stocks := make([]stock.Stock, 0, len(docs))
	for _, doc := range docs {
		s, err := r.mapping.ToStock(doc)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, nil
}

// GetOne returns a stock by code
func (r *StockRepository) GetOne(ctx context.Context, code string) (*stock.Stock, error) {
	cursor, err := r.stocks.Find(ctx, byCode(code), options.Find().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, fmt.Errorf("failed to read stock: %w", err)
		}
		return nil, stock.ErrStockNotFound
	}

	var doc StockDocument
	if err := cursor.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode stock: %w", err)
	}

	s, err := r.mapping.ToStock(doc)
	if err != nil {
		return nil, err
	}
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

	doc, err := r.mapping.ToDocument(s)
	if err != nil {
		return fmt.Errorf("failed to map stock %s: %w", s.Code, err)
	}

	if _, err := r.stocks.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return stock.ErrStockExists
		}
		return fmt.Errorf("failed to add stock: %w", err)
	}

	return nil
}

// Update replaces the stored document of an existing stock
func (r *StockRepository) Update(ctx context.Context, s stock.Stock) error {
	found, err := r.stockFound(ctx, s.Code)
	if err != nil {
		return err
	}
	if !found {
		return stock.ErrStockNotFound
	}

	doc, err := r.mapping.ToDocument(s)
	if err != nil {
		return fmt.Errorf("failed to map stock %s: %w", s.Code, err)
	}

	result, err := r.stocks.ReplaceOne(ctx, byCode(s.Code), doc)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if result.MatchedCount == 0 {
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

	result, err := r.stocks.DeleteOne(ctx, byCode(code))
	if err != nil {
		return fmt.Errorf("failed to delete stock: %w", err)
	}
	if result.DeletedCount == 0 {
		return stock.ErrStockNotFound
	}

	return nil
}

func (r *StockRepository) stockFound(ctx context.Context, code string) (bool, error) {
	n, err := r.stocks.CountDocuments(ctx, byCode(code))
	if err != nil {
		return false, fmt.Errorf("failed to check stock %s: %w", code, err)
	}
	return n > 0, nil
}

func byCode(code string) bson.M {
	return bson.M{"code": code}
}
