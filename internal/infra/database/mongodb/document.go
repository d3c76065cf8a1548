package mongodb

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wonny/stockmarket/internal/domain/stock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StockDocument is the stored shape of a stock
type StockDocument struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	Code          string               `bson:"code"`
	Name          string               `bson:"name"`
	Price         primitive.Decimal128 `bson:"price"`
	PreviousPrice primitive.Decimal128 `bson:"previousPrice"`
	Exchange      string               `bson:"exchange"`
	Favorite      bool                 `bson:"favorite"`
}

// MappingProfile converts between stock.Stock and StockDocument.
// The document id never leaves this package.
type MappingProfile struct{}

// ToDocument maps a stock to a new document without an id
func (MappingProfile) ToDocument(s stock.Stock) (StockDocument, error) {
	price, err := toDecimal128(s.Price)
	if err != nil {
		return StockDocument{}, fmt.Errorf("price: %w", err)
	}
	previous, err := toDecimal128(s.PreviousPrice)
	if err != nil {
		return StockDocument{}, fmt.Errorf("previous price: %w", err)
	}

	return StockDocument{
		Code:          s.Code,
		Name:          s.Name,
		Price:         price,
		PreviousPrice: previous,
		Exchange:      s.Exchange,
		Favorite:      s.Favorite,
	}, nil
}

// ToStock maps a document back to a stock
func (MappingProfile) ToStock(d StockDocument) (stock.Stock, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return stock.Stock{}, fmt.Errorf("price of %s: %w", d.Code, err)
	}
	previous, err := fromDecimal128(d.PreviousPrice)
	if err != nil {
		return stock.Stock{}, fmt.Errorf("previous price of %s: %w", d.Code, err)
	}

	return stock.Stock{
		Code:          d.Code,
		Name:          d.Name,
		Price:         price,
		PreviousPrice: previous,
		Exchange:      d.Exchange,
		Favorite:      d.Favorite,
	}, nil
}

// toDecimal128 keeps the scale of d, so 84.2500 is stored as 84.2500
func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	if exp := d.Exponent(); exp < 0 {
		return primitive.ParseDecimal128(d.StringFixed(-exp))
	}
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}
