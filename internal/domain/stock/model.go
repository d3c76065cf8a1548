package stock

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxCodeLength is the longest stock code the catalogue accepts
const MaxCodeLength = 20

// Price precision every backend stores exactly, numeric(18,4)
const (
	MaxPriceScale         = 4
	MaxPriceIntegerDigits = 14
)

// Stock represents a tradable instrument in the catalogue
// Maps to the stocks table / collection, keyed by Code
type Stock struct {
	Code          string          `json:"code"`          // natural key, immutable
	Name          string          `json:"name"`          // display label
	Price         decimal.Decimal `json:"price"`         // current trading price
	PreviousPrice decimal.Decimal `json:"previousPrice"` // price before the last price update
	Exchange      string          `json:"exchange"`      // listing venue
	Favorite      bool            `json:"favorite"`
}

// Equal reports whether two stocks hold the same values.
// Prices are compared numerically, so 84 and 84.00 are equal.
func (s Stock) Equal(other Stock) bool {
	return s.Code == other.Code &&
		s.Name == other.Name &&
		s.Price.Equal(other.Price) &&
		s.PreviousPrice.Equal(other.PreviousPrice) &&
		s.Exchange == other.Exchange &&
		s.Favorite == other.Favorite
}

// PriceUpdate carries a new price for an existing stock
type PriceUpdate struct {
	Code  string          `json:"code"`
	Price decimal.Decimal `json:"price"`
}

// ChangeKind identifies what happened to a stock
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeUpdated ChangeKind = "updated"
)

// Change records a successful mutation of a stock
type Change struct {
	Kind ChangeKind
	Code string
	At   time.Time
}
