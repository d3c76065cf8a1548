package orm

import (
	"github.com/wonny/stockmarket/internal/domain/stock"
)

// stockRecord is the gorm mapping of the stocks table
type stockRecord struct {
	Code          string      `gorm:"column:code;type:varchar(20);primaryKey"`
	Name          string      `gorm:"column:name;not null"`
	Price         priceColumn `gorm:"column:price;not null"`
	PreviousPrice priceColumn `gorm:"column:previous_price;not null"`
	Exchange      string      `gorm:"column:exchange;not null"`
	Favorite      bool        `gorm:"column:favorite;not null"`
}

// TableName overrides gorm's pluralized default
func (stockRecord) TableName() string {
	return "stocks"
}

func newStockRecord(s stock.Stock) stockRecord {
	return stockRecord{
		Code:          s.Code,
		Name:          s.Name,
		Price:         priceColumn{s.Price},
		PreviousPrice: priceColumn{s.PreviousPrice},
		Exchange:      s.Exchange,
		Favorite:      s.Favorite,
	}
}

func (r stockRecord) toStock() stock.Stock {
	return stock.Stock{
		Code:          r.Code,
		Name:          r.Name,
		Price:         r.Price.Decimal,
		PreviousPrice: r.PreviousPrice.Decimal,
		Exchange:      r.Exchange,
		Favorite:      r.Favorite,
	}
}

// updates lists every mutable column; a map keeps false/zero values in the UPDATE
func (r stockRecord) updates() map[string]interface{} {
	return map[string]interface{}{
		"name":           r.Name,
		"price":          r.Price.Decimal,
		"previous_price": r.PreviousPrice.Decimal,
		"exchange":       r.Exchange,
		"favorite":       r.Favorite,
	}
}
