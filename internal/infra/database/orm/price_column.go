package orm

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wonny/stockmarket/internal/domain/stock"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// priceColumn stores a decimal price exactly on every dialect.
// SQLite NUMERIC affinity converts values through float64, so sqlite uses TEXT.
type priceColumn struct {
	decimal.Decimal
}

// GormDBDataType implements migrator.GormDataTypeInterface
func (priceColumn) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return fmt.Sprintf("numeric(%d,%d)", stock.MaxPriceIntegerDigits+stock.MaxPriceScale, stock.MaxPriceScale)
	}
	return "text"
}
