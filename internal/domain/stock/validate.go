package stock

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// priceBound is the smallest magnitude with more than MaxPriceIntegerDigits integer digits
var priceBound = decimal.New(1, MaxPriceIntegerDigits)

// ValidateCode validates a stock code (non-empty, at most MaxCodeLength characters)
func ValidateCode(code string) error {
	verr := &ValidationError{}
	checkCode(verr, code)
	return verr.orNil()
}

// Validate validates a stock before Add or Update
func Validate(s Stock) error {
	verr := &ValidationError{}

	checkCode(verr, s.Code)

	if strings.TrimSpace(s.Name) == "" {
		verr.add("name", "must not be empty")
	}

	if !s.Price.IsPositive() {
		verr.add("price", "must be greater than 0")
	} else {
		checkPrecision(verr, "price", s.Price)
	}
	checkPrecision(verr, "previousPrice", s.PreviousPrice)

	if strings.TrimSpace(s.Exchange) == "" {
		verr.add("exchange", "must not be empty")
	}

	return verr.orNil()
}

// ValidatePriceUpdate validates a price-only update
func ValidatePriceUpdate(u PriceUpdate) error {
	verr := &ValidationError{}

	checkCode(verr, u.Code)

	if !u.Price.IsPositive() {
		verr.add("price", "must be greater than 0")
	} else {
		checkPrecision(verr, "price", u.Price)
	}

	return verr.orNil()
}

func checkCode(verr *ValidationError, code string) {
	if strings.TrimSpace(code) == "" {
		verr.add("code", "must not be empty")
		return
	}
	if utf8.RuneCountInString(code) > MaxCodeLength {
		verr.add("code", fmt.Sprintf("must be at most %d characters", MaxCodeLength))
	}
}

func checkPrecision(verr *ValidationError, field string, d decimal.Decimal) {
	if !d.Equal(d.Truncate(MaxPriceScale)) {
		verr.add(field, fmt.Sprintf("must have at most %d decimal places", MaxPriceScale))
	}
	if d.Abs().GreaterThanOrEqual(priceBound) {
		verr.add(field, fmt.Sprintf("must have at most %d integer digits", MaxPriceIntegerDigits))
	}
}
