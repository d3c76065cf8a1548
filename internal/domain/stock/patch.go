package stock

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Patch operations (subset of RFC 6902 that makes sense on a flat entity)
const (
	OpReplace = "replace"
	OpAdd     = "add"
)

// Field names addressable by a FieldChange
const (
	FieldCode          = "code"
	FieldName          = "name"
	FieldPrice         = "price"
	FieldPreviousPrice = "previousprice"
	FieldExchange      = "exchange"
	FieldFavorite      = "favorite"
)

// FieldChange is a single field-level change, shaped like a JSON patch operation
// e.g. {"op": "replace", "path": "/favorite", "value": true}
type FieldChange struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Field returns the normalized target field ("/previousPrice" -> "previousprice")
func (c FieldChange) Field() string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Path), "/"))
}

// ApplyChanges applies changes in order to a copy of s and returns the copy.
// s itself is never modified, so a failed change leaves the caller's value intact.
func ApplyChanges(s Stock, changes []FieldChange) (Stock, error) {
	patched := s
	for i, change := range changes {
		if err := applyChange(&patched, change); err != nil {
			return s, fmt.Errorf("change %d (%s %s): %w", i, change.Op, change.Path, err)
		}
	}
	return patched, nil
}

func applyChange(s *Stock, change FieldChange) error {
	op := strings.ToLower(strings.TrimSpace(change.Op))
	if op != OpReplace && op != OpAdd {
		return ErrUnsupportedOperation
	}

	switch change.Field() {
	case FieldCode:
		return ErrImmutableField

	case FieldName:
		v, err := toString(change.Value)
		if err != nil {
			return err
		}
		s.Name = v

	case FieldExchange:
		v, err := toString(change.Value)
		if err != nil {
			return err
		}
		s.Exchange = v

	case FieldPrice:
		v, err := toDecimal(change.Value)
		if err != nil {
			return err
		}
		s.Price = v

	case FieldPreviousPrice:
		v, err := toDecimal(change.Value)
		if err != nil {
			return err
		}
		s.PreviousPrice = v

	case FieldFavorite:
		v, err := toBool(change.Value)
		if err != nil {
			return err
		}
		s.Favorite = v

	default:
		return ErrUnknownField
	}

	return nil
}

func toString(value any) (string, error) {
	v, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected string, got %T", ErrInvalidValue, value)
	}
	return v, nil
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: expected boolean, got %T", ErrInvalidValue, value)
	}
}

func toDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, v.String())
		}
		return d, nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, v)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: expected number, got %T", ErrInvalidValue, value)
	}
}
