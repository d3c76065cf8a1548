package stock

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStock() Stock {
	return Stock{
		Code:          "TSC",
		Name:          "Test Stock Company",
		Price:         decimal.NewFromInt(84),
		PreviousPrice: decimal.NewFromInt(80),
		Exchange:      "NYSE",
		Favorite:      false,
	}
}

func TestApplyChanges(t *testing.T) {
	t.Run("favorite leaves prices untouched", func(t *testing.T) {
		original := sampleStock()

		patched, err := ApplyChanges(original, []FieldChange{
			{Op: "replace", Path: "/favorite", Value: true},
		})
		require.NoError(t, err)

		assert.True(t, patched.Favorite)
		assert.True(t, patched.Price.Equal(decimal.NewFromInt(84)))
		assert.True(t, patched.PreviousPrice.Equal(decimal.NewFromInt(80)))
		assert.False(t, original.Favorite, "input must not be mutated")
	})

	t.Run("changes apply in order", func(t *testing.T) {
		patched, err := ApplyChanges(sampleStock(), []FieldChange{
			{Op: "replace", Path: "/name", Value: "First"},
			{Op: "add", Path: "/name", Value: "Second"},
			{Op: "replace", Path: "/exchange", Value: "LSE"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Second", patched.Name)
		assert.Equal(t, "LSE", patched.Exchange)
	})

	t.Run("previous price can be set directly", func(t *testing.T) {
		patched, err := ApplyChanges(sampleStock(), []FieldChange{
			{Op: "replace", Path: "/previousPrice", Value: 70.5},
			{Op: "replace", Path: "/price", Value: "90.25"},
		})
		require.NoError(t, err)
		assert.True(t, patched.PreviousPrice.Equal(decimal.RequireFromString("70.5")))
		assert.True(t, patched.Price.Equal(decimal.RequireFromString("90.25")))
	})

	t.Run("decoded json values", func(t *testing.T) {
		var changes []FieldChange
		body := `[{"op":"replace","path":"/price","value":76},{"op":"replace","path":"/favorite","value":true}]`
		require.NoError(t, json.Unmarshal([]byte(body), &changes))

		patched, err := ApplyChanges(sampleStock(), changes)
		require.NoError(t, err)
		assert.True(t, patched.Price.Equal(decimal.NewFromInt(76)))
		assert.True(t, patched.Favorite)
	})
}

func TestApplyChangesRejects(t *testing.T) {
	tests := []struct {
		name   string
		change FieldChange
		want   error
	}{
		{"code is immutable", FieldChange{Op: "replace", Path: "/code", Value: "NEW"}, ErrImmutableField},
		{"unknown field", FieldChange{Op: "replace", Path: "/volume", Value: 1}, ErrUnknownField},
		{"remove unsupported", FieldChange{Op: "remove", Path: "/name"}, ErrUnsupportedOperation},
		{"move unsupported", FieldChange{Op: "move", Path: "/name"}, ErrUnsupportedOperation},
		{"name must be string", FieldChange{Op: "replace", Path: "/name", Value: 12}, ErrInvalidValue},
		{"price must be numeric", FieldChange{Op: "replace", Path: "/price", Value: "abc"}, ErrInvalidValue},
		{"favorite must be boolean", FieldChange{Op: "replace", Path: "/favorite", Value: "maybe"}, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := sampleStock()

			got, err := ApplyChanges(original, []FieldChange{tt.change})

			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.True(t, got.Equal(original))
		})
	}
}
