package stock

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Data errors
	ErrStockNotFound = errors.New("stock not found")
	ErrStockExists   = errors.New("stock already exists")

	// Validation errors
	ErrValidation           = errors.New("validation failed")
	ErrImmutableField       = fmt.Errorf("%w: field cannot be changed", ErrValidation)
	ErrUnknownField         = fmt.Errorf("%w: unknown field", ErrValidation)
	ErrUnsupportedOperation = fmt.Errorf("%w: unsupported patch operation", ErrValidation)
	ErrInvalidValue         = fmt.Errorf("%w: invalid field value", ErrValidation)
)

// FieldError represents a single rule violation on one field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field that failed validation
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets callers match with errors.Is(err, ErrValidation)
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
