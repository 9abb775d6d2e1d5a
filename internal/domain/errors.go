package domain

import (
	"errors"
	"fmt"
)

// ErrMissingID marks a decoded document without a primary identifier.
var ErrMissingID = errors.New("document is missing id")

// FieldError marks a decoded document missing or violating a required field.
// Raw store documents are never trusted: every read decodes into a typed
// record and validates it before the record leaves the store boundary.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("document is missing required field %q", e.Field)
}

// ErrMissingField creates a FieldError for the named field.
func ErrMissingField(field string) error {
	return &FieldError{Field: field}
}
