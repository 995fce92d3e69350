// Package apperrors defines the failure kinds returned across the service boundary.
// Callers match them with errors.Is; services wrap them with context using %w.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyExists      = errors.New("already exists")
	ErrOutOfStock         = errors.New("out of stock")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrInvalidCard        = errors.New("invalid card")
	ErrPaymentDeclined    = errors.New("payment declined")
	ErrTicketClosed       = errors.New("ticket is closed")
)

// ValidationError reports malformed input. Fields maps a field name to a
// human readable reason. Kind optionally narrows the failure (ErrInvalidCard).
type ValidationError struct {
	Message string
	Fields  map[string]string
	Kind    error
}

// NewValidationError returns a ValidationError with a single message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// FieldError returns a ValidationError for one field.
func FieldError(field, reason string) *ValidationError {
	return &ValidationError{
		Message: reason,
		Fields:  map[string]string{field: reason},
	}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Message == "" {
			return ErrValidation.Error()
		}
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s (%s)", ErrValidation.Error(), strings.Join(parts, "; "))
}

// Unwrap exposes ErrValidation and, when set, the narrower kind.
func (e *ValidationError) Unwrap() []error {
	if e.Kind != nil {
		return []error{ErrValidation, e.Kind}
	}
	return []error{ErrValidation}
}

// WithKind tags the validation failure with a narrower kind.
func (e *ValidationError) WithKind(kind error) *ValidationError {
	e.Kind = kind
	return e
}

// NotFound wraps ErrNotFound with the entity name and id.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s with ID %s: %w", entity, id, ErrNotFound)
}

// InsufficientStock wraps ErrInsufficientStock with the product involved.
func InsufficientStock(productID string, requested, available int) error {
	return fmt.Errorf("product %s (requested: %d, available: %d): %w", productID, requested, available, ErrInsufficientStock)
}
