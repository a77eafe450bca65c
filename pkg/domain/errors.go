package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrCurrencyPolicy is returned when no static conversion exists for a currency
	ErrCurrencyPolicy = errors.New("currency not supported by payment policy")
	// ErrGateway is returned when the payment gateway cannot be reached or fails
	ErrGateway = errors.New("payment gateway error")
	// ErrUnauthorized is returned when a caller cannot be authenticated
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStateConflict is returned when a transition is not allowed from the current state
	ErrStateConflict = errors.New("state conflict")
)

// Error carries a taxonomy sentinel plus a field-level message.
type Error struct {
	Kind    error
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Kind }

// NewValidationError reports an invalid request field.
func NewValidationError(field, message string) error {
	return &Error{Kind: ErrValidation, Field: field, Message: message}
}

func NewNotFoundError(what string) error {
	return &Error{Kind: ErrNotFound, Message: what}
}

func NewCurrencyPolicyError(currency string) error {
	return &Error{Kind: ErrCurrencyPolicy, Field: "currency", Message: currency}
}

func NewStateConflictError(message string) error {
	return &Error{Kind: ErrStateConflict, Message: message}
}
