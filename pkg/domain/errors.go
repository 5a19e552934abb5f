package domain

import (
	"errors"
	"fmt"
)

// ErrorType classifies a domain error so transport layers can map it
// to a status code without string matching.
type ErrorType string

const (
	ErrorTypeValidation             ErrorType = "validation"
	ErrorTypeConflict               ErrorType = "conflict"
	ErrorTypeNotFound               ErrorType = "not_found"
	ErrorTypeInvalidState           ErrorType = "invalid_state"
	ErrorTypeUnauthorized           ErrorType = "unauthorized"
	ErrorTypeForbidden              ErrorType = "forbidden"
	ErrorTypeConcurrentModification ErrorType = "concurrent_modification"
	ErrorTypePayment                ErrorType = "payment"
)

// Error is the recoverable error returned by domain and application code.
// All of these are surfaced to the end user as a message; none are fatal.
type Error struct {
	Type    ErrorType
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewValidationError reports invalid caller input.
func NewValidationError(message string) *Error {
	return &Error{Type: ErrorTypeValidation, Message: message}
}

// NewConflictError reports a business-rule conflict with existing state.
func NewConflictError(message string) *Error {
	return &Error{Type: ErrorTypeConflict, Message: message}
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *Error {
	return &Error{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// NewInvalidStateError reports a transition attempted from a state that
// does not permit it.
func NewInvalidStateError(from, to string) *Error {
	return &Error{
		Type:    ErrorTypeInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewUnauthorizedError reports a caller without a valid identity.
func NewUnauthorizedError(message string) *Error {
	return &Error{Type: ErrorTypeUnauthorized, Message: message}
}

// NewForbiddenError reports a caller lacking rights over the target.
func NewForbiddenError(message string) *Error {
	return &Error{Type: ErrorTypeForbidden, Message: message}
}

// NewConcurrentModificationError reports an optimistic-concurrency loss.
func NewConcurrentModificationError(message string) *Error {
	return &Error{Type: ErrorTypeConcurrentModification, Message: message}
}

// NewPaymentError reports an external payment initiation or confirmation
// failure.
func NewPaymentError(message string) *Error {
	return &Error{Type: ErrorTypePayment, Message: message}
}

// TypeOf returns the ErrorType carried by err, unwrapping as needed.
// The second result is false for errors outside the taxonomy.
func TypeOf(err error) (ErrorType, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Type, true
	}
	return "", false
}

// IsType reports whether err carries the given ErrorType.
func IsType(err error, t ErrorType) bool {
	got, ok := TypeOf(err)
	return ok && got == t
}
