// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInputValidation = errors.New("input validation failed")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrDuplicate       = errors.New("already exists")
	ErrConfigInvalid   = errors.New("invalid configuration")
)

// ValidationError represents a rejected input field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ArithmeticError reports an input that makes a calculation undefined.
// It is a validation-class failure.
type ArithmeticError struct {
	Operation string
	Message   string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic error [%s]: %s", e.Operation, e.Message)
}

func (e *ArithmeticError) Unwrap() error {
	return ErrInputValidation
}

// NewArithmeticError creates a new ArithmeticError.
func NewArithmeticError(operation, message string) *ArithmeticError {
	return &ArithmeticError{
		Operation: operation,
		Message:   message,
	}
}

// NotFoundError reports a missing resource, or one owned by someone else.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// InvalidStateError reports an operation that the current lifecycle state forbids.
type InvalidStateError struct {
	Resource string
	ID       string
	State    string
	Action   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s: status is %s", e.Action, e.Resource, e.ID, e.State)
}

func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// NewInvalidStateError creates a new InvalidStateError.
func NewInvalidStateError(resource, id, state, action string) *InvalidStateError {
	return &InvalidStateError{
		Resource: resource,
		ID:       id,
		State:    state,
		Action:   action,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsValidation reports whether err is a validation-class failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInputValidation)
}
