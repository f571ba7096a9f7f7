// Package errors defines the application error taxonomy.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	// Domain errors
	ErrorTypeValidation      ErrorType = "VALIDATION"
	ErrorTypeNotFound        ErrorType = "NOT_FOUND"
	ErrorTypeConflict        ErrorType = "CONFLICT"
	ErrorTypeInvalidMutation ErrorType = "INVALID_MUTATION"
	ErrorTypeNoBaseline      ErrorType = "NO_BASELINE"

	// Notifier errors
	ErrorTypeObserverOverflow ErrorType = "OBSERVER_OVERFLOW"

	// Application errors
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"

	// Infrastructure errors
	ErrorTypeDatabase ErrorType = "DATABASE"
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError is the custom error type for the application
type AppError struct {
	Type       ErrorType
	Message    string
	Details    map[string]interface{}
	Err        error
	HTTPStatus int
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails attaches structured details to the error
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// Constructor functions for different error types

// NewValidation creates a validation error
func NewValidation(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error
func NewNotFound(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewConflict creates a conflict error
func NewConflict(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewInvalidMutation creates an error for a rejected mutation batch.
// opIndex identifies the offending operation within the batch; the whole
// batch was discarded and the working copy is unchanged.
func NewInvalidMutation(opIndex int, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidMutation,
		Message:    message,
		Details:    map[string]interface{}{"op_index": opIndex},
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewNoBaseline creates an error for restore/diff before any load or commit
func NewNoBaseline(operation string) *AppError {
	return &AppError{
		Type:       ErrorTypeNoBaseline,
		Message:    fmt.Sprintf("%s requested before any baseline was captured", operation),
		HTTPStatus: http.StatusConflict,
	}
}

// NewObserverOverflow creates an error for a dropped observer queue
func NewObserverOverflow(observerID string) *AppError {
	return &AppError{
		Type:       ErrorTypeObserverOverflow,
		Message:    fmt.Sprintf("observer %q delivery queue overflowed; observer dropped", observerID),
		Details:    map[string]interface{}{"observer_id": observerID},
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		Err:        err,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewUnavailable creates a service unavailable error
func NewUnavailable(service string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnavailable,
		Message:    fmt.Sprintf("service '%s' is unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// NewDatabase creates a database error
func NewDatabase(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeDatabase,
		Message:    fmt.Sprintf("database operation '%s' failed", operation),
		Err:        err,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewExternal creates an external service error
func NewExternal(service string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Message:    fmt.Sprintf("external service '%s' error", service),
		Err:        err,
		HTTPStatus: http.StatusBadGateway,
	}
}

// Helper functions

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsInvalidMutation checks if an error is a rejected mutation
func IsInvalidMutation(err error) bool {
	return IsType(err, ErrorTypeInvalidMutation)
}

// IsNoBaseline checks if an error reports a missing baseline
func IsNoBaseline(err error) bool {
	return IsType(err, ErrorTypeNoBaseline)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// OpIndex returns the offending operation index carried by an
// InvalidMutation error, or -1 when the error is of another type.
func OpIndex(err error) int {
	appErr := GetAppError(err)
	if appErr == nil || appErr.Type != ErrorTypeInvalidMutation {
		return -1
	}
	if idx, ok := appErr.Details["op_index"].(int); ok {
		return idx
	}
	return -1
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}
	return NewInternal(message, err)
}
