package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Domain errors
	ErrorTypeValidation  ErrorType = "VALIDATION"
	ErrorTypeNotFound    ErrorType = "NOT_FOUND"
	ErrorTypeConflict    ErrorType = "CONFLICT"
	ErrorTypeUnsupported ErrorType = "UNSUPPORTED"

	// Application errors
	ErrorTypeInternal ErrorType = "INTERNAL"
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// Effect errors: the state transition succeeded but the domain-side
	// effect could not be completed
	ErrorTypeCompensation ErrorType = "COMPENSATION_FAILED"
	ErrorTypeFinalization ErrorType = "FINALIZATION_FAILED"
)

// Reason codes surfaced to API clients on 409 responses
const (
	CodeAlreadyCommitted = "ALREADY_COMMITTED"
	CodeAlreadyCancelled = "ALREADY_CANCELLED"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		Code:       "VALIDATION_ERROR",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Code:       "NOT_FOUND",
		HTTPStatus: http.StatusNotFound,
	}
}

// NewConflictError creates a conflict error with a machine-readable reason code
func NewConflictError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		Code:       code,
		HTTPStatus: http.StatusConflict,
	}
}

// NewUnsupportedOperationError creates an error for unknown operation types
func NewUnsupportedOperationError(operationType string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnsupported,
		Message:    fmt.Sprintf("unsupported operation type: %s", operationType),
		Code:       "UNSUPPORTED_OPERATION",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewExternalError creates an error for a failed collaborator service call
func NewExternalError(service string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Message:    fmt.Sprintf("service '%s' call failed", service),
		Code:       "EXTERNAL_ERROR",
		Cause:      err,
		HTTPStatus: http.StatusBadGateway,
	}
}

// NewCompensationError wraps a compensation failure after a won cancel transition
func NewCompensationError(operationID string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeCompensation,
		Message:    fmt.Sprintf("compensation for operation %s failed", operationID),
		Code:       "COMPENSATION_FAILED",
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewFinalizationError wraps a finalization failure after a won commit transition
func NewFinalizationError(operationID string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeFinalization,
		Message:    fmt.Sprintf("finalization for operation %s failed", operationID),
		Code:       "FINALIZATION_FAILED",
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// IsType checks whether err is an AppError of the given type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetAppError extracts an AppError from an error chain, or wraps it as internal
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err.Error()).WithCause(err)
}
