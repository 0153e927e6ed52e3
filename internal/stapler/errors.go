package stapler

import (
	"fmt"
	"net/http"
)

// Error is an API error carrying the HTTP status and error code reported to
// the client. The wrapped cause, if any, is kept for logging.
type Error struct {
	Status  int
	Code    string
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewValidationError creates a 400 error for a bad request shape or cardinality.
func NewValidationError(message string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    "ValidationError",
		Message: message,
	}
}

// NewAccessDeniedError creates a 403 error for a key outside the permitted prefix.
func NewAccessDeniedError(message string) *Error {
	return &Error{
		Status:  http.StatusForbidden,
		Code:    "AccessDenied",
		Message: message,
	}
}

// NewConfigurationError creates a 500 error for missing required configuration.
func NewConfigurationError(message string) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    "ConfigurationError",
		Message: message,
	}
}

// NewCorruptDocumentError creates a 500 error for an object that cannot be
// parsed as a PDF.
func NewCorruptDocumentError(message string, cause error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    "CorruptDocument",
		Message: message,
		cause:   cause,
	}
}

// NewStorageError creates a 500 error for a failed storage operation.
func NewStorageError(message string, cause error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    "StorageError",
		Message: message,
		cause:   cause,
	}
}
