package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType is the coarse classification attached to every AppError. The
// values double as log fields, so they are stable identifiers rather than
// display text.
type ErrorType string

const (
	ErrorTypeDatabaseError       ErrorType = "DATABASE_ERROR"
	ErrorTypeNotFound            ErrorType = "NOT_FOUND"
	ErrorTypeInvalidRequest      ErrorType = "INVALID_REQUEST"
	ErrorTypeConflict            ErrorType = "CONFLICT"
	ErrorTypeInternalServerError ErrorType = "INTERNAL_SERVER_ERROR"
	ErrorTypeUnknown             ErrorType = "UNKNOWN_ERROR"
)

// AppError carries a classification and a message that is safe to return to
// callers. The wrapped cause stays out of responses and only surfaces in logs.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func NewNotFoundError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: message, Err: err}
}

func NewInvalidRequestError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInvalidRequest, Message: message, Err: err}
}

func NewDatabaseError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeDatabaseError, Message: message, Err: err}
}

func NewConflictError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeConflict, Message: message, Err: err}
}

func NewInternalServerError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInternalServerError, Message: message, Err: err}
}

// GetErrorType extracts the classification from anywhere in err's wrap chain.
// Errors that never passed through this package report ErrorTypeUnknown; nil
// reports the empty string.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}

	return ErrorTypeUnknown
}

// IsDuplicateKeyError reports whether err looks like a unique-key violation.
// Drivers phrase these differently, "duplicate key value" from Postgres and
// "UNIQUE constraint failed" from sqlite, so the raw message is matched
// alongside the AppError classification.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	if GetErrorType(err) == ErrorTypeConflict {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
