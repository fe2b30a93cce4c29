package errors

import (
	"errors"
	"net/http"
)

// HTTPStatusCode maps an application error to a response status. Unknown and
// unclassified errors deliberately collapse to 500.
func HTTPStatusCode(err error) int {
	switch GetErrorType(err) {
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func GetHumanReadableMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}

	// SECURITY: avoid leaking internal error strings (DB errors, stack messages, etc.)
	return "An unexpected error occurred"
}
