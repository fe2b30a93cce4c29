package router

import (
	"net/http"
	"strconv"

	"github.com/wayfarermaps/landing/internal/log"
)

func GetLogger(ctx *RequestContext) *log.Logger {
	if logger := ctx.Request.Context().Value(log.LoggerKeyForContext); logger != nil {
		if l, ok := logger.(*log.Logger); ok {
			return l
		}
	}

	baseLogger := log.NewLoggerWithJSONOutput()
	return baseLogger.WithCorrelationID(ctx.Request.Context())
}

// JSONResult renders body exactly as given, for endpoints whose wire shape is
// not the shared APIResponse.
func JSONResult(statusCode int, body any) *ServiceResult {
	return &ServiceResult{
		StatusCode: statusCode,
		Body:       body,
	}
}

// HTMLResult renders the named template with data.
func HTMLResult(statusCode int, template string, data any) *ServiceResult {
	return &ServiceResult{
		StatusCode: statusCode,
		Template:   template,
		Body:       data,
	}
}

// DataResult writes raw bytes with the given content type.
func DataResult(statusCode int, contentType string, body []byte) *ServiceResult {
	return &ServiceResult{
		StatusCode:  statusCode,
		ContentType: contentType,
		RawBody:     body,
	}
}

func OKResult(data any, message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusOK,
		Body:       APIResponse{OK: true, Message: message, Data: data},
	}
}

func TooManyRequestsResult(data RateLimitResponse) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusTooManyRequests,
		Body:       APIResponse{OK: false, Message: "Too many requests", Data: data},
	}
}

func BadRequestResult(message string, errors any) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusBadRequest,
		Body:       APIResponse{OK: false, Message: message, Errors: errors},
	}
}

func UnauthorizedResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusUnauthorized,
		Body:       APIResponse{OK: false, Message: message},
	}
}

func NotFoundResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusNotFound,
		Body:       APIResponse{OK: false, Message: message},
	}
}

func InternalServerErrorResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusInternalServerError,
		Body:       APIResponse{OK: false, Message: message},
	}
}

func ConflictResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusConflict,
		Body:       APIResponse{OK: false, Message: message},
	}
}

func ErrorResult(statusCode int, message string, errors any) *ServiceResult {
	return &ServiceResult{
		StatusCode: statusCode,
		Body:       APIResponse{OK: false, Message: message, Errors: errors},
	}
}

func ParseIDParam(ctx *RequestContext, paramName string) (uint, *ServiceResult) {
	logger := GetLogger(ctx)

	idParam := ctx.Param(paramName)
	id, err := strconv.ParseUint(idParam, 10, 32)

	if err != nil {
		logger.Error("Invalid ID parameter", "param", paramName, "value", idParam, "error", err)
		return 0, BadRequestResult("Invalid ID parameter", nil)
	}

	return uint(id), nil
}

// ParsePositiveIntQuery reads an optional integer query parameter, falling
// back to defaultValue and clamping to maxValue when maxValue > 0.
func ParsePositiveIntQuery(ctx *RequestContext, name string, defaultValue, maxValue int) (int, *ServiceResult) {
	raw := ctx.Query(name)
	if raw == "" {
		return defaultValue, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		logger := GetLogger(ctx)
		logger.Error("Invalid query parameter", "param", name, "value", raw)
		return 0, BadRequestResult("Query parameter "+name+" must be a positive integer", nil)
	}

	if maxValue > 0 && v > maxValue {
		v = maxValue
	}

	return v, nil
}
