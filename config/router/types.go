package router

import (
	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

// ServiceResult is the value every handler returns. Body is rendered verbatim
// so each endpoint controls its exact wire shape. Template switches rendering
// from JSON to the named HTML template; ContentType plus RawBody bypass
// serialization entirely (CSV export and similar).
type ServiceResult struct {
	StatusCode  int
	Body        any
	Template    string
	ContentType string
	RawBody     []byte
}

// APIResponse is the shared body for endpoints that do not define their own
// wire shape. Data and Errors are omitted when empty so the minimal form is
// exactly {"ok": ..., "message": ...}.
type APIResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

type RateLimitResponse struct {
	Limit      int    `json:"limit"`
	Window     string `json:"window"`
	RetryAfter string `json:"retry_after"`
}

type HandlerFunction func(*RequestContext) *ServiceResult

type RESTController struct {
	name         string
	mountPoint   string
	handlerCount int
	prepare      func(*RouterService, *RESTController)
}

func (result *ServiceResult) Render(c *RequestContext) {
	switch {
	case result.Template != "":
		c.HTML(result.StatusCode, result.Template, result.Body)
	case result.ContentType != "":
		c.Data(result.StatusCode, result.ContentType, result.RawBody)
	default:
		c.JSON(result.StatusCode, result.Body)
	}
}

func (result *ServiceResult) IsSuccess() bool {
	return result.StatusCode >= 200 && result.StatusCode < 300
}

func (result *ServiceResult) IsError() bool {
	return result.StatusCode >= 400
}
