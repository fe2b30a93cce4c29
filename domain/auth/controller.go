package auth

import (
	"net/http"

	"github.com/wayfarermaps/landing/config/router"
	"github.com/wayfarermaps/landing/internal/log"
	"github.com/wayfarermaps/landing/pkg/constants"
)

// NewAuthController exposes the session probe the landing page polls to
// decide whether to show the signed-in chip. There is no real account system
// behind it yet; presence of the session cookie is all that matters, and its
// value is echoed back untouched as the user ID.
func NewAuthController(logger *log.Logger) *router.RESTController {
	return router.NewRESTController(
		"AuthController",
		"/api",
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddGetHandler(c, nil, "auth-status", authStatusHandler())
		},
	)
}

func authStatusHandler() router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		cookie, err := ctx.Request.Cookie(constants.SessionCookieName)
		if err != nil || cookie.Value == "" {
			return router.JSONResult(http.StatusOK, StatusResponse{
				Authenticated: false,
				User:          nil,
			})
		}

		return router.JSONResult(http.StatusOK, StatusResponse{
			Authenticated: true,
			User:          &UserInfo{ID: cookie.Value},
		})
	}
}
