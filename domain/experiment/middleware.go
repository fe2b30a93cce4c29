package experiment

import (
	"net/http"
	"strings"

	"github.com/wayfarermaps/landing/config/router"
	"github.com/wayfarermaps/landing/internal/log"
	"github.com/wayfarermaps/landing/pkg/constants"
)

// variantContextKey is where the middleware stores the resolved variant in
// the request context.
const variantContextKey = "experiment_variant"

// Middleware assigns every visitor to an A/B cohort exactly once. A valid
// cookie is never reassigned; missing or garbled cookies get a fresh flip.
func Middleware(service Service, logger *log.Logger) router.MiddlewareFunc {
	return func(c *router.RequestContext) {
		if cookie, err := c.Request.Cookie(constants.VariantCookieName); err == nil {
			if variant, ok := service.Validate(cookie.Value); ok {
				c.Set(variantContextKey, variant)
				c.Next()
				return
			}
		}

		variant := service.Assign()
		setVariantCookie(c, variant)
		c.Set(variantContextKey, variant)

		correlatedLogger := logger.WithCorrelationID(c.Request.Context())
		correlatedLogger.Info("Assigned experiment variant", "variant", variant)

		c.Next()
	}
}

func setVariantCookie(c *router.RequestContext, variant string) {
	c.SetSameSite(http.SameSiteLaxMode)

	// Not HttpOnly: the signup script reads the cohort so it can submit it
	// with the form.
	c.SetCookie(
		constants.VariantCookieName,
		variant,
		constants.VariantCookieMaxAge,
		"/",
		"",
		isSecureRequest(c),
		false,
	)
}

// isSecureRequest reports whether the request arrived over HTTPS, directly or
// via a terminating proxy.
func isSecureRequest(c *router.RequestContext) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}

// VariantFromContext returns the variant resolved for this request, or the
// empty string when the middleware did not run.
func VariantFromContext(c *router.RequestContext) string {
	if v, ok := c.Get(variantContextKey); ok {
		if variant, ok := v.(string); ok {
			return variant
		}
	}
	return ""
}
