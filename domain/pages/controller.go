package pages

import (
	"net/http"

	"github.com/wayfarermaps/landing/config/router"
	"github.com/wayfarermaps/landing/domain/experiment"
	"github.com/wayfarermaps/landing/internal/log"
)

// NewPagesController serves the landing page. The experiment middleware has
// already resolved the visitor's variant by the time the handler runs.
func NewPagesController(logger *log.Logger) *router.RESTController {
	return router.NewRESTController(
		"PagesController",
		"/",
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddGetHandler(c, nil, "", landingPageHandler())
		},
	)
}

func landingPageHandler() router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		lang := negotiateLanguage(ctx.GetHeader("Accept-Language"))
		variant := experiment.VariantFromContext(ctx)

		ctx.Header("Vary", "Accept-Language")

		return router.HTMLResult(http.StatusOK, "index.html.tmpl", contentFor(lang, variant))
	}
}
