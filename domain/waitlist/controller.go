package waitlist

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/wayfarermaps/landing/config/router"
	"github.com/wayfarermaps/landing/internal/log"
	"github.com/wayfarermaps/landing/pkg/constants"
	apperrors "github.com/wayfarermaps/landing/pkg/errors"
	"github.com/wayfarermaps/landing/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

func NewWaitlistController(
	db *gorm.DB,
	logger *log.Logger,
) *router.RESTController {

	return router.NewRESTController(
		"WaitlistController",
		"/api/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			repository := NewRepository(db)
			service := NewWaitlistService(logger, repository)

			signupCounter := newSignupCounter()
			if err := rs.RegisterCollector(signupCounter); err != nil {
				logger.Warn("Failed to register signup counter", "error", err)
			}

			// The admin surface shares one tighter bucket; the public signup
			// route below carries its own limiter, which takes precedence.
			c.RateLimitWith(rs, newMinuteLimiter(adminRequestsPerMinute))

			rs.AddPostHandler(c, newMinuteLimiter(signupRequestsPerMinute), "", signupHandler(service, signupCounter))
			rs.AddGetHandler(c, nil, "", listEntriesHandler(service), adminOnly())
			rs.AddGetHandler(c, nil, "/stats", variantStatsHandler(service), adminOnly())
			rs.AddGetHandler(c, nil, "/export", exportEntriesHandler(service), adminOnly())
			rs.AddDeleteHandler(c, nil, "/:id", deleteEntryHandler(service), adminOnly())
		},
	)
}

const (
	signupRequestsPerMinute = 30
	adminRequestsPerMinute  = 60
)

func newMinuteLimiter(requests int) ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: requests,
		Window:   time.Minute,
	})
}

// adminOnly guards the operator endpoints. With ADMIN_TOKEN unset the routes
// pretend not to exist; with it set, callers must present the exact token in
// X-Admin-Token.
func adminOnly() router.MiddlewareFunc {
	return func(ctx *router.RequestContext) {
		// Read per request so deployments can rotate the token without a restart.
		token := os.Getenv("ADMIN_TOKEN")
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusNotFound, router.NotFoundResult("Route not found").Body)
			return
		}

		presented := ctx.GetHeader("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, router.UnauthorizedResult("Invalid admin token").Body)
			return
		}

		ctx.Next()
	}
}

func signupHandler(service WaitlistService, signups *prometheus.CounterVec) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req SignupRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Error("Failed to bind request", "error", err)

			validationErrors := apperrors.FormatValidationErrors(err, &req)
			if len(validationErrors) > 0 {
				return router.BadRequestResult("Invalid request payload", validationErrors)
			}

			return router.BadRequestResult("Invalid request body", nil)
		}

		meta := &SignupMetadata{
			SourceIP:  ctx.ClientIP(),
			UserAgent: ctx.Request.UserAgent(),
		}
		if cookie, err := ctx.Request.Cookie(constants.VariantCookieName); err == nil {
			meta.CookieVariant = cookie.Value
		}

		result, err := service.Signup(ctx.Request.Context(), &req, meta)
		if err != nil {
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
				nil,
			)
		}

		// Duplicates respond identically but are not counted twice.
		if result.Created {
			signups.WithLabelValues(result.Variant).Inc()
		}

		return router.OKResult(nil, result.Message)
	}
}

func listEntriesHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		page, errResult := router.ParsePositiveIntQuery(ctx, "page", 1, 0)
		if errResult != nil {
			return errResult
		}

		perPage, errResult := router.ParsePositiveIntQuery(ctx, "per_page", 50, 500)
		if errResult != nil {
			return errResult
		}

		response, err := service.ListEntries(ctx.Request.Context(), page, perPage)
		if err != nil {
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
				nil,
			)
		}

		return router.OKResult(response, "Waitlist entries retrieved successfully")
	}
}

func variantStatsHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.VariantStats(ctx.Request.Context())
		if err != nil {
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
				nil,
			)
		}

		return router.OKResult(response, "Waitlist stats retrieved successfully")
	}
}

func exportEntriesHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		data, err := service.ExportCSV(ctx.Request.Context())
		if err != nil {
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
				nil,
			)
		}

		filename := fmt.Sprintf("waitlist-%s.csv", time.Now().UTC().Format("2006-01-02"))
		ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

		return router.DataResult(http.StatusOK, "text/csv; charset=utf-8", data)
	}
}

func deleteEntryHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		id, errResult := router.ParseIDParam(ctx, "id")
		if errResult != nil {
			return errResult
		}

		if err := service.DeleteEntry(ctx.Request.Context(), id); err != nil {
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
				nil,
			)
		}

		return router.OKResult(nil, "Waitlist entry deleted successfully")
	}
}
