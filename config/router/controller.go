package router

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/wayfarermaps/landing/pkg/ratelimit"
)

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: path.Clean("/" + strings.Trim(mountPoint, "/")),
		prepare:    prepare,
	}
}

// RateLimitWith replaces the default limiter for every route the controller
// registers. Per-handler limiters passed to AddGetHandler and friends still
// take precedence.
func (controller *RESTController) RateLimitWith(routerService *RouterService, limiter ratelimit.RateLimiter) *RESTController {
	if limiter != nil {
		routerService.bindLimiterOverride(controller.mountPoint, limiter)
	}
	return controller
}

func routeKey(method, routePath string) string {
	return method + " " + routePath
}

func (controller *RESTController) routePath(relativePath string) string {
	return path.Join(controller.mountPoint, relativePath)
}

func (routerService *RouterService) bindLimiterOverride(key string, limiter ratelimit.RateLimiter) {
	if _, taken := routerService.limiterOverrides[key]; taken {
		panic(fmt.Sprintf("a rate limiter is already bound to %q", key))
	}
	routerService.limiterOverrides[key] = limiter
}

// register wires one route: it records the owning controller for the rate
// limit middleware, binds an optional per-handler limiter, and installs the
// gin handler chain.
func (routerService *RouterService) register(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	method, relativePath string,
	handler HandlerFunction,
	middlewares []MiddlewareFunc,
) {
	routePath := controller.routePath(relativePath)
	key := routeKey(method, routePath)

	if owner, taken := routerService.routeOwners[key]; taken {
		panic(fmt.Sprintf("route %s %s is already registered by controller %q", method, routePath, owner.name))
	}
	routerService.routeOwners[key] = controller

	if limiter != nil {
		routerService.bindLimiterOverride(key, limiter)
	}

	controller.handlerCount++
	routerService.engine.Handle(method, routePath, append(middlewares, invoke(handler))...)
	routerService.logger.Debug("Handler registered", "method", method, "path", routePath)
}

// invoke adapts a HandlerFunction to gin. A nil result is a handler bug and
// surfaces as a 500 rather than a silent empty response.
func invoke(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)

		if result == nil {
			c.JSON(http.StatusInternalServerError, InternalServerErrorResult("A handler returned an undefined result. This typically indicates a bug in a handler's implementation.").Body)
			return
		}

		result.Render(c)
	}
}

func (routerService *RouterService) AddGetHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	relativePath string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.register(controller, limiter, http.MethodGet, relativePath, handler, middlewares)
}

func (routerService *RouterService) AddPostHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	relativePath string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.register(controller, limiter, http.MethodPost, relativePath, handler, middlewares)
}

func (routerService *RouterService) AddDeleteHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	relativePath string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.register(controller, limiter, http.MethodDelete, relativePath, handler, middlewares)
}
