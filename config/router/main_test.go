package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wayfarermaps/landing/internal/log"
	"github.com/wayfarermaps/landing/pkg/ratelimit"
)

type apiEnvelope struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()

	var resp apiEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode response %q: %v", body, err)
	}
	return resp
}

func newTestRouterService(t *testing.T) *RouterService {
	t.Helper()

	logger := log.NewLoggerWithJSONOutput()
	return CreateRouterService(logger, nil, &RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
}

func mountEchoController(rs *RouterService) {
	ctrl := NewRESTController("EchoController", "/", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "ip", func(ctx *RequestContext) *ServiceResult {
			return OKResult(ctx.ClientIP(), "ok")
		})

		rs.AddPostHandler(c, nil, "echo", func(ctx *RequestContext) *ServiceResult {
			var payload map[string]any
			if err := ctx.ShouldBindJSON(&payload); err != nil {
				return BadRequestResult("bad", nil)
			}
			return OKResult("echoed", "ok")
		})
	})

	rs.MountController(ctrl)
}

func TestTrustedProxies_DisabledByDefault(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "")

	rs := newTestRouterService(t)
	mountEchoController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if resp := decodeEnvelope(t, w.Body.Bytes()); resp.Data != "10.0.0.2" {
		t.Fatalf("expected ClientIP to use RemoteAddr when trusted proxies disabled; got %q", resp.Data)
	}
}

func TestTrustedProxies_StarTrustsForwardedFor(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "*")

	rs := newTestRouterService(t)
	mountEchoController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if resp := decodeEnvelope(t, w.Body.Bytes()); resp.Data != "1.1.1.1" {
		t.Fatalf("expected ClientIP to use X-Forwarded-For when trusted proxies enabled; got %q", resp.Data)
	}
}

func TestSecurityHeaders_SetOnEveryResponse(t *testing.T) {
	rs := newTestRouterService(t)
	mountEchoController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	}
	for name, want := range headers {
		if got := w.Header().Get(name); got != want {
			t.Errorf("header %s = %q, want %q", name, got, want)
		}
	}
}

func TestHSTS_SetBehindHTTPSProxyWhenEnabled(t *testing.T) {
	t.Setenv("HSTS_ENABLED", "true")
	t.Setenv("HSTS_MAX_AGE", "")
	t.Setenv("HSTS_INCLUDE_SUBDOMAINS", "")

	rs := newTestRouterService(t)
	mountEchoController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-Proto", "https")

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("unexpected HSTS value %q", got)
	}

	// Plain HTTP must never advertise HSTS.
	plain := httptest.NewRequest(http.MethodGet, "/ip", nil)
	w = httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, plain)

	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS set on plain HTTP request: %q", got)
	}
}

func TestRateLimitHeaders_AdvertiseTheBudget(t *testing.T) {
	rs := newTestRouterService(t)
	mountEchoController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if got := w.Header().Get("X-RateLimit-Limit"); got != "1000" {
		t.Fatalf("X-RateLimit-Limit = %q, want 1000", got)
	}
	if got := w.Header().Get("X-RateLimit-Window"); got != "1m0s" {
		t.Fatalf("X-RateLimit-Window = %q, want 1m0s", got)
	}
}

func TestMaxBodySize_Returns413(t *testing.T) {
	t.Setenv("MAX_REQUEST_BODY_BYTES", "10")

	rs := newTestRouterService(t)
	mountEchoController(rs)

	body := bytes.Repeat([]byte{'a'}, 50)
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", w.Code, w.Body.String())
	}
}

func TestNoRoute_APIPathReturnsJSON(t *testing.T) {
	rs := newTestRouterService(t)
	mountEchoController(rs)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("expected JSON content type for API path, got %q", ct)
	}

	if resp := decodeEnvelope(t, w.Body.Bytes()); resp.OK {
		t.Fatal("expected ok=false on unknown API route")
	}
}

func TestNoRoute_UnmatchedPathReachesFallback(t *testing.T) {
	// Paths that match no registered route must pass through the rate limit
	// middleware into the NoRoute handler instead of tripping the missing
	// controller-mapping anomaly.
	rs := newTestRouterService(t)
	mountEchoController(rs)

	req := httptest.NewRequest(http.MethodGet, "/somewhere/else", nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "no handler configured") {
		t.Fatalf("unmatched path reported as controller anomaly: %s", w.Body.String())
	}
}

func TestNoMethod_APIPathReturns405(t *testing.T) {
	rs := newTestRouterService(t)

	ctrl := NewRESTController("MethodController", "/api", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "thing", func(ctx *RequestContext) *ServiceResult {
			return OKResult("", "ok")
		})
	})
	rs.MountController(ctrl)

	req := httptest.NewRequest(http.MethodDelete, "/api/thing", nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d: %s", w.Code, w.Body.String())
	}
}

func TestControllerOverride_HandlerLimiterWins(t *testing.T) {
	rs := newTestRouterService(t)

	// One request per window on the controller, a generous budget on the
	// handler itself. The handler limiter must be the one that applies.
	controllerLimiter := ratelimit.NewInMemoryRateLimiter(1, time.Minute)
	handlerLimiter := ratelimit.NewInMemoryRateLimiter(100, time.Minute)

	ctrl := NewRESTController("OverrideController", "/limited", func(rs *RouterService, c *RESTController) {
		c.RateLimitWith(rs, controllerLimiter)
		rs.AddGetHandler(c, handlerLimiter, "fast", func(ctx *RequestContext) *ServiceResult {
			return OKResult("", "ok")
		})
		rs.AddGetHandler(c, nil, "slow", func(ctx *RequestContext) *ServiceResult {
			return OKResult("", "ok")
		})
	})
	rs.MountController(ctrl)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/limited/fast", nil)
		w := httptest.NewRecorder()
		rs.GetEngine().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: handler limiter should allow, got %d", i, w.Code)
		}
	}

	// The controller-level limiter guards routes without their own limiter.
	first := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/limited/slow", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/limited/slow", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should trip the controller limiter, got %d", second.Code)
	}
}
