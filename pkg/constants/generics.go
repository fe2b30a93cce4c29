package constants

import "time"

// RFC3339DateTimeFormat is the timestamp layout used on every outward-facing
// surface, the JSON API and the CSV export alike.
const RFC3339DateTimeFormat = "2006-01-02T15:04:05Z07:00"

// Default API rate limit, applied per client IP unless an endpoint overrides it.
const (
	DefaultRateLimitRequests      = 100
	DefaultRateLimitWindowMinutes = 1
)

func DefaultRateLimitWindow() time.Duration {
	return time.Duration(DefaultRateLimitWindowMinutes) * time.Minute
}

// Cookie names used by the public surface.
const (
	// VariantCookieName holds the visitor's A/B cohort. Readable by client
	// scripts, so it is never marked HttpOnly.
	VariantCookieName = "ab_variant"
	// SessionCookieName is the opaque session marker checked by the
	// auth-status endpoint.
	SessionCookieName = "session"
)

// A/B experiment cohorts.
const (
	VariantA = "A"
	VariantB = "B"
)

// VariantCookieMaxAge is how long a cohort assignment sticks.
const VariantCookieMaxAge = int(365 * 24 * time.Hour / time.Second)

// IsValidVariant reports whether v is a recognized cohort value.
func IsValidVariant(v string) bool {
	return v == VariantA || v == VariantB
}
