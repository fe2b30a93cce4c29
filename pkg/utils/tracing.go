package utils

import (
	"os"
	"strings"
)

// IsTracingEnabled reports whether OTLP trace export is switched on. Tracing
// is opt-in; an absent or malformed flag leaves it off.
func IsTracingEnabled() bool {
	return GetEnvBool("OTEL_TRACES_ENABLED", false)
}

func OTelServiceName() string {
	serviceName := strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME"))
	if serviceName == "" {
		serviceName = "wayfarer-landing"
	}
	return serviceName
}
