package log

import (
	"context"
	"log/slog"
	"testing"
)

func TestLevelFromEnv(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}

	for value, want := range cases {
		t.Setenv("LOG_LEVEL", value)
		if got := levelFromEnv(); got != want {
			t.Fatalf("LOG_LEVEL=%q: expected %v, got %v", value, want, got)
		}
	}
}

func TestGetOrGenerateCorrelationID(t *testing.T) {
	ctx := context.WithValue(context.Background(), CorrelatedIDKey, "req-42")
	if got := GetOrGenerateCorrelationID(ctx); got != "req-42" {
		t.Fatalf("expected the context id, got %q", got)
	}

	generated := GetOrGenerateCorrelationID(context.Background())
	if generated == "" {
		t.Fatal("expected a generated id for contexts without one")
	}
	if generated == GetOrGenerateCorrelationID(context.Background()) {
		t.Fatal("generated ids should be unique")
	}
}
