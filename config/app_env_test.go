package config

import (
	"strings"
	"testing"
)

func TestValidateAutoMigrateAllowed(t *testing.T) {
	cases := []struct {
		env     string
		wantErr bool
	}{
		{"", false},
		{"dev", false},
		{"development", false},
		{"local", false},
		{"test", false},
		{"testing", false},
		{"DEV", false},
		{"  Local  ", false},
		{"prod", true},
		{"production", true},
		{" Production ", true},
		{"staging", true},
		{"preprod", true},
		{"qa", true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.env, func(t *testing.T) {
			err := ValidateAutoMigrateAllowed(tc.env)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for env %q, got nil", tc.env)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("expected no error for env %q, got %v", tc.env, err)
			}
			if err != nil && !strings.Contains(err.Error(), AppEnvKey) {
				t.Fatalf("error should name %s so operators know which variable to fix, got: %v", AppEnvKey, err)
			}
		})
	}
}

func TestGetAppEnv_NormalizesValue(t *testing.T) {
	t.Setenv(AppEnvKey, "  Production  ")

	if got := GetAppEnv(); got != "production" {
		t.Fatalf("expected normalized app env %q, got %q", "production", got)
	}
}

func TestGetAppEnv_EmptyWhenUnset(t *testing.T) {
	t.Setenv(AppEnvKey, "")

	if got := GetAppEnv(); got != "" {
		t.Fatalf("expected empty app env, got %q", got)
	}
}
