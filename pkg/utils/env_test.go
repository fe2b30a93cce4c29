package utils

import "testing"

func TestGetEnvTrimmedOrDefault(t *testing.T) {
	t.Setenv("WAYFARER_TEST_VAR", "  padded  ")
	if got := GetEnvTrimmedOrDefault("WAYFARER_TEST_VAR", "fallback"); got != "padded" {
		t.Fatalf("expected trimmed value, got %q", got)
	}

	t.Setenv("WAYFARER_TEST_VAR", "   ")
	if got := GetEnvTrimmedOrDefault("WAYFARER_TEST_VAR", "fallback"); got != "fallback" {
		t.Fatalf("whitespace-only values should fall back, got %q", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	cases := []struct {
		value        string
		defaultValue bool
		want         bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"0", true, false},
		{" 1 ", false, true},
		{"banana", true, true},
		{"banana", false, false},
	}

	for _, c := range cases {
		t.Setenv("WAYFARER_TEST_BOOL", c.value)
		if got := GetEnvBool("WAYFARER_TEST_BOOL", c.defaultValue); got != c.want {
			t.Fatalf("GetEnvBool(%q, %v) = %v, want %v", c.value, c.defaultValue, got, c.want)
		}
	}
}
