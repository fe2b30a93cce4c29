package config

import (
	"strings"
	"testing"
	"time"
)

func TestSanitizeEnv(t *testing.T) {
	cases := map[string]string{
		"plain":          "plain",
		"  padded  ":     "padded",
		`"double"`:       "double",
		"'single'":       "single",
		`"`:              `"`,
		` "padded-too" `: "padded-too",
		"":               "",
	}

	for in, want := range cases {
		if got := sanitizeEnv(in); got != want {
			t.Errorf("sanitizeEnv(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPostgresParams_Missing(t *testing.T) {
	complete := postgresParams{Host: "db", Port: "5432", User: "app", Name: "landing"}
	if missing := complete.missing(); len(missing) != 0 {
		t.Fatalf("expected nothing missing, got %v", missing)
	}

	// Password and sslmode are optional; the rest must be named.
	partial := postgresParams{Port: "5432"}
	missing := partial.missing()
	joined := strings.Join(missing, ", ")
	for _, want := range []string{"POSTGRES_HOST", "POSTGRES_USER", "POSTGRES_DB_NAME"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %s to be reported missing, got %v", want, missing)
		}
	}
	if strings.Contains(joined, "POSTGRES_PORT") {
		t.Errorf("POSTGRES_PORT was provided but reported missing: %v", missing)
	}
}

func TestDBConfigWithDefaults(t *testing.T) {
	var nilConfig *DBConfig
	defaults := nilConfig.withDefaults()
	if defaults.MaxIdleConns != 10 || defaults.MaxOpenConns != 100 || defaults.SSLMode != "require" {
		t.Fatalf("unexpected defaults: %+v", defaults)
	}

	merged := (&DBConfig{MaxOpenConns: 5, SSLMode: "disable"}).withDefaults()
	if merged.MaxOpenConns != 5 || merged.SSLMode != "disable" {
		t.Fatalf("explicit fields were overridden: %+v", merged)
	}
	if merged.MaxIdleConns != 10 || merged.ConnMaxLifetime != time.Minute {
		t.Fatalf("unset fields did not default: %+v", merged)
	}
}

func TestIsDatabaseConfigured(t *testing.T) {
	t.Setenv("APP_DATABASE_URL", "")
	t.Setenv("POSTGRES_HOST", "")
	if IsDatabaseConfigured() {
		t.Fatal("expected unconfigured with both variables empty")
	}

	t.Setenv("APP_DATABASE_URL", `  ""  `)
	if IsDatabaseConfigured() {
		t.Fatal("a quoted empty string should not count as configuration")
	}

	t.Setenv("POSTGRES_HOST", "db.internal")
	if !IsDatabaseConfigured() {
		t.Fatal("expected configured once POSTGRES_HOST is set")
	}
}
