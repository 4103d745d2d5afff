package config

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected missing JWT_SECRET to fail")
	}
}

func TestLoadConfigSessionSettings(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("SESSION_MAX_AGE", "90m")
	t.Setenv("SESSION_DISCREPANCY_TOLERANCE", "120")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	t.Setenv("AUTO_MIGRATE", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SessionMaxAge != 90*time.Minute {
		t.Fatalf("expected 90m max age, got %s", cfg.SessionMaxAge)
	}
	if cfg.SessionDiscrepancyTolerance != 2*time.Minute {
		t.Fatalf("expected 2m tolerance, got %s", cfg.SessionDiscrepancyTolerance)
	}
	if cfg.DBMaxConns != 10 {
		t.Fatalf("expected fallback pool size 10, got %d", cfg.DBMaxConns)
	}
	if !cfg.AutoMigrate {
		t.Fatal("expected AUTO_MIGRATE to be read")
	}
	if cfg.Timezone.String() != "UTC" {
		t.Fatalf("expected UTC, got %s", cfg.Timezone)
	}
}

func TestLoadConfigRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected unknown timezone to fail")
	}
}

func TestDocsEnabledOnlyInDevelopment(t *testing.T) {
	tests := []struct {
		cfg  *Config
		want bool
	}{
		{cfg: nil, want: false},
		{cfg: &Config{EnableDocs: true, AppEnv: "development"}, want: true},
		{cfg: &Config{EnableDocs: true, AppEnv: "production"}, want: false},
		{cfg: &Config{EnableDocs: false, AppEnv: "development"}, want: false},
	}

	for _, tt := range tests {
		if got := tt.cfg.DocsEnabled(); got != tt.want {
			t.Fatalf("DocsEnabled(%+v) = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}

func TestNormalizeEnv(t *testing.T) {
	cases := map[string]string{
		" Dev ":   "development",
		"PROD":    "production",
		"staging": "staging",
		"qa":      "qa",
	}
	for in, want := range cases {
		if got := normalizeEnv(in); got != want {
			t.Fatalf("normalizeEnv(%q) = %q, want %q", in, got, want)
		}
	}
}
