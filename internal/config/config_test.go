package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_HOST", "APP_PORT", "APP_ENV", "POSTGRES_PASSWORD", "STYLESHEET_CACHE_DIR", "CDN_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
	if !cfg.IsDev() || cfg.IsProduction() {
		t.Errorf("default env = %q", cfg.Env)
	}
	if cfg.CacheDir == "" || cfg.AssetRoot == "" || cfg.ManifestDir == "" {
		t.Error("pipeline directories missing defaults")
	}
	if cfg.CDNURL != "" {
		t.Errorf("CDN URL defaulted to %q, want empty", cfg.CDNURL)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "testing")
	t.Setenv("APP_PORT", "9999")
	t.Setenv("STYLESHEET_CACHE_DIR", "/var/cache/styles")
	t.Setenv("CDN_URL", "https://cdn.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9999" || cfg.CacheDir != "/var/cache/styles" || cfg.CDNURL != "https://cdn.example.com" {
		t.Errorf("env values not honored: %+v", cfg)
	}
	if cfg.IsDev() || cfg.IsProduction() {
		t.Errorf("testing env misclassified")
	}
}

func TestLoadProductionRequiresPassword(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("POSTGRES_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Error("production accepted the default database password")
	}

	t.Setenv("POSTGRES_PASSWORD", "real-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsProduction() {
		t.Error("production env misclassified")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d"}
	want := "postgres://u:p@h:5432/d?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
