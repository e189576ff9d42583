package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Store != StoreMemory || cfg.Workers != 1 {
		t.Fatalf("cfg = %+v, want port 8080, memory store, 1 worker", cfg)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("token ttl = %v, want 24h", cfg.TokenTTL)
	}
	if cfg.AuthEnabled() {
		t.Fatal("auth should be off without a jwt secret")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("FULFILL_APP_PORT", "9090")
	t.Setenv("FULFILL_WORKERS", "4")
	t.Setenv("FULFILL_STORE", "Postgres")
	t.Setenv("FULFILL_DATABASE_URL", "postgres://localhost/fulfillment")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.Workers != 4 || cfg.Store != StorePostgres {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	body := "app_port: \"7000\"\nlog_level: debug\ntoken_ttl: 2h\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FULFILL_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7000" || cfg.TokenTTL != 2*time.Hour {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("log level = %q, want environment to win", cfg.LogLevel)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]Config{
		"unknown store":      {Store: "sqlite", Workers: 1},
		"postgres no url":    {Store: StorePostgres, Workers: 1},
		"zero workers":       {Store: StoreMemory},
		"secret without op":  {Store: StoreMemory, Workers: 1, JWTSecret: "s"},
		"negative token ttl": {Store: StoreMemory, Workers: 1, TokenTTL: -time.Second},
	}
	for name, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want error", name)
		}
	}
}
