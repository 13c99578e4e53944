package config

import (
	"testing"
	"time"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("PROPDESK_PG_DSN", "postgres://localhost/propdesk")
	t.Setenv("PROPDESK_AUTH_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error when PROPDESK_AUTH_SECRET is unset")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROPDESK_PG_DSN", "postgres://localhost/propdesk")
	t.Setenv("PROPDESK_AUTH_SECRET", "config-test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("unexpected port: %q", cfg.Port)
	}
	if cfg.TokenTTL != 168*time.Hour {
		t.Fatalf("unexpected ttl: %v", cfg.TokenTTL)
	}
	if cfg.Production() {
		t.Fatal("default environment must not be production")
	}
	if cfg.HTTPAddress() != ":8080" {
		t.Fatalf("unexpected address: %q", cfg.HTTPAddress())
	}
}

func TestLoadProduction(t *testing.T) {
	t.Setenv("PROPDESK_PG_DSN", "postgres://localhost/propdesk")
	t.Setenv("PROPDESK_AUTH_SECRET", "config-test-secret")
	t.Setenv("PROPDESK_ENV", "Production")
	t.Setenv("PROPDESK_TOKEN_TTL_HOURS", "24")
	t.Setenv("PROPDESK_CORS_ORIGINS", "https://app.propdesk.example, https://admin.propdesk.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Production() {
		t.Fatal("expected production environment")
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl: %v", cfg.TokenTTL)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("unexpected origins: %v", cfg.CORSOrigins)
	}
}
