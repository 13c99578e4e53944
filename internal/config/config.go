package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	AuthSecret  string
	TokenTTL    time.Duration
	CORSOrigins []string
}

// Load reads configuration from the environment and performs minimal
// validation. A missing auth secret is a hard error: starting without one
// would make every issued token unverifiable after a restart.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PROPDESK_PORT"), "8080"),
		Environment: fallback(os.Getenv("PROPDESK_ENV"), "development"),
		DatabaseURL: strings.TrimSpace(os.Getenv("PROPDESK_PG_DSN")),
		AuthSecret:  strings.TrimSpace(os.Getenv("PROPDESK_AUTH_SECRET")),
		CORSOrigins: parseCSV(fallback(os.Getenv("PROPDESK_CORS_ORIGINS"), "*")),
	}

	hours := fallback(os.Getenv("PROPDESK_TOKEN_TTL_HOURS"), "168")
	if ttlHours, err := strconv.Atoi(hours); err == nil && ttlHours > 0 {
		cfg.TokenTTL = time.Duration(ttlHours) * time.Hour
	} else {
		cfg.TokenTTL = 168 * time.Hour
	}

	if cfg.AuthSecret == "" {
		return Config{}, errors.New("PROPDESK_AUTH_SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("PROPDESK_PG_DSN is required")
	}

	return cfg, nil
}

// Production reports whether the service runs with production hardening
// (secure cookies, no permissive CORS fallback).
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
