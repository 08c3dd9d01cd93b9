package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_URL", "https://school-rtdb.example.com/")
	t.Setenv("STORE_TIMEOUT_SECONDS", "")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("JWT_EXPIRY_HOURS", "")
	t.Setenv("ROSTER_REFRESH_SECONDS", "")

	cfg := Load()
	if cfg.StoreURL != "https://school-rtdb.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.StoreURL)
	}
	if cfg.StoreTimeout != 0 {
		t.Fatalf("expected no store timeout by default, got %s", cfg.StoreTimeout)
	}
	if cfg.SessionBackend != SessionBackendRedis {
		t.Fatalf("expected redis session backend, got %q", cfg.SessionBackend)
	}
	if cfg.JWTExpiry != 12*time.Hour {
		t.Fatalf("expected 12h expiry, got %s", cfg.JWTExpiry)
	}
	if cfg.RosterRefresh != 0 {
		t.Fatalf("expected roster refresh disabled, got %s", cfg.RosterRefresh)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_TIMEOUT_SECONDS", "15")
	t.Setenv("JWT_EXPIRY_HOURS", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	if cfg.StoreTimeout != 15*time.Second {
		t.Fatalf("expected 15s timeout, got %s", cfg.StoreTimeout)
	}
	if cfg.JWTExpiry != 12*time.Hour {
		t.Fatalf("invalid int should fall back, got %s", cfg.JWTExpiry)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://a.example" || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %#v", cfg.AllowedOrigins)
	}
}

func TestTeacherSessionKey(t *testing.T) {
	if got := CacheKey.TeacherSessionKey("uid-1"); got != "rollbook:session:uid-1" {
		t.Fatalf("unexpected key %q", got)
	}
}
