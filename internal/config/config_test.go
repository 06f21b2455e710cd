package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ServerPort == "" {
		t.Error("expected default server port")
	}
	if cfg.JWTExpiry <= 0 {
		t.Error("expected positive JWT expiry")
	}
	if cfg.BcryptCost < 4 {
		t.Errorf("bcrypt cost %d below bcrypt minimum", cfg.BcryptCost)
	}
	if cfg.UploadDir == "" {
		t.Error("expected default upload dir")
	}
	if cfg.MaxUploadBytes != 10*1024*1024 {
		t.Errorf("expected 10MB default upload cap, got %d", cfg.MaxUploadBytes)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT_KEY", "42")
	if got := getEnvInt("TEST_INT_KEY", 7); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}

	t.Setenv("TEST_INT_KEY", "not-a-number")
	if got := getEnvInt("TEST_INT_KEY", 7); got != 7 {
		t.Errorf("expected fallback 7, got %d", got)
	}

	if got := getEnvInt("TEST_INT_KEY_MISSING", 7); got != 7 {
		t.Errorf("expected fallback 7 for missing key, got %d", got)
	}
}

func TestJWTExpiryFromEnv(t *testing.T) {
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	cfg := Load()
	if cfg.JWTExpiry != 2*time.Hour {
		t.Errorf("expected 2h expiry, got %s", cfg.JWTExpiry)
	}
}

func TestCacheKeys(t *testing.T) {
	if got := CacheKey.UserSessionKey(7); got != "login:7" {
		t.Errorf("unexpected session key %q", got)
	}
	if got := CacheKey.QuizPayloadKey("abc"); got != "quiz:abc:payload" {
		t.Errorf("unexpected payload key %q", got)
	}
	if got := CacheKey.UserActiveAttemptKey(7); got != "user:7:active_attempt" {
		t.Errorf("unexpected active attempt key %q", got)
	}
}
