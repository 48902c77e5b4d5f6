package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("EXPIRY_CRITICAL_DAYS", "")
	t.Setenv("EXPIRY_WARNING_DAYS", "")
	t.Setenv("SUMMARY_TTL_SECONDS", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.ExpiryCriticalDays != 7 || cfg.ExpiryWarningDays != 30 {
		t.Fatalf("expiry windows = %d/%d, want 7/30", cfg.ExpiryCriticalDays, cfg.ExpiryWarningDays)
	}
	if cfg.SummaryTTLSeconds != 30 {
		t.Fatalf("SummaryTTLSeconds = %d, want 30", cfg.SummaryTTLSeconds)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("Address() = %q, want :8080", cfg.Address())
	}
}

func TestLoadRejectsInvertedExpiryWindows(t *testing.T) {
	t.Setenv("EXPIRY_CRITICAL_DAYS", "10")
	t.Setenv("EXPIRY_WARNING_DAYS", "5")

	cfg := Load()
	if cfg.ExpiryCriticalDays != 10 {
		t.Fatalf("ExpiryCriticalDays = %d, want 10", cfg.ExpiryCriticalDays)
	}
	if cfg.ExpiryWarningDays != 30 {
		t.Fatalf("warning window narrower than critical should fall back to 30, got %d", cfg.ExpiryWarningDays)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "60")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.AccessTokenTTLMinutes != 60 {
		t.Fatalf("AccessTokenTTLMinutes = %d, want 60", cfg.AccessTokenTTLMinutes)
	}
}
