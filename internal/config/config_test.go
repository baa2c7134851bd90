package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("AUTH_PRIVATE_KEY_PATH", "/keys/private.pem")
	t.Setenv("AUTH_PUBLIC_KEY_PATH", "/keys/public.pem")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.API.Port)
	}
	if cfg.Listing.ExpiryWindow != 7*24*time.Hour {
		t.Fatalf("expected 7 day expiry window, got %s", cfg.Listing.ExpiryWindow)
	}
	if cfg.Notify.Mode != "direct" {
		t.Fatalf("expected direct notify mode, got %q", cfg.Notify.Mode)
	}
	if cfg.SMTP.Port != 587 {
		t.Fatalf("expected smtp port 587, got %d", cfg.SMTP.Port)
	}
	if cfg.API.StrictStatusFilter {
		t.Fatal("strict status filter must default to false")
	}
	if cfg.Worker.Concurrency != 10 || cfg.Worker.MetricsPort != 9091 {
		t.Fatalf("unexpected worker defaults %+v", cfg.Worker)
	}
	if cfg.Listing.SweepCron != "@every 15m" || !cfg.Listing.SweepOnRead {
		t.Fatalf("unexpected listing defaults %+v", cfg.Listing)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LISTING_EXPIRY_WINDOW", "72h")
	t.Setenv("API_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("API_ENFORCE_PAYMENT_PROOF", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listing.ExpiryWindow != 72*time.Hour {
		t.Fatalf("expected 72h, got %s", cfg.Listing.ExpiryWindow)
	}
	if len(cfg.API.AllowedOrigins) != 2 || cfg.API.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.API.AllowedOrigins)
	}
	if !cfg.API.EnforcePaymentProof {
		t.Fatal("expected payment proof enforcement")
	}
}

func TestLoadRejectsUnknownNotifyMode(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("NOTIFY_MODE", "pigeon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown notify mode")
	}
}

func TestDisabledNotifyDoesNotNeedSMTP(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMTP_HOST", "")
	t.Setenv("NOTIFY_MODE", "disabled")

	if _, err := Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
}
