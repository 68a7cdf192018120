package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppName != "SokoPay" {
		t.Fatalf("expected default app name, got %q", cfg.AppName)
	}
	if cfg.FulfillmentTimeout != 6*time.Second {
		t.Fatalf("expected 6s fulfillment timeout, got %s", cfg.FulfillmentTimeout)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("expected :8080, got %q", cfg.Address())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("FULFILLMENT_TIMEOUT", "2s")
	t.Setenv("IDEMPOTENCY_TTL_SECONDS", "60")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address() != ":9000" {
		t.Fatalf("expected :9000, got %q", cfg.Address())
	}
	if cfg.FulfillmentTimeout != 2*time.Second {
		t.Fatalf("expected 2s, got %s", cfg.FulfillmentTimeout)
	}
	if cfg.IdempotencyTTL != time.Minute {
		t.Fatalf("expected 1m, got %s", cfg.IdempotencyTTL)
	}
	if len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("expected 2 brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestLoadProductionRequiresDatabase(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("ADMIN_SECRET", "real-secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when production has no DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost:5432/sokopay")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.IsProduction() {
		t.Fatal("expected production mode")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
