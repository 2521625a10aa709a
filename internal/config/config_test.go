package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadParsesKafkaBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " broker-1:9092, broker-2:9092 ,")

	cfg := Load()
	if len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("expected 2 brokers, got %v", cfg.KafkaBrokers)
	}
	if cfg.KafkaBrokers[0] != "broker-1:9092" || cfg.KafkaBrokers[1] != "broker-2:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}

	t.Setenv("KAFKA_BROKERS", "")
	cfg = Load()
	if cfg.KafkaBrokers != nil {
		t.Fatalf("expected nil brokers when unset, got %v", cfg.KafkaBrokers)
	}
}
