package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Driver != StorageDriverMemory {
		t.Errorf("Storage.Driver = %q, want memory", cfg.Storage.Driver)
	}
	if cfg.Matching.TopK != 3 {
		t.Errorf("Matching.TopK = %d, want 3", cfg.Matching.TopK)
	}
	if cfg.Matching.PendingTTL != 0 {
		t.Errorf("Matching.PendingTTL = %v, want disabled", cfg.Matching.PendingTTL)
	}
	if cfg.Redis.Enabled || cfg.Kafka.Enabled {
		t.Error("redis and kafka must be disabled by default")
	}
}

func TestLoadMatchingOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("MATCH_TOP_K", "5")
	t.Setenv("MATCH_WEIGHT_PROXIMITY", "0")
	t.Setenv("MATCH_PENDING_TTL", "72h")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	scoring := cfg.Matching.Scoring()
	if scoring.TopK != 5 || scoring.Weights.Proximity != 0 {
		t.Errorf("Scoring() = %+v", scoring)
	}
	if cfg.Matching.PendingTTL != 72*time.Hour {
		t.Errorf("PendingTTL = %v", cfg.Matching.PendingTTL)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown storage driver", env: map[string]string{"STORAGE_DRIVER": "sqlite"}},
		{name: "top k zero", env: map[string]string{"STORAGE_DRIVER": "memory", "MATCH_TOP_K": "0"}},
		{name: "negative weight", env: map[string]string{"STORAGE_DRIVER": "memory", "MATCH_WEIGHT_URGENCY": "-1"}},
		{name: "all weights zero", env: map[string]string{
			"STORAGE_DRIVER":           "memory",
			"MATCH_WEIGHT_TAG_OVERLAP": "0",
			"MATCH_WEIGHT_URGENCY":     "0",
			"MATCH_WEIGHT_PROXIMITY":   "0",
		}},
		{name: "default secret in production", env: map[string]string{"STORAGE_DRIVER": "memory", "APP_ENV": "production"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load() expected error")
			}
		})
	}
}

func TestPostgresConnectionString(t *testing.T) {
	cfg := &PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	want := "host=db port=5433 user=u password=p dbname=d sslmode=disable TimeZone=UTC"
	if got := cfg.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}

	cfg.DSN = "postgres://x"
	if got := cfg.ConnectionString(); got != "postgres://x" {
		t.Errorf("ConnectionString() with DSN = %q", got)
	}
}
