package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("KMEANS_SEED", "")
	t.Setenv("MAPS_RATE_LIMIT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StoreDriver != DriverSqlite {
		t.Fatalf("driver = %q, want sqlite", cfg.StoreDriver)
	}
	if cfg.KMeansSeed != 101 {
		t.Fatalf("seed = %d, want 101", cfg.KMeansSeed)
	}
	if cfg.MapsRateLimit != 10 {
		t.Fatalf("rate = %v, want 10", cfg.MapsRateLimit)
	}
}

func TestLoadPostgresRequiresURL(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
