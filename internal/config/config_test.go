package config

import "testing"

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Storage.KeyPrefix != "prodsim:" {
		t.Errorf("KeyPrefix = %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Snapshot.TTLSec != 3600 {
		t.Errorf("Snapshot.TTLSec = %d", cfg.Snapshot.TTLSec)
	}
	if cfg.Search.DefaultCount != 10 || cfg.Search.MaxCount != 20 {
		t.Errorf("count defaults = %d/%d", cfg.Search.DefaultCount, cfg.Search.MaxCount)
	}
	if cfg.Search.DefaultMinScore == nil || *cfg.Search.DefaultMinScore != 0.5 {
		t.Errorf("DefaultMinScore = %v", cfg.Search.DefaultMinScore)
	}
	if len(cfg.Search.SortKeys) != 2 || len(cfg.Search.SortDirections) != 2 {
		t.Fatalf("sort defaults = %v / %v", cfg.Search.SortKeys, cfg.Search.SortDirections)
	}
	if cfg.Search.SortKeys[0] != "score" || cfg.Search.SortDirections[0] != "desc" {
		t.Errorf("first sort key = %s %s", cfg.Search.SortKeys[0], cfg.Search.SortDirections[0])
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_SortLengthMismatch(t *testing.T) {
	cfg := validConfig()
	cfg.Search.SortKeys = []string{"score", "price"}
	cfg.Search.SortDirections = []string{"desc"}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for mismatched sort lists")
	}
}

func TestValidate_UnknownSortKey(t *testing.T) {
	cfg := validConfig()
	cfg.Search.SortKeys = []string{"popularity"}
	cfg.Search.SortDirections = []string{"desc"}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown sort key")
	}
}

func TestValidate_MinScoreOutOfRange(t *testing.T) {
	cfg := validConfig()
	bad := 1.5
	cfg.Search.DefaultMinScore = &bad

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for min score out of range")
	}
}

func TestValidate_DefaultCountAboveMax(t *testing.T) {
	cfg := validConfig()
	cfg.Search.DefaultCount = 50
	cfg.Search.MaxCount = 20

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default_count above max_count")
	}
}
