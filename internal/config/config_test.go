package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Name != "dispatch-service" {
		t.Fatalf("App.Name = %q", cfg.App.Name)
	}
	if cfg.Schedule.DefaultDurationMinutes != 120 {
		t.Fatalf("DefaultDurationMinutes = %d, want 120", cfg.Schedule.DefaultDurationMinutes)
	}
	if cfg.Schedule.ConflictMapTTL() != 30*time.Second {
		t.Fatalf("ConflictMapTTL = %v", cfg.Schedule.ConflictMapTTL())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SCHEDULE_DEFAULT_DURATION_MINUTES", "90")
	t.Setenv("SCHEDULE_CONFLICT_MAP_TTL_SECONDS", "0")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule.DefaultDuration() != 90*time.Minute {
		t.Fatalf("DefaultDuration = %v", cfg.Schedule.DefaultDuration())
	}
	if cfg.Schedule.ConflictMapTTL() != 0 {
		t.Fatalf("ConflictMapTTL = %v, want 0 (caching disabled)", cfg.Schedule.ConflictMapTTL())
	}
	if cfg.App.RequestTimeout() != 5*time.Second {
		t.Fatalf("RequestTimeout = %v", cfg.App.RequestTimeout())
	}
}

func TestLoadRejectsInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid REDIS_DB")
	}
}
