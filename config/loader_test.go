package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "env.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
db:
  url: postgres://localhost/monitor
auth:
  secret: 0123456789abcdef0123
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Scheduler.Interval != time.Minute {
		t.Errorf("scheduler.interval = %v, want 1m", cfg.Scheduler.Interval)
	}
	if cfg.Scheduler.Staleness != 60*time.Second {
		t.Errorf("scheduler.staleness = %v, want 60s", cfg.Scheduler.Staleness)
	}
	if cfg.Scheduler.BatchSize != 100 {
		t.Errorf("scheduler.batch_size = %d, want 100", cfg.Scheduler.BatchSize)
	}
	if cfg.Scheduler.Concurrency != 32 {
		t.Errorf("scheduler.concurrency = %d, want 32", cfg.Scheduler.Concurrency)
	}
	if cfg.Endpoint.MinCheckIntervalMs != 60_000 || cfg.Endpoint.MaxCheckIntervalMs != 86_400_000 {
		t.Errorf("unexpected interval bounds: %+v", cfg.Endpoint)
	}
	if cfg.Auth.VerificationExpiry != 24*time.Hour || cfg.Auth.VerifyURL == "" {
		t.Errorf("unexpected verification settings: %+v", cfg.Auth)
	}
	if cfg.Endpoint.MinTimeoutMs != 1_000 || cfg.Endpoint.MaxTimeoutMs != 30_000 {
		t.Errorf("unexpected timeout bounds: %+v", cfg.Endpoint)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
db:
  url: postgres://localhost/monitor
auth:
  secret: 0123456789abcdef0123
`)
	t.Setenv("SCHEDULER_BATCH_SIZE", "25")
	t.Setenv("SCHEDULER_INTERVAL", "30s")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Scheduler.BatchSize != 25 {
		t.Errorf("batch size = %d, want 25", cfg.Scheduler.BatchSize)
	}
	if cfg.Scheduler.Interval != 30*time.Second {
		t.Errorf("interval = %v, want 30s", cfg.Scheduler.Interval)
	}
}

func TestLoadConfig_MissingSecretIsFatal(t *testing.T) {
	path := writeConfig(t, `
db:
  url: postgres://localhost/monitor
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error for missing auth secret")
	}
	if !strings.Contains(err.Error(), "Secret") {
		t.Errorf("error should name the secret field, got %q", err)
	}
}

func TestLoadConfig_InvalidBounds(t *testing.T) {
	path := writeConfig(t, `
db:
  url: postgres://localhost/monitor
auth:
  secret: 0123456789abcdef0123
endpoint:
  min_timeout_ms: 5000
  max_timeout_ms: 1000
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error when max timeout < min timeout")
	}
}
