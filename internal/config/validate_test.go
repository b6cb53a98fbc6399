package config

import (
	"os"
	"path/filepath"
	"testing"
)

func valid() *Config {
	return &Config{
		Wallbox: WallboxConfig{
			Endpoint:  "192.168.1.50:502",
			UnitID:    255,
			TimeoutMs: 5000,
			Poll:      PollConfig{IntervalMs: 5000},
			Retry:     RetryConfig{Attempts: 3, BackoffMs: 500},
			Keepalive: KeepaliveConfig{Enabled: true, PollMs: 1000},
		},
	}
}

// ---- tests ----

func TestValidate_OK(t *testing.T) {
	if err := Validate(valid()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingEndpoint(t *testing.T) {
	cfg := valid()
	cfg.Wallbox.Endpoint = ""
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected endpoint error, got nil")
	}
}

func TestValidate_BadPollInterval(t *testing.T) {
	cfg := valid()
	cfg.Wallbox.Poll.IntervalMs = 0
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected poll interval error, got nil")
	}
}

func TestValidate_NegativeBackoff(t *testing.T) {
	cfg := valid()
	cfg.Wallbox.Retry.BackoffMs = -1
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected backoff error, got nil")
	}
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := valid()
	cfg.Wallbox.UnitID = 0
	cfg.Wallbox.Retry = RetryConfig{}
	cfg.Wallbox.Keepalive = KeepaliveConfig{Enabled: true}
	cfg.Wallbox.AlertAfterFailures = 0

	Normalize(cfg)

	w := cfg.Wallbox
	if w.UnitID != 255 {
		t.Fatalf("default unit id = %d, want 255", w.UnitID)
	}
	if w.Retry.Attempts != 3 || w.Retry.BackoffMs != 500 {
		t.Fatalf("retry defaults = %+v", w.Retry)
	}
	if w.Keepalive.PollMs != 1000 || w.Keepalive.ErrorBackoffMs != 5000 {
		t.Fatalf("keepalive defaults = %+v", w.Keepalive)
	}
	if w.AlertAfterFailures != 3 {
		t.Fatalf("alert threshold default = %d", w.AlertAfterFailures)
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
wallbox:
  endpoint: "10.0.0.7:502"
  unit_id: 255
  timeout_ms: 3000
  poll:
    interval_ms: 2000
  retry:
    attempts: 5
    backoff_ms: 250
  keepalive:
    enabled: true
    poll_ms: 500
  alert_after_failures: 4
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Wallbox.Endpoint != "10.0.0.7:502" {
		t.Fatalf("endpoint = %q", cfg.Wallbox.Endpoint)
	}
	if cfg.Wallbox.Retry.Attempts != 5 {
		t.Fatalf("attempts = %d", cfg.Wallbox.Retry.Attempts)
	}
	if !cfg.Wallbox.Keepalive.Enabled {
		t.Fatalf("keepalive should be enabled")
	}
}
