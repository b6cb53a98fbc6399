package config

import "fmt"

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	w := cfg.Wallbox

	if w.Endpoint == "" {
		return fmt.Errorf("wallbox: endpoint is required")
	}
	if w.TimeoutMs < 0 {
		return fmt.Errorf("wallbox: timeout_ms must be >= 0")
	}
	if w.Poll.IntervalMs <= 0 {
		return fmt.Errorf("wallbox: poll.interval_ms must be > 0")
	}
	if w.Retry.Attempts < 0 {
		return fmt.Errorf("wallbox: retry.attempts must be >= 0")
	}
	if w.Retry.BackoffMs < 0 {
		return fmt.Errorf("wallbox: retry.backoff_ms must be >= 0")
	}
	if w.Keepalive.Enabled && w.Keepalive.PollMs < 0 {
		return fmt.Errorf("wallbox: keepalive.poll_ms must be >= 0")
	}
	if w.AlertAfterFailures < 0 {
		return fmt.Errorf("wallbox: alert_after_failures must be >= 0")
	}

	return nil
}

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	w := &cfg.Wallbox

	if w.UnitID == 0 {
		w.UnitID = 255
	}
	if w.TimeoutMs == 0 {
		w.TimeoutMs = 5000
	}
	if w.Retry.Attempts == 0 {
		w.Retry.Attempts = 3
	}
	if w.Retry.BackoffMs == 0 {
		w.Retry.BackoffMs = 500
	}
	if w.Keepalive.PollMs == 0 {
		w.Keepalive.PollMs = 1000
	}
	if w.Keepalive.ErrorBackoffMs == 0 {
		w.Keepalive.ErrorBackoffMs = 5000
	}
	if w.AlertAfterFailures == 0 {
		w.AlertAfterFailures = 3
	}
}
