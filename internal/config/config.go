// Package config loads and validates the wallboxd YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Wallbox WallboxConfig `yaml:"wallbox"`
}

// ---- WALLBOX ----

type WallboxConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`

	Poll      PollConfig      `yaml:"poll"`
	Retry     RetryConfig     `yaml:"retry"`
	Keepalive KeepaliveConfig `yaml:"keepalive"`

	// AlertAfterFailures is how many consecutive terminal poll
	// failures are tolerated before the daemon logs an alert.
	AlertAfterFailures int `yaml:"alert_after_failures"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// ---- RETRY ----

type RetryConfig struct {
	Attempts  int `yaml:"attempts"`
	BackoffMs int `yaml:"backoff_ms"`
}

// ---- KEEPALIVE ----

type KeepaliveConfig struct {
	Enabled        bool `yaml:"enabled"`
	PollMs         int  `yaml:"poll_ms"`
	ErrorBackoffMs int  `yaml:"error_backoff_ms"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
