// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default log level info, got %q", cfg.Logging.Level)
	}
	if cfg.Tracker.PlayerName != "bitmovin-player" {
		t.Errorf("Expected default player name, got %q", cfg.Tracker.PlayerName)
	}
	if cfg.Tracker.StallDebounce != 100*time.Millisecond {
		t.Errorf("Expected 100ms default debounce, got %v", cfg.Tracker.StallDebounce)
	}
	if cfg.Tracker.GatewayURL != "" {
		t.Errorf("Expected dry-run default (no gateway URL), got %q", cfg.Tracker.GatewayURL)
	}
	if cfg.Server.Port != 9464 {
		t.Errorf("Expected default port 9464, got %d", cfg.Server.Port)
	}
	if cfg.Scenario.Name != "basic" {
		t.Errorf("Expected default scenario basic, got %q", cfg.Scenario.Name)
	}
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: debug
tracker:
  customer_key: ck-yaml
  gateway_url: https://collector.example.com
  stall_debounce: 250ms
scenario:
  name: stall
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected file log level, got %q", cfg.Logging.Level)
	}
	if cfg.Tracker.GatewayURL != "https://collector.example.com" {
		t.Errorf("Expected file gateway URL, got %q", cfg.Tracker.GatewayURL)
	}
	if cfg.Tracker.StallDebounce != 250*time.Millisecond {
		t.Errorf("Expected 250ms debounce from file, got %v", cfg.Tracker.StallDebounce)
	}
	if cfg.Scenario.Name != "stall" {
		t.Errorf("Expected scenario from file, got %q", cfg.Scenario.Name)
	}
	// File does not override untouched defaults.
	if cfg.Server.Port != 9464 {
		t.Errorf("Expected default port preserved, got %d", cfg.Server.Port)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("scenario:\n  name: basic\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("PLAYTRACE_SCENARIO_NAME", "error")
	t.Setenv("PLAYTRACE_SERVER_PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scenario.Name != "error" {
		t.Errorf("Expected env to beat file, got %q", cfg.Scenario.Name)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Expected env port, got %d", cfg.Server.Port)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"PLAYTRACE_LOGGING_LEVEL", "logging.level"},
		{"PLAYTRACE_TRACKER_GATEWAY_URL", "tracker.gateway_url"},
		{"PLAYTRACE_TRACKER_CUSTOMER_KEY", "tracker.customer_key"},
		{"PLAYTRACE_SERVER_PORT", "server.port"},
		{"PLAYTRACE_SCENARIO_NAME", "scenario.name"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := envTransformFunc(tt.input)
			if result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestValidateRejectsGatewayWithoutCustomerKey(t *testing.T) {
	cfg := defaultConfig()
	cfg.Tracker.GatewayURL = "https://collector.example.com"

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for gateway URL without customer key")
	}

	cfg.Tracker.CustomerKey = "ck-1"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad gateway URL", func(c *Config) {
			c.Tracker.GatewayURL = "not a url"
			c.Tracker.CustomerKey = "ck-1"
		}},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown scenario", func(c *Config) { c.Scenario.Name = "chaos" }},
		{"negative debounce", func(c *Config) { c.Tracker.StallDebounce = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}
