// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

// Package config loads the simulator's configuration using Koanf v2 with
// layered sources: built-in defaults, an optional YAML file, then
// environment variables (highest priority).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the full simulator configuration.
type Config struct {
	Logging  LoggingConfig  `koanf:"logging"`
	Tracker  TrackerConfig  `koanf:"tracker"`
	Server   ServerConfig   `koanf:"server"`
	Scenario ScenarioConfig `koanf:"scenario"`
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

// TrackerConfig configures the tracker under simulation.
type TrackerConfig struct {
	// CustomerKey authenticates against the collector. Required when a
	// gateway URL is set.
	CustomerKey string `koanf:"customer_key"`

	// GatewayURL selects the HTTP gateway backend. Empty selects the
	// in-memory recorder (dry-run mode).
	GatewayURL string `koanf:"gateway_url" validate:"omitempty,url"`

	// DebugLogging opens the tracker's debug log stream.
	DebugLogging bool `koanf:"debug_logging"`

	// PlayerName is the player product name registered with the backend.
	PlayerName string `koanf:"player_name"`

	// StallDebounce is the buffering debounce window.
	StallDebounce time.Duration `koanf:"stall_debounce"`
}

// ServerConfig configures the operational HTTP endpoints.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=0,max=65535"`
	Timeout time.Duration `koanf:"timeout"`
}

// ScenarioConfig selects the playback script the simulator drives.
type ScenarioConfig struct {
	Name string `koanf:"name" validate:"oneof=basic preroll-reorder stall error"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Tracker: TrackerConfig{
			CustomerKey:   "",
			GatewayURL:    "", // Dry-run against the recorder by default
			DebugLogging:  true,
			PlayerName:    "bitmovin-player",
			StallDebounce: 100 * time.Millisecond,
		},
		Server: ServerConfig{
			Host:    "127.0.0.1",
			Port:    9464,
			Timeout: 10 * time.Second,
		},
		Scenario: ScenarioConfig{
			Name: "basic",
		},
	}
}

// Validate checks that the configuration is coherent.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if c.Tracker.GatewayURL != "" && c.Tracker.CustomerKey == "" {
		return fmt.Errorf("tracker.customer_key is required when tracker.gateway_url is set")
	}
	if c.Tracker.StallDebounce < 0 {
		return fmt.Errorf("tracker.stall_debounce must not be negative")
	}
	return nil
}
