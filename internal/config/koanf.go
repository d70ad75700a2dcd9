// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for all environment variable overrides.
const EnvPrefix = "PLAYTRACE_"

// ConfigPathEnvVar overrides config file discovery with an explicit path.
const ConfigPathEnvVar = "PLAYTRACE_CONFIG"

// DefaultConfigPaths are searched in order when no explicit path is set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/playtrace/config.yaml",
	"/etc/playtrace/config.yml",
}

// Load builds the configuration from layered sources with the precedence
// ENV > file > defaults, then validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// PLAYTRACE_TRACKER_GATEWAY_URL -> tracker.gateway_url
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the config file to load, or "" when none exists.
// The ConfigPathEnvVar always wins; a missing explicit path is an error
// surfaced by the file provider later, but here we simply pass it through.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
// The first underscore after the prefix separates the section from the key:
//
//   - PLAYTRACE_LOGGING_LEVEL -> logging.level
//   - PLAYTRACE_TRACKER_GATEWAY_URL -> tracker.gateway_url
//   - PLAYTRACE_SERVER_PORT -> server.port
//   - PLAYTRACE_SCENARIO_NAME -> scenario.name
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return section
	}
	return section + "." + rest
}
