// Copyright 2026 The Sbtlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for sbtlink.
//
// Configuration is optional — the bridge runs with built-in defaults
// inside any sbt build. A YAML file can override the defaults; it is
// specified by:
//   - SBTLINK_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no other sources and no automatic discovery of the config
// file itself. This keeps configuration deterministic with no hidden
// overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the bridge configuration.
type Config struct {
	// LogLevel is the minimum severity logged to stderr: "debug",
	// "info", "warn", or "error". The SBTLINK_DEBUG environment
	// variable and the --log-level flag override it.
	LogLevel string `yaml:"log_level"`

	// ServerURI connects to a fixed server address instead of
	// discovering one through active.json. Empty enables discovery.
	ServerURI string `yaml:"server_uri"`

	// ConnectTimeout bounds connection establishment, as a Go
	// duration string (e.g. "10s"). Empty or "0" means no timeout.
	ConnectTimeout string `yaml:"connect_timeout"`

	// Discovery configures the connection-file search.
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// DiscoveryConfig configures the active.json ancestor walk.
type DiscoveryConfig struct {
	// StartDir is the directory the walk starts from.
	// Default: the process working directory.
	StartDir string `yaml:"start_dir"`

	// File is the connection file's path relative to each candidate
	// directory. Default: project/target/active.json.
	File string `yaml:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		ConnectTimeout: "10s",
	}
}

// Load loads configuration from the SBTLINK_CONFIG environment
// variable, or returns defaults when it is not set.
func Load() (*Config, error) {
	path := os.Getenv("SBTLINK_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, applies
// ${VAR} expansion to path-like fields, and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in the
// fields that commonly carry paths, for portability across machines.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.ServerURI = expandVars(c.ServerURI, vars)
	c.Discovery.StartDir = expandVars(c.Discovery.StartDir, vars)
	c.Discovery.File = expandVars(c.Discovery.File, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log_level %q (want debug, info, warn, or error)", c.LogLevel))
	}

	if c.ConnectTimeout != "" {
		if _, err := time.ParseDuration(c.ConnectTimeout); err != nil {
			errs = append(errs, fmt.Errorf("invalid connect_timeout %q: %v", c.ConnectTimeout, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Level returns the slog level for LogLevel. Unknown values (rejected
// by Validate) map to Info.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Timeout returns the parsed ConnectTimeout. Values rejected by
// Validate return zero (no timeout).
func (c *Config) Timeout() time.Duration {
	if c.ConnectTimeout == "" {
		return 0
	}
	timeout, err := time.ParseDuration(c.ConnectTimeout)
	if err != nil {
		return 0
	}
	return timeout
}
