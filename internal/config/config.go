// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

// Package config loads and validates the OpenPark configuration.
package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config is the complete OpenPark configuration.
type Config struct {
	Park    ParkConfig    `koanf:"park" json:"park,omitempty"`
	Plugin  PluginConfig  `koanf:"plugin" json:"plugin,omitempty"`
	Log     LogConfig     `koanf:"log" json:"log,omitempty"`
	Metrics MetricsConfig `koanf:"metrics" json:"metrics,omitempty"`
}

// ParkConfig configures the simulation.
type ParkConfig struct {
	Name   string `koanf:"name" json:"name,omitempty"`
	TickMs int    `koanf:"tick_ms" json:"tick_ms,omitempty" jsonschema:"minimum=1"`
}

// PluginConfig configures the scripting host.
type PluginConfig struct {
	// Dir overrides the XDG plugin directory when set.
	Dir                string `koanf:"dir" json:"dir,omitempty"`
	EnableHotReloading bool   `koanf:"enable_hot_reloading" json:"enable_hot_reloading,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
}

// MetricsConfig configures the observability server.
type MetricsConfig struct {
	// Addr is the metrics/health listen address; empty disables the server.
	Addr string `koanf:"addr" json:"addr,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Park:    ParkConfig{Name: "OpenPark", TickMs: 25},
		Plugin:  PluginConfig{EnableHotReloading: true},
		Log:     LogConfig{Format: "text"},
		Metrics: MetricsConfig{Addr: ""},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and flag overrides, in that precedence order. A missing file path is
// an error; an empty path skips the file layer.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path comes from the --config flag
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := ValidateSchema(data); err != nil {
			return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks configuration constraints.
func (c *Config) Validate() error {
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if c.Park.TickMs <= 0 {
		return fmt.Errorf("park.tick_ms must be positive, got %d", c.Park.TickMs)
	}
	return nil
}
