// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpark/openpark/internal/config"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openpark.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "OpenPark", cfg.Park.Name)
	assert.Equal(t, 25, cfg.Park.TickMs)
	assert.True(t, cfg.Plugin.EnableHotReloading)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
park:
  name: Thunder Gardens
  tick_ms: 40
plugin:
  dir: /opt/plugins
  enable_hot_reloading: false
log:
  format: json
`)

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "Thunder Gardens", cfg.Park.Name)
	assert.Equal(t, 40, cfg.Park.TickMs)
	assert.Equal(t, "/opt/plugins", cfg.Plugin.Dir)
	assert.False(t, cfg.Plugin.EnableHotReloading)
	assert.Equal(t, "json", cfg.Log.Format)
	// Untouched sections keep defaults.
	assert.Equal(t, "", cfg.Metrics.Addr)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, `
park:
  name: File Park
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("park.name", "OpenPark", "")
	require.NoError(t, flags.Set("park.name", "Flag Park"))

	cfg, err := config.Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "Flag Park", cfg.Park.Name)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
}

func TestLoad_SchemaRejectsWrongTypes(t *testing.T) {
	path := writeConfigFile(t, `
park:
  tick_ms: "not a number"
`)

	_, err := config.Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config file")
}

func TestLoad_SchemaRejectsBadEnum(t *testing.T) {
	path := writeConfigFile(t, `
log:
  format: xml
`)

	_, err := config.Load(path, nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "bad log format",
			mutate:  func(c *config.Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
		{
			name:    "non-positive tick",
			mutate:  func(c *config.Config) { c.Park.TickMs = 0 },
			wantErr: "tick_ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
