// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_HasSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "validate-config")
}

func TestValidateConfig_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openpark.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
park:
  name: Valid Park
  tick_ms: 25
`), 0o644))

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"validate-config", path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "is valid")
}

func TestValidateConfig_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openpark.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  format: xml
`), 0o644))

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"validate-config", path})

	require.Error(t, cmd.Execute())
}

func TestValidateConfig_MissingFile(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"validate-config", filepath.Join(t.TempDir(), "absent.yaml")})

	require.Error(t, cmd.Execute())
}
