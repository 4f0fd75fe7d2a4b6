// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, SchemaID(), schema["$id"])
	assert.Equal(t, "OpenPark Configuration", schema["title"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "park")
	assert.Contains(t, props, "plugin")
	assert.Contains(t, props, "log")
	assert.Contains(t, props, "metrics")
}

func TestValidateSchema_AcceptsValidConfig(t *testing.T) {
	err := ValidateSchema([]byte(`
park:
  name: Test Park
  tick_ms: 25
log:
  format: text
`))
	assert.NoError(t, err)
}

func TestValidateSchema_RejectsEmpty(t *testing.T) {
	assert.Error(t, ValidateSchema(nil))
}

func TestValidateSchema_RejectsInvalidYAML(t *testing.T) {
	err := ValidateSchema([]byte("park: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid YAML")
}

func TestValidateSchema_RejectsTickBelowMinimum(t *testing.T) {
	err := ValidateSchema([]byte(`
park:
  tick_ms: 0
`))
	assert.Error(t, err)
}

func TestFormatSchemaError(t *testing.T) {
	assert.Equal(t, "", FormatSchemaError(nil))

	err := ValidateSchema([]byte(`
log:
  format: xml
`))
	require.Error(t, err)
	msg := FormatSchemaError(err)
	assert.NotEmpty(t, msg)
	assert.NotContains(t, msg, "schema validation failed: ")
}
