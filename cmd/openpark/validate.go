// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openpark/openpark/internal/config"
)

// NewValidateConfigCmd creates the validate-config subcommand.
func NewValidateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config <file>",
		Short: "Validate a configuration file against the schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path) //nolint:gosec // path is a user-supplied argument
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			if err := config.ValidateSchema(data); err != nil {
				return fmt.Errorf("%s is invalid:\n%s", path, config.FormatSchemaError(err))
			}

			if _, err := config.Load(path, nil); err != nil {
				return err
			}

			cmd.Printf("%s is valid\n", path)
			return nil
		},
	}
}
