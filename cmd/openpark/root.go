package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the OpenPark CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openpark",
		Short: "OpenPark - A scriptable park simulation",
		Long: `OpenPark is a park simulation engine with an embedded Lua
scripting host, hot-reloadable plugins, and an interactive console.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewValidateConfigCmd())

	return cmd
}
