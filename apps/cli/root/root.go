package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the VetCare admin CLI. Subcommands
// (bootstrap, plans, tenant) are attached here.
var rootCmd = &cobra.Command{
	Use:           "vetcare",
	Short:         "VetCare admin CLI",
	Long:          "Administrative utilities for VetCare (schema bootstrap, plan seeding, tenant management).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
