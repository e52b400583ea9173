package cmd

import (
	"github.com/spf13/cobra"
)

// ConfigCmd is the top-level config command.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and save pkgdoctor configuration",
	Long: `Provides commands for inspecting and saving the effective configuration.

Configuration is read from, in increasing order of precedence:
  - Built-in defaults
  - The config file ($XDG_CONFIG_HOME/pkgdoctor/config.toml or --config)
  - NPM_CONFIG_* environment variables
  - Command-line flags

Examples:
  # Show the effective configuration
  pkgdoctor config show

  # Show it as JSON, including derived paths
  pkgdoctor config show --json --paths

  # Save flag settings to the config file
  pkgdoctor --registry https://npm.example.com/ config init`,
}

// GetConfigCmd returns the ConfigCmd for testing.
func GetConfigCmd() *cobra.Command {
	return ConfigCmd
}
