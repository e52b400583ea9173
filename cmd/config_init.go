package cmd

import (
	"fmt"
	"os"

	"github.com/PolarWolf314/pkgdoctor/internal/configs"
	"github.com/PolarWolf314/pkgdoctor/internal/ui"

	"github.com/spf13/cobra"
)

var configInitForce bool

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing config file")
	ConfigCmd.AddCommand(configInitCmd)
}

// resetConfigInitState resets the config init command's global state for testing.
func resetConfigInitState() {
	configInitForce = false
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the effective configuration to a config file",
	Long: `Writes the configuration a doctor run would use to a TOML file, so
settings passed as flags or environment variables can be kept.

The file is written to path, the --config file, or
$XDG_CONFIG_HOME/pkgdoctor/config.toml, in that order. The registry token
and the project prefix are never written.

Examples:
  # Save the current registry and proxy settings
  pkgdoctor --registry https://npm.example.com/ config init

  # Replace an existing file
  pkgdoctor config init --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting config init command")

	path := configPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		path = configs.DefaultConfigPath()
	}
	if path == "" {
		return fmt.Errorf("no config directory found, pass a path")
	}
	Logger.Debugf("Writing config to %s (force=%t)", path, configInitForce)

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists, use --force to overwrite it", path)
	}

	cfg := *Config
	cfg.Token = ""
	// The prefix is found from the working directory on every run.
	cfg.Prefix = ""
	if err := configs.SaveTOML(path, &cfg); err != nil {
		return Logger.ErrorfAndReturn("Failed to write config file: %v", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Sprint("✓")+" Wrote configuration to "+ui.Path.Sprint(path))
	return nil
}
