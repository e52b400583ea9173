package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/PolarWolf314/pkgdoctor/internal/configs"
	"github.com/PolarWolf314/pkgdoctor/internal/ui"

	"github.com/spf13/cobra"
)

var (
	configShowJSON  bool
	configShowPaths bool
)

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")
	configShowCmd.Flags().BoolVar(&configShowPaths, "paths", false, "also show the directories derived from the configuration")
	ConfigCmd.AddCommand(configShowCmd)
}

// resetConfigShowState resets the config show command's global state for testing.
func resetConfigShowState() {
	configShowJSON = false
	configShowPaths = false
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Displays the configuration a doctor run would use, after the config
file, environment and flags have been applied. The registry token is
never printed.

Examples:
  # Show the configuration as TOML
  pkgdoctor config show

  # Output in JSON format
  pkgdoctor config show --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config show command")
		Logger.Debugf("Flags: json=%t, paths=%t", configShowJSON, configShowPaths)

		cfg := Config.Redacted()
		out := cmd.OutOrStdout()
		if configShowJSON {
			return outputConfigJSON(out, cfg)
		}
		return outputConfigText(out, cfg)
	},
}

// derivedPaths lists the directories the checks look at, in display order.
func derivedPaths(cfg *configs.Config) [][2]string {
	return [][2]string{
		{"local", cfg.LocalDir()},
		{"local-bin", cfg.LocalBin()},
		{"global", cfg.GlobalDir()},
		{"global-bin", cfg.GlobalBin()},
		{"cache", cfg.CacheDir()},
		{"logs", cfg.LogsDir()},
		{"node-index", cfg.NodeIndexURL()},
	}
}

// configFilePath returns the config file in effect, or "" when none exists.
func configFilePath() string {
	path := configPath
	if path == "" {
		path = configs.DefaultConfigPath()
	}
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// outputConfigJSON outputs the config in JSON format.
func outputConfigJSON(w io.Writer, cfg *configs.Config) error {
	var value any = cfg
	if configShowPaths {
		paths := make(map[string]string)
		for _, p := range derivedPaths(cfg) {
			paths[p[0]] = p[1]
		}
		value = struct {
			*configs.Config
			Paths map[string]string `json:"paths"`
		}{cfg, paths}
	}

	output, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return Logger.ErrorfAndReturn("Failed to marshal config to JSON: %v", err)
	}
	fmt.Fprintln(w, string(output))
	return nil
}

// outputConfigText outputs the config as TOML, optionally followed by the derived paths.
func outputConfigText(w io.Writer, cfg *configs.Config) error {
	if err := configs.EncodeTOML(w, cfg); err != nil {
		return Logger.ErrorfAndReturn("Failed to encode config: %v", err)
	}
	if !configShowPaths {
		return nil
	}

	fmt.Fprintln(w)
	if path := configFilePath(); path != "" {
		fmt.Fprintf(w, "Config file: %s\n", ui.Highlight.Sprint(path))
	}
	fmt.Fprintln(w, ui.Info.Sprint("Derived paths:"))
	for _, p := range derivedPaths(cfg) {
		fmt.Fprintf(w, "  %s %s\n", ui.PadRight(p[0]+":", 12), ui.Path.Sprint(p[1]))
	}
	return nil
}
