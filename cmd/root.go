package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/PolarWolf314/pkgdoctor/internal/configs"
	kerrors "github.com/PolarWolf314/pkgdoctor/internal/errors"
	logger "github.com/PolarWolf314/pkgdoctor/internal/logging"
	"github.com/PolarWolf314/pkgdoctor/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var (
	verbose bool
	debug   bool
	Logger  logger.Logger
	Config  *configs.Config

	configPath       string
	registryFlag     string
	proxyFlag        string
	httpsProxyFlag   string
	prefixFlag       string
	globalPrefixFlag string
	cacheFlag        string
	colorFlag        = ui.ColorAuto
	logLevelFlag     = logger.LevelNotice

	RootCmd = &cobra.Command{
		Use:   "pkgdoctor",
		Short: "pkgdoctor - health checks for your npm environment",
		Long: `pkgdoctor checks that your node and npm installation is healthy.

It verifies that the registry is reachable, that npm and node are up to
date, that git and the global bin folder are on your PATH, that the
install directories have the right permissions, and that the package
cache is intact.

Usage:
  pkgdoctor doctor [checks...] [flags]
  pkgdoctor config show
  pkgdoctor config init
  pkgdoctor log

Run 'pkgdoctor help <command>' for more details on a specific command.
`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initialize,
	}
)

func init() {
	flags := RootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&debug, "debug", "d", false, "enable debug output")
	flags.StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pkgdoctor/config.toml)")
	flags.StringVar(&registryFlag, "registry", "", "registry base URL")
	flags.StringVar(&proxyFlag, "proxy", "", "proxy for http requests")
	flags.StringVar(&httpsProxyFlag, "https-proxy", "", "proxy for https requests")
	flags.StringVar(&prefixFlag, "prefix", "", "local prefix (directory holding node_modules)")
	flags.StringVar(&globalPrefixFlag, "global-prefix", "", "global install prefix")
	flags.StringVar(&cacheFlag, "cache", "", "cache root")
	flags.Var(&colorFlag, "color", "colorize output: always, never or auto")
	flags.Var(&logLevelFlag, "loglevel", "log level: silent, error, warn, notice, info, verbose or silly")

	RootCmd.AddCommand(doctorCmd)
	RootCmd.AddCommand(ConfigCmd)
}

// initialize loads the configuration, applies flag overrides and sets up
// the logger and colors for every subcommand.
func initialize(cmd *cobra.Command, args []string) error {
	cfg, err := configs.Load(configs.LoadOptions{Path: configPath})
	if err != nil {
		return err
	}
	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		return err
	}
	Config = cfg

	ui.SetColorMode(cfg.ColorMode(), os.Stdout)
	Logger = logger.Logger{
		Verbose: verbose,
		Debug:   debug,
		Level:   cfg.Level(),
		Out:     cmd.OutOrStdout(),
		Err:     cmd.ErrOrStderr(),
	}
	Logger.Debugf("Initializing %s with verbose=%t, debug=%t, loglevel=%s", cmd.CommandPath(), verbose, debug, cfg.LogLevel)
	return nil
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(flags *pflag.FlagSet, cfg *configs.Config) error {
	overrides := []struct {
		name  string
		value string
		field *string
	}{
		{"registry", registryFlag, &cfg.Registry},
		{"proxy", proxyFlag, &cfg.Proxy},
		{"https-proxy", httpsProxyFlag, &cfg.HTTPSProxy},
		{"prefix", prefixFlag, &cfg.Prefix},
		{"global-prefix", globalPrefixFlag, &cfg.GlobalPrefix},
		{"cache", cacheFlag, &cfg.Cache},
		{"color", string(colorFlag), &cfg.Color},
		{"loglevel", logLevelFlag.String(), &cfg.LogLevel},
	}
	for _, o := range overrides {
		if flags.Changed(o.name) {
			*o.field = o.value
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w (from flags)", err)
	}
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		w := cmd.ErrOrStderr()
		fmt.Fprintln(w, ui.Error.Sprint("✗"), err)
		switch {
		case errors.Is(err, kerrors.ErrUnknownCheck):
			fmt.Fprintln(w, ui.Info.Sprint("→")+" Run "+ui.Code.Sprint("pkgdoctor doctor --help")+" to see the available checks")
		case errors.Is(err, kerrors.ErrInvalidConfig):
			fmt.Fprintln(w, ui.Info.Sprint("→")+" Run "+ui.Code.Sprint("pkgdoctor config show")+" with valid settings to inspect the configuration")
		}
		return 1
	}
	return 0
}

// Helper functions for testing

// GetRootCmd returns the RootCmd for testing.
func GetRootCmd() *cobra.Command {
	return RootCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	configPath = ""
	registryFlag = ""
	proxyFlag = ""
	httpsProxyFlag = ""
	prefixFlag = ""
	globalPrefixFlag = ""
	cacheFlag = ""
	colorFlag = ui.ColorAuto
	logLevelFlag = logger.LevelNotice
	Config = nil
	Logger = logger.Logger{}
	resetDoctorCommandState()
	resetConfigShowState()
	resetConfigInitState()
	resetLogCommandState()
	resetCobraFlagState(RootCmd)
}

// resetCobraFlagState clears the Changed marks on cmd and its children to prevent test pollution.
func resetCobraFlagState(cmd *cobra.Command) {
	reset := func(flag *pflag.Flag) { flag.Changed = false }
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetCobraFlagState(child)
	}
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
