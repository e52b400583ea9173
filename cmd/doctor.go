package cmd

import (
	"os"
	"strings"

	"github.com/PolarWolf314/pkgdoctor/internal/doctor"
	"github.com/PolarWolf314/pkgdoctor/internal/utils"
	"github.com/PolarWolf314/pkgdoctor/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	doctorJSONOutput  bool
	doctorNpmVersion  string
	doctorNodeVersion string
	// doctorExitFunc is the function called to exit with a specific code.
	// Can be overridden for testing.
	doctorExitFunc = os.Exit
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSONOutput, "json", false, "output in JSON format")
	doctorCmd.Flags().StringVar(&doctorNpmVersion, "npm-version", "", "npm version to check instead of running npm --version")
	doctorCmd.Flags().StringVar(&doctorNodeVersion, "node-version", "", "node version to check instead of running node --version")
}

func resetDoctorCommandState() {
	doctorJSONOutput = false
	doctorNpmVersion = ""
	doctorNodeVersion = ""
	doctorExitFunc = os.Exit
}

// SetDoctorExitFunc sets the exit function for testing purposes.
func SetDoctorExitFunc(f func(int)) {
	doctorExitFunc = f
}

var doctorCmd = &cobra.Command{
	Use:   "doctor [checks...]",
	Short: "Check the health of your npm environment",
	Long: `Runs a series of health checks on your npm environment and reports issues.

The doctor command checks:
  - The registry can be reached (ping)
  - npm and node are up to date (versions)
  - The configured registry is the default one (registry)
  - The proxy is valid, git is installed and the global bin folder is in PATH (environment)
  - The cache, node_modules and bin folders have the right owner and permissions (permissions)
  - The cache contents match their checksums (cache)

Pass one or more of ` + strings.Join(doctor.Groups(), ", ") + ` to run only those checks.

Exit codes:
  0 - All checks passed, possibly with warnings
  1 - At least one check failed

Use --json for machine-readable output.`,
	ValidArgs: doctor.Groups(),
	Args: func(cmd *cobra.Command, args []string) error {
		return doctor.ValidateGroups(args)
	},
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting doctor command")
	Logger.Debugf("Flags: json=%t, npm-version=%q, node-version=%q, checks=%v", doctorJSONOutput, doctorNpmVersion, doctorNodeVersion, args)

	out := cmd.OutOrStdout()
	quiet := doctorJSONOutput || Logger.Silent()
	if f, ok := out.(*os.File); !ok || !utils.IsTerminal(f) {
		quiet = true
	}
	_, cleanup := startSpinner(out, "Running health checks...", quiet)
	defer cleanup()

	log := Logger
	if doctorJSONOutput {
		// Keep stdout for the report.
		log.Out = cmd.ErrOrStderr()
	}

	ctx := cmd.Context()
	result, err := workflows.Doctor(ctx, workflows.DoctorOptions{
		Config:      Config,
		Groups:      args,
		NpmVersion:  doctorNpmVersion,
		NodeVersion: doctorNodeVersion,
		Version:     Version,
		Logger:      log,
	})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		// Interrupted: no partial report.
		return err
	}
	cleanup()

	reporter := doctor.Reporter{Out: out, Logger: log}
	if doctorJSONOutput {
		reporter.Log(result.Report)
		if err := reporter.JSON(result.Report); err != nil {
			return err
		}
	} else {
		reporter.Report(result.Report)
	}

	Logger.Debugf("Recorded run %s", result.Entry.RunID)
	if result.Report.Failed() {
		Logger.Debugf("Failed checks: %v", result.Report.Err())
		doctorExitFunc(1)
	}
	return nil
}
