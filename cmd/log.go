package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/PolarWolf314/pkgdoctor/internal/audit"
	"github.com/PolarWolf314/pkgdoctor/internal/ui"
	"github.com/PolarWolf314/pkgdoctor/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	logLimit   int
	logReverse bool
	logUser    string
	logStatus  string
	logCheck   string
	logSince   string
	logUntil   string
	logOneline bool
	logJSON    bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of runs shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent runs first")
	logCmd.Flags().StringVar(&logUser, "user", "", "filter by user")
	logCmd.Flags().StringVar(&logStatus, "status", "", "filter by run status: ok, warn or error (comma-separated)")
	logCmd.Flags().StringVar(&logCheck, "check", "", "show only runs in which this check did not pass")
	logCmd.Flags().StringVar(&logSince, "since", "", "show runs after date (YYYY-MM-DD)")
	logCmd.Flags().StringVar(&logUntil, "until", "", "show runs before date (YYYY-MM-DD)")
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "compact one-line format")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")

	RootCmd.AddCommand(logCmd)
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logUser = ""
	logStatus = ""
	logCheck = ""
	logSince = ""
	logUntil = ""
	logOneline = false
	logJSON = false
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show past doctor runs",
	Long: `Displays the run log written by the doctor command.

Each run records who ran it, when, and the outcome of every check. The
number of runs kept is controlled by the logs-max setting.

Examples:
  pkgdoctor log                       # All recorded runs
  pkgdoctor log -n 5 --reverse        # Five most recent runs first
  pkgdoctor log --status warn,error   # Runs with problems
  pkgdoctor log --check cache         # Runs where the cache check did not pass
  pkgdoctor log --since 2024-01-01    # Filter by date
  pkgdoctor log --json                # JSON output`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")

	out := cmd.OutOrStdout()
	result, err := workflows.Log(cmd.Context(), workflows.LogOptions{
		Dir:      Config.LogsDir(),
		Limit:    logLimit,
		Reverse:  logReverse,
		User:     logUser,
		Statuses: logStatus,
		Check:    logCheck,
		Since:    logSince,
		Until:    logUntil,
	})
	if err != nil {
		return err
	}

	Logger.Debugf("Parsed %d entries from run log", result.TotalEntriesBeforeFilter)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	if logJSON {
		return outputLogJSON(out, result.Entries)
	}

	if len(result.Entries) == 0 {
		if result.TotalEntriesBeforeFilter == 0 {
			fmt.Fprintln(out, ui.Info.Sprint("ℹ")+" No doctor runs recorded. Run "+ui.Code.Sprint("pkgdoctor doctor")+" first.")
		} else {
			fmt.Fprintln(out, "No doctor runs found matching the filters.")
		}
		return nil
	}

	if logOneline {
		outputLogOneline(out, result.Entries)
		return nil
	}

	outputLogDefault(out, result.Entries)
	return nil
}

func outputLogJSON(w io.Writer, entries []audit.Entry) error {
	if entries == nil {
		entries = []audit.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func outputLogOneline(w io.Writer, entries []audit.Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s %s %s %s\n", workflows.FormatDate(e.Timestamp), shortRunID(e.RunID), e.Status, workflows.FormatDetailsOneline(e))
	}
}

func outputLogDefault(w io.Writer, entries []audit.Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%-19s  %-8s  %-15s  %-5s  %s\n",
			workflows.FormatDateTime(e.Timestamp), shortRunID(e.RunID), e.User, e.Status, workflows.FormatDetails(e))
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
