package workflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PolarWolf314/pkgdoctor/internal/audit"
	"github.com/PolarWolf314/pkgdoctor/internal/doctor"
	kerrors "github.com/PolarWolf314/pkgdoctor/internal/errors"
)

// LogOptions configures the log workflow.
type LogOptions struct {
	// Dir is the logs directory holding the run log.
	Dir string

	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// User filters entries by user name.
	User string

	// Statuses filters entries by overall run status (comma-separated).
	Statuses string

	// Check keeps only runs in which the named check did not pass.
	Check string

	// Since filters entries after this date (YYYY-MM-DD format).
	Since string

	// Until filters entries before this date (YYYY-MM-DD format).
	Until string
}

// LogResult contains the outcome of a log operation.
type LogResult struct {
	// Entries are the filtered run log entries.
	Entries []audit.Entry

	// TotalEntriesBeforeFilter is the count of entries before filtering.
	TotalEntriesBeforeFilter int
}

// Log reads and filters the doctor run log. A missing log yields no entries.
// Filters are validated before the log is read.
//
// Returns ErrInvalidDateFormat if a date filter cannot be parsed.
func Log(ctx context.Context, opts LogOptions) (*LogResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filters, err := parseLogFilters(opts)
	if err != nil {
		return nil, err
	}

	entries, err := audit.RunLog{Dir: opts.Dir}.ReadEntries()
	if err != nil {
		return nil, fmt.Errorf("reading run log: %w", err)
	}

	result := &LogResult{TotalEntriesBeforeFilter: len(entries)}
	if len(entries) == 0 {
		result.Entries = entries
		return result, nil
	}

	filtered := entries
	for _, filter := range filters {
		filtered = filter(filtered)
	}

	if opts.Reverse {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	// The limit always keeps the most recent runs.
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			filtered = filtered[:opts.Limit]
		} else {
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

type entryFilter func([]audit.Entry) []audit.Entry

// parseLogFilters turns the filter options into filters applied in order.
func parseLogFilters(opts LogOptions) ([]entryFilter, error) {
	var filters []entryFilter

	if opts.User != "" {
		filters = append(filters, func(e []audit.Entry) []audit.Entry { return filterByUser(e, opts.User) })
	}

	if opts.Statuses != "" {
		statuses, err := parseStatuses(opts.Statuses)
		if err != nil {
			return nil, err
		}
		filters = append(filters, func(e []audit.Entry) []audit.Entry { return filterByStatus(e, statuses) })
	}

	if opts.Check != "" {
		filters = append(filters, func(e []audit.Entry) []audit.Entry { return filterByFailedCheck(e, opts.Check) })
	}

	if opts.Since != "" {
		since, err := time.Parse("2006-01-02", opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		filters = append(filters, func(e []audit.Entry) []audit.Entry {
			return filterByTime(e, func(t time.Time) bool { return !t.Before(since) })
		})
	}

	if opts.Until != "" {
		until, err := time.Parse("2006-01-02", opts.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		// Include the entire day.
		until = until.Add(24*time.Hour - time.Nanosecond)
		filters = append(filters, func(e []audit.Entry) []audit.Entry {
			return filterByTime(e, func(t time.Time) bool { return !t.After(until) })
		})
	}

	return filters, nil
}

func parseStatuses(list string) (map[string]bool, error) {
	statuses := make(map[string]bool)
	for _, s := range strings.Split(list, ",") {
		status, err := doctor.ParseStatus(strings.ToLower(strings.TrimSpace(s)))
		if err != nil {
			return nil, err
		}
		statuses[status.String()] = true
	}
	return statuses, nil
}

func filterByUser(entries []audit.Entry, user string) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		if strings.EqualFold(e.User, user) {
			result = append(result, e)
		}
	}
	return result
}

func filterByStatus(entries []audit.Entry, statuses map[string]bool) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		if statuses[e.Status] {
			result = append(result, e)
		}
	}
	return result
}

func filterByFailedCheck(entries []audit.Entry, name string) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		for _, c := range e.Checks {
			if c.Name == name && c.Status != doctor.StatusOK.String() {
				result = append(result, e)
				break
			}
		}
	}
	return result
}

// filterByTime keeps entries whose timestamp satisfies keep. Entries with
// unparseable timestamps are dropped.
func filterByTime(entries []audit.Entry, keep func(time.Time) bool) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		t, err := parseTimestamp(e.Timestamp)
		if err != nil {
			continue
		}
		if keep(t) {
			result = append(result, e)
		}
	}
	return result
}

func parseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04:05.000000Z", ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err
}

// FormatDate formats a timestamp string to YYYY-MM-DD format.
func FormatDate(ts string) string {
	t, err := parseTimestamp(ts)
	if err != nil {
		if len(ts) >= 10 {
			return ts[:10]
		}
		return ts
	}
	return t.Format("2006-01-02")
}

// FormatDateTime formats a timestamp string to YYYY-MM-DD HH:MM:SS format.
func FormatDateTime(ts string) string {
	t, err := parseTimestamp(ts)
	if err != nil {
		if len(ts) >= 19 {
			return ts[:19]
		}
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatDetails lists the checks that did not pass, or the number of
// checks when all passed.
func FormatDetails(e audit.Entry) string {
	var problems []string
	for _, c := range e.Checks {
		if c.Status != doctor.StatusOK.String() {
			problems = append(problems, c.Name+" ("+c.Status+")")
		}
	}
	if len(problems) == 0 {
		return fmt.Sprintf("%d checks", len(e.Checks))
	}
	if len(problems) > 3 {
		return fmt.Sprintf("%d problems", len(problems))
	}
	return strings.Join(problems, ", ")
}

// FormatDetailsOneline summarizes the warning and error counts.
func FormatDetailsOneline(e audit.Entry) string {
	if e.Warnings == 0 && e.Errors == 0 {
		return fmt.Sprintf("%d checks", len(e.Checks))
	}
	return fmt.Sprintf("%d errors, %d warnings", e.Errors, e.Warnings)
}
