package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/PolarWolf314/pkgdoctor/internal/doctor"
	"github.com/PolarWolf314/pkgdoctor/internal/utils"
)

// FileName is the run log's file name inside the logs directory.
const FileName = "doctor.jsonl"

// Check is the outcome of one check as recorded in the run log.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Entry represents a single doctor run.
type Entry struct {
	Timestamp string `json:"ts"`     // RFC3339 with microseconds.
	RunID     string `json:"run_id"` // Random UUID per run.
	User      string `json:"user,omitempty"`
	Status    string `json:"status"` // Overall status: ok, warn or error.

	// Optional fields.
	Groups   []string `json:"groups,omitempty"` // Selected check groups, empty when all ran.
	Checks   []Check  `json:"checks"`
	Warnings int      `json:"warnings,omitempty"`
	Errors   int      `json:"errors,omitempty"`
}

// FromReport builds an entry for report with the current user filled in.
func FromReport(report *doctor.Report, groups []string) Entry {
	entry := Entry{
		Status:   report.Status().String(),
		Groups:   groups,
		Checks:   make([]Check, 0, len(report.Results)),
		Warnings: report.Summary.Warnings,
		Errors:   report.Summary.Errors,
	}
	for _, result := range report.Results {
		entry.Checks = append(entry.Checks, Check{
			Name:    result.Name,
			Status:  result.Status.String(),
			Message: result.Message,
		})
	}
	if user, err := utils.GetUsername(); err == nil {
		entry.User = user
	}
	return entry
}

// RunLog is an append-only JSON Lines file of doctor runs that keeps at
// most Max entries.
type RunLog struct {
	Dir string
	Max int
}

// Path returns the path to the log file.
func (l RunLog) Path() string {
	return filepath.Join(l.Dir, FileName)
}

// Append records entry and drops the oldest entries beyond Max. Nothing
// is written when Max is zero. Callers treat failures as non-fatal.
func (l RunLog) Append(entry Entry) (Entry, error) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}
	if entry.RunID == "" {
		entry.RunID = uuid.NewString()
	}
	if l.Max <= 0 || l.Dir == "" {
		return entry, nil
	}

	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return entry, fmt.Errorf("creating logs directory: %w", err)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return entry, err
	}

	f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return entry, fmt.Errorf("opening run log: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return entry, fmt.Errorf("writing run log: %w", err)
	}
	if err := f.Close(); err != nil {
		return entry, err
	}

	return entry, l.trim()
}

// trim rewrites the log with only the newest Max lines.
func (l RunLog) trim() error {
	data, err := os.ReadFile(l.Path())
	if err != nil {
		return err
	}

	lines := bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n"))
	if len(lines) <= l.Max {
		return nil
	}
	kept := append(bytes.Join(lines[len(lines)-l.Max:], []byte("\n")), '\n')

	tmp, err := os.CreateTemp(l.Dir, FileName+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(kept); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), l.Path())
}

// ReadEntries reads all entries from the run log.
// Returns an empty slice if the log doesn't exist.
func (l RunLog) ReadEntries() ([]Entry, error) {
	data, err := os.ReadFile(l.Path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into run log entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
