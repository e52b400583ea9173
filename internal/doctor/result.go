package doctor

import (
	"encoding/json"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/pkgdoctor/internal/errors"
)

// Status is the outcome of a single check.
type Status int

const (
	// StatusOK means the check passed or was intentionally skipped.
	StatusOK Status = iota
	// StatusWarn means the check found a non-critical issue.
	StatusWarn
	// StatusError means the check failed.
	StatusError
)

// String returns a string representation of Status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarn:
		return "warn"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseStatus is the inverse of String.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "ok":
		return StatusOK, nil
	case "warn":
		return StatusWarn, nil
	case "error":
		return StatusError, nil
	default:
		return 0, fmt.Errorf("unknown status %q", s)
	}
}

// MarshalJSON implements json.Marshaler for Status.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler for Status.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Result holds the outcome of a single check.
type Result struct {
	Name       string         `json:"name"`
	Title      string         `json:"title"`
	Group      string         `json:"group"`
	Status     Status         `json:"status"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	Skipped    bool           `json:"skipped,omitempty"`
}

// Summary holds counts of checks by status.
type Summary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// Report is the complete outcome of a doctor run.
type Report struct {
	Results     []Result `json:"results"`
	Summary     Summary  `json:"summary"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// NewReport builds a report from results in execution order, counting
// them and collecting the suggestions of failed checks.
func NewReport(results []Result) *Report {
	report := &Report{Results: results}

	seen := make(map[string]bool)
	for _, result := range results {
		switch result.Status {
		case StatusOK:
			report.Summary.Passed++
		case StatusWarn:
			report.Summary.Warnings++
		case StatusError:
			report.Summary.Errors++
		}
		if result.Suggestion != "" && result.Status != StatusOK && !seen[result.Suggestion] {
			report.Suggestions = append(report.Suggestions, result.Suggestion)
			seen[result.Suggestion] = true
		}
	}
	return report
}

// Status is error if any result is error, else warn if any is warn.
func (r *Report) Status() Status {
	status := StatusOK
	for _, result := range r.Results {
		if result.Status > status {
			status = result.Status
		}
	}
	return status
}

// Failed reports whether the run should exit non-zero.
func (r *Report) Failed() bool {
	return r.Status() == StatusError
}

// Err summarises the failed checks as errors wrapping the kerrors
// sentinels, or nil when nothing failed.
func (r *Report) Err() error {
	var errs []error
	for _, result := range r.Results {
		if result.Status != StatusError {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", result.Name, failureKind(result)))
	}
	return errors.Join(errs...)
}

func failureKind(result Result) error {
	if _, proxy := result.Detail["cause"]; proxy {
		return kerrors.ErrInvalidProxy
	}
	if _, network := result.Detail["kind"]; network {
		return kerrors.ErrNetwork
	}
	switch {
	case result.Name == "ping":
		return kerrors.ErrNetwork
	case result.Name == "proxy":
		return kerrors.ErrInvalidProxy
	case result.Name == "git":
		return kerrors.ErrToolMissing
	case result.Group == GroupVersions:
		return kerrors.ErrVersionMismatch
	case result.Group == GroupPermissions:
		return kerrors.ErrPermission
	case result.Group == GroupCache:
		return kerrors.ErrCacheIntegrity
	default:
		return kerrors.ErrInvalidConfig
	}
}

// Result returns the result named name.
func (r *Report) Result(name string) (Result, bool) {
	for _, result := range r.Results {
		if result.Name == name {
			return result, true
		}
	}
	return Result{}, false
}

// MarshalJSON adds the overall status to the encoded report.
func (r *Report) MarshalJSON() ([]byte, error) {
	type plain Report
	return json.Marshal(struct {
		Status Status `json:"status"`
		*plain
	}{r.Status(), (*plain)(r)})
}
