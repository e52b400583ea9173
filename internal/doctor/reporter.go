package doctor

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	logger "github.com/PolarWolf314/pkgdoctor/internal/logging"
	"github.com/PolarWolf314/pkgdoctor/internal/ui"
	"github.com/PolarWolf314/pkgdoctor/internal/utils"
)

// Reporter renders a report for people and for log consumers.
type Reporter struct {
	Out    io.Writer
	Logger logger.Logger
}

// Report writes the checklist to Out and one structured log entry per
// result. A silent logger suppresses both; the report is unaffected.
func (r Reporter) Report(report *Report) {
	r.Log(report)
	if r.Logger.Silent() {
		return
	}
	r.Render(report)
}

// Log emits one "doctor" entry per result at info, warn or error.
func (r Reporter) Log(report *Report) {
	for _, result := range report.Results {
		level := logger.LevelInfo
		switch result.Status {
		case StatusWarn:
			level = logger.LevelWarn
		case StatusError:
			level = logger.LevelError
		}
		fields := logger.Fields{
			"check":   result.Name,
			"status":  result.Status.String(),
			"message": result.Message,
		}
		if result.Skipped {
			fields["skipped"] = true
		}
		r.Logger.Entry(level, "doctor", fields)
	}
}

// Render writes the human readable checklist.
func (r Reporter) Render(report *Report) {
	out := r.Out

	width := 0
	for _, result := range report.Results {
		if n := len([]rune(result.Title)); n > width {
			width = n
		}
	}

	fmt.Fprintln(out, "Running health checks...")
	fmt.Fprintln(out)

	for _, result := range report.Results {
		message := result.Message
		if result.Skipped {
			message = ui.Muted.Sprint(message)
		}
		fmt.Fprintf(out, "%s %s  %s\n", glyph(result.Status), ui.PadRight(result.Title, width), message)

		if violations, ok := result.Detail["violations"].([]string); ok && len(violations) > 0 {
			fmt.Fprint(out, strings.TrimPrefix(utils.FormatPaths(violations), "\n"))
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Summary: %d passed", report.Summary.Passed)
	if report.Summary.Warnings > 0 {
		fmt.Fprintf(out, ", %s", ui.Warning.Sprint(fmt.Sprintf("%d warning(s)", report.Summary.Warnings)))
	}
	if report.Summary.Errors > 0 {
		fmt.Fprintf(out, ", %s", ui.Error.Sprint(fmt.Sprintf("%d error(s)", report.Summary.Errors)))
	}
	fmt.Fprintln(out)

	if len(report.Suggestions) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Suggestions:")
		for _, suggestion := range report.Suggestions {
			fmt.Fprintf(out, "  %s %s\n", ui.Info.Sprint("→"), suggestion)
		}
	}

	fmt.Fprintln(out)
	switch report.Status() {
	case StatusError:
		fmt.Fprintln(out, ui.Error.Sprint("✗")+" Some problems found. See above for recommendations.")
	case StatusWarn:
		fmt.Fprintln(out, ui.Warning.Sprint("⚠")+" All checks passed with warnings")
	default:
		fmt.Fprintln(out, ui.Success.Sprint("✓")+" All checks passed")
	}
}

// JSON writes the report as indented JSON.
func (r Reporter) JSON(report *Report) error {
	encoder := json.NewEncoder(r.Out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func glyph(status Status) string {
	switch status {
	case StatusWarn:
		return ui.Warning.Sprint("⚠")
	case StatusError:
		return ui.Error.Sprint("✗")
	default:
		return ui.Success.Sprint("✓")
	}
}
