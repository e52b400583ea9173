package ui

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Formatter applies semantic formatting to text.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

// Sprint formats the arguments and returns the resulting string.
func (f Formatter) Sprint(a ...interface{}) string {
	text := fmt.Sprint(a...)
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// Sprintf formats according to a format specifier and returns the resulting string.
func (f Formatter) Sprintf(format string, a ...interface{}) string {
	return f.Sprint(fmt.Sprintf(format, a...))
}

// EnsureNewline ensures the string ends with a newline character.
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}

// PadRight pads s with spaces to width runes. Longer strings are returned unchanged.
func PadRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// noColor returns true if color output should be disabled.
func noColor() bool {
	// Check NO_COLOR environment variable (https://no-color.org/).
	if _, exists := os.LookupEnv("NO_COLOR"); exists && mode != ColorAlways {
		return true
	}
	return color.NoColor
}

// ColorMode selects when output is colorized.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

var mode = ColorAuto

// ParseColorMode accepts the npm spellings: always, never, auto, plus
// true/false as aliases.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "always", "true":
		return ColorAlways, nil
	case "never", "false":
		return ColorNever, nil
	}
	return ColorAuto, fmt.Errorf("invalid color mode %q (expected always, never or auto)", s)
}

// String implements pflag.Value.
func (m *ColorMode) String() string {
	if *m == "" {
		return string(ColorAuto)
	}
	return string(*m)
}

// Set implements pflag.Value.
func (m *ColorMode) Set(s string) error {
	parsed, err := ParseColorMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Type implements pflag.Value.
func (m *ColorMode) Type() string {
	return "color"
}

// SetColorMode applies m to every formatter and to fatih/color. In auto
// mode color is enabled only when out is a terminal and NO_COLOR is unset.
func SetColorMode(m ColorMode, out *os.File) {
	mode = m
	switch m {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	default:
		_, disabled := os.LookupEnv("NO_COLOR")
		color.NoColor = disabled || out == nil || !term.IsTerminal(int(out.Fd())) || os.Getenv("TERM") == "dumb"
	}
}

// Semantic formatters for different types of CLI output.
var (
	// Code formats runnable commands.
	// Yellow with color, `backticks` without.
	Code = Formatter{color.New(color.FgYellow), "`", "`"}

	// Path formats file or directory paths.
	Path = Formatter{color.New(color.FgYellow), "", ""}

	// Success formats the ok glyph and passing summaries.
	Success = Formatter{color.New(color.FgGreen), "", ""}

	// Error formats the error glyph and failing summaries.
	Error = Formatter{color.New(color.FgRed), "", ""}

	// Warning formats the warning glyph and warning counts.
	Warning = Formatter{color.New(color.FgYellow), "", ""}

	// Info formats hints and directional arrows.
	Info = Formatter{color.New(color.FgCyan), "", ""}

	// Highlight formats versions and other user-relevant values.
	// Cyan with color, 'single quotes' without.
	Highlight = Formatter{color.New(color.FgCyan), "'", "'"}

	// Muted formats de-emphasized text such as skip reasons.
	// Gray with color, (parentheses) without.
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}
)
