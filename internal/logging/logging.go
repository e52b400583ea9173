package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Level is a log severity. Higher values are more severe; a message is
// written when its level is at or above the logger's threshold.
type Level int

const (
	LevelSilly   Level = -3
	LevelVerbose Level = -2
	LevelInfo    Level = -1
	LevelNotice  Level = 0
	LevelWarn    Level = 1
	LevelError   Level = 2
	LevelSilent  Level = 3
)

var levelNames = map[Level]string{
	LevelSilly:   "silly",
	LevelVerbose: "verbose",
	LevelInfo:    "info",
	LevelNotice:  "notice",
	LevelWarn:    "warn",
	LevelError:   "error",
	LevelSilent:  "silent",
}

// String returns the npm-style level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// ParseLevel converts a level name into a Level.
func ParseLevel(name string) (Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "debug" {
		return LevelSilly, nil
	}
	for level, levelName := range levelNames {
		if levelName == name {
			return level, nil
		}
	}
	return LevelNotice, fmt.Errorf("unknown log level %q (expected one of silent, error, warn, notice, info, verbose, silly)", name)
}

// Set implements pflag.Value.
func (l *Level) Set(value string) error {
	parsed, err := ParseLevel(value)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Type implements pflag.Value.
func (l *Level) Type() string {
	return "level"
}

type Logger struct {
	Verbose bool
	Debug   bool
	Level   Level

	// Out receives info and debug messages, Err receives everything else.
	// Both default to the process streams.
	Out io.Writer
	Err io.Writer
}

// threshold folds the verbosity flags into the configured level.
func (l Logger) threshold() Level {
	switch {
	case l.Level == LevelSilent:
		return LevelSilent
	case l.Debug:
		return LevelSilly
	case l.Verbose && l.Level > LevelInfo:
		return LevelInfo
	default:
		return l.Level
	}
}

// Enabled reports whether a message at level would be written.
func (l Logger) Enabled(level Level) bool {
	t := l.threshold()
	return t != LevelSilent && level >= t
}

// Silent reports whether all output is suppressed.
func (l Logger) Silent() bool {
	return l.threshold() == LevelSilent
}

func (l Logger) stdout() io.Writer {
	if l.Out != nil {
		return l.Out
	}
	return os.Stdout
}

func (l Logger) stderr() io.Writer {
	if l.Err != nil {
		return l.Err
	}
	return os.Stderr
}

func (l Logger) write(level Level, prefix, msg string) {
	if !l.Enabled(level) {
		return
	}
	w := l.stderr()
	if level < LevelNotice {
		w = l.stdout()
	}
	fmt.Fprint(w, prefix+msg+"\n")
}

func (l Logger) Debugf(msg string, args ...any) {
	l.write(LevelSilly, color.CyanString("[debug] "), fmt.Sprintf(msg, args...))
}

func (l Logger) Infof(msg string, args ...any) {
	l.write(LevelInfo, color.GreenString("[info] "), fmt.Sprintf(msg, args...))
}

func (l Logger) Noticef(msg string, args ...any) {
	l.write(LevelNotice, color.BlueString("[notice] "), fmt.Sprintf(msg, args...))
}

func (l Logger) Warnf(msg string, args ...any) {
	l.write(LevelWarn, color.YellowString("[warn] "), fmt.Sprintf(msg, args...))
}

func (l Logger) Errorf(msg string, args ...any) {
	l.write(LevelError, color.RedString("[error] "), fmt.Sprintf(msg, args...))
}

// ErrorfAndReturn logs the message as an error and returns it as an error value.
func (l Logger) ErrorfAndReturn(msg string, args ...any) error {
	err := fmt.Errorf(msg, args...)
	l.Errorf("%s", err.Error())
	return err
}

// Fields is a set of key/value pairs attached to a structured entry.
type Fields map[string]any

// Entry writes a structured line at level:
//
//	[warn] doctor check=cache status=warn message="Corrupted content: 1"
//
// Keys are sorted so the output is stable.
func (l Logger) Entry(level Level, prefix string, fields Fields) {
	if !l.Enabled(level) {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(prefix)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(formatValue(fields[k]))
	}

	var tag string
	switch {
	case level >= LevelError:
		tag = color.RedString("[error] ")
	case level >= LevelWarn:
		tag = color.YellowString("[warn] ")
	case level >= LevelNotice:
		tag = color.BlueString("[notice] ")
	case level >= LevelInfo:
		tag = color.GreenString("[info] ")
	default:
		tag = color.CyanString("[debug] ")
	}
	l.write(level, tag, b.String())
}

func formatValue(v any) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
