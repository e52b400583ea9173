package logger

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level Level) (Logger, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return Logger{Level: level, Out: &out, Err: &errOut}, &out, &errOut
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"silent", LevelSilent},
		{"error", LevelError},
		{"WARN", LevelWarn},
		{"notice", LevelNotice},
		{" info ", LevelInfo},
		{"verbose", LevelVerbose},
		{"silly", LevelSilly},
		{"debug", LevelSilly},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevelFlagValue(t *testing.T) {
	var level Level
	require.NoError(t, level.Set("warn"))
	assert.Equal(t, LevelWarn, level)
	assert.Equal(t, "warn", level.String())
	assert.Equal(t, "level", level.Type())
	assert.Error(t, level.Set("nope"))
}

func TestThresholds(t *testing.T) {
	color.NoColor = true

	log, out, errOut := newTestLogger(LevelNotice)
	log.Infof("hidden")
	log.Noticef("shown %d", 1)
	log.Warnf("careful")
	assert.Empty(t, out.String())
	assert.Equal(t, "[notice] shown 1\n[warn] careful\n", errOut.String())

	log, out, _ = newTestLogger(LevelNotice)
	log.Verbose = true
	log.Infof("now visible")
	log.Debugf("still hidden")
	assert.Equal(t, "[info] now visible\n", out.String())

	log, out, _ = newTestLogger(LevelNotice)
	log.Debug = true
	log.Debugf("debugging")
	assert.Equal(t, "[debug] debugging\n", out.String())
}

func TestSilentWinsOverFlags(t *testing.T) {
	log, out, errOut := newTestLogger(LevelSilent)
	log.Verbose = true
	log.Debug = true

	log.Errorf("nothing")
	log.Entry(LevelError, "doctor", Fields{"check": "ping"})

	assert.True(t, log.Silent())
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())
}

func TestEntryFormatting(t *testing.T) {
	color.NoColor = true

	log, out, errOut := newTestLogger(LevelInfo)
	log.Entry(LevelWarn, "doctor", Fields{
		"status":  "warn",
		"check":   "cache",
		"message": "Corrupted content: 1",
	})
	log.Entry(LevelInfo, "doctor", Fields{"check": "git", "message": ""})

	assert.Equal(t, "[warn] doctor check=cache message=\"Corrupted content: 1\" status=warn\n", errOut.String())
	assert.Equal(t, "[info] doctor check=git message=\"\"\n", out.String())
}

func TestErrorfAndReturn(t *testing.T) {
	color.NoColor = true

	log, _, errOut := newTestLogger(LevelNotice)
	err := log.ErrorfAndReturn("failed: %s", "reason")

	require.Error(t, err)
	assert.Equal(t, "failed: reason", err.Error())
	assert.Equal(t, "[error] failed: reason\n", errOut.String())
}
