package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"invalid", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.level))
		})
	}
}

func TestSetupLogger_FiltersBelowLevel(t *testing.T) {
	original := defaultLogger
	defer func() {
		defaultLogger = original
		slog.SetDefault(original)
	}()

	var buf bytes.Buffer
	SetupLogger(&buf, LevelWarn)

	Debug("debug message")
	Info("info message")
	Warn("warn message", "issue", 12)
	Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "issue=12")
	assert.Contains(t, out, "error message")
}

func TestWith(t *testing.T) {
	original := defaultLogger
	defer func() {
		defaultLogger = original
		slog.SetDefault(original)
	}()

	var buf bytes.Buffer
	SetupLogger(&buf, LevelInfo)
	With("run_id", "abc")
	Info("tagged")

	assert.True(t, strings.Contains(buf.String(), "run_id=abc"))
	assert.Same(t, defaultLogger, GetLogger())
}

func TestMaskSensitive(t *testing.T) {
	assert.Equal(t, "<not set>", MaskSensitive(""))
	assert.Equal(t, "<set>", MaskSensitive("abcd"))
	assert.Equal(t, "ghp_...***", MaskSensitive("ghp_1234567890"))
}
