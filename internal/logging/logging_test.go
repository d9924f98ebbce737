package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.String())
	}
}

func TestZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, LogLevelDebug.zapLevel())
	assert.Equal(t, zapcore.InfoLevel, LogLevelInfo.zapLevel())
	assert.Equal(t, zapcore.WarnLevel, LogLevelWarn.zapLevel())
	assert.Equal(t, zapcore.ErrorLevel, LogLevelError.zapLevel())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{" error ", LogLevelError},
		{"bogus", LogLevelInfo},
		{"", LogLevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("debug"))
	assert.True(t, ValidLevel("Warning"))
	assert.False(t, ValidLevel("trace"))
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LogLevelWarn, Output: &buf, Name: "test"})

	logger.Info("hidden")
	logger.Warn("shown")
	_ = logger.Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "test")
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LogLevelDebug, Output: &buf})

	WithComponent(logger, "encoder").Debug("hello")
	assert.Contains(t, buf.String(), "component")
	assert.Contains(t, buf.String(), "encoder")

	// nil base logger is tolerated
	WithComponent(nil, "x").Info("dropped")
}

func TestNop(t *testing.T) {
	Nop().Error("discarded")
}
