package qmcsim

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLogLevelFromStr(t *testing.T) {
	tests := []struct {
		name  string
		level zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"loud", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := LogLevelFromStr(tt.name); got != tt.level {
			t.Errorf("LogLevelFromStr(%q) = %s, want %s", tt.name, got, tt.level)
		}
	}
}

func TestNewLoggerLevel(t *testing.T) {
	logger, atom, err := NewLogger("warn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) || !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Errorf("warn logger has level %s", atom.Level())
	}

	atom.SetLevel(zapcore.DebugLevel)
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Errorf("lowering the level to debug left debug entries disabled")
	}
}
