package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		env, level string
		wantErr    bool
		enabled    zapcore.Level
	}{
		{env: "prod", enabled: zapcore.InfoLevel},
		{env: "local", enabled: zapcore.DebugLevel},
		{env: "dev", level: "warn", enabled: zapcore.WarnLevel},
		{env: "staging", wantErr: true},
		{env: "prod", level: "loud", wantErr: true},
	}
	for _, tt := range tests {
		l, err := NewLogger(tt.env, tt.level)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NewLogger(%q, %q) succeeded", tt.env, tt.level)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NewLogger(%q, %q): %v", tt.env, tt.level, err)
		}
		if !l.Core().Enabled(tt.enabled) {
			t.Errorf("NewLogger(%q, %q) does not log at %v", tt.env, tt.level, tt.enabled)
		}
		if tt.enabled > zapcore.DebugLevel && l.Core().Enabled(tt.enabled-1) {
			t.Errorf("NewLogger(%q, %q) logs below %v", tt.env, tt.level, tt.enabled)
		}
	}
}
