package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupPrecedence(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	SetupWriter(&buf, "ERROR", false, false)
	if slog.Default().Enabled(ctx, slog.LevelWarn) {
		t.Error("WARN should be disabled at configured ERROR level")
	}

	SetupWriter(&buf, "ERROR", true, false)
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		t.Error("verbose should enable DEBUG")
	}

	SetupWriter(&buf, "DEBUG", true, true)
	if slog.Default().Enabled(ctx, slog.LevelInfo) {
		t.Error("quiet should win over verbose")
	}
	if !slog.Default().Enabled(ctx, slog.LevelWarn) {
		t.Error("WARN should remain enabled in quiet mode")
	}
}

func TestSetupWritesText(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "INFO", false, false)
	slog.Info("loaded", "records", 3)
	if !strings.Contains(buf.String(), "records=3") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}
