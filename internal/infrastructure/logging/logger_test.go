package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/nerrad567/riglab-core/internal/infrastructure/config"
)

func TestNew(t *testing.T) {
	variants := []config.LoggingConfig{
		{Level: "info", Format: "json", Output: "stdout"},
		{Level: "debug", Format: "text", Output: "stderr"},
		{Level: "bogus", Format: "bogus", Output: "bogus"},
	}
	for _, cfg := range variants {
		if logger := New(cfg, "1.0.0"); logger == nil {
			t.Errorf("New(%+v) returned nil", cfg)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWithReturnsChild(t *testing.T) {
	logger := Default()
	child := logger.With("component", "pool")
	if child == nil {
		t.Fatal("With() returned nil")
	}
	if child == logger {
		t.Error("With() returned the parent, want a distinct child")
	}
}

func TestDefaultFieldsInOutput(t *testing.T) {
	var buf bytes.Buffer

	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}).
		WithAttrs([]slog.Attr{
			slog.String("service", "riglab"),
			slog.String("version", "test"),
		})
	logger := &Logger{Logger: slog.New(handler)}

	logger.Info("scan complete", "devices", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["service"] != "riglab" || entry["version"] != "test" {
		t.Errorf("default fields missing: %v", entry)
	}
	if entry["msg"] != "scan complete" {
		t.Errorf("msg = %v, want scan complete", entry["msg"])
	}
	if entry["devices"] != float64(3) {
		t.Errorf("devices = %v, want 3", entry["devices"])
	}
}
