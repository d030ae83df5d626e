package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", "json", WithOutput(&buf))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug("worker started")
	_ = logger.Sync()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != "worker started" || entry["level"] != "debug" {
		t.Errorf("unexpected entry %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected time key")
	}
}

func TestNewLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", "console", WithOutput(&buf))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry written at warn level: %q", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "shown") {
		t.Errorf("expected warn entry, got %q", out)
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	tests := []struct {
		name          string
		level, format string
	}{
		{"level", "loud", "console"},
		{"format", "info", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.level, tt.format); err == nil {
				t.Errorf("New(%q, %q) should fail", tt.level, tt.format)
			}
		})
	}
}
