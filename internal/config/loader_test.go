package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestAsInt(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int
	}{
		{123, 123},
		{"456", 456},
		{" 7 ", 7},
		{int64(789), 789},
		{float64(10.0), 10},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asInt(tt.input)
		if err != nil {
			t.Errorf("asInt(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asInt(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}

	if _, err := asInt([]int{1}); err == nil {
		t.Error("asInt([]int) should fail")
	}
}

func TestAsBool(t *testing.T) {
	tests := []struct {
		input interface{}
		want  bool
	}{
		{true, true},
		{"true", true},
		{"1", true},
		{false, false},
		{"0", false},
		{"", false},
		{nil, false},
	}

	for _, tt := range tests {
		got, err := asBool(tt.input)
		if err != nil {
			t.Errorf("asBool(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asBool(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAsDuration(t *testing.T) {
	tests := []struct {
		input interface{}
		want  time.Duration
	}{
		{"5s", 5 * time.Second},
		{"1m30s", 90 * time.Second},
		{10, 10 * time.Second},
		{int64(2), 2 * time.Second},
		{1.5, 1500 * time.Millisecond},
		{time.Minute, time.Minute},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asDuration(tt.input)
		if err != nil {
			t.Errorf("asDuration(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asDuration(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if _, err := asDuration("soon"); err == nil {
		t.Error("asDuration(soon) should fail")
	}
}

func TestAsStringSlice(t *testing.T) {
	got, err := asStringSlice([]interface{}{"a", 2})
	if err != nil || len(got) != 2 || got[1] != "2" {
		t.Errorf("asStringSlice(list) = %v, %v", got, err)
	}
	got, err = asStringSlice("single")
	if err != nil || len(got) != 1 {
		t.Errorf("asStringSlice(string) = %v, %v", got, err)
	}
	if _, err := asStringSlice(42); err == nil {
		t.Error("asStringSlice(42) should fail")
	}
}

func TestApplyConfigSettings(t *testing.T) {
	cfg := defaultConfig()
	settings := map[string]interface{}{
		"host":           "http://example.com",
		"concurrency":    10,
		"number":         "4",
		"timeout":        "30s",
		"max_body_bytes": " 2048 ",
		"json-output":    true,
		"tests":          "^a",
		"feeder":         map[interface{}]interface{}{"Path": "f.csv"},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		t.Fatalf("applyConfigSettings() error = %v", err)
	}

	if cfg.Host != "http://example.com" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if cfg.Concurrency != 10 || cfg.Iterations != 4 {
		t.Errorf("shape = %dx%d, want 10x4", cfg.Concurrency, cfg.Iterations)
	}
	if cfg.MaxBodyBytes != 2048 {
		t.Errorf("MaxBodyBytes = %d, want 2048", cfg.MaxBodyBytes)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if !cfg.JSONOutput {
		t.Error("JSONOutput = false, want true")
	}
	if len(cfg.Tests) != 1 || cfg.Tests[0] != "^a" {
		t.Errorf("Tests = %v", cfg.Tests)
	}
	if cfg.Feeder.Path != "f.csv" {
		t.Errorf("Feeder.Path = %q", cfg.Feeder.Path)
	}
}

func TestApplyConfigSettingsErrors(t *testing.T) {
	tests := []map[string]interface{}{
		{"concurrency": "many"},
		{"timeout": "soon"},
		{"max_body_bytes": "lots"},
		{"feeder": "f.csv"},
		{"tracing": map[string]interface{}{"sample_rate": "half"}},
	}
	for _, settings := range tests {
		if err := applyConfigSettings(defaultConfig(), settings); err == nil {
			t.Errorf("applyConfigSettings(%v) should fail", settings)
		}
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := defaultConfig()
	cfg.Host = "http://file"
	cfg.Rate = 5

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)
	if err := fs.Parse([]string{"--host", " http://flag ", "--feeder-type", "JSON", "smoke"}); err != nil {
		t.Fatal(err)
	}

	if err := applyFlagOverrides(cfg, fs); err != nil {
		t.Fatalf("applyFlagOverrides() error = %v", err)
	}
	if cfg.Host != "http://flag" {
		t.Errorf("Host = %q, want http://flag", cfg.Host)
	}
	if cfg.Rate != 5 {
		t.Errorf("Rate = %d, unset flag must keep file value", cfg.Rate)
	}
	if cfg.Feeder.Type != FeederTypeJSON {
		t.Errorf("Feeder.Type = %q", cfg.Feeder.Type)
	}
	if len(cfg.Tours) != 1 || cfg.Tours[0] != "smoke" {
		t.Errorf("Tours = %v", cfg.Tours)
	}
}
