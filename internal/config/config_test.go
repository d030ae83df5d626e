package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/torosent/tourbus/internal/config"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := config.NewLoader().Load([]string{"--host", "localhost:8080"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Host != "localhost:8080" {
		t.Errorf("Host = %q, want localhost:8080", cfg.Host)
	}
	if cfg.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Concurrency)
	}
	if cfg.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", cfg.Iterations)
	}
	if cfg.ToursDir != "tours" {
		t.Errorf("ToursDir = %q, want tours", cfg.ToursDir)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %s, want 30s", cfg.RequestTimeout)
	}
	if cfg.Timeout != 0 {
		t.Errorf("Timeout = %s, want 0", cfg.Timeout)
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Errorf("MaxBodyBytes = %d, want 1MiB", cfg.MaxBodyBytes)
	}
	if cfg.JSONOutput {
		t.Errorf("JSONOutput = true, want false")
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "console" {
		t.Errorf("log = %s/%s, want info/console", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.Tracing.SampleRate != 1 {
		t.Errorf("Tracing.SampleRate = %g, want 1", cfg.Tracing.SampleRate)
	}
	if len(cfg.Tours) != 0 {
		t.Errorf("Tours = %v, want empty", cfg.Tours)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadNoArgsRequestsHelp(t *testing.T) {
	if _, err := config.NewLoader().Load(nil); !errors.Is(err, config.ErrHelpRequested) {
		t.Fatalf("Load(nil) error = %v, want ErrHelpRequested", err)
	}
	if _, err := config.NewLoader().Load([]string{"--help"}); !errors.Is(err, config.ErrHelpRequested) {
		t.Fatalf("Load(--help) error = %v, want ErrHelpRequested", err)
	}
}

func TestParseFlags(t *testing.T) {
	cfg, err := config.NewLoader().Load([]string{
		"--host", "http://api.local",
		"-c", "4",
		"-n", "10",
		"--tours-dir", "./examples",
		"--test", "^sign",
		"--test", "a,b",
		"--timeout", "2m",
		"--request-timeout", "5s",
		"--rate", "20",
		"--max-body-bytes", "4096",
		"--feeder-path", "users.csv",
		"--feeder-type", "CSV",
		"--threshold", "fails == 0",
		"--threshold", "response_time:p99 < 500",
		"--json-output",
		"--no-color",
		"--tracing-endpoint", "localhost:4317",
		"--tracing-sample-rate", "0.25",
		"login", "checkout",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Concurrency != 4 || cfg.Iterations != 10 {
		t.Errorf("shape = %dx%d, want 4x10", cfg.Concurrency, cfg.Iterations)
	}
	if cfg.ToursDir != "./examples" {
		t.Errorf("ToursDir = %q", cfg.ToursDir)
	}
	if len(cfg.Tests) != 2 || cfg.Tests[1] != "a,b" {
		t.Errorf("Tests = %v, want [^sign a,b]", cfg.Tests)
	}
	if cfg.Timeout != 2*time.Minute || cfg.RequestTimeout != 5*time.Second {
		t.Errorf("timeouts = %s/%s", cfg.Timeout, cfg.RequestTimeout)
	}
	if cfg.Rate != 20 {
		t.Errorf("Rate = %d, want 20", cfg.Rate)
	}
	if cfg.MaxBodyBytes != 4096 {
		t.Errorf("MaxBodyBytes = %d, want 4096", cfg.MaxBodyBytes)
	}
	if cfg.Feeder.Path != "users.csv" || cfg.Feeder.Type != config.FeederTypeCSV {
		t.Errorf("Feeder = %+v", cfg.Feeder)
	}
	if len(cfg.Thresholds) != 2 {
		t.Errorf("Thresholds = %v", cfg.Thresholds)
	}
	if !cfg.JSONOutput || !cfg.NoColor {
		t.Errorf("JSONOutput/NoColor = %v/%v, want true/true", cfg.JSONOutput, cfg.NoColor)
	}
	if cfg.Tracing.Endpoint != "localhost:4317" || cfg.Tracing.SampleRate != 0.25 {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if strings.Join(cfg.Tours, ",") != "login,checkout" {
		t.Errorf("Tours = %v, want [login checkout]", cfg.Tours)
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tourbus.yaml")
	if err := os.WriteFile(path, []byte(`
host: https://shop.example.com
concurrency: 8
iterations: 3
tours_dir: ./tours
tours:
  - checkout
tests:
  - ^pay
timeout: 90s
request_timeout: 10
rate: 50
feeder:
  path: data.json
  type: json
thresholds:
  - errors == 0
log_level: DEBUG
tracing:
  endpoint: collector:4318
  protocol: http
  insecure: true
  sample_rate: 0.5
  propagate: false
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q", cfg.ConfigFile)
	}
	if cfg.Host != "https://shop.example.com" || cfg.Concurrency != 8 || cfg.Iterations != 3 {
		t.Errorf("run = %s %dx%d", cfg.Host, cfg.Concurrency, cfg.Iterations)
	}
	if len(cfg.Tours) != 1 || cfg.Tours[0] != "checkout" {
		t.Errorf("Tours = %v", cfg.Tours)
	}
	if len(cfg.Tests) != 1 || cfg.Tests[0] != "^pay" {
		t.Errorf("Tests = %v", cfg.Tests)
	}
	if cfg.Timeout != 90*time.Second || cfg.RequestTimeout != 10*time.Second {
		t.Errorf("timeouts = %s/%s", cfg.Timeout, cfg.RequestTimeout)
	}
	if cfg.Feeder.Type != config.FeederTypeJSON || cfg.Feeder.Path != "data.json" {
		t.Errorf("Feeder = %+v", cfg.Feeder)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	tr := cfg.Tracing
	if tr.Endpoint != "collector:4318" || tr.Protocol != "http" || !tr.Insecure || tr.SampleRate != 0.5 {
		t.Errorf("Tracing = %+v", tr)
	}
	if tr.ShouldPropagate() {
		t.Error("ShouldPropagate() = true, want false when propagate: false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tourbus.json")
	if err := os.WriteFile(path, []byte(`{"host": "http://file", "concurrency": 8, "tours": ["a"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path, "-c", "2", "b"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Host != "http://file" {
		t.Errorf("Host = %q, want value from file", cfg.Host)
	}
	if cfg.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want flag value 2", cfg.Concurrency)
	}
	if len(cfg.Tours) != 1 || cfg.Tours[0] != "b" {
		t.Errorf("Tours = %v, want positional [b]", cfg.Tours)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := config.NewLoader().Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidationErrors(t *testing.T) {
	valid := config.Config{Host: "localhost", Concurrency: 1, Iterations: 1, ToursDir: "tours"}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"missing host", func(c *config.Config) { c.Host = "" }, "host"},
		{"zero concurrency", func(c *config.Config) { c.Concurrency = 0 }, "concurrency"},
		{"zero iterations", func(c *config.Config) { c.Iterations = 0 }, "number"},
		{"empty tours dir", func(c *config.Config) { c.ToursDir = " " }, "tours-dir"},
		{"negative timeout", func(c *config.Config) { c.Timeout = -time.Second }, "timeout"},
		{"negative rate", func(c *config.Config) { c.Rate = -1 }, "rate"},
		{"negative max body", func(c *config.Config) { c.MaxBodyBytes = -1 }, "max-body-bytes"},
		{"bad test regexp", func(c *config.Config) { c.Tests = []string{"("} }, "test"},
		{"feeder type", func(c *config.Config) { c.Feeder = config.FeederConfig{Path: "x", Type: "xml"} }, "feeder"},
		{"feeder type without path", func(c *config.Config) { c.Feeder.Type = config.FeederTypeCSV }, "feeder"},
		{"tracing protocol", func(c *config.Config) { c.Tracing.Protocol = "thrift" }, "tracing-protocol"},
		{"sample rate", func(c *config.Config) { c.Tracing.SampleRate = 2 }, "tracing-sample-rate"},
		{"log level", func(c *config.Config) { c.LogLevel = "loud" }, "log-level"},
		{"log format", func(c *config.Config) { c.LogFormat = "xml" }, "log-format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			var verr config.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if len(verr.Issues()) != 1 || !strings.HasPrefix(verr.Issues()[0], tt.want) {
				t.Errorf("Issues() = %v, want one issue for %s", verr.Issues(), tt.want)
			}
		})
	}
}

func TestValidateListOnlyNeedsToursDir(t *testing.T) {
	cfg := config.Config{List: true, ToursDir: "tours"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestRunConfig(t *testing.T) {
	cfg := config.Config{Host: "h", Concurrency: 2, Iterations: 3, Tests: []string{"x"}}
	rc := cfg.RunConfig([]string{"a", "b"})
	if rc.Host != "h" || rc.Concurrency != 2 || rc.Iterations != 3 || len(rc.TourNames) != 2 || rc.TestFilter[0] != "x" {
		t.Errorf("RunConfig() = %+v", rc)
	}
	if rc.TotalRuns() != 12 {
		t.Errorf("TotalRuns() = %d, want 12", rc.TotalRuns())
	}
}

func TestTracingPropagation(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	off := false

	tests := []struct {
		name string
		cfg  config.TracingConfig
		want bool
	}{
		{"disabled", config.TracingConfig{}, false},
		{"enabled defaults on", config.TracingConfig{Endpoint: "c:4317"}, true},
		{"explicit off", config.TracingConfig{Endpoint: "c:4317", Propagate: &off}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ShouldPropagate(); got != tt.want {
				t.Errorf("ShouldPropagate() = %v, want %v", got, tt.want)
			}
			if got := tt.cfg.Options().Propagate; got != tt.want {
				t.Errorf("Options().Propagate = %v, want %v", got, tt.want)
			}
		})
	}

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "env:4317")
	if !(config.TracingConfig{}).Enabled() {
		t.Error("Enabled() = false, want true with OTEL_EXPORTER_OTLP_ENDPOINT set")
	}
}
