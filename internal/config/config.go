package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/torosent/tourbus/internal/coordinator"
	"github.com/torosent/tourbus/internal/tracing"
)

// FeederType names the format of a feeder data file.
type FeederType string

const (
	FeederTypeCSV  FeederType = "csv"
	FeederTypeJSON FeederType = "json"
)

// FeederConfig points at a data file whose records are injected into tours.
type FeederConfig struct {
	Path string     `mapstructure:"path"`
	Type FeederType `mapstructure:"type"`
}

// Enabled reports whether a feeder file was configured.
func (f FeederConfig) Enabled() bool {
	return strings.TrimSpace(f.Path) != ""
}

// TracingConfig controls OTLP span export and W3C header propagation.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
	Propagate   *bool   `mapstructure:"propagate"`
}

// Enabled reports whether tracing has an endpoint, either configured or
// taken from the standard OTEL environment variable.
func (t TracingConfig) Enabled() bool {
	if strings.TrimSpace(t.Endpoint) != "" {
		return true
	}
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate defaults to true whenever tracing is enabled.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate && t.Enabled()
	}
	return t.Enabled()
}

// Options converts the configuration into tracing provider options.
func (t TracingConfig) Options() tracing.Options {
	return tracing.Options{
		Endpoint:    t.Endpoint,
		Protocol:    t.Protocol,
		Insecure:    t.Insecure,
		SampleRate:  t.SampleRate,
		ServiceName: t.ServiceName,
		Propagate:   t.ShouldPropagate(),
	}
}

// Config is the full command-line configuration of a tourbus run.
type Config struct {
	Host           string        `mapstructure:"host"`
	Concurrency    int           `mapstructure:"concurrency"`
	Iterations     int           `mapstructure:"iterations"`
	ToursDir       string        `mapstructure:"tours_dir"`
	Tours          []string      `mapstructure:"tours"`
	Tests          []string      `mapstructure:"tests"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Rate           int           `mapstructure:"rate"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	Feeder         FeederConfig  `mapstructure:"feeder"`
	Thresholds     []string      `mapstructure:"thresholds"`
	JSONOutput     bool          `mapstructure:"json_output"`
	HTMLOutput     string        `mapstructure:"html_output"`
	JSONFile       string        `mapstructure:"json_file"`
	List           bool          `mapstructure:"list"`
	NoColor        bool          `mapstructure:"no_color"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	ConfigFile     string        `mapstructure:"-"`
}

// RunConfig narrows the CLI configuration to what the coordinator needs.
// tourNames are the resolved names from the registry.
func (c Config) RunConfig(tourNames []string) coordinator.RunConfig {
	return coordinator.RunConfig{
		Host:        c.Host,
		Concurrency: c.Concurrency,
		Iterations:  c.Iterations,
		TourNames:   tourNames,
		TestFilter:  c.Tests,
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "invalid configuration"
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if c.List {
		if strings.TrimSpace(c.ToursDir) == "" {
			issues = append(issues, "tours-dir: must not be empty")
		}
		if len(issues) > 0 {
			return ValidationError{issues: issues}
		}
		return nil
	}

	if strings.TrimSpace(c.Host) == "" {
		issues = append(issues, "host: is required")
	}
	if c.Concurrency < 1 {
		issues = append(issues, "concurrency: must be at least 1")
	}
	if c.Iterations < 1 {
		issues = append(issues, "number: must be at least 1")
	}
	if strings.TrimSpace(c.ToursDir) == "" {
		issues = append(issues, "tours-dir: must not be empty")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout: must be non-negative")
	}
	if c.RequestTimeout < 0 {
		issues = append(issues, "request-timeout: must be non-negative")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate: must be non-negative")
	}
	if c.MaxBodyBytes < 0 {
		issues = append(issues, "max-body-bytes: must be non-negative")
	}
	for _, pattern := range c.Tests {
		if _, err := regexp.Compile(pattern); err != nil {
			issues = append(issues, fmt.Sprintf("test %q: %v", pattern, err))
		}
	}
	issues = append(issues, validateFeederConfig(c.Feeder)...)
	issues = append(issues, validateTracingConfig(c.Tracing)...)

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("log-level: unsupported level %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		issues = append(issues, fmt.Sprintf("log-format: must be console or json, got %q", c.LogFormat))
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateFeederConfig(feeder FeederConfig) []string {
	if !feeder.Enabled() {
		if feeder.Type != "" {
			return []string{"feeder: type set without a path"}
		}
		return nil
	}
	switch feeder.Type {
	case "", FeederTypeCSV, FeederTypeJSON:
		return nil
	default:
		return []string{fmt.Sprintf("feeder: type must be csv or json, got %q", feeder.Type)}
	}
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing-protocol: must be grpc or http, got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing-sample-rate: must be between 0 and 1, got %g", t.SampleRate))
	}
	return issues
}
