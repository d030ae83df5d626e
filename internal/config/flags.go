package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	defaultToursDir       = "tours"
	defaultRequestTimeout = 30 * time.Second
	defaultMaxBodyBytes   = 1 << 20
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tourbus [flags] [tour filter...]",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

func configureFlags(flags *pflag.FlagSet) {
	// Run shape
	flags.String("host", "", "Base URL or host:port the tours run against")
	flags.IntP("concurrency", "c", 1, "Number of concurrent runners")
	flags.IntP("number", "n", 1, "Number of times each runner repeats its tours")
	flags.String("tours-dir", defaultToursDir, "Directory containing tour files")
	flags.StringArray("test", nil, "Regular expression selecting tests inside each tour (repeatable)")
	flags.Bool("list", false, "List the available tours and exit")

	// Pacing
	flags.Duration("timeout", 0, "Overall run timeout (0 means none)")
	flags.Duration("request-timeout", defaultRequestTimeout, "Per-request timeout")
	flags.IntP("rate", "r", 0, "Requests per second limit per runner (0 means unlimited)")
	flags.Int64("max-body-bytes", defaultMaxBodyBytes, "Maximum bytes of each response body read for expectations and captures")

	// Feeder
	flags.String("feeder-path", "", "Path to CSV or JSON file with records injected into tours")
	flags.String("feeder-type", "", "Type of feeder file: 'csv' or 'json' (default from extension)")

	// Output
	flags.StringArray("threshold", nil, "Pass/fail threshold (repeatable, e.g. 'response_time:p99 < 500')")
	flags.Bool("json-output", false, "Emit the report as JSON")
	flags.String("json-file", "", "Also write the JSON report to this file")
	flags.String("html-output", "", "Write an HTML report to this file")
	flags.Bool("no-color", false, "Disable colored output")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "console", "Log format: console or json")

	// Tracing
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (falls back to OTEL_EXPORTER_OTLP_ENDPOINT)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of tours traced, between 0 and 1")

	flags.String("config", "", "Path to configuration file (JSON or YAML)")
}

func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides copies explicitly set flags over the config file values.
// Positional arguments replace the configured tour filters.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	setString := func(name string, dst *string) {
		if err == nil && fs.Changed(name) {
			var v string
			if v, err = fs.GetString(name); err == nil {
				*dst = strings.TrimSpace(v)
			}
		}
	}
	setInt := func(name string, dst *int) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetInt(name)
		}
	}
	setInt64 := func(name string, dst *int64) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetInt64(name)
		}
	}
	setBool := func(name string, dst *bool) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetBool(name)
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetDuration(name)
		}
	}
	setArray := func(name string, dst *[]string) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetStringArray(name)
		}
	}

	setString("host", &cfg.Host)
	setInt("concurrency", &cfg.Concurrency)
	setInt("number", &cfg.Iterations)
	setString("tours-dir", &cfg.ToursDir)
	setArray("test", &cfg.Tests)
	setBool("list", &cfg.List)
	setDuration("timeout", &cfg.Timeout)
	setDuration("request-timeout", &cfg.RequestTimeout)
	setInt("rate", &cfg.Rate)
	setInt64("max-body-bytes", &cfg.MaxBodyBytes)
	setString("feeder-path", &cfg.Feeder.Path)
	if err == nil && fs.Changed("feeder-type") {
		var v string
		if v, err = fs.GetString("feeder-type"); err == nil {
			cfg.Feeder.Type = FeederType(strings.ToLower(strings.TrimSpace(v)))
		}
	}
	setArray("threshold", &cfg.Thresholds)
	setBool("json-output", &cfg.JSONOutput)
	setString("json-file", &cfg.JSONFile)
	setString("html-output", &cfg.HTMLOutput)
	setBool("no-color", &cfg.NoColor)
	setString("log-level", &cfg.LogLevel)
	setString("log-format", &cfg.LogFormat)
	setString("tracing-endpoint", &cfg.Tracing.Endpoint)
	setString("tracing-protocol", &cfg.Tracing.Protocol)
	setBool("tracing-insecure", &cfg.Tracing.Insecure)
	if err == nil && fs.Changed("tracing-sample-rate") {
		cfg.Tracing.SampleRate, err = fs.GetFloat64("tracing-sample-rate")
	}
	if err != nil {
		return err
	}

	if args := fs.Args(); len(args) > 0 {
		cfg.Tours = append([]string(nil), args...)
	}
	return nil
}
