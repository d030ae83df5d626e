package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

func NewLoader() *Loader {
	return &Loader{}
}

// Load parses args, reads the config file named by --config if any, and
// lets explicitly set flags override the file.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := defaultConfig()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Concurrency:    1,
		Iterations:     1,
		ToursDir:       defaultToursDir,
		RequestTimeout: defaultRequestTimeout,
		MaxBodyBytes:   defaultMaxBodyBytes,
		LogLevel:       "info",
		LogFormat:      "console",
		Tracing: TracingConfig{
			Protocol:   "grpc",
			SampleRate: 1.0,
		},
	}
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	textSettings := []struct {
		keys []string
		dst  *string
	}{
		{[]string{"host"}, &cfg.Host},
		{[]string{"tours_dir", "toursdir", "tours-dir"}, &cfg.ToursDir},
		{[]string{"json_file", "jsonfile", "json-file"}, &cfg.JSONFile},
		{[]string{"html_output", "htmloutput", "html-output"}, &cfg.HTMLOutput},
		{[]string{"log_level", "loglevel", "log-level"}, &cfg.LogLevel},
		{[]string{"log_format", "logformat", "log-format"}, &cfg.LogFormat},
	}
	for _, s := range textSettings {
		if raw, ok := lookupSetting(settings, s.keys...); ok {
			val, err := asString(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", s.keys[0], err)
			}
			*s.dst = strings.TrimSpace(val)
		}
	}

	ints := []struct {
		keys []string
		dst  *int
	}{
		{[]string{"concurrency"}, &cfg.Concurrency},
		{[]string{"iterations", "number"}, &cfg.Iterations},
		{[]string{"rate"}, &cfg.Rate},
	}
	for _, s := range ints {
		if raw, ok := lookupSetting(settings, s.keys...); ok {
			val, err := asInt(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", s.keys[0], err)
			}
			*s.dst = val
		}
	}

	if raw, ok := lookupSetting(settings, "max_body_bytes", "maxbodybytes", "max-body-bytes"); ok {
		val, err := asInt64(raw)
		if err != nil {
			return fmt.Errorf("max_body_bytes: %w", err)
		}
		cfg.MaxBodyBytes = val
	}

	durations := []struct {
		keys []string
		dst  *time.Duration
	}{
		{[]string{"timeout"}, &cfg.Timeout},
		{[]string{"request_timeout", "requesttimeout", "request-timeout"}, &cfg.RequestTimeout},
	}
	for _, s := range durations {
		if raw, ok := lookupSetting(settings, s.keys...); ok {
			val, err := asDuration(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", s.keys[0], err)
			}
			*s.dst = val
		}
	}

	bools := []struct {
		keys []string
		dst  *bool
	}{
		{[]string{"json_output", "jsonoutput", "json-output"}, &cfg.JSONOutput},
		{[]string{"no_color", "nocolor", "no-color"}, &cfg.NoColor},
		{[]string{"list"}, &cfg.List},
	}
	for _, s := range bools {
		if raw, ok := lookupSetting(settings, s.keys...); ok {
			val, err := asBool(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", s.keys[0], err)
			}
			*s.dst = val
		}
	}

	slices := []struct {
		keys []string
		dst  *[]string
	}{
		{[]string{"tours"}, &cfg.Tours},
		{[]string{"tests", "test"}, &cfg.Tests},
		{[]string{"thresholds", "threshold"}, &cfg.Thresholds},
	}
	for _, s := range slices {
		if raw, ok := lookupSetting(settings, s.keys...); ok {
			val, err := asStringSlice(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", s.keys[0], err)
			}
			*s.dst = val
		}
	}

	if raw, ok := lookupSetting(settings, "feeder"); ok {
		feeder, err := parseFeeder(raw)
		if err != nil {
			return fmt.Errorf("feeder: %w", err)
		}
		cfg.Feeder = feeder
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := applyTracingSettings(&cfg.Tracing, raw); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}

	return nil
}

func parseFeeder(value interface{}) (FeederConfig, error) {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return FeederConfig{}, err
	}
	var feeder FeederConfig
	if raw, ok := lookupSetting(settings, "path"); ok {
		if feeder.Path, err = asString(raw); err != nil {
			return FeederConfig{}, fmt.Errorf("path: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "type"); ok {
		kind, err := asString(raw)
		if err != nil {
			return FeederConfig{}, fmt.Errorf("type: %w", err)
		}
		feeder.Type = FeederType(strings.ToLower(strings.TrimSpace(kind)))
	}
	return feeder, nil
}

func applyTracingSettings(t *TracingConfig, value interface{}) error {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		if t.Endpoint, err = asString(raw); err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		if t.Protocol, err = asString(raw); err != nil {
			return fmt.Errorf("protocol: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "service_name", "servicename", "service-name"); ok {
		if t.ServiceName, err = asString(raw); err != nil {
			return fmt.Errorf("service_name: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		if t.Insecure, err = asBool(raw); err != nil {
			return fmt.Errorf("insecure: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "sample_rate", "samplerate", "sample-rate"); ok {
		if t.SampleRate, err = asFloat64(raw); err != nil {
			return fmt.Errorf("sample_rate: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "propagate"); ok {
		propagate, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("propagate: %w", err)
		}
		t.Propagate = &propagate
	}
	return nil
}
