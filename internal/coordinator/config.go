package coordinator

import (
	"fmt"
	"strings"
)

// RunConfig is the immutable description of one run.
type RunConfig struct {
	Host        string
	Concurrency int
	Iterations  int
	TourNames   []string
	TestFilter  []string
}

// ConfigurationError is returned by Run before any worker starts.
type ConfigurationError struct {
	Issues []string
}

func (e *ConfigurationError) Error() string {
	return "invalid run configuration: " + strings.Join(e.Issues, "; ")
}

// Validate checks the run shape.
func (c RunConfig) Validate() error {
	var issues []string
	if c.Concurrency < 1 {
		issues = append(issues, fmt.Sprintf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.Iterations < 1 {
		issues = append(issues, fmt.Sprintf("iterations must be at least 1, got %d", c.Iterations))
	}
	if len(c.TourNames) == 0 {
		issues = append(issues, "at least one tour is required")
	}
	for _, name := range c.TourNames {
		if strings.TrimSpace(name) == "" {
			issues = append(issues, "tour names must not be blank")
			break
		}
	}
	if len(issues) > 0 {
		return &ConfigurationError{Issues: issues}
	}
	return nil
}

// TotalRuns is the number of tour executions the run will attempt.
func (c RunConfig) TotalRuns() int {
	return len(c.TourNames) * c.Concurrency * c.Iterations
}

// Label describes the run, e.g. "6 runs: 2x3 of login".
func (c RunConfig) Label() string {
	return fmt.Sprintf("%d runs: %dx%d of %s", c.TotalRuns(), c.Concurrency, c.Iterations, strings.Join(c.TourNames, ","))
}
