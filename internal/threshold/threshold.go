package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/torosent/tourbus/internal/metrics"
	"github.com/torosent/tourbus/internal/stats"
)

// Threshold represents a run assertion that can pass or fail.
type Threshold struct {
	Metric    string  // e.g., "fails", "response_time"
	Aggregate string  // e.g., "p99", "avg"; empty for plain counters
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Input is what thresholds are evaluated against.
type Input struct {
	Totals  stats.Snapshot
	Elapsed time.Duration
	Derived metrics.Derived
}

// Evaluator evaluates thresholds against a finished run.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against in.
func (e *Evaluator) Evaluate(in Input) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, in))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, in Input) Result {
	actual, err := extractMetricValue(t, in)
	if err != nil {
		return Result{
			Threshold: t,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

var thresholdPattern = regexp.MustCompile(`^([a-z0-9_]+)(?::([a-z0-9]+))?\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "fails == 0", "errors < 3", "runs >= 100", "tests > 0"
// - "pass_rate >= 0.99"             (passes / tests)
// - "throughput > 5"                (runs per second)
// - "response_time:p99 < 250"       (milliseconds; p50, p90, p99, avg, min, max)
// - "status_5xx == 0"               (also status_2xx .. status_4xx)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric[:aggregate] operator value, e.g., 'response_time:p99 < 250')", s)
	}

	metric := matches[1]
	aggregate := matches[2]
	operator := matches[3]

	value, err := strconv.ParseFloat(matches[4], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", matches[4], err)
	}

	if !isValidMetric(metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: runs, tests, passes, fails, errors, pass_rate, throughput, response_time, status_2xx..status_5xx)", metric)
	}
	if metric == "response_time" {
		if !isValidAggregate(aggregate) {
			return Threshold{}, fmt.Errorf("unsupported aggregate: %q for response_time (supported: p50, p90, p99, avg, min, max)", aggregate)
		}
	} else if aggregate != "" {
		return Threshold{}, fmt.Errorf("metric %q does not take an aggregate", metric)
	}
	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}

	return result, nil
}

func isValidMetric(metric string) bool {
	switch metric {
	case "runs", "tests", "passes", "fails", "errors", "pass_rate", "throughput", "response_time":
		return true
	}
	_, ok := statusClass(metric)
	return ok
}

func isValidAggregate(aggregate string) bool {
	switch aggregate {
	case "p50", "p90", "p99", "avg", "min", "max":
		return true
	}
	return false
}

func isValidOperator(operator string) bool {
	switch operator {
	case "<", "<=", ">", ">=", "==":
		return true
	}
	return false
}

func statusClass(metric string) (int, bool) {
	if len(metric) != len("status_5xx") || !strings.HasPrefix(metric, "status_") || !strings.HasSuffix(metric, "xx") {
		return 0, false
	}
	class := int(metric[len("status_")] - '0')
	if class < 1 || class > 5 {
		return 0, false
	}
	return class, true
}

func extractMetricValue(t Threshold, in Input) (float64, error) {
	totals := in.Totals
	switch t.Metric {
	case "runs":
		return float64(totals.Runs), nil
	case "tests":
		return float64(totals.Tests), nil
	case "passes":
		return float64(totals.Passes), nil
	case "fails":
		return float64(totals.Fails), nil
	case "errors":
		return float64(totals.Errors), nil
	case "pass_rate":
		if totals.Tests == 0 {
			return 0, nil
		}
		return float64(totals.Passes) / float64(totals.Tests), nil
	case "throughput":
		if in.Elapsed <= 0 {
			return 0, nil
		}
		return float64(totals.Runs) / in.Elapsed.Seconds(), nil
	case "response_time":
		return extractLatencyMetric(t.Aggregate, in.Derived)
	}
	if class, ok := statusClass(t.Metric); ok {
		return float64(in.Derived.StatusClassCount(class)), nil
	}
	return 0, fmt.Errorf("unknown metric: %s", t.Metric)
}

// extractLatencyMetric reports milliseconds. Percentiles and max take the
// slowest endpoint, min the fastest; avg is the mean over every observation.
func extractLatencyMetric(aggregate string, d metrics.Derived) (float64, error) {
	pick := func(f func(metrics.EndpointTiming) time.Duration) time.Duration {
		var worst time.Duration
		for _, t := range d.ResponseTimes {
			if v := f(t); v > worst {
				worst = v
			}
		}
		return worst
	}

	var v time.Duration
	switch aggregate {
	case "p50":
		v = pick(func(t metrics.EndpointTiming) time.Duration { return t.P50 })
	case "p90":
		v = pick(func(t metrics.EndpointTiming) time.Duration { return t.P90 })
	case "p99":
		v = d.MaxP99()
	case "max":
		v = pick(func(t metrics.EndpointTiming) time.Duration { return t.Max })
	case "min":
		first := true
		for _, t := range d.ResponseTimes {
			if first || t.Min < v {
				v = t.Min
				first = false
			}
		}
	case "avg":
		v = d.OverallMean()
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for response_time", aggregate)
	}
	return float64(v) / float64(time.Millisecond), nil
}

func compareValues(actual float64, operator string, expected float64) bool {
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
