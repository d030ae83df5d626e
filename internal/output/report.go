package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/torosent/tourbus/internal/threshold"
)

const (
	lineWidth      = 80
	maxLabelCells  = 40
	ratioHighlight = 0.15
	banner         = "!! THERE WERE FAILURES !!"
)

var (
	titleColor = color.New(color.Bold)
	okColor    = color.New(color.FgGreen)
	badColor   = color.New(color.FgRed)
	warnColor  = color.New(color.FgYellow)
)

// SetColor turns ANSI colors on or off for every renderer in this package.
func SetColor(enabled bool) {
	color.NoColor = !enabled
}

// PrintReport outputs the human-readable summary: the response time and
// status code tables, the closing totals and, when anything failed or
// errored, the failure banner.
func PrintReport(w io.Writer, s Summary) {
	rule := strings.Repeat("-", lineWidth)

	fmt.Fprintln(w)
	titleColor.Fprintln(w, "Response Times by Endpoint")
	timeRows := make([]tableRow, 0, len(s.ResponseTimeRows))
	for _, r := range s.ResponseTimeRows {
		timeRows = append(timeRows, tableRow{
			label: r.Endpoint,
			value: fmt.Sprintf("%.3f s avg. (p99 %.3f s, n=%d)", r.Mean.Seconds(), r.P99.Seconds(), r.Count),
			ratio: r.Ratio,
		})
	}
	writeTable(w, timeRows)

	fmt.Fprintln(w)
	titleColor.Fprintln(w, "Response Status Codes")
	statusRows := make([]tableRow, 0, len(s.StatusRows))
	for _, r := range s.StatusRows {
		statusRows = append(statusRows, tableRow{
			label: strconv.Itoa(r.Code),
			value: fmt.Sprintf("%d occurrences", r.Count),
			ratio: r.Ratio,
		})
	}
	writeTable(w, statusRows)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, s.Label)
	if s.RunID != "" {
		fmt.Fprintf(w, "Run ID:        %s\n", s.RunID)
	}
	fmt.Fprintf(w, "Total Tours:   %d\n", s.Totals.Runs)
	fmt.Fprintf(w, "Total Tests:   %d\n", s.Totals.Tests)
	okColor.Fprintf(w, "Total Passes:  %d\n", s.Totals.Passes)
	countColor(s.Totals.Fails).Fprintf(w, "Total Fails:   %d\n", s.Totals.Fails)
	countColor(s.Totals.Errors).Fprintf(w, "Total Errors:  %d\n", s.Totals.Errors)
	warnColor.Fprintf(w, "Elapsed Time:  %s\n", s.Elapsed)
	fmt.Fprintf(w, "Speed:         %.3f tours/sec\n", s.Throughput)
	if len(s.Benchmark) > 0 {
		parts := make([]string, len(s.Benchmark))
		for i, b := range s.Benchmark {
			parts[i] = fmt.Sprintf("%s=%.3fs", b.Label, b.Seconds)
		}
		fmt.Fprintf(w, "Worker Time:   %s\n", strings.Join(parts, " "))
	}
	if len(s.Faults) > 0 {
		badColor.Fprintf(w, "Worker Faults: %d\n", len(s.Faults))
		for _, f := range s.Faults {
			badColor.Fprintf(w, "  - %s\n", f)
		}
	}
	fmt.Fprintln(w, rule)

	if s.Failed {
		stars := strings.Repeat("*", lineWidth)
		badColor.Fprintln(w, stars)
		badColor.Fprintln(w, stars)
		badColor.Fprintln(w, center(banner, lineWidth))
		badColor.Fprintln(w, stars)
		badColor.Fprintln(w, stars)
	}
}

// PrintThresholdResults lists every threshold with its outcome.
func PrintThresholdResults(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w)
	titleColor.Fprintln(w, "Thresholds")
	for _, r := range results {
		c := okColor
		if !r.Pass {
			c = badColor
		}
		c.Fprintf(w, "  %s\n", r.Message)
	}
}

// JSONReport is the machine-readable form of a run.
type JSONReport struct {
	Summary
	Thresholds []ThresholdResultJSON `json:"thresholds,omitempty"`
}

// ThresholdResultJSON is a threshold outcome in JSON reports.
type ThresholdResultJSON struct {
	Threshold string  `json:"threshold"`
	Metric    string  `json:"metric"`
	Aggregate string  `json:"aggregate,omitempty"`
	Operator  string  `json:"operator"`
	Expected  float64 `json:"expected"`
	Actual    float64 `json:"actual"`
	Pass      bool    `json:"pass"`
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, s Summary, results []threshold.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(JSONReport{Summary: s, Thresholds: thresholdJSON(results)})
}

func thresholdJSON(results []threshold.Result) []ThresholdResultJSON {
	if len(results) == 0 {
		return nil
	}
	out := make([]ThresholdResultJSON, len(results))
	for i, r := range results {
		out[i] = ThresholdResultJSON{
			Threshold: r.Threshold.Raw,
			Metric:    r.Threshold.Metric,
			Aggregate: r.Threshold.Aggregate,
			Operator:  r.Threshold.Operator,
			Expected:  r.Threshold.Value,
			Actual:    r.Actual,
			Pass:      r.Pass,
		}
	}
	return out
}

type tableRow struct {
	label string
	value string
	ratio float64
}

// writeTable prints label, value and a ratio bar that fills the rest of the
// line. Bars at or above ratioHighlight are drawn in yellow.
func writeTable(w io.Writer, rows []tableRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "  None")
		return
	}
	labelWidth, valueWidth := 0, 0
	for _, r := range rows {
		labelWidth = max(labelWidth, min(runewidth.StringWidth(r.label), maxLabelCells))
		valueWidth = max(valueWidth, runewidth.StringWidth(r.value))
	}
	barWidth := max(lineWidth-labelWidth-valueWidth-13, 10)

	for _, r := range rows {
		label := runewidth.FillRight(runewidth.Truncate(r.label, labelWidth, "…"), labelWidth)
		value := runewidth.FillLeft(r.value, valueWidth)
		bar := ratioBar(r.ratio, barWidth)
		pct := fmt.Sprintf("%5.1f%%", r.ratio*100)
		fmt.Fprintf(w, "  %s  %s  ", label, value)
		if r.ratio >= ratioHighlight {
			warnColor.Fprint(w, bar)
		} else {
			fmt.Fprint(w, bar)
		}
		fmt.Fprintf(w, " %s\n", pct)
	}
}

func ratioBar(ratio float64, width int) string {
	ratio = min(max(ratio, 0), 1)
	filled := int(ratio*float64(width) + 0.5)
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}

func countColor(n int64) *color.Color {
	if n > 0 {
		return badColor
	}
	return okColor
}

func center(s string, width int) string {
	pad := (width - runewidth.StringWidth(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
