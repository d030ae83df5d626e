package output

import (
	"time"

	"github.com/torosent/tourbus/internal/coordinator"
	"github.com/torosent/tourbus/internal/metrics"
	"github.com/torosent/tourbus/internal/stats"
)

// ResponseTimeRow is one endpoint in the response time table. Ratio is the
// endpoint's mean divided by the sum of all endpoint means.
type ResponseTimeRow struct {
	Endpoint string        `json:"endpoint"`
	Count    int64         `json:"count"`
	Mean     time.Duration `json:"-"`
	Min      time.Duration `json:"-"`
	Max      time.Duration `json:"-"`
	P50      time.Duration `json:"-"`
	P90      time.Duration `json:"-"`
	P99      time.Duration `json:"-"`
	Ratio    float64       `json:"ratio"`

	MeanMs float64 `json:"mean_ms"`
	MinMs  float64 `json:"min_ms"`
	MaxMs  float64 `json:"max_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P90Ms  float64 `json:"p90_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// StatusRow is one status code in the histogram table. Ratio is the code's
// count divided by all status observations.
type StatusRow struct {
	Code  int     `json:"code"`
	Count int64   `json:"count"`
	Ratio float64 `json:"ratio"`
}

// BenchmarkRow is one bucket of the summed worker timing vector.
type BenchmarkRow struct {
	Label   string  `json:"label"`
	Seconds float64 `json:"seconds"`
}

// Summary is everything the renderers print.
type Summary struct {
	RunID            string            `json:"run_id"`
	Label            string            `json:"label"`
	Elapsed          time.Duration     `json:"-"`
	ElapsedSeconds   float64           `json:"elapsed_seconds"`
	Totals           stats.Counts      `json:"totals"`
	Throughput       float64           `json:"throughput"`
	ResponseTimeRows []ResponseTimeRow `json:"response_times"`
	StatusRows       []StatusRow       `json:"status_codes"`
	Benchmark        []BenchmarkRow    `json:"benchmark,omitempty"`
	Faults           []string          `json:"faults,omitempty"`
	Failed           bool              `json:"failed"`
}

// Summarize computes throughput, ratio tables and the failure flag.
func Summarize(report coordinator.Report, derived metrics.Derived) Summary {
	s := Summary{
		RunID:          report.RunID,
		Label:          report.Label,
		Elapsed:        report.Elapsed,
		ElapsedSeconds: report.Elapsed.Seconds(),
		Totals:         report.Totals.Counts,
		Failed:         report.Totals.HasFailures(),
	}
	if report.Elapsed > 0 {
		s.Throughput = float64(report.Totals.Runs) / report.Elapsed.Seconds()
	}

	endpoints := derived.SortedEndpoints()
	var sumOfMeans time.Duration
	for _, e := range endpoints {
		sumOfMeans += e.Timing.Mean()
	}
	for _, e := range endpoints {
		t := e.Timing
		row := ResponseTimeRow{
			Endpoint: e.Endpoint,
			Count:    t.Count,
			Mean:     t.Mean(),
			Min:      t.Min,
			Max:      t.Max,
			P50:      t.P50,
			P90:      t.P90,
			P99:      t.P99,
			MeanMs:   ms(t.Mean()),
			MinMs:    ms(t.Min),
			MaxMs:    ms(t.Max),
			P50Ms:    ms(t.P50),
			P90Ms:    ms(t.P90),
			P99Ms:    ms(t.P99),
		}
		if sumOfMeans > 0 {
			row.Ratio = float64(t.Mean()) / float64(sumOfMeans)
		}
		s.ResponseTimeRows = append(s.ResponseTimeRows, row)
	}

	observations := derived.Observations()
	for _, c := range derived.SortedStatusCodes() {
		row := StatusRow{Code: c.Code, Count: c.Count}
		if observations > 0 {
			row.Ratio = float64(c.Count) / float64(observations)
		}
		s.StatusRows = append(s.StatusRows, row)
	}

	for i, v := range report.Totals.Benchmark {
		label := "bucket"
		if i < len(stats.BenchmarkLabels) {
			label = stats.BenchmarkLabels[i]
		}
		s.Benchmark = append(s.Benchmark, BenchmarkRow{Label: label, Seconds: v})
	}

	for _, f := range report.Faults {
		s.Faults = append(s.Faults, f.Error())
	}
	return s
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
