package metrics

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/tourbus/internal/tour"
)

// Track latencies from 1µs up to 60s with 3 significant figures.
const (
	histMin     = 1
	histMax     = 60_000_000
	histSigFigs = 3
)

// EndpointTiming aggregates the latencies observed for one endpoint key.
type EndpointTiming struct {
	Sum   time.Duration
	Count int64
	Min   time.Duration
	Max   time.Duration
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
}

// Mean returns Sum/Count, or 0 when nothing was observed.
func (e EndpointTiming) Mean() time.Duration {
	if e.Count == 0 {
		return 0
	}
	return time.Duration(int64(e.Sum) / e.Count)
}

// Derived holds the views computed from a result collection.
type Derived struct {
	ResponseTimes map[string]EndpointTiming
	StatusCodes   map[int]int64
}

// Observations returns the total number of status codes seen.
func (d Derived) Observations() int64 {
	var n int64
	for _, c := range d.StatusCodes {
		n += c
	}
	return n
}

// Derive computes response time and status views from results. It never
// mutates results.
func Derive(results []tour.Result) Derived {
	d := Derived{
		ResponseTimes: make(map[string]EndpointTiming),
		StatusCodes:   make(map[int]int64),
	}
	hists := make(map[string]*hdrhistogram.Histogram)

	for _, r := range results {
		n := min(len(r.Requests), len(r.ResponseTimes), len(r.Responses))
		for i := 0; i < n; i++ {
			endpoint := r.Requests[i]
			latency := r.ResponseTimes[i]

			t, seen := d.ResponseTimes[endpoint]
			t.Sum += latency
			t.Count++
			if !seen || latency < t.Min {
				t.Min = latency
			}
			if latency > t.Max {
				t.Max = latency
			}
			d.ResponseTimes[endpoint] = t

			h := hists[endpoint]
			if h == nil {
				h = hdrhistogram.New(histMin, histMax, histSigFigs)
				hists[endpoint] = h
			}
			recordLatency(h, latency)

			if r.Responses[i].HasStatus() {
				d.StatusCodes[r.Responses[i].StatusCode]++
			}
		}
	}

	for endpoint, h := range hists {
		t := d.ResponseTimes[endpoint]
		t.P50 = quantile(h, 50)
		t.P90 = quantile(h, 90)
		t.P99 = quantile(h, 99)
		d.ResponseTimes[endpoint] = t
	}
	return d
}

func recordLatency(h *hdrhistogram.Histogram, latency time.Duration) {
	us := latency.Microseconds()
	if us < h.LowestTrackableValue() {
		us = h.LowestTrackableValue()
	}
	if us > h.HighestTrackableValue() {
		us = h.HighestTrackableValue()
	}
	_ = h.RecordValue(us)
}

func quantile(h *hdrhistogram.Histogram, q float64) time.Duration {
	if h.TotalCount() == 0 {
		return 0
	}
	return time.Duration(h.ValueAtQuantile(q)) * time.Microsecond
}
