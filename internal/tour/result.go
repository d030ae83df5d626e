package tour

import (
	"fmt"
	"net/http"
	"regexp"
	"time"
)

// ResponseMeta describes a single response. StatusCode is zero when no
// response was received.
type ResponseMeta struct {
	StatusCode int         `json:"status_code,omitempty"`
	Header     http.Header `json:"-"`
}

// HasStatus reports whether a status code was observed.
func (m ResponseMeta) HasStatus() bool {
	return m.StatusCode != 0
}

// Result records every request made by one execution of a tour.
// Requests, ResponseTimes and Responses are parallel slices.
type Result struct {
	Tour          string          `json:"tour"`
	Worker        int             `json:"worker"`
	Iteration     int             `json:"iteration"`
	Requests      []string        `json:"requests"`
	ResponseTimes []time.Duration `json:"response_times"`
	Responses     []ResponseMeta  `json:"responses"`
}

// Record appends one observation to all three sequences.
func (r *Result) Record(endpoint string, latency time.Duration, meta ResponseMeta) {
	r.Requests = append(r.Requests, endpoint)
	r.ResponseTimes = append(r.ResponseTimes, latency)
	r.Responses = append(r.Responses, meta)
}

// Len returns the number of recorded requests.
func (r *Result) Len() int {
	return len(r.Requests)
}

// TotalLatency sums all recorded response times.
func (r *Result) TotalLatency() time.Duration {
	var total time.Duration
	for _, d := range r.ResponseTimes {
		total += d
	}
	return total
}

// TestFilter selects tests by name. An empty filter selects every test.
type TestFilter struct {
	patterns []*regexp.Regexp
}

// NewTestFilter compiles the given regular expressions.
func NewTestFilter(patterns []string) (TestFilter, error) {
	var f TestFilter
	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return TestFilter{}, fmt.Errorf("test filter %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// Match reports whether name is selected.
func (f TestFilter) Match(name string) bool {
	if len(f.patterns) == 0 {
		return true
	}
	for _, re := range f.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
