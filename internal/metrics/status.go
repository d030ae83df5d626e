package metrics

import (
	"sort"
	"time"
)

// StatusCount is one row of the status histogram.
type StatusCount struct {
	Code  int
	Count int64
}

// SortedStatusCodes flattens the histogram into rows sorted by ascending code.
func (d Derived) SortedStatusCodes() []StatusCount {
	if len(d.StatusCodes) == 0 {
		return nil
	}
	rows := make([]StatusCount, 0, len(d.StatusCodes))
	for code, count := range d.StatusCodes {
		rows = append(rows, StatusCount{Code: code, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows
}

// StatusClassCount sums the codes in the class of the given hundred, e.g.
// 5 for 5xx.
func (d Derived) StatusClassCount(class int) int64 {
	var n int64
	for code, count := range d.StatusCodes {
		if code/100 == class {
			n += count
		}
	}
	return n
}

// EndpointRow pairs an endpoint key with its timing.
type EndpointRow struct {
	Endpoint string
	Timing   EndpointTiming
}

// SortedEndpoints returns endpoints ordered by descending mean, then by name.
func (d Derived) SortedEndpoints() []EndpointRow {
	if len(d.ResponseTimes) == 0 {
		return nil
	}
	rows := make([]EndpointRow, 0, len(d.ResponseTimes))
	for ep, t := range d.ResponseTimes {
		rows = append(rows, EndpointRow{Endpoint: ep, Timing: t})
	}
	sort.Slice(rows, func(i, j int) bool {
		mi, mj := rows[i].Timing.Mean(), rows[j].Timing.Mean()
		if mi == mj {
			return rows[i].Endpoint < rows[j].Endpoint
		}
		return mi > mj
	})
	return rows
}

// OverallMean is the mean over every observation of every endpoint.
func (d Derived) OverallMean() time.Duration {
	var sum time.Duration
	var count int64
	for _, t := range d.ResponseTimes {
		sum += t.Sum
		count += t.Count
	}
	if count == 0 {
		return 0
	}
	return time.Duration(int64(sum) / count)
}

// MaxP99 returns the highest per-endpoint p99.
func (d Derived) MaxP99() time.Duration {
	var p time.Duration
	for _, t := range d.ResponseTimes {
		if t.P99 > p {
			p = t.P99
		}
	}
	return p
}
