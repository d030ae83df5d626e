package stats

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrShapeMismatch is returned when a benchmark vector does not match the
// length established by the first merge.
var ErrShapeMismatch = errors.New("benchmark vector shape mismatch")

// ErrNegativeCount is returned when a contribution carries a negative counter.
var ErrNegativeCount = errors.New("negative count")

// Counts holds the outcome totals reported by a worker.
type Counts struct {
	Runs   int64 `json:"runs"`
	Tests  int64 `json:"tests"`
	Passes int64 `json:"passes"`
	Fails  int64 `json:"fails"`
	Errors int64 `json:"errors"`
}

// Add returns the component-wise sum of c and other.
func (c Counts) Add(other Counts) Counts {
	return Counts{
		Runs:   c.Runs + other.Runs,
		Tests:  c.Tests + other.Tests,
		Passes: c.Passes + other.Passes,
		Fails:  c.Fails + other.Fails,
		Errors: c.Errors + other.Errors,
	}
}

// Validate reports an ErrNegativeCount when any field is below zero.
func (c Counts) Validate() error {
	fields := []struct {
		name string
		v    int64
	}{
		{"runs", c.Runs},
		{"tests", c.Tests},
		{"passes", c.Passes},
		{"fails", c.Fails},
		{"errors", c.Errors},
	}
	for _, f := range fields {
		if f.v < 0 {
			return fmt.Errorf("%w: %s = %d", ErrNegativeCount, f.name, f.v)
		}
	}
	return nil
}

// Snapshot is a point-in-time copy of an Accumulator.
type Snapshot struct {
	Counts
	Benchmark []float64 `json:"benchmark,omitempty"`
}

// HasFailures reports whether any test failed or errored.
func (s Snapshot) HasFailures() bool {
	return s.Fails > 0 || s.Errors > 0
}

// Accumulator aggregates worker results for a single run.
// All methods are safe for concurrent use.
type Accumulator struct {
	mu        sync.Mutex
	counts    Counts
	benchmark []float64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Merge adds c to the running totals as one atomic step. Negative fields are
// rejected with ErrNegativeCount and leave the totals untouched.
func (a *Accumulator) Merge(c Counts) error {
	if err := c.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	a.counts = a.counts.Add(c)
	a.mu.Unlock()
	return nil
}

// MergeBenchmark adds vector element-wise into the aggregate benchmark vector.
// The first call fixes the vector length; later calls with a different length
// fail with ErrShapeMismatch and leave the aggregate untouched.
func (a *Accumulator) MergeBenchmark(vector []float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkShape(vector); err != nil {
		return err
	}
	a.addBenchmark(vector)
	return nil
}

// MergeWorker applies one worker's counts and benchmark vector under a single
// lock. Either both land or neither does, so a Snapshot never observes half a
// contribution.
func (a *Accumulator) MergeWorker(c Counts, vector []float64) error {
	if err := c.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkShape(vector); err != nil {
		return err
	}
	a.addBenchmark(vector)
	a.counts = a.counts.Add(c)
	return nil
}

// checkShape must be called with mu held.
func (a *Accumulator) checkShape(vector []float64) error {
	if a.benchmark != nil && len(vector) != len(a.benchmark) {
		return fmt.Errorf("%w: have %d elements, got %d", ErrShapeMismatch, len(a.benchmark), len(vector))
	}
	return nil
}

func (a *Accumulator) addBenchmark(vector []float64) {
	if a.benchmark == nil {
		a.benchmark = append(make([]float64, 0, len(vector)), vector...)
		return
	}
	for i, v := range vector {
		a.benchmark[i] += v
	}
}

// Snapshot returns a consistent copy of the counters and benchmark vector.
func (a *Accumulator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{Counts: a.counts}
	if a.benchmark != nil {
		snap.Benchmark = append([]float64(nil), a.benchmark...)
	}
	return snap
}

// Timing is the benchmark vector a worker reports for one batch.
type Timing struct {
	Wall    time.Duration
	Request time.Duration
}

// BenchmarkLabels names the elements of Timing.Vector in order.
var BenchmarkLabels = []string{"wall", "request", "overhead"}

// Vector returns [wall, request, overhead] in seconds.
func (t Timing) Vector() []float64 {
	overhead := t.Wall - t.Request
	if overhead < 0 {
		overhead = 0
	}
	return []float64{t.Wall.Seconds(), t.Request.Seconds(), overhead.Seconds()}
}
