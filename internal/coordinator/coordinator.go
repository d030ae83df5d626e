// Package coordinator fans a tour run out over concurrent workers, holds
// them at a start line until all are ready, and merges what they report.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/torosent/tourbus/internal/runner"
	"github.com/torosent/tourbus/internal/stats"
	"github.com/torosent/tourbus/internal/tour"
)

// Progress receives run progress. SetTotal is called once before workers
// start; Increment once per released worker and once per finished iteration.
type Progress interface {
	SetTotal(total int64)
	Increment()
}

// WorkerFault records a worker whose batch could not complete. A faulted
// worker contributes nothing to the totals.
type WorkerFault struct {
	WorkerID int
	Err      error
}

func (f WorkerFault) Error() string {
	return fmt.Sprintf("worker %d: %v", f.WorkerID, f.Err)
}

func (f WorkerFault) Unwrap() error { return f.Err }

// Report is the outcome of one run.
type Report struct {
	RunID     string
	Label     string
	Config    RunConfig
	Elapsed   time.Duration
	Totals    stats.Snapshot
	Results   []tour.Result
	Faults    []WorkerFault
	StartedAt time.Time
}

// TotalRuns is the number of runs the configuration asked for.
func (r Report) TotalRuns() int { return r.Config.TotalRuns() }

// Err joins all worker faults, or returns nil.
func (r Report) Err() error {
	if len(r.Faults) == 0 {
		return nil
	}
	errs := make([]error, len(r.Faults))
	for i, f := range r.Faults {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Coordinator runs a Worker across concurrent goroutines and merges what
// they report.
type Coordinator struct {
	worker   runner.Worker
	timeout  time.Duration
	logger   *zap.Logger
	progress Progress
	now      func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout bounds the context handed to workers. Zero means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithLogger sets the logger for worker lifecycle events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProgress attaches a progress sink.
func WithProgress(p Progress) Option {
	return func(c *Coordinator) { c.progress = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a Coordinator driving worker.
func New(worker runner.Worker, opts ...Option) *Coordinator {
	c := &Coordinator{
		worker: worker,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// testHookStartLine, when set, is handed each run's start line before any
// worker is launched.
var testHookStartLine func(*startLine)

// run is the state shared by the workers of one Run call.
type run struct {
	cfg     RunConfig
	ids     idAllocator
	start   *startLine
	acc     *stats.Accumulator
	results Collection

	mu     sync.Mutex
	faults []WorkerFault
}

func (r *run) fault(f WorkerFault) {
	r.mu.Lock()
	r.faults = append(r.faults, f)
	r.mu.Unlock()
}

// Run executes cfg and blocks until every worker has finished. Only a
// *ConfigurationError is returned as an error; worker faults are collected
// in the report.
func (c *Coordinator) Run(ctx context.Context, cfg RunConfig) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	if c.worker == nil {
		return Report{}, &ConfigurationError{Issues: []string{"no worker configured"}}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.progress != nil {
		c.progress.SetTotal(int64(cfg.Iterations*cfg.Concurrency + cfg.Concurrency))
	}

	r := &run{
		cfg:   cfg,
		start: newStartLine(cfg.Concurrency),
		acc:   stats.NewAccumulator(),
	}
	if testHookStartLine != nil {
		testHookStartLine(r.start)
	}

	startedAt := c.now()
	c.logger.Debug("starting run",
		zap.String("label", cfg.Label()),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Int("iterations", cfg.Iterations))

	var wg sync.WaitGroup
	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.runWorker(ctx, r)
		}()
	}
	wg.Wait()
	elapsed := c.now().Sub(startedAt)

	report := Report{
		RunID:     ulid.MustNew(ulid.Timestamp(startedAt), ulid.DefaultEntropy()).String(),
		Label:     cfg.Label(),
		Config:    cfg,
		Elapsed:   elapsed,
		Totals:    r.acc.Snapshot(),
		Results:   r.results.Results(),
		Faults:    r.faults,
		StartedAt: startedAt,
	}
	c.logger.Debug("run finished",
		zap.String("run_id", report.RunID),
		zap.Duration("elapsed", elapsed),
		zap.Int("planned_runs", report.TotalRuns()),
		zap.Int64("runs", report.Totals.Runs),
		zap.Int("results", r.results.Len()),
		zap.Int("faults", len(report.Faults)))
	return report, nil
}

func (c *Coordinator) runWorker(ctx context.Context, r *run) {
	id := r.ids.Next()
	logger := c.logger.With(zap.Int("worker", id))

	r.start.Arrive()
	if c.progress != nil {
		c.progress.Increment()
	}
	logger.Debug("worker released")

	batch := runner.Batch{
		Host:       r.cfg.Host,
		Tours:      r.cfg.TourNames,
		Iterations: r.cfg.Iterations,
		WorkerID:   id,
		TestFilter: r.cfg.TestFilter,
	}
	if c.progress != nil {
		batch.Progress = c.progress.Increment
	}

	began := c.now()
	res, err := c.execute(ctx, batch)
	wall := c.now().Sub(began)
	if err != nil {
		logger.Warn("worker faulted", zap.Error(err))
		r.fault(WorkerFault{WorkerID: id, Err: err})
		return
	}

	vector := res.Benchmark
	if vector == nil {
		vector = stats.Timing{Wall: wall, Request: res.RequestTime}.Vector()
	}
	if err := r.acc.MergeWorker(res.Counts, vector); err != nil {
		logger.Warn("contribution rejected", zap.Error(err))
		r.fault(WorkerFault{WorkerID: id, Err: err})
		return
	}
	r.results.Append(res.Results...)
	logger.Debug("worker finished",
		zap.Duration("wall", wall),
		zap.Int64("runs", res.Counts.Runs),
		zap.Int64("fails", res.Counts.Fails),
		zap.Int64("errors", res.Counts.Errors))
}

// execute calls the worker and turns a panic into an error.
func (c *Coordinator) execute(ctx context.Context, batch runner.Batch) (res runner.BatchResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.Debug("worker panic", zap.ByteString("stack", debug.Stack()))
			res = runner.BatchResult{}
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return c.worker.ExecuteBatch(ctx, batch)
}
