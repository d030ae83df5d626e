package runner

import (
	"context"
	"time"

	"github.com/torosent/tourbus/internal/stats"
	"github.com/torosent/tourbus/internal/tour"
)

// Batch is the unit of work handed to one worker.
type Batch struct {
	Host       string
	Tours      []string
	Iterations int
	WorkerID   int
	TestFilter []string
	// Progress, if set, is called after each completed iteration.
	Progress func()
}

// BatchResult is what a worker reports back for a batch.
type BatchResult struct {
	Counts      stats.Counts
	Results     []tour.Result
	RequestTime time.Duration // sum of all request latencies
	// Benchmark, if set, replaces the wall/request/overhead vector the
	// coordinator derives from RequestTime.
	Benchmark []float64
}

// Worker executes a batch of tours.
type Worker interface {
	ExecuteBatch(ctx context.Context, batch Batch) (BatchResult, error)
}

// WorkerFunc adapts a function to the Worker interface.
type WorkerFunc func(ctx context.Context, batch Batch) (BatchResult, error)

func (f WorkerFunc) ExecuteBatch(ctx context.Context, batch Batch) (BatchResult, error) {
	return f(ctx, batch)
}
