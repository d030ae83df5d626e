package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// ProgressReporter prints a one-line progress indicator at a fixed interval.
// It implements coordinator.Progress; SetTotal and Increment are safe to call
// from any goroutine.
type ProgressReporter struct {
	total    atomic.Int64
	done     atomic.Int64
	ticker   *time.Ticker
	stop     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		ticker:   time.NewTicker(interval),
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
		start:    time.Now(),
	}
}

// SetTotal sets the number of steps the bar counts toward.
func (p *ProgressReporter) SetTotal(total int64) { p.total.Store(total) }

// Increment records one finished step.
func (p *ProgressReporter) Increment() { p.done.Add(1) }

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates and prints the final state.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.stop)
		p.ticker.Stop()
		<-p.finished
		fmt.Fprint(p.writer, p.line())
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, p.line())
		case <-p.stop:
			return
		}
	}
}

func (p *ProgressReporter) line() string {
	done, total := p.done.Load(), p.total.Load()
	pct := 0.0
	if total > 0 {
		pct = float64(done) / float64(total) * 100
	}
	return fmt.Sprintf("\rProgress: %d/%d (%.0f%%) | Elapsed: %s", done, total, pct, time.Since(p.start).Truncate(time.Second))
}
