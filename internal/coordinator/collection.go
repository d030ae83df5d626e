package coordinator

import (
	"sync"

	"github.com/torosent/tourbus/internal/tour"
)

// Collection is the append-only set of tour results shared by all workers.
type Collection struct {
	mu      sync.Mutex
	results []tour.Result
}

// Append adds one worker's results as a single unit.
func (c *Collection) Append(results ...tour.Result) {
	if len(results) == 0 {
		return
	}
	c.mu.Lock()
	c.results = append(c.results, results...)
	c.mu.Unlock()
}

// Len returns the number of collected results.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

// Results returns a copy of the collected results.
func (c *Collection) Results() []tour.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]tour.Result, len(c.results))
	copy(out, c.results)
	return out
}
