package coordinator

import "sync"

// startLine holds workers until all of them have arrived, so their measured
// work starts at roughly the same instant.
type startLine struct {
	mu       sync.Mutex
	cond     *sync.Cond
	expected int
	arrived  int
	released bool
}

func newStartLine(expected int) *startLine {
	s := &startLine{expected: expected}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Arrive registers one worker and blocks until the last one arrives.
func (s *startLine) Arrive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arrived++
	if s.arrived >= s.expected {
		s.released = true
		s.cond.Broadcast()
		return
	}
	for !s.released {
		s.cond.Wait()
	}
}

// Arrived reports how many workers have registered so far.
func (s *startLine) Arrived() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arrived
}

// idAllocator hands out worker ids 1, 2, 3, ...
type idAllocator struct {
	mu   sync.Mutex
	next int
}

func (a *idAllocator) Next() int {
	a.mu.Lock()
	a.next++
	id := a.next
	a.mu.Unlock()
	return id
}
