package coordinator

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStartLineHoldsUntilLastArrival(t *testing.T) {
	const workers = 4
	line := newStartLine(workers)
	var released int32
	var wg sync.WaitGroup

	arrive := func() {
		defer wg.Done()
		line.Arrive()
		atomic.AddInt32(&released, 1)
	}

	wg.Add(workers - 1)
	for i := 0; i < workers-1; i++ {
		go arrive()
	}
	waitFor(t, func() bool { return line.Arrived() == workers-1 })
	time.Sleep(20 * time.Millisecond)
	if got := atomic.LoadInt32(&released); got != 0 {
		t.Fatalf("released = %d before last arrival", got)
	}

	wg.Add(1)
	go arrive()
	wg.Wait()
	if got := atomic.LoadInt32(&released); got != workers {
		t.Fatalf("released = %d, want %d", got, workers)
	}
}

func TestStartLineSingleWorker(t *testing.T) {
	line := newStartLine(1)
	done := make(chan struct{})
	go func() {
		line.Arrive()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("single worker was not released")
	}
}

func TestIDAllocatorUnique(t *testing.T) {
	var ids idAllocator
	const n = 100
	got := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got <- ids.Next()
		}()
	}
	wg.Wait()
	close(got)

	seen := make(map[int]bool, n)
	for id := range got {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		if id < 1 || id > n {
			t.Fatalf("id %d out of range", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d ids, want %d", len(seen), n)
	}
}
