package scheduler

import (
	"sync"
	"testing"
	"time"
)

// TestSerialExecution tests that jobs run one at a time in schedule order.
func TestSerialExecution(t *testing.T) {
	scheduler := New(nil)
	scheduler.Start()
	defer scheduler.Stop()

	// Schedule jobs that record their execution order and would detect
	// overlap.
	var lock sync.Mutex
	var order []int
	running := false
	finished := make(chan struct{})
	for i := 0; i < 10; i++ {
		index := i
		scheduler.Schedule("record", func() {
			lock.Lock()
			if running {
				t.Error("jobs overlapped")
			}
			running = true
			lock.Unlock()

			time.Sleep(time.Millisecond)

			lock.Lock()
			running = false
			order = append(order, index)
			if len(order) == 10 {
				close(finished)
			}
			lock.Unlock()
		})
	}

	// Wait for completion and verify ordering.
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("jobs didn't complete in time")
	}
	lock.Lock()
	defer lock.Unlock()
	for i, index := range order {
		if index != i {
			t.Fatal("jobs ran out of order:", order)
		}
	}
}

// TestPanicRecovery tests that a panicking job doesn't take down the worker.
func TestPanicRecovery(t *testing.T) {
	scheduler := New(nil)
	scheduler.Start()
	defer scheduler.Stop()

	// Schedule a panicking job followed by a normal one.
	scheduler.Schedule("panic", func() {
		panic("boom")
	})
	survived := make(chan struct{})
	scheduler.Schedule("survive", func() {
		close(survived)
	})

	select {
	case <-survived:
	case <-time.After(5 * time.Second):
		t.Fatal("worker didn't survive panicking job")
	}
}

// TestSaturation tests that jobs are dropped (not blocked on) once the queue
// is full.
func TestSaturation(t *testing.T) {
	// Don't start the worker, so nothing drains the queue.
	scheduler := New(nil)

	// Fill the queue.
	for i := 0; i < queueCapacity; i++ {
		if !scheduler.Schedule("fill", func() {}) {
			t.Fatal("job dropped before saturation")
		}
	}

	// The next job is dropped.
	if scheduler.Schedule("overflow", func() {}) {
		t.Error("job accepted beyond saturation")
	}
}

// TestStopWaitsForInFlightJob tests that Stop returns only after an in-flight
// job completes.
func TestStopWaitsForInFlightJob(t *testing.T) {
	scheduler := New(nil)
	scheduler.Start()

	started := make(chan struct{})
	completed := false
	scheduler.Schedule("slow", func() {
		close(started)
		time.Sleep(50 * time.Millisecond)
		completed = true
	})

	<-started
	scheduler.Stop()
	if !completed {
		t.Error("stop returned before in-flight job completed")
	}
}
