package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type stubResult struct {
	err error
}

func (r *stubResult) GetError() error { return r.err }

// stubJob counts executions and optionally sleeps or fails.
type stubJob struct {
	duration  time.Duration
	shouldErr bool
	executed  *int32
}

func (j *stubJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &stubResult{err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &stubResult{err: errors.New("job error")}
	}
	return &stubResult{}
}

func TestNewPool_Sizing(t *testing.T) {
	if p := NewPool(5); p.size != 5 {
		t.Errorf("expected 5 workers, got %d", p.size)
	}
	if p := NewPool(0); p.size != 1 {
		t.Errorf("expected fallback to 1 worker for 0, got %d", p.size)
	}
	if p := NewPool(-3); p.size != 1 {
		t.Errorf("expected fallback to 1 worker for negative size, got %d", p.size)
	}
}

func TestPool_RunsEveryJob(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	var executed int32
	count := 10
	for i := 0; i < count; i++ {
		pool.Submit(&stubJob{executed: &executed})
	}

	results := pool.Wait()
	if len(results) != count {
		t.Errorf("expected %d results, got %d", count, len(results))
	}
	if got := atomic.LoadInt32(&executed); got != int32(count) {
		t.Errorf("expected %d executions, got %d", count, got)
	}
}

// gateJob reports entry and exit so tests can observe concurrency.
type gateJob struct {
	enter    func()
	leave    func()
	duration time.Duration
}

func (j *gateJob) Execute(ctx context.Context) Result {
	if j.enter != nil {
		j.enter()
	}
	time.Sleep(j.duration)
	if j.leave != nil {
		j.leave()
	}
	return &stubResult{}
}

func TestPool_ConcurrencyNeverExceedsSize(t *testing.T) {
	workers := 10
	pool := NewPool(workers)
	pool.Start()

	var current, peak, completed int32
	var mu sync.Mutex

	totalJobs := 50
	for i := 0; i < totalJobs; i++ {
		pool.Submit(&gateJob{
			enter: func() {
				curr := atomic.AddInt32(&current, 1)
				mu.Lock()
				if curr > peak {
					peak = curr
				}
				mu.Unlock()
			},
			leave: func() {
				atomic.AddInt32(&current, -1)
				atomic.AddInt32(&completed, 1)
			},
			duration: 10 * time.Millisecond,
		})
	}

	pool.Wait()

	if got := atomic.LoadInt32(&completed); got != int32(totalJobs) {
		t.Errorf("expected %d completed jobs, got %d", totalJobs, got)
	}

	mu.Lock()
	max := peak
	mu.Unlock()
	if max > int32(workers) {
		t.Errorf("peak concurrency %d exceeded pool size %d", max, workers)
	}
}

func TestPool_ErrorsSurfaceInResults(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	pool.Submit(&stubJob{shouldErr: true})
	pool.Submit(&stubJob{})

	results := pool.Wait()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	failures := 0
	for _, res := range results {
		if res.GetError() != nil {
			failures++
		}
	}
	if failures != 1 {
		t.Errorf("expected 1 failed result, got %d", failures)
	}
}

func TestPool_SubmitAfterShutdownDoesNotBlock(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	pool.Shutdown()

	done := make(chan struct{})
	go func() {
		pool.Submit(&stubJob{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Submit after shutdown blocked")
	}
}

func TestPool_ShutdownStopsInFlightJobs(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(&gateJob{
		enter:    func() { close(started) },
		duration: 200 * time.Millisecond,
	})
	<-started

	pool.Shutdown()

	drained := make(chan struct{})
	go func() {
		for range pool.done {
		}
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(1 * time.Second):
		t.Fatal("Shutdown did not close the result channel")
	}
}
