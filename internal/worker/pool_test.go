package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

// claimResult implements Result
type claimResult struct {
	claim string
	err   error
}

func (r *claimResult) GetError() error { return r.err }

// claimJob pretends to score a claim, optionally slowly or with an error
type claimJob struct {
	claim string
	delay time.Duration
	err   error
	onRun func()
}

func (j *claimJob) Execute(ctx context.Context) Result {
	if j.onRun != nil {
		j.onRun()
	}
	if j.delay > 0 {
		select {
		case <-time.After(j.delay):
		case <-ctx.Done():
			return &claimResult{claim: j.claim, err: ctx.Err()}
		}
	}
	return &claimResult{claim: j.claim, err: j.err}
}

func TestNewPool(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{5, 5},
		{0, 1},
		{-3, 1},
	}

	for _, tt := range tests {
		if got := NewPool(tt.in).workers; got != tt.want {
			t.Errorf("NewPool(%d): expected %d workers, got %d", tt.in, tt.want, got)
		}
	}
}

func TestPool_ResultsInSubmissionOrder(t *testing.T) {
	pool := NewPool(4)
	pool.Start()

	// Earlier claims take longer, so they finish last
	for i := 0; i < 8; i++ {
		pool.Submit(&claimJob{
			claim: fmt.Sprintf("claim-%d", i),
			delay: time.Duration(8-i) * 5 * time.Millisecond,
		})
	}

	results := pool.Wait()
	if len(results) != 8 {
		t.Fatalf("expected 8 results, got %d", len(results))
	}
	for i, res := range results {
		want := fmt.Sprintf("claim-%d", i)
		if got := res.(*claimResult).claim; got != want {
			t.Errorf("slot %d: expected %s, got %s", i, want, got)
		}
	}
}

func TestPool_BoundedConcurrency(t *testing.T) {
	const workers = 3
	pool := NewPool(workers)
	pool.Start()

	var running, peak int32
	for i := 0; i < 30; i++ {
		pool.Submit(&claimJob{
			delay: 5 * time.Millisecond,
			onRun: func() {
				n := atomic.AddInt32(&running, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.AfterFunc(4*time.Millisecond, func() { atomic.AddInt32(&running, -1) })
			},
		})
	}

	if results := pool.Wait(); len(results) != 30 {
		t.Errorf("expected 30 results, got %d", len(results))
	}
	if p := atomic.LoadInt32(&peak); p > workers {
		t.Errorf("peak concurrency %d exceeded %d workers", p, workers)
	}
}

func TestPool_ErrorsStayWithTheirJob(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	boom := errors.New("lookup failed")
	pool.Submit(&claimJob{claim: "ok"})
	pool.Submit(&claimJob{claim: "bad", err: boom})
	pool.Submit(&claimJob{claim: "ok again"})

	results := pool.Wait()
	for i, res := range results {
		wantErr := i == 1
		if gotErr := res.GetError() != nil; gotErr != wantErr {
			t.Errorf("slot %d: error = %v, want error %v", i, res.GetError(), wantErr)
		}
	}
	if !errors.Is(results[1].GetError(), boom) {
		t.Errorf("expected the job's own error, got %v", results[1].GetError())
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	pool.Shutdown()

	done := make(chan bool)
	go func() { done <- pool.Submit(&claimJob{}) }()

	select {
	case ok := <-done:
		if ok {
			t.Error("expected submit to be rejected after shutdown")
		}
	case <-time.After(time.Second):
		t.Fatal("Submit after shutdown blocked")
	}

	results := pool.Wait()
	if len(results) != 1 || results[0] != nil {
		t.Errorf("expected one empty slot, got %v", results)
	}
}

func TestPool_ShutdownInterruptsRunningJob(t *testing.T) {
	pool := NewPool(1)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(&claimJob{delay: time.Minute, onRun: func() { close(started) }})
	<-started

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not interrupt the running job")
	}
}

func TestPool_ManyJobsDoNotBlock(t *testing.T) {
	pool := NewPool(1)
	pool.Start()

	// Far more jobs than the queue buffer; nobody reads results until Wait
	for i := 0; i < 100; i++ {
		if !pool.Submit(&claimJob{}) {
			t.Fatalf("submit %d rejected", i)
		}
	}

	if results := pool.Wait(); len(results) != 100 {
		t.Errorf("expected 100 results, got %d", len(results))
	}
}

func TestPool_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPoolWithContext(ctx, 2)
	pool.Start()
	cancel()

	if pool.Submit(&claimJob{}) {
		t.Error("expected submit to be rejected after parent cancel")
	}
	if results := pool.Wait(); len(results) != 1 || results[0] != nil {
		t.Errorf("expected one empty slot, got %v", results)
	}
}
