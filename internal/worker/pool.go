package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool runs jobs on a fixed number of workers. Results are stored by
// submission order, so Wait()[i] belongs to the i-th Submit call.
type Pool struct {
	workers int
	queue   chan slot
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once

	mu      sync.Mutex
	results []Result
}

// slot is a queued job and the index its result is written to
type slot struct {
	n   int
	job Job
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	return NewPoolWithContext(context.Background(), workers)
}

// NewPoolWithContext creates a pool whose jobs are cancelled with parent
func NewPoolWithContext(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)
	return &Pool{
		workers: workers,
		queue:   make(chan slot, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case s, ok := <-p.queue:
			if !ok {
				return
			}
			if p.ctx.Err() != nil {
				return
			}
			res := s.job.Execute(p.ctx)
			p.mu.Lock()
			p.results[s.n] = res
			p.mu.Unlock()
		}
	}
}

// Submit queues a job and reserves its result slot. It returns false when
// the pool has been cancelled; the slot then stays nil. Submit must not be
// called after Wait.
func (p *Pool) Submit(job Job) bool {
	p.mu.Lock()
	n := len(p.results)
	p.results = append(p.results, nil)
	p.mu.Unlock()

	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.queue <- slot{n: n, job: job}:
		return true
	}
}

// Wait drains the queue and returns one entry per Submit call. Entries for
// jobs that never ran (rejected or cancelled before pickup) are nil.
func (p *Pool) Wait() []Result {
	p.once.Do(func() { close(p.queue) })
	p.wg.Wait()
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Result, len(p.results))
	copy(out, p.results)
	return out
}

// Shutdown stops the workers without draining the queue
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
