package worker

import (
	"context"
	"sync"
)

// Job is one unit of pooled work. Execute receives the pool's own context,
// which is canceled by Shutdown; jobs that carry a narrower deadline of
// their own may ignore it.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a finished job hands back to the pool's caller.
type Result interface {
	GetError() error
}

// Pool fans jobs out over a fixed set of worker goroutines. Usage is
// single-shot: Start, Submit the jobs, then Wait to collect every result.
type Pool struct {
	size   int
	jobs   chan Job
	done   chan Result
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewPool sizes a pool. Sizes below one fall back to a single worker.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		size:   size,
		jobs:   make(chan Job, size*2),
		done:   make(chan Result, size*2),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			res := job.Execute(p.ctx)
			select {
			case p.done <- res:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. After Shutdown the job is silently dropped.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- job:
	}
}

// Wait closes the queue, drains the workers, and returns every result.
// The pool cannot be reused afterwards.
func (p *Pool) Wait() []Result {
	close(p.jobs)

	go func() {
		p.wg.Wait()
		p.closeDone()
	}()

	var out []Result
	for res := range p.done {
		out = append(out, res)
	}
	return out
}

// Shutdown cancels in-flight jobs and stops the workers without draining
// the queue.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeDone()
}

func (p *Pool) closeDone() {
	p.once.Do(func() { close(p.done) })
}
