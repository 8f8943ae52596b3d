// Package worker runs background jobs, such as page fetches, on a fixed
// set of goroutines so callers on the UI path never block on I/O.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work submitted to the Pool. Errors are the job's own
// business; the pool does not inspect them.
type Job func(ctx context.Context)

// Pool runs jobs using a fixed number of goroutines.
type Pool struct {
	jobs    chan Job
	done    chan struct{}
	wg      sync.WaitGroup
	workers int

	closeMu sync.RWMutex
	closed  bool
	cancel  context.CancelFunc
}

// NewPool creates a pool with the specified number of workers and job
// queue capacity.
func NewPool(workers, queue int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = workers * 2
	}
	return &Pool{
		jobs:    make(chan Job, queue),
		done:    make(chan struct{}),
		workers: workers,
	}
}

// Start launches the workers. Jobs receive a context derived from ctx that
// is canceled by Close.
func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.closeMu.Lock()
	p.cancel = cancel
	p.closeMu.Unlock()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.done:
					return
				case job := <-p.jobs:
					job(ctx)
				}
			}
		}()
	}
}

// Submit enqueues a job, waiting for queue space. It returns ErrPoolClosed
// if the pool is or becomes closed before the job is queued.
func (p *Pool) Submit(job Job) error {
	return p.SubmitCtx(context.Background(), job)
}

// SubmitCtx is Submit that gives up when ctx is done.
func (p *Pool) SubmitCtx(ctx context.Context, job Job) error {
	p.closeMu.RLock()
	closed := p.closed
	p.closeMu.RUnlock()
	if closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.done:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs, cancels running jobs' context and waits for
// the workers to exit. Queued jobs that have not started are dropped.
func (p *Pool) Close() {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	if p.cancel != nil {
		p.cancel()
	}
	p.closeMu.Unlock()
	p.wg.Wait()
}

// ErrPoolClosed is returned if a Submit is attempted after Close.
var ErrPoolClosed = &PoolError{"worker pool closed"}

// PoolError provides a simple typed error for pool operations.
type PoolError struct{ msg string }

func (e *PoolError) Error() string { return e.msg }
