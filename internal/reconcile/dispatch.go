package reconcile

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// job is a named unit of background work.
type job struct {
	name string
	fn   func(ctx context.Context) error
}

// Dispatcher runs hook-triggered evaluation off the request path. Jobs are
// consumed by a fixed worker pool; failures and panics are logged and never
// reach the enqueuer. Close drains the queue, which is what makes hook
// completion observable in tests.
type Dispatcher struct {
	jobs   chan job
	wg     sync.WaitGroup
	log    *zap.SugaredLogger
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a dispatcher with the given worker count and queue size.
func NewDispatcher(workers, queueSize int, log *zap.SugaredLogger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		jobs: make(chan job, queueSize),
		log:  log,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.run(j)
	}
}

// run executes one job, converting panics and errors into log entries.
func (d *Dispatcher) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorw("background job panicked", "job", j.name, "panic", fmt.Sprintf("%v", r))
		}
	}()

	if err := j.fn(context.Background()); err != nil {
		d.log.Errorw("background job failed", "job", j.name, "error", err.Error())
	}
}

// Enqueue submits a job without blocking the caller. When the queue is full
// the job is dropped with a warning; the periodic sweep re-derives anything
// a dropped hook would have detected. Returns whether the job was accepted.
func (d *Dispatcher) Enqueue(name string, fn func(ctx context.Context) error) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warnw("dispatcher closed, dropping job", "job", name)
		return false
	}

	select {
	case d.jobs <- job{name: name, fn: fn}:
		return true
	default:
		d.log.Warnw("dispatcher queue full, dropping job", "job", name)
		return false
	}
}

// Close stops accepting jobs, drains the queue, and waits for in-flight
// jobs to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}
