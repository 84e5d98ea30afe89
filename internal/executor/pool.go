package executor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Task represents a unit of work to be executed by the worker pool
type Task struct {
	// Name identifies the task in logs and errors
	Name string

	// Execute is the function to run for this task.
	// The worker parameter is the slot running the task, for per-worker resources.
	Execute func(ctx context.Context, worker WorkerID) error
}

// Future is the pending result of a submitted task
type Future struct {
	name     string
	done     chan struct{}
	err      error
	duration time.Duration
}

func newFuture(name string) *Future {
	return &Future{name: name, done: make(chan struct{})}
}

func (f *Future) finish(err error, duration time.Duration) {
	f.err = err
	f.duration = duration
	close(f.done)
}

// Name returns the submitted task name
func (f *Future) Name() string {
	return f.name
}

// Done is closed once the task has finished or was dropped
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result returns the task error without blocking.
// finished is false while the task is still queued or running.
func (f *Future) Result() (err error, finished bool) {
	select {
	case <-f.done:
		return f.err, true
	default:
		return nil, false
	}
}

// Duration returns how long the task ran; zero until finished
func (f *Future) Duration() time.Duration {
	select {
	case <-f.done:
		return f.duration
	default:
		return 0
	}
}

// Pool runs submitted tasks on a fixed number of workers.
// It never runs more than WorkerCount tasks at once; extra submissions wait
// in a small queue.
type Pool struct {
	// workers is the number of concurrent workers
	workers int

	// queue feeds the workers; capacity equals the worker count
	queue chan queuedTask

	// mu guards queue sends against Close
	mu sync.RWMutex

	// logger for structured logging
	logger *slog.Logger

	// shutdown indicates the pool no longer accepts tasks
	shutdown atomic.Bool

	// completed counts finished tasks
	completed atomic.Int64

	wg   sync.WaitGroup
	done chan struct{}
}

type queuedTask struct {
	task   Task
	future *Future
}

// NewPool starts a pool with the specified number of workers.
// workers must be > 0, otherwise it defaults to 1. Workers stop picking up
// new tasks once ctx is cancelled; queued tasks are then dropped with ctx's error.
func NewPool(ctx context.Context, workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}

	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		workers: workers,
		queue:   make(chan queuedTask, workers),
		logger:  logger,
		done:    make(chan struct{}),
	}

	p.logger.Debug("starting workers", "count", workers)

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, WorkerID(i))
	}

	return p
}

// Submit queues a task, blocking while all workers are busy and the queue is full.
// Returns an error if the pool is shutting down or ctx is done first.
func (p *Pool) Submit(ctx context.Context, task Task) (*Future, error) {
	if task.Execute == nil {
		return nil, fmt.Errorf("task must have an execute function")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.shutdown.Load() {
		return nil, fmt.Errorf("pool is shutting down, cannot submit new tasks")
	}

	future := newFuture(task.Name)

	select {
	case p.queue <- queuedTask{task: task, future: future}:
		p.logger.Debug("task submitted", "task", task.Name)
		return future, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting new tasks. Already queued tasks still run.
// Done is closed once every worker has exited.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.shutdown.CompareAndSwap(false, true) {
		return
	}

	close(p.queue)

	go func() {
		p.wg.Wait()
		close(p.done)
	}()
}

// Done is closed when all workers have exited after Close
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// IsShutdown returns true if the pool has been closed
func (p *Pool) IsShutdown() bool {
	return p.shutdown.Load()
}

// WorkerCount returns the number of workers in the pool
func (p *Pool) WorkerCount() int {
	return p.workers
}

// Completed returns the number of tasks that have finished so far
func (p *Pool) Completed() int64 {
	return p.completed.Load()
}

// worker processes tasks from the queue until it is closed
func (p *Pool) worker(ctx context.Context, id WorkerID) {
	defer p.wg.Done()

	p.logger.Debug("worker started", "worker_id", id)

	for item := range p.queue {
		// Drain without running once the run is cancelled
		if err := ctx.Err(); err != nil {
			item.future.finish(fmt.Errorf("task %s not executed: %w", item.task.Name, err), 0)
			continue
		}

		start := time.Now()
		err := p.executeTask(ctx, id, item.task)
		duration := time.Since(start)
		item.future.finish(err, duration)

		completed := p.completed.Add(1)
		p.logger.Debug("task completed",
			"worker_id", id,
			"task", item.task.Name,
			"success", err == nil,
			"duration", duration,
			"completed", completed)
	}

	p.logger.Debug("worker finished (no more tasks)", "worker_id", id)
}

// executeTask runs one task, turning a panic into an error
func (p *Pool) executeTask(ctx context.Context, id WorkerID, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked",
				"worker_id", id,
				"task", task.Name,
				"panic", r,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("task %s panicked: %v", task.Name, r)
		}
	}()

	err = task.Execute(ctx, id)
	if err != nil {
		p.logger.Warn("task failed",
			"worker_id", id,
			"task", task.Name,
			"error", err)
	}
	return err
}
