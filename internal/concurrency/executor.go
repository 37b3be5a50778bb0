// File: internal/concurrency/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor dispatches tasks across worker goroutines. Submissions go to a
// shared lock-free ring; when it is full they spill into an unbounded
// overflow queue so that tasks submitting tasks never fail or block.
// Idle workers park on a wake channel instead of spinning.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"github.com/rs/zerolog"

	"github.com/momentics/dualview/affinity"
	"github.com/momentics/dualview/api"
)

// TaskFunc is a unit of work to execute.
type TaskFunc func()

// Ensure compile-time interface compliance.
var _ api.Executor = (*Executor)(nil)

const defaultRingSize = 4096

// Executor manages a fixed pool of worker goroutines.
type Executor struct {
	ring *RingBuffer[TaskFunc]

	mu       sync.Mutex
	overflow *queue.Queue // of TaskFunc; guarded by mu

	wake    chan struct{}
	closeCh chan struct{}
	closed  atomic.Bool
	wg      sync.WaitGroup

	numWorkers int
	ringSize   uint64
	pin        bool
	log        zerolog.Logger

	// statistics
	totalTasks     atomic.Int64
	completedTasks atomic.Int64
	overflowed     atomic.Int64
	panics         atomic.Int64
	pinFailures    atomic.Int64
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithWorkers sets the worker count; values <= 0 mean runtime.GOMAXPROCS(0).
func WithWorkers(n int) ExecutorOption {
	return func(e *Executor) { e.numWorkers = n }
}

// WithAffinity pins worker i to logical CPU i mod NumCPU. Pin failures are
// logged and counted, the worker keeps running unpinned.
func WithAffinity(pin bool) ExecutorOption {
	return func(e *Executor) { e.pin = pin }
}

// WithRingSize sets the lock-free ring capacity, rounded up to a power of two.
func WithRingSize(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.ringSize = uint64(n)
		}
	}
}

// WithExecutorLogger attaches a logger.
func WithExecutorLogger(l zerolog.Logger) ExecutorOption {
	return func(e *Executor) { e.log = l }
}

// NewExecutor starts the workers.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		ringSize: defaultRingSize,
		overflow: queue.New(),
		closeCh:  make(chan struct{}),
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.numWorkers <= 0 {
		e.numWorkers = runtime.GOMAXPROCS(0)
	}
	e.ring = NewRingBuffer[TaskFunc](e.ringSize)
	e.wake = make(chan struct{}, e.numWorkers)
	for i := 0; i < e.numWorkers; i++ {
		w := &worker{id: i, executor: e}
		e.wg.Add(1)
		go w.run()
	}
	e.log.Debug().Int("workers", e.numWorkers).Bool("pinned", e.pin).Msg("executor started")
	return e
}

// Submit enqueues a task. Safe from any goroutine, including running tasks.
// Returns ErrExecutorClosed after Close.
func (e *Executor) Submit(task func()) error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	e.totalTasks.Add(1)
	if !e.ring.Enqueue(task) {
		e.mu.Lock()
		e.overflow.Add(TaskFunc(task))
		e.mu.Unlock()
		e.overflowed.Add(1)
	}
	select {
	case e.wake <- struct{}{}:
	default:
		// every worker already has a pending wake-up
	}
	return nil
}

// next pops the ring first, then the overflow queue.
func (e *Executor) next() (TaskFunc, bool) {
	if t, ok := e.ring.Dequeue(); ok {
		return t, true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.overflow.Length() == 0 {
		return nil, false
	}
	return e.overflow.Remove().(TaskFunc), true
}

// NumWorkers returns active worker count.
func (e *Executor) NumWorkers() int {
	return e.numWorkers
}

// Close stops accepting tasks, lets workers drain what is queued and waits
// for them to exit. Must not be called from inside a task.
func (e *Executor) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.closeCh)
		e.wg.Wait()
		e.log.Debug().Int64("completed", e.completedTasks.Load()).Msg("executor stopped")
	}
}

// Stats returns basic executor metrics.
func (e *Executor) Stats() map[string]int64 {
	total, done := e.totalTasks.Load(), e.completedTasks.Load()
	return map[string]int64{
		"total_tasks":     total,
		"completed_tasks": done,
		"pending_tasks":   total - done,
		"overflowed":      e.overflowed.Load(),
		"panics":          e.panics.Load(),
		"pin_failures":    e.pinFailures.Load(),
		"num_workers":     int64(e.numWorkers),
	}
}

// worker runs tasks.
type worker struct {
	id       int
	executor *Executor
}

func (w *worker) run() {
	e := w.executor
	defer e.wg.Done()
	if e.pin {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := affinity.SetAffinity(affinity.CPUFor(w.id)); err != nil {
			e.pinFailures.Add(1)
			e.log.Warn().Err(err).Int("worker", w.id).Msg("cpu pin failed")
		}
	}
	for {
		if task, ok := e.next(); ok {
			w.safeExecute(task)
			continue
		}
		select {
		case <-e.wake:
		case <-e.closeCh:
			for {
				task, ok := e.next()
				if !ok {
					return
				}
				w.safeExecute(task)
			}
		}
	}
}

// safeExecute keeps the worker alive across a panicking task. Callers that
// need the failure (the job scheduler) recover it themselves first.
func (w *worker) safeExecute(task TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			w.executor.panics.Add(1)
			w.executor.log.Error().Interface("panic", r).Int("worker", w.id).Msg("task panicked")
		}
		w.executor.completedTasks.Add(1)
	}()
	task()
}
