// File: internal/concurrency/jobs.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Jobs implements api.Scheduler over an api.Executor.

package concurrency

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/momentics/dualview/api"
)

// DefaultInnerBatch is the number of indices one task processes.
const DefaultInnerBatch = 512

// Ensure compile-time interface compliance.
var (
	_ api.Scheduler = (*Jobs)(nil)
	_ api.Token     = (*handle)(nil)
)

// Jobs splits index ranges into tasks and tracks their completion.
type Jobs struct {
	exec       api.Executor
	innerBatch int
	log        zerolog.Logger

	scheduled atomic.Int64
	batches   atomic.Int64
	failures  atomic.Int64
	foreign   atomic.Int64
}

// JobsOption customizes Jobs.
type JobsOption func(*Jobs)

// WithInnerBatch sets the batch size used when Schedule is given innerBatch <= 0.
func WithInnerBatch(n int) JobsOption {
	return func(j *Jobs) {
		if n > 0 {
			j.innerBatch = n
		}
	}
}

// WithJobsLogger attaches a logger.
func WithJobsLogger(l zerolog.Logger) JobsOption {
	return func(j *Jobs) { j.log = l }
}

// NewJobs returns a scheduler submitting to exec.
func NewJobs(exec api.Executor, opts ...JobsOption) *Jobs {
	j := &Jobs{exec: exec, innerBatch: DefaultInnerBatch, log: zerolog.Nop()}
	for _, o := range opts {
		o(j)
	}
	return j
}

// JobsStats counts scheduler activity.
type JobsStats struct {
	Scheduled int64 // Schedule calls
	Batches   int64 // tasks submitted
	Failures  int64 // tasks that panicked
	Foreign   int64 // priors not created by this scheduler, awaited on a goroutine
}

// Stats returns a snapshot of the counters.
func (j *Jobs) Stats() JobsStats {
	return JobsStats{
		Scheduled: j.scheduled.Load(),
		Batches:   j.batches.Load(),
		Failures:  j.failures.Load(),
		Foreign:   j.foreign.Load(),
	}
}

// Schedule runs fn(i) for i in [0, count) once prior completes. If prior
// carries a failure the work is skipped and the returned token reports it.
func (j *Jobs) Schedule(count, innerBatch int, prior api.Token, fn func(i int)) api.Token {
	j.scheduled.Add(1)
	if innerBatch <= 0 {
		innerBatch = j.innerBatch
	}
	if count < 0 {
		count = 0
	}
	batches := (count + innerBatch - 1) / innerBatch
	h := newHandle(batches)

	start := func() {
		if prior != nil {
			if err := prior.Err(); err != nil {
				h.abort(err)
				return
			}
		}
		if batches == 0 {
			h.abort(nil)
			return
		}
		for b := 0; b < batches; b++ {
			lo := b * innerBatch
			hi := min(lo+innerBatch, count)
			j.batches.Add(1)
			if err := j.exec.Submit(func() { j.runBatch(h, lo, hi, fn) }); err != nil {
				h.fail(fmt.Errorf("jobs: submit batch [%d,%d): %w", lo, hi, err))
				h.finishOne()
			}
		}
	}
	j.whenDone(prior, start)
	return h
}

func (j *Jobs) runBatch(h *handle, lo, hi int, fn func(int)) {
	i := lo
	defer func() {
		if r := recover(); r != nil {
			j.failures.Add(1)
			j.log.Error().Interface("panic", r).Int("index", i).Msg("job panicked")
			h.fail(api.NewError(api.ErrCodeTaskFailed, "job panicked").
				WithContext("index", i).
				WithContext("panic", fmt.Sprint(r)))
		}
		h.finishOne()
	}()
	for ; i < hi; i++ {
		fn(i)
	}
}

// Combine returns a token completing once every token has completed,
// carrying the first failure among them.
func (j *Jobs) Combine(tokens ...api.Token) api.Token {
	live := make([]api.Token, 0, len(tokens))
	for _, t := range tokens {
		if t != nil {
			live = append(live, t)
		}
	}
	switch len(live) {
	case 0:
		return api.Completed
	case 1:
		return live[0]
	}
	h := newHandle(len(live))
	for _, t := range live {
		j.whenDone(t, func() {
			if err := t.Err(); err != nil {
				h.fail(err)
			}
			h.finishOne()
		})
	}
	return h
}

// whenDone runs fn after t completes: inline if already complete, as a
// continuation of our own handles, or from a goroutine for foreign tokens.
func (j *Jobs) whenDone(t api.Token, fn func()) {
	if t == nil || t.IsComplete() {
		fn()
		return
	}
	if h, ok := t.(*handle); ok {
		h.onComplete(fn)
		return
	}
	j.foreign.Add(1)
	go func() {
		<-t.Done()
		fn()
	}()
}

// handle is the token returned by Jobs.
type handle struct {
	done    chan struct{}
	pending atomic.Int64

	mu        sync.Mutex
	err       error
	completed bool
	conts     []func()
}

func newHandle(n int) *handle {
	h := &handle{done: make(chan struct{})}
	h.pending.Store(int64(n))
	return h
}

func (h *handle) fail(err error) {
	h.mu.Lock()
	if h.err == nil {
		h.err = err
	}
	h.mu.Unlock()
}

func (h *handle) finishOne() {
	if h.pending.Add(-1) == 0 {
		h.complete()
	}
}

// abort completes the handle without running any work.
func (h *handle) abort(err error) {
	if err != nil {
		h.fail(err)
	}
	h.pending.Store(0)
	h.complete()
}

func (h *handle) complete() {
	h.mu.Lock()
	if h.completed {
		h.mu.Unlock()
		return
	}
	h.completed = true
	conts := h.conts
	h.conts = nil
	close(h.done)
	h.mu.Unlock()
	for _, fn := range conts {
		fn()
	}
}

func (h *handle) onComplete(fn func()) {
	h.mu.Lock()
	if !h.completed {
		h.conts = append(h.conts, fn)
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	fn()
}

func (h *handle) Done() <-chan struct{} { return h.done }

func (h *handle) IsComplete() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *handle) Wait() { <-h.done }

func (h *handle) Err() error {
	if !h.IsComplete() {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}
