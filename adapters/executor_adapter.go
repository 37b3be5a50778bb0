// File: adapters/executor_adapter.go
// Package adapters provides glue between internal concurrency and the api contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ExecutorAdapter implements api.Executor by delegating to the internal
// concurrency.Executor; NewScheduler layers the job scheduler on any
// api.Executor.

package adapters

import (
	"github.com/rs/zerolog"

	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/internal/concurrency"
)

// ExecutorAdapter wraps an internal concurrency.Executor to satisfy the api.Executor contract.
type ExecutorAdapter struct {
	exec *concurrency.Executor
}

// NewExecutorAdapter starts workers goroutines (GOMAXPROCS when <= 0),
// optionally pinning each to a CPU.
func NewExecutorAdapter(workers int, pin bool, l zerolog.Logger) *ExecutorAdapter {
	e := concurrency.NewExecutor(
		concurrency.WithWorkers(workers),
		concurrency.WithAffinity(pin),
		concurrency.WithExecutorLogger(l),
	)
	return &ExecutorAdapter{exec: e}
}

// Submit dispatches a task function to be executed asynchronously.
// Returns an error if the executor has been closed.
func (ea *ExecutorAdapter) Submit(task func()) error {
	return ea.exec.Submit(task)
}

// NumWorkers returns the number of worker goroutines.
func (ea *ExecutorAdapter) NumWorkers() int {
	return ea.exec.NumWorkers()
}

// Stats returns the executor counters.
func (ea *ExecutorAdapter) Stats() map[string]int64 {
	return ea.exec.Stats()
}

// Close drains queued tasks and stops the workers.
func (ea *ExecutorAdapter) Close() {
	ea.exec.Close()
}

// SchedulerAdapter is the job scheduler over an api.Executor.
type SchedulerAdapter struct {
	*concurrency.Jobs
}

// NewScheduler returns an api.Scheduler submitting to exec, cutting ranges
// into innerBatch indices when Schedule is not given a size.
func NewScheduler(exec api.Executor, innerBatch int, l zerolog.Logger) *SchedulerAdapter {
	return &SchedulerAdapter{Jobs: concurrency.NewJobs(exec,
		concurrency.WithInnerBatch(innerBatch),
		concurrency.WithJobsLogger(l),
	)}
}

// Counters flattens the scheduler stats for metrics export.
func (s *SchedulerAdapter) Counters() map[string]int64 {
	st := s.Stats()
	return map[string]int64{
		"scheduled": st.Scheduled,
		"batches":   st.Batches,
		"failures":  st.Failures,
		"foreign":   st.Foreign,
	}
}
