// Package api
// Author: momentics
//
// Scheduler contract for data-parallel work over index ranges, and the
// completion tokens it hands back.

package api

// Token is an opaque handle for the eventual completion of one or more
// scheduled tasks.
type Token interface {
	// Done is closed once every covered task has finished.
	Done() <-chan struct{}

	// IsComplete polls without blocking.
	IsComplete() bool

	// Wait blocks until IsComplete reports true.
	Wait()

	// Err reports the first task failure once complete; nil otherwise.
	Err() error
}

// Scheduler dispatches independent work units to a worker pool.
type Scheduler interface {
	// Schedule runs fn(i) for every i in [0, count), split into runs of at
	// most innerBatch indices, starting only after prior completes.
	Schedule(count, innerBatch int, prior Token, fn func(i int)) Token

	// Combine returns a token that completes once all tokens complete.
	Combine(tokens ...Token) Token
}

var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

type completedToken struct{}

func (completedToken) Done() <-chan struct{} { return closedCh }
func (completedToken) IsComplete() bool      { return true }
func (completedToken) Wait()                 {}
func (completedToken) Err() error            { return nil }

// Completed is the pre-completed sentinel used before anything is scheduled.
var Completed Token = completedToken{}
