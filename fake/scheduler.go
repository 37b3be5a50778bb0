// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"

	"github.com/momentics/dualview/api"
)

// Job is one recorded Schedule call.
type Job struct {
	Count      int
	InnerBatch int
	Prior      api.Token
	Fn         func(i int)
	Token      *ManualToken
}

// ManualScheduler records scheduled work and runs it only when RunAll is
// called, so tests control exactly when tokens complete.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []*Job
	history []*Job
}

var _ api.Scheduler = (*ManualScheduler)(nil)

// Schedule records the job and returns its incomplete token.
func (s *ManualScheduler) Schedule(count, innerBatch int, prior api.Token, fn func(i int)) api.Token {
	j := &Job{Count: count, InnerBatch: innerBatch, Prior: prior, Fn: fn, Token: NewManualToken()}
	s.mu.Lock()
	s.pending = append(s.pending, j)
	s.history = append(s.history, j)
	s.mu.Unlock()
	return j.Token
}

// Combine completes once every token completes, carrying the first error.
func (s *ManualScheduler) Combine(tokens ...api.Token) api.Token {
	c := NewManualToken()
	go func() {
		var first error
		for _, t := range tokens {
			<-t.Done()
			if err := t.Err(); err != nil && first == nil {
				first = err
			}
		}
		c.Complete(first)
	}()
	return c
}

// RunAll executes every pending job in scheduling order on the calling
// goroutine and completes their tokens. Returns the number of jobs run.
func (s *ManualScheduler) RunAll() int {
	s.mu.Lock()
	jobs := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, j := range jobs {
		if j.Prior != nil {
			j.Prior.Wait()
		}
		for i := 0; i < j.Count; i++ {
			j.Fn(i)
		}
		j.Token.Complete(nil)
	}
	return len(jobs)
}

// Pending returns the number of jobs not yet run.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// History returns every job scheduled so far.
func (s *ManualScheduler) History() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Job, len(s.history))
	copy(out, s.history)
	return out
}

// InlineScheduler runs jobs synchronously inside Schedule.
type InlineScheduler struct{}

var _ api.Scheduler = InlineScheduler{}

func (InlineScheduler) Schedule(count, _ int, prior api.Token, fn func(i int)) api.Token {
	if prior != nil {
		prior.Wait()
	}
	for i := 0; i < count; i++ {
		fn(i)
	}
	return api.Completed
}

func (InlineScheduler) Combine(...api.Token) api.Token { return api.Completed }
