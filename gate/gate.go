// File: gate/gate.go
// Package gate implements the per-buffer access guard.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Gate remembers the token of the tasks that currently own a buffer.
// Consumers either block on it (EnsureSafe) or probe it (TryDirectAccess).
// It never arbitrates between writers: tasks work on disjoint chunks by
// construction, the only race left is consumer against in-flight writer.

package gate

import (
	"fmt"
	"sync/atomic"

	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/internal/safety"
)

// Stats counts gate transitions.
type Stats struct {
	Begins   int64 // tokens recorded
	Waits    int64 // EnsureSafe calls that found a token
	Blocked  int64 // of those, waits that had to suspend
	Rejected int64 // direct accesses refused
}

type tokenBox struct{ t api.Token }

// Gate guards one buffer. Begin/EnsureSafe are driven from a single
// goroutine; Safe, TryDirectAccess and Stats may be called from any.
type Gate struct {
	token atomic.Pointer[tokenBox]

	begins   atomic.Int64
	waits    atomic.Int64
	blocked  atomic.Int64
	rejected atomic.Int64
}

// New returns an open gate.
func New() *Gate { return &Gate{} }

// Begin records t as the token that must complete before direct access.
// Any previously recorded token is dropped; by protocol it has already been
// observed complete.
func (g *Gate) Begin(t api.Token) {
	if t == nil {
		t = api.Completed
	}
	g.token.Store(&tokenBox{t: t})
	g.begins.Add(1)
}

// Token returns the recorded token, or api.Completed.
func (g *Gate) Token() api.Token {
	if b := g.token.Load(); b != nil {
		return b.t
	}
	return api.Completed
}

// Safe polls without blocking.
func (g *Gate) Safe() bool {
	b := g.token.Load()
	return b == nil || b.t.IsComplete()
}

// EnsureSafe blocks until the recorded token completes, then clears it.
// A task failure carried by the token is returned; callers treat it as fatal.
func (g *Gate) EnsureSafe() error {
	b := g.token.Load()
	if b == nil {
		return nil
	}
	g.waits.Add(1)
	if !b.t.IsComplete() {
		g.blocked.Add(1)
		b.t.Wait()
	}
	g.token.CompareAndSwap(b, nil)
	if err := b.t.Err(); err != nil {
		return fmt.Errorf("gate: %w", err)
	}
	return nil
}

// TryDirectAccess fails with api.ErrUnsafeAccess while the recorded token is
// outstanding. Compiled to a no-op under the dualview_release build tag.
func (g *Gate) TryDirectAccess() error {
	if !safety.Enabled {
		return nil
	}
	if g.Safe() {
		return nil
	}
	g.rejected.Add(1)
	return api.NewError(api.ErrCodeUnsafeAccess, "direct access while scheduled tasks hold the buffer")
}

// Stats returns a snapshot of the counters.
func (g *Gate) Stats() Stats {
	return Stats{
		Begins:   g.begins.Load(),
		Waits:    g.waits.Load(),
		Blocked:  g.blocked.Load(),
		Rejected: g.rejected.Load(),
	}
}
