// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"

	"github.com/momentics/dualview/api"
)

// ManualToken is an api.Token completed explicitly by the test.
type ManualToken struct {
	once sync.Once
	done chan struct{}
	mu   sync.Mutex
	err  error
}

// NewManualToken returns an incomplete token.
func NewManualToken() *ManualToken {
	return &ManualToken{done: make(chan struct{})}
}

// Complete marks the token done with an optional failure. Later calls are ignored.
func (t *ManualToken) Complete(err error) {
	t.once.Do(func() {
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
		close(t.done)
	})
}

func (t *ManualToken) Done() <-chan struct{} { return t.done }

func (t *ManualToken) IsComplete() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *ManualToken) Wait() { <-t.done }

func (t *ManualToken) Err() error {
	if !t.IsComplete() {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

var _ api.Token = (*ManualToken)(nil)
