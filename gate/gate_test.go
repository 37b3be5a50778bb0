package gate_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/fake"
	"github.com/momentics/dualview/gate"
)

func TestFreshGateIsSafe(t *testing.T) {
	g := gate.New()
	assert.True(t, g.Safe())
	assert.NoError(t, g.EnsureSafe())
	assert.NoError(t, g.TryDirectAccess())
	assert.Equal(t, api.Completed, g.Token())
}

func TestEnsureSafeNeverWakesEarly(t *testing.T) {
	for round := 0; round < 20; round++ {
		sched := &fake.ManualScheduler{}
		tokens := []api.Token{
			fake.NewManualToken(), fake.NewManualToken(), fake.NewManualToken(),
		}
		g := gate.New()
		g.Begin(sched.Combine(tokens...))

		var returned atomic.Bool
		done := make(chan struct{})
		go func() {
			assert.NoError(t, g.EnsureSafe())
			returned.Store(true)
			close(done)
		}()

		for _, tok := range tokens {
			time.Sleep(time.Millisecond)
			require.False(t, returned.Load(), "EnsureSafe returned before all tokens completed")
			tok.(*fake.ManualToken).Complete(nil)
		}
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("EnsureSafe did not return after completion")
		}
		for _, tok := range tokens {
			assert.True(t, tok.IsComplete())
		}
		assert.True(t, g.Safe())
	}
}

func TestBeginOverwritesPriorToken(t *testing.T) {
	g := gate.New()
	first := fake.NewManualToken()
	second := fake.NewManualToken()
	g.Begin(first)
	g.Begin(second)
	assert.Same(t, second, g.Token())
	second.Complete(nil)
	assert.NoError(t, g.EnsureSafe())
	assert.Equal(t, int64(2), g.Stats().Begins)
}

func TestEnsureSafeSurfacesTaskFailure(t *testing.T) {
	g := gate.New()
	tok := fake.NewManualToken()
	g.Begin(tok)
	tok.Complete(api.NewError(api.ErrCodeTaskFailed, "panic").WithCause(errors.New("x")))
	err := g.EnsureSafe()
	assert.ErrorIs(t, err, api.ErrTaskFailed)
	assert.True(t, g.Safe())
}

func TestStatsCountBlockedWaits(t *testing.T) {
	g := gate.New()
	tok := fake.NewManualToken()
	g.Begin(tok)
	go func() {
		time.Sleep(5 * time.Millisecond)
		tok.Complete(nil)
	}()
	require.NoError(t, g.EnsureSafe())
	st := g.Stats()
	assert.Equal(t, int64(1), st.Waits)
	assert.Equal(t, int64(1), st.Blocked)

	g.Begin(api.Completed)
	require.NoError(t, g.EnsureSafe())
	assert.Equal(t, int64(1), g.Stats().Blocked)
}
