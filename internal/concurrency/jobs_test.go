package concurrency_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/fake"
	"github.com/momentics/dualview/internal/concurrency"
)

func newJobs(t *testing.T, workers int) *concurrency.Jobs {
	t.Helper()
	ex := concurrency.NewExecutor(concurrency.WithWorkers(workers))
	t.Cleanup(ex.Close)
	return concurrency.NewJobs(ex, concurrency.WithInnerBatch(16))
}

func TestScheduleCoversRange(t *testing.T) {
	j := newJobs(t, 4)
	const n = 1023
	hits := make([]atomic.Int32, n)
	tok := j.Schedule(n, 0, nil, func(i int) { hits[i].Add(1) })
	tok.Wait()
	require.NoError(t, tok.Err())
	for i := range hits {
		require.Equal(t, int32(1), hits[i].Load(), "index %d", i)
	}
	assert.Equal(t, int64((n+15)/16), j.Stats().Batches)
}

func TestScheduleEmptyRange(t *testing.T) {
	j := newJobs(t, 1)
	tok := j.Schedule(0, 64, nil, func(int) { t.Fatal("must not run") })
	tok.Wait()
	assert.True(t, tok.IsComplete())
}

func TestScheduleWaitsForPrior(t *testing.T) {
	j := newJobs(t, 4)
	var firstDone atomic.Bool
	var violations atomic.Int32
	first := j.Schedule(256, 8, nil, func(int) {
		time.Sleep(10 * time.Microsecond)
	})
	chainedPrior := j.Schedule(1, 1, first, func(int) { firstDone.Store(true) })
	second := j.Schedule(256, 8, chainedPrior, func(int) {
		if !firstDone.Load() {
			violations.Add(1)
		}
	})
	second.Wait()
	assert.True(t, first.IsComplete())
	assert.Zero(t, violations.Load())
}

func TestScheduleForeignPrior(t *testing.T) {
	j := newJobs(t, 2)
	prior := fake.NewManualToken()
	var ran atomic.Int32
	tok := j.Schedule(10, 4, prior, func(int) { ran.Add(1) })

	time.Sleep(5 * time.Millisecond)
	assert.Zero(t, ran.Load())
	assert.False(t, tok.IsComplete())

	prior.Complete(nil)
	tok.Wait()
	assert.Equal(t, int32(10), ran.Load())
	assert.Equal(t, int64(1), j.Stats().Foreign)
}

func TestPanicSurfacesAsTaskFailure(t *testing.T) {
	j := newJobs(t, 2)
	tok := j.Schedule(64, 16, nil, func(i int) {
		if i == 40 {
			panic("bad element")
		}
	})
	tok.Wait()
	assert.ErrorIs(t, tok.Err(), api.ErrTaskFailed)
	assert.Equal(t, int64(1), j.Stats().Failures)

	var ran atomic.Int32
	dependent := j.Schedule(8, 8, tok, func(int) { ran.Add(1) })
	dependent.Wait()
	assert.ErrorIs(t, dependent.Err(), api.ErrTaskFailed)
	assert.Zero(t, ran.Load(), "work chained on a failed prior is skipped")

	combined := j.Combine(api.Completed, tok)
	combined.Wait()
	assert.ErrorIs(t, combined.Err(), api.ErrTaskFailed)
}

func TestCombine(t *testing.T) {
	j := newJobs(t, 2)
	assert.Equal(t, api.Completed, j.Combine())
	assert.Equal(t, api.Completed, j.Combine(nil, nil))

	a, b := fake.NewManualToken(), fake.NewManualToken()
	own := j.Schedule(4, 1, a, func(int) {})
	c := j.Combine(own, b)
	assert.False(t, c.IsComplete())

	b.Complete(nil)
	time.Sleep(2 * time.Millisecond)
	assert.False(t, c.IsComplete())

	a.Complete(nil)
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("combined token never completed")
	}
	assert.NoError(t, c.Err())
}
