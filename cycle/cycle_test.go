package cycle_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/batch"
	"github.com/momentics/dualview/cycle"
	"github.com/momentics/dualview/fake"
	"github.com/momentics/dualview/internal/concurrency"
	"github.com/momentics/dualview/jobs"
	"github.com/momentics/dualview/render"
	"github.com/momentics/dualview/seed"
	"github.com/momentics/dualview/sharedarray"
	"github.com/momentics/dualview/vmath"
)

type fixture struct {
	matrices *cycle.MatrixBatch
	colors   *cycle.ColorBatch
	renderer *fake.Renderer
	cfg      cycle.Config
}

func newFixture(t *testing.T, count, capacity int, sched api.Scheduler) *fixture {
	t.Helper()
	src := seed.New(1)
	m, err := batch.Build[vmath.Matrix4x4, vmath.Float4x4](count, capacity, func(chunk, n int) []vmath.Matrix4x4 {
		return src.Matrices(vmath.Float3{}, n, seed.SphereRadius(chunk))
	})
	require.NoError(t, err)
	c, err := batch.Build[vmath.Vector4, vmath.Float4](count, capacity, func(_, n int) []vmath.Vector4 {
		return src.Colors(n)
	})
	require.NoError(t, err)

	f := &fixture{matrices: m, colors: c, renderer: &fake.Renderer{ColorProperty: render.PropertyID(render.ColorProperty)}}
	f.cfg = cycle.Config{
		Mesh:      &api.Mesh{Name: "cube"},
		Material:  &api.Material{Name: "lit", SupportsInstancing: true, Instancing: true},
		Matrices:  m,
		Colors:    c,
		Renderer:  f.renderer,
		Scheduler: sched,
		Params:    jobs.DefaultParams(),
		Clock:     func() time.Duration { return 1500 * time.Millisecond },
	}
	t.Cleanup(func() {
		m.Dispose()
		c.Dispose()
	})
	return f
}

func snapshotColors(b *cycle.ColorBatch) [][]vmath.Vector4 {
	var out [][]vmath.Vector4
	b.ForEachChunk(func(_ int, a *sharedarray.Array[vmath.Vector4, vmath.Float4]) {
		out = append(out, append([]vmath.Vector4(nil), a.ViewA()...))
	})
	return out
}

func snapshotMatrices(b *cycle.MatrixBatch) [][]vmath.Matrix4x4 {
	var out [][]vmath.Matrix4x4
	b.ForEachChunk(func(_ int, a *sharedarray.Array[vmath.Matrix4x4, vmath.Float4x4]) {
		out = append(out, append([]vmath.Matrix4x4(nil), a.ViewA()...))
	})
	return out
}

// settle runs every pending job and waits for the combined token, after
// which direct access is allowed again.
func settle(c *cycle.Cycle, sched *fake.ManualScheduler) int {
	n := sched.RunAll()
	c.Pending().Wait()
	return n
}

func TestTicksAlternateColorAndPosition(t *testing.T) {
	sched := &fake.ManualScheduler{}
	f := newFixture(t, 2500, 1023, sched)
	c, err := cycle.New(f.cfg)
	require.NoError(t, err)

	colors0, matrices0 := snapshotColors(f.colors), snapshotMatrices(f.matrices)

	require.NoError(t, c.Tick())
	assert.Equal(t, 3, settle(c, sched))
	require.NoError(t, c.Pending().Err())
	assert.Equal(t, int64(3), c.Stats().ColorSchedules)
	assert.Zero(t, c.Stats().PositionSchedules)
	assert.NotEqual(t, colors0, snapshotColors(f.colors), "tick 0 shifts colors")
	assert.Equal(t, matrices0, snapshotMatrices(f.matrices), "tick 0 leaves transforms alone")

	colors1 := snapshotColors(f.colors)
	require.NoError(t, c.Tick())
	assert.Equal(t, 3, settle(c, sched))
	assert.Equal(t, int64(3), c.Stats().PositionSchedules)
	assert.NotEqual(t, matrices0, snapshotMatrices(f.matrices), "tick 1 moves transforms")
	assert.Equal(t, colors1, snapshotColors(f.colors), "tick 1 leaves colors alone")

	require.NoError(t, c.Tick())
	settle(c, sched)

	s := c.Stats()
	assert.Equal(t, int64(3), s.Ticks)
	assert.Equal(t, int64(9), s.Draws)
	assert.Equal(t, int64(6), s.ColorSchedules)
	assert.Equal(t, cycle.StateIdle, s.State)
	for _, job := range sched.History() {
		assert.Contains(t, []int{1023, 454}, job.Count)
	}
}

func TestDrawsEveryChunkInOrder(t *testing.T) {
	sched := &fake.ManualScheduler{}
	f := newFixture(t, 2500, 1023, sched)
	c, err := cycle.New(f.cfg)
	require.NoError(t, err)

	matrices := snapshotMatrices(f.matrices)
	require.NoError(t, c.Tick())
	calls := f.renderer.Calls()
	require.Len(t, calls, 3)
	for i, call := range calls {
		assert.Equal(t, len(matrices[i]), call.Count)
		assert.Equal(t, matrices[i], call.Matrices)
	}
	settle(c, sched)
}

func TestOddTicksRefreshPropertyBlocks(t *testing.T) {
	sched := &fake.ManualScheduler{}
	f := newFixture(t, 100, 64, sched)
	c, err := cycle.New(f.cfg)
	require.NoError(t, err)

	initial := snapshotColors(f.colors)
	require.NoError(t, c.Tick())
	calls := f.renderer.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, initial[0], calls[0].Colors, "blocks start with the seeded colors")
	settle(c, sched)

	shifted := snapshotColors(f.colors)
	f.renderer.Reset()
	require.NoError(t, c.Tick())
	calls = f.renderer.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, shifted[0], calls[0].Colors)
	assert.Equal(t, shifted[1], calls[1].Colors)
	assert.NotEqual(t, initial[0], calls[0].Colors)
	settle(c, sched)
}

func TestNoRigidUpdateWithoutPlacementChange(t *testing.T) {
	sched := &fake.ManualScheduler{}
	f := newFixture(t, 300, 100, sched)
	place := cycle.NewPlacementVar(cycle.DefaultPlacement())
	f.cfg.Placement = place
	c, err := cycle.New(f.cfg)
	require.NoError(t, err)

	for range 6 {
		require.NoError(t, c.Tick())
		assert.Equal(t, 3, settle(c, sched))
	}
	assert.Zero(t, c.Stats().RigidSchedules)
}

func TestTranslationChainsAheadOfNoise(t *testing.T) {
	sched := &fake.ManualScheduler{}
	f := newFixture(t, 300, 100, sched)
	f.cfg.Params.DistanceScale = 0 // position noise becomes the identity
	place := cycle.NewPlacementVar(cycle.DefaultPlacement())
	f.cfg.Placement = place
	c, err := cycle.New(f.cfg)
	require.NoError(t, err)

	require.NoError(t, c.Tick())
	settle(c, sched)

	before := snapshotMatrices(f.matrices)
	place.Translate(vmath.Vec3(1, 2, 3))
	require.NoError(t, c.Tick()) // odd: rigid + position
	history := sched.History()[3:]
	require.Len(t, history, 6)
	rigid, noise := history[:3], history[3:]
	for i := range 3 {
		assert.Same(t, rigid[i].Token, noise[i].Prior, "chunk %d noise waits on its rigid update", i)
	}
	assert.Equal(t, 6, settle(c, sched))
	assert.Equal(t, int64(3), c.Stats().RigidSchedules)

	after := snapshotMatrices(f.matrices)
	for i := range before {
		for j := range before[i] {
			want := before[i][j].Float().Position().Add(vmath.Vec3(1, 2, 3))
			got := after[i][j].Float().Position()
			for k := range 3 {
				require.InDelta(t, want[k], got[k], 1e-4)
			}
		}
	}
}

func TestRigidUpdateOnColorTickGuardsTransforms(t *testing.T) {
	sched := &fake.ManualScheduler{}
	f := newFixture(t, 200, 100, sched)
	place := cycle.NewPlacementVar(cycle.DefaultPlacement())
	f.cfg.Placement = place
	c, err := cycle.New(f.cfg)
	require.NoError(t, err)

	p := cycle.DefaultPlacement()
	p.Scale = vmath.Vec3(2, 2, 2)
	place.Set(p)
	require.NoError(t, c.Tick()) // even: colors + rigid scale
	assert.Equal(t, int64(2), c.Stats().RigidSchedules)
	assert.False(t, f.matrices.Chunk(0).Gate().Safe(), "transforms are busy with the rigid update")
	settle(c, sched)

	for _, m := range f.matrices.Chunk(1).ViewA() {
		assert.Equal(t, vmath.Vec3(2, 2, 2), m.Float().ScaleDiagonal())
	}
}

func requireFloat3Near(t *testing.T, want, got vmath.Float3, msg string, args ...any) {
	t.Helper()
	for k := range 3 {
		require.InDelta(t, want[k], got[k], 1e-4, append([]any{msg}, args...)...)
	}
}

func TestSimultaneousPlacementChangesApplyOnePerTick(t *testing.T) {
	sched := &fake.ManualScheduler{}
	f := newFixture(t, 200, 100, sched)
	f.cfg.Params.DistanceScale = 0
	place := cycle.NewPlacementVar(cycle.DefaultPlacement())
	f.cfg.Placement = place
	c, err := cycle.New(f.cfg)
	require.NoError(t, err)

	before := snapshotMatrices(f.matrices)
	p := cycle.DefaultPlacement()
	p.Translation = vmath.Vec3(1, 0, 0)
	p.Scale = vmath.Vec3(2, 2, 2)
	place.Set(p)

	require.NoError(t, c.Tick())
	settle(c, sched)
	assert.Equal(t, int64(2), c.Stats().RigidSchedules, "one rigid update per chunk")
	after := snapshotMatrices(f.matrices)
	for i := range before {
		for j := range before[i] {
			m0, m1 := before[i][j].Float(), after[i][j].Float()
			requireFloat3Near(t, m0.Position().Add(vmath.Vec3(1, 0, 0)), m1.Position(), "chunk %d[%d] translated", i, j)
			requireFloat3Near(t, m0.ScaleDiagonal(), m1.ScaleDiagonal(), "chunk %d[%d] scale deferred", i, j)
		}
	}
}

func TestDeferredPlacementChangeAppliesNextTick(t *testing.T) {
	sched := &fake.ManualScheduler{}
	f := newFixture(t, 200, 100, sched)
	f.cfg.Params.DistanceScale = 0
	place := cycle.NewPlacementVar(cycle.DefaultPlacement())
	f.cfg.Placement = place
	c, err := cycle.New(f.cfg)
	require.NoError(t, err)

	before := snapshotMatrices(f.matrices)
	p := cycle.DefaultPlacement()
	p.Translation = vmath.Vec3(1, 0, 0)
	p.Scale = vmath.Vec3(2, 2, 2)
	place.Set(p)

	for range 4 {
		require.NoError(t, c.Tick())
		settle(c, sched)
	}
	assert.Equal(t, int64(4), c.Stats().RigidSchedules, "translation then scale, nothing after")

	after := snapshotMatrices(f.matrices)
	for i := range before {
		for j := range before[i] {
			m0, m1 := before[i][j].Float(), after[i][j].Float()
			requireFloat3Near(t, m0.Position().Add(vmath.Vec3(1, 0, 0)), m1.Position(), "chunk %d[%d] translated", i, j)
			requireFloat3Near(t, vmath.Vec3(2, 2, 2), m1.ScaleDiagonal(), "chunk %d[%d] rescaled", i, j)
		}
	}
}

func TestRotationChangeReorientsFromOrigin(t *testing.T) {
	sched := &fake.ManualScheduler{}
	f := newFixture(t, 200, 100, sched)
	place := cycle.NewPlacementVar(cycle.DefaultPlacement())
	f.cfg.Placement = place
	c, err := cycle.New(f.cfg)
	require.NoError(t, err)

	before := snapshotMatrices(f.matrices)
	rot := vmath.AxisAngle(vmath.Vec3(0, 1, 0), 0.5)
	p := cycle.DefaultPlacement()
	p.Rotation = rot
	place.Set(p)

	require.NoError(t, c.Tick()) // even: colors + rigid rotation
	settle(c, sched)
	assert.Equal(t, int64(2), c.Stats().RigidSchedules)

	after := snapshotMatrices(f.matrices)
	up := vmath.Vec3(0, 1, 0)
	for i := range before {
		for j := range before[i] {
			pos := before[i][j].Float().Position()
			want := vmath.TRS(pos, rot.Mul(vmath.LookRotation(pos, up)), vmath.Vec3(1, 1, 1))
			got := after[i][j].Float()
			for k, col := range [][2]vmath.Float4{{want.C0, got.C0}, {want.C1, got.C1}, {want.C2, got.C2}, {want.C3, got.C3}} {
				for r := range 4 {
					require.InDelta(t, col[0][r], col[1][r], 1e-4, "chunk %d[%d] column %d", i, j, k)
				}
			}
		}
	}

	require.NoError(t, c.Tick())
	settle(c, sched)
	assert.Equal(t, int64(2), c.Stats().RigidSchedules, "rotation applied once")
}

func TestWaitBlocksOnGates(t *testing.T) {
	sched := &fake.ManualScheduler{}
	f := newFixture(t, 200, 100, sched)
	c, err := cycle.New(f.cfg)
	require.NoError(t, err)

	require.NoError(t, c.Tick())
	go func() {
		time.Sleep(50 * time.Millisecond)
		sched.RunAll()
	}()
	require.NoError(t, c.Tick())
	settle(c, sched)

	assert.GreaterOrEqual(t, f.colors.Chunk(0).Gate().Stats().Blocked, int64(1))
	assert.GreaterOrEqual(t, c.Stats().GateBlocks, int64(1))
}

func TestRendererErrorDisables(t *testing.T) {
	sched := &fake.ManualScheduler{}
	f := newFixture(t, 100, 50, sched)
	f.renderer.OnDraw = func([]vmath.Matrix4x4, int) error { return errors.New("device lost") }
	c, err := cycle.New(f.cfg)
	require.NoError(t, err)

	err = c.Tick()
	assert.ErrorIs(t, err, api.ErrExternalCollaborator)
	assert.ErrorContains(t, err, "device lost")
	assert.True(t, c.Disabled())
	assert.Equal(t, 0, sched.Pending(), "nothing scheduled after a failed draw")

	assert.NoError(t, c.Tick())
	assert.Equal(t, int64(0), c.Stats().Ticks)
	assert.ErrorIs(t, c.Err(), api.ErrExternalCollaborator)
}

// failingScheduler completes every scheduled job with a task failure.
type failingScheduler struct{ fake.ManualScheduler }

func (s *failingScheduler) Schedule(int, int, api.Token, func(int)) api.Token {
	tok := fake.NewManualToken()
	tok.Complete(api.NewError(api.ErrCodeTaskFailed, "job panicked"))
	return tok
}

func TestTaskFailureIsFatal(t *testing.T) {
	sched := &failingScheduler{}
	f := newFixture(t, 100, 50, sched)
	c, err := cycle.New(f.cfg)
	require.NoError(t, err)

	require.NoError(t, c.Tick())
	err = c.Tick()
	assert.ErrorIs(t, err, api.ErrTaskFailed)
	assert.True(t, c.Disabled())
	assert.Len(t, f.renderer.Calls(), 2, "no draw after a failed wait")
}

func TestSetParams(t *testing.T) {
	f := newFixture(t, 10, 10, fake.InlineScheduler{})
	c, err := cycle.New(f.cfg)
	require.NoError(t, err)

	p := c.Params()
	p.CycleTimeScale = 0
	assert.ErrorIs(t, c.SetParams(p), api.ErrInvalidArgument)
	p.CycleTimeScale = 2
	require.NoError(t, c.SetParams(p))
	assert.Equal(t, float32(2), c.Params().CycleTimeScale)
}

func TestNewRejectsMismatchedBatches(t *testing.T) {
	f := newFixture(t, 100, 50, fake.InlineScheduler{})
	other, err := batch.Build[vmath.Vector4, vmath.Float4](100, 40, nil)
	require.NoError(t, err)
	defer other.Dispose()

	f.cfg.Colors = other
	_, err = cycle.New(f.cfg)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

// countingScheduler tracks how many task bodies are executing.
type countingScheduler struct {
	api.Scheduler
	inflight atomic.Int64
}

func (s *countingScheduler) Schedule(count, inner int, prior api.Token, fn func(int)) api.Token {
	return s.Scheduler.Schedule(count, inner, prior, func(i int) {
		s.inflight.Add(1)
		defer s.inflight.Add(-1)
		fn(i)
	})
}

func TestNoDrawOverlapsInFlightTasks(t *testing.T) {
	ex := concurrency.NewExecutor(concurrency.WithWorkers(4))
	defer ex.Close()
	sched := &countingScheduler{Scheduler: concurrency.NewJobs(ex, concurrency.WithInnerBatch(64))}

	f := newFixture(t, 3000, 1023, sched)
	var overlaps atomic.Int64
	f.renderer.OnDraw = func([]vmath.Matrix4x4, int) error {
		if sched.inflight.Load() != 0 {
			overlaps.Add(1)
		}
		return nil
	}
	place := cycle.NewPlacementVar(cycle.DefaultPlacement())
	f.cfg.Placement = place
	var now atomic.Int64
	f.cfg.Clock = func() time.Duration { return time.Duration(now.Add(int64(16 * time.Millisecond))) }
	c, err := cycle.New(f.cfg)
	require.NoError(t, err)

	for i := range 40 {
		if i%7 == 3 {
			place.Translate(vmath.Vec3(0.5, 0, 0))
		}
		require.NoError(t, c.Tick())
	}
	require.NoError(t, c.Close())
	assert.Zero(t, overlaps.Load())
	assert.Zero(t, sched.inflight.Load())
	assert.True(t, c.Disabled())
	assert.Positive(t, c.Stats().RigidSchedules)
}
