// File: facade/instancer.go
// Unified facade over the instanced-draw pipeline.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Instancer aggregates the region allocator, executor, job scheduler, the
// matrix and color batches, the cycle and the control surface behind a single
// type. It seeds the batches, prepares the renderer and drives ticks either
// one at a time (Tick) or from a frame-rate ticker (Run).

package facade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/momentics/dualview/adapters"
	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/batch"
	"github.com/momentics/dualview/control"
	"github.com/momentics/dualview/cycle"
	"github.com/momentics/dualview/jobs"
	"github.com/momentics/dualview/pool"
	"github.com/momentics/dualview/render"
	"github.com/momentics/dualview/seed"
	"github.com/momentics/dualview/vmath"
)

// Ensure compile-time interface compliance.
var _ api.GracefulShutdown = (*Instancer)(nil)

// ErrClosed is returned by operations on a closed Instancer.
var ErrClosed = errors.New("facade: instancer closed")

// Option customizes collaborators that do not belong in Config.
type Option func(*Instancer)

// WithRenderer replaces the default NullRenderer.
func WithRenderer(r api.Renderer) Option {
	return func(in *Instancer) { in.renderer = r }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(in *Instancer) { in.log = l }
}

// WithScheduler supplies an external scheduler; the Instancer then starts no
// executor of its own.
func WithScheduler(s api.Scheduler) Option {
	return func(in *Instancer) { in.scheduler = s }
}

// WithPlacement enables rigid updates driven by src.
func WithPlacement(src cycle.PlacementSource) Option {
	return func(in *Instancer) { in.placement = src }
}

// WithClock overrides the cycle clock.
func WithClock(fn func() time.Duration) Option {
	return func(in *Instancer) { in.clock = fn }
}

// WithMesh sets the mesh to instance.
func WithMesh(m *api.Mesh) Option {
	return func(in *Instancer) { in.mesh = m }
}

// WithMaterial sets the material to draw with.
func WithMaterial(m *api.Material) Option {
	return func(in *Instancer) { in.material = m }
}

// WithAllocator backs pooled storage with alloc instead of pool.Default or
// the memory-locked pool LockMemory selects.
func WithAllocator(alloc api.RegionAllocator) Option {
	return func(in *Instancer) { in.alloc = alloc }
}

// Instancer is the main facade type.
type Instancer struct {
	id  uuid.UUID
	cfg Config
	log zerolog.Logger

	control   *adapters.ControlAdapter
	renderer  api.Renderer
	executor  *adapters.ExecutorAdapter
	jobs      *adapters.SchedulerAdapter
	scheduler api.Scheduler
	alloc     api.RegionAllocator
	regions   *pool.RegionPool
	placement cycle.PlacementSource
	clock     func() time.Duration
	mesh      *api.Mesh
	material  *api.Material

	mu       sync.Mutex
	matrices *cycle.MatrixBatch
	colors   *cycle.ColorBatch
	cycle    *cycle.Cycle
	builds   int
	err      error
	closed   bool
}

// New builds the pipeline. A renderer that rejects the mesh or material does
// not fail New: the Instancer comes back disabled with Err set, and every
// Tick is a no-op.
func New(cfg *Config, opts ...Option) (*Instancer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	in := &Instancer{
		id:       uuid.New(),
		cfg:      *cfg,
		log:      zerolog.Nop(),
		mesh:     &api.Mesh{Name: "cube", VertexCount: 24, SubMeshes: 1},
		material: &api.Material{Name: "instanced", SupportsInstancing: true},
	}
	for _, o := range opts {
		o(in)
	}
	in.log = in.log.With().Str("instancer", in.id.String()).Logger()
	if in.renderer == nil {
		in.renderer = render.NewNullRenderer(in.log)
	}
	if in.scheduler == nil {
		in.executor = adapters.NewExecutorAdapter(cfg.NumWorkers, cfg.CPUAffinity, in.log)
		in.jobs = adapters.NewScheduler(in.executor, cfg.InnerBatch, in.log)
		in.scheduler = in.jobs
	}
	if cfg.PooledStorage && in.alloc == nil {
		if cfg.LockMemory {
			in.regions = pool.NewRegionPool(pool.WithMemoryLock(true), pool.WithLogger(in.log))
			in.alloc = in.regions
		} else {
			in.alloc = pool.Default()
		}
	}
	in.control = adapters.NewControlAdapter()

	if err := in.renderer.Prepare(in.mesh, in.material); err != nil {
		in.err = api.NewError(api.ErrCodeExternalCollaborator, "facade: renderer rejected material").
			WithContext("material", in.material.Name).
			WithCause(err)
		in.log.Error().Err(in.err).Msg("instancing unsupported, instancer disabled")
		return in, nil
	}

	if err := in.build(in.cfg.alignedCount(in.cfg.InstanceCount)); err != nil {
		in.shutdownExecutor()
		return nil, err
	}
	in.wireControl()
	return in, nil
}

// build seeds fresh batches and a cycle for count instances. Caller holds mu
// or has exclusive access.
func (in *Instancer) build(count int) error {
	src := seed.New(in.cfg.Seed + uint64(in.builds))
	matrixSeed := func(chunk, n int) []vmath.Matrix4x4 {
		return src.Matrices(in.cfg.Center, n, seed.SphereRadius(chunk))
	}
	colorSeed := func(_, n int) []vmath.Vector4 { return src.Colors(n) }

	var (
		matrices *cycle.MatrixBatch
		colors   *cycle.ColorBatch
		err      error
	)
	if in.alloc != nil {
		matrices, colors, err = in.buildPooled(count, matrixSeed, colorSeed)
	} else {
		matrices, err = batch.Build[vmath.Matrix4x4, vmath.Float4x4](count, in.cfg.ChunkCapacity, matrixSeed)
		if err == nil {
			colors, err = batch.Build[vmath.Vector4, vmath.Float4](count, in.cfg.ChunkCapacity, colorSeed)
			if err != nil {
				matrices.Dispose()
			}
		}
	}
	if err != nil {
		return err
	}

	p := in.cfg.Effects
	if in.cycle != nil {
		p = in.cycle.Params()
	}
	c, err := cycle.New(cycle.Config{
		Mesh:       in.mesh,
		Material:   in.material,
		Matrices:   matrices,
		Colors:     colors,
		Renderer:   in.renderer,
		Scheduler:  in.scheduler,
		InnerBatch: in.cfg.InnerBatch,
		Params:     p,
		Placement:  in.placement,
		Clock:      in.clock,
		Layer:      in.cfg.Layer,
		Logger:     in.log,
	})
	if err != nil {
		matrices.Dispose()
		colors.Dispose()
		return err
	}
	in.matrices, in.colors, in.cycle = matrices, colors, c
	in.builds++
	in.log.Info().
		Int("instances", count).
		Int("chunks", matrices.Len()).
		Bool("pooled", in.alloc != nil).
		Msg("batches built")
	return nil
}

// buildPooled allocates zeroed region-backed batches and copies the seeds in.
func (in *Instancer) buildPooled(count int, ms batch.SeedFunc[vmath.Matrix4x4], cs batch.SeedFunc[vmath.Vector4]) (*cycle.MatrixBatch, *cycle.ColorBatch, error) {
	matrices, err := batch.BuildWithCount[vmath.Matrix4x4, vmath.Float4x4](in.alloc, count, in.cfg.ChunkCapacity)
	if err != nil {
		return nil, nil, err
	}
	colors, err := batch.BuildWithCount[vmath.Vector4, vmath.Float4](in.alloc, count, in.cfg.ChunkCapacity)
	if err != nil {
		matrices.Dispose()
		return nil, nil, err
	}
	for i := range matrices.Len() {
		m, c := matrices.Chunk(i).ViewA(), colors.Chunk(i).ViewA()
		copy(m, ms(i, len(m)))
		copy(c, cs(i, len(c)))
	}
	return matrices, colors, nil
}

// wireControl publishes the effect scalars and applies validated reloads.
func (in *Instancer) wireControl() {
	store := in.control.Store()
	store.SetValidator(func(m map[string]any) error {
		_, err := paramsFromConfig(m, in.currentCycle().Params())
		return err
	})
	initial := paramsToConfig(in.cfg.Effects)
	initial[KeyInstanceCount] = int64(in.cfg.alignedCount(in.cfg.InstanceCount))
	if err := store.SetConfig(initial); err != nil {
		in.log.Warn().Err(err).Msg("initial config rejected")
	}
	in.control.OnReload(in.applyConfig)

	in.control.RegisterDebugProbe("instancer.id", func() any { return in.id.String() })
	in.control.RegisterDebugProbe("instancer.state", func() any { return in.currentCycle().State().String() })
	if in.regions != nil {
		in.control.RegisterDebugProbe("pool.lock_failures", func() any { return in.regions.LockFailures() })
	}
}

func (in *Instancer) applyConfig() {
	c := in.currentCycle()
	p, err := paramsFromConfig(in.control.GetConfig(), c.Params())
	if err == nil {
		err = c.SetParams(p)
	}
	if err != nil {
		in.log.Warn().Err(err).Msg("config reload ignored")
		return
	}
	in.log.Info().
		Float32("noise_scale", p.NoiseScale).
		Float32("distance_scale", p.DistanceScale).
		Float32("color_scale", p.ColorScale).
		Float32("cycle_time_scale", p.CycleTimeScale).
		Msg("effect parameters reloaded")
}

func (in *Instancer) currentCycle() *cycle.Cycle {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.cycle
}

// ID returns the instance identifier used in logs.
func (in *Instancer) ID() uuid.UUID { return in.id }

// Control returns the config, metrics and debug surface.
func (in *Instancer) Control() api.Control { return in.control }

// Scheduler returns the scheduler tasks run on.
func (in *Instancer) Scheduler() api.Scheduler { return in.scheduler }

// Matrices returns the current transform batch. Views taken from it are
// only valid until the next Rebuild.
func (in *Instancer) Matrices() *cycle.MatrixBatch {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.matrices
}

// Colors returns the current color batch.
func (in *Instancer) Colors() *cycle.ColorBatch {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.colors
}

// Disabled reports whether ticks have become no-ops.
func (in *Instancer) Disabled() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.err != nil || in.cycle == nil || in.cycle.Disabled()
}

// Err returns the error that disabled the Instancer, if any.
func (in *Instancer) Err() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.err != nil {
		return in.err
	}
	if in.cycle != nil {
		return in.cycle.Err()
	}
	return nil
}

// Tick runs one cycle round. It is a no-op once disabled and returns
// ErrClosed after Close.
func (in *Instancer) Tick() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return ErrClosed
	}
	if in.err != nil || in.cycle == nil {
		return nil
	}
	err := in.cycle.Tick()
	if in.cfg.EnableMetrics {
		in.publishMetrics()
	}
	return err
}

// Run ticks at Config.FrameRate until ctx is done or a tick fails. A
// disabled Instancer returns its error immediately.
func (in *Instancer) Run(ctx context.Context) error {
	if err := in.Err(); err != nil {
		return err
	}
	var frames <-chan time.Time
	if in.cfg.FrameRate > 0 {
		t := time.NewTicker(time.Second / time.Duration(in.cfg.FrameRate))
		defer t.Stop()
		frames = t.C
	}
	for {
		if frames != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-frames:
			}
		} else if ctx.Err() != nil {
			return nil
		}
		if err := in.Tick(); err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}
	}
}

// Rebuild waits for in-flight tasks, disposes both batches and builds new
// ones holding count instances (clamped when StrictAlignment is set).
// Current effect parameters carry over.
func (in *Instancer) Rebuild(count int) error {
	if count < 0 {
		return fmt.Errorf("facade: rebuild with %d instances: %w", count, api.ErrInvalidArgument)
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	switch {
	case in.closed:
		return ErrClosed
	case in.err != nil:
		return in.err
	}
	if err := in.cycle.Close(); err != nil {
		return err
	}
	in.matrices.Dispose()
	in.colors.Dispose()
	count = in.cfg.alignedCount(count)
	if err := in.build(count); err != nil {
		in.err = err
		return err
	}
	in.control.SetMetric(KeyInstanceCount, int64(count))
	in.control.Metrics().Add("instancer.rebuilds", 1)
	return nil
}

// Params returns the effect scalars in use. A disabled-at-construction
// Instancer reports its configured values.
func (in *Instancer) Params() jobs.Params {
	if c := in.currentCycle(); c != nil {
		return c.Params()
	}
	return in.cfg.Effects
}

// SetParams validates and applies effect scalars through the control store,
// so reload listeners and watchers observe the same values.
func (in *Instancer) SetParams(p jobs.Params) error {
	return in.control.SetConfig(paramsToConfig(p))
}

// Watch returns a watcher that reloads the [effects] table of path into the
// control store. The caller runs it.
func (in *Instancer) Watch(path string) (*control.Watcher, error) {
	return control.NewWatcher(path, in.control.Store(), in.log, control.WithSection(EffectsSection))
}

func (in *Instancer) publishMetrics() {
	cs := in.cycle.Stats()
	in.control.Metrics().Publish(map[string]any{
		"cycle.ticks":        cs.Ticks,
		"cycle.draws":        cs.Draws,
		"cycle.wait_ns":      int64(cs.WaitTime),
		"cycle.last_wait_ns": int64(cs.LastWait),
		"cycle.state":        cs.State.String(),
	})
}

// Stats is a point-in-time snapshot of every component.
type Stats struct {
	ID        string            `json:"id"`
	Instances int               `json:"instances"`
	Chunks    int               `json:"chunks"`
	Disabled  bool              `json:"disabled"`
	Error     string            `json:"error,omitempty"`
	Cycle     cycle.Stats       `json:"cycle"`
	Executor  map[string]int64  `json:"executor,omitempty"`
	Scheduler map[string]int64  `json:"scheduler,omitempty"`
	Regions   *api.RegionStats  `json:"regions,omitempty"`
	Renderer  *render.NullStats `json:"renderer,omitempty"`
}

// Stats returns a snapshot.
func (in *Instancer) Stats() Stats {
	in.mu.Lock()
	defer in.mu.Unlock()
	st := Stats{ID: in.id.String()}
	if in.err != nil {
		st.Disabled, st.Error = true, in.err.Error()
	}
	if in.cycle != nil {
		st.Instances = in.matrices.Count()
		st.Chunks = in.matrices.Len()
		st.Cycle = in.cycle.Stats()
		if err := in.cycle.Err(); err != nil {
			st.Disabled, st.Error = true, err.Error()
		}
	}
	if in.executor != nil {
		st.Executor = in.executor.Stats()
	}
	if in.jobs != nil {
		st.Scheduler = in.jobs.Counters()
	}
	if in.alloc != nil {
		rs := in.alloc.Stats()
		st.Regions = &rs
	}
	if nr, ok := in.renderer.(*render.NullRenderer); ok {
		ns := nr.Stats()
		st.Renderer = &ns
	}
	return st
}

// Close waits for in-flight tasks, releases both batches and stops the
// executor. Safe to call more than once.
func (in *Instancer) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}
	in.closed = true
	var err error
	if in.cycle != nil {
		err = in.cycle.Close()
		in.matrices.Dispose()
		in.colors.Dispose()
	}
	in.shutdownExecutor()
	if in.regions != nil {
		in.regions.Drain()
	}
	in.log.Info().Int("builds", in.builds).Msg("instancer closed")
	return err
}

// Shutdown implements api.GracefulShutdown.
func (in *Instancer) Shutdown() error { return in.Close() }

func (in *Instancer) shutdownExecutor() {
	if in.executor != nil {
		in.executor.Close()
	}
}
