// File: cycle/cycle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package cycle

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/batch"
	"github.com/momentics/dualview/jobs"
	"github.com/momentics/dualview/render"
	"github.com/momentics/dualview/vmath"
)

// MatrixBatch holds the instance transforms.
type MatrixBatch = batch.Batch[vmath.Matrix4x4, vmath.Float4x4]

// ColorBatch holds the instance colors.
type ColorBatch = batch.Batch[vmath.Vector4, vmath.Float4]

// Config wires a Cycle.
type Config struct {
	Mesh      *api.Mesh
	Material  *api.Material
	Matrices  *MatrixBatch
	Colors    *ColorBatch
	Renderer  api.Renderer
	Scheduler api.Scheduler

	// InnerBatch is passed to every Schedule call; <= 0 lets the scheduler pick.
	InnerBatch int
	Params     jobs.Params
	// Placement is optional; nil disables rigid updates.
	Placement PlacementSource
	// Clock reports elapsed time; defaults to time since New.
	Clock  func() time.Duration
	Layer  int
	Logger zerolog.Logger
}

// Cycle runs the tick pipeline. Tick must be called from one goroutine;
// SetParams, Stats and State are safe from any.
type Cycle struct {
	mesh      *api.Mesh
	material  *api.Material
	matrices  *MatrixBatch
	colors    *ColorBatch
	renderer  api.Renderer
	scheduler api.Scheduler
	inner     int
	placement PlacementSource
	clock     func() time.Duration
	layer     int
	log       zerolog.Logger

	blocks  []*api.PropertyBlock
	colorID int

	params atomic.Pointer[jobs.Params]
	state  atomic.Int32

	tick          uint64
	pending       api.Token
	lastPlacement Placement

	errMu sync.Mutex
	err   error

	ticks             atomic.Int64
	colorSchedules    atomic.Int64
	positionSchedules atomic.Int64
	rigidSchedules    atomic.Int64
	draws             atomic.Int64
	waitNanos         atomic.Int64
	lastWaitNanos     atomic.Int64
}

// New validates cfg and seeds each chunk's property block with its colors.
func New(cfg Config) (*Cycle, error) {
	switch {
	case cfg.Matrices == nil || cfg.Colors == nil:
		return nil, fmt.Errorf("cycle: matrices and colors required: %w", api.ErrInvalidArgument)
	case cfg.Renderer == nil || cfg.Scheduler == nil:
		return nil, fmt.Errorf("cycle: renderer and scheduler required: %w", api.ErrInvalidArgument)
	case cfg.Matrices.Len() != cfg.Colors.Len():
		return nil, fmt.Errorf("cycle: %d matrix chunks, %d color chunks: %w",
			cfg.Matrices.Len(), cfg.Colors.Len(), api.ErrInvalidArgument)
	}
	for i := range cfg.Matrices.Len() {
		if m, c := cfg.Matrices.Chunk(i).Len(), cfg.Colors.Chunk(i).Len(); m != c {
			return nil, fmt.Errorf("cycle: chunk %d holds %d matrices, %d colors: %w", i, m, c, api.ErrInvalidArgument)
		}
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}

	c := &Cycle{
		mesh:      cfg.Mesh,
		material:  cfg.Material,
		matrices:  cfg.Matrices,
		colors:    cfg.Colors,
		renderer:  cfg.Renderer,
		scheduler: cfg.Scheduler,
		inner:     cfg.InnerBatch,
		placement: cfg.Placement,
		clock:     cfg.Clock,
		layer:     cfg.Layer,
		log:       cfg.Logger,
		colorID:   render.PropertyID(render.ColorProperty),
		pending:   api.Completed,
	}
	if c.clock == nil {
		start := time.Now()
		c.clock = func() time.Duration { return time.Since(start) }
	}
	if c.placement != nil {
		c.lastPlacement = c.placement.Placement()
	}
	p := cfg.Params
	c.params.Store(&p)

	c.blocks = make([]*api.PropertyBlock, cfg.Colors.Len())
	for i := range c.blocks {
		colors, err := cfg.Colors.Chunk(i).TryViewA()
		if err != nil {
			return nil, fmt.Errorf("cycle: seed property block %d: %w", i, err)
		}
		b := api.NewPropertyBlock()
		b.SetVectorArray(c.colorID, colors)
		c.blocks[i] = b
	}
	return c, nil
}

// SetParams replaces the effect scalars from the next scheduling phase on.
func (c *Cycle) SetParams(p jobs.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.params.Store(&p)
	return nil
}

// Params returns the current effect scalars.
func (c *Cycle) Params() jobs.Params { return *c.params.Load() }

// State returns the current phase.
func (c *Cycle) State() State { return State(c.state.Load()) }

// Disabled reports whether the cycle stopped for good.
func (c *Cycle) Disabled() bool { return c.State() == StateDisabled }

// Err returns the error that disabled the cycle, if any.
func (c *Cycle) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Block returns chunk i's property block.
func (c *Cycle) Block(i int) *api.PropertyBlock { return c.blocks[i] }

// Pending returns the token of the most recently scheduled tasks.
func (c *Cycle) Pending() api.Token { return c.pending }

func (c *Cycle) disable(err error) error {
	c.errMu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.errMu.Unlock()
	c.state.Store(int32(StateDisabled))
	c.log.Error().Err(err).Uint64("tick", c.tick).Msg("cycle disabled")
	return err
}

// Tick runs one wait, draw, schedule round. A task failure or a renderer
// error disables the cycle and is returned; later calls are no-ops.
func (c *Cycle) Tick() error {
	if c.Disabled() {
		return nil
	}

	c.state.Store(int32(StateWaiting))
	if err := c.wait(); err != nil {
		return c.disable(fmt.Errorf("cycle: tick %d: %w", c.tick, err))
	}

	c.state.Store(int32(StateSafe))
	odd := c.tick%2 != 0
	if err := c.draw(odd); err != nil {
		return c.disable(err)
	}

	c.state.Store(int32(StateScheduling))
	c.schedule(odd)

	c.tick++
	c.ticks.Add(1)
	c.state.Store(int32(StateIdle))
	return nil
}

// wait blocks on the previous tick's tasks and clears every gate.
func (c *Cycle) wait() error {
	start := time.Now()
	err := errors.Join(c.matrices.EnsureSafe(), c.colors.EnsureSafe())
	// pending is recorded on the touched gates, so this returns at once
	c.pending.Wait()
	if err == nil {
		err = c.pending.Err()
	}
	d := time.Since(start).Nanoseconds()
	c.lastWaitNanos.Store(d)
	c.waitNanos.Add(d)
	return err
}

// draw submits every matrix chunk in order; on odd ticks the chunk's colors
// are copied into its property block first.
func (c *Cycle) draw(odd bool) error {
	for i := range c.matrices.Len() {
		block := c.blocks[i]
		if odd {
			block.SetVectorArray(c.colorID, c.colors.Chunk(i).ViewA())
		}
		m := c.matrices.Chunk(i).ViewA()
		params := api.DrawParams{Block: block, CastShadows: api.ShadowsOff, Layer: c.layer}
		if err := c.renderer.DrawMeshInstanced(c.mesh, c.material, m, len(m), params); err != nil {
			return api.NewError(api.ErrCodeExternalCollaborator, "cycle: draw rejected").
				WithContext("tick", c.tick).
				WithContext("chunk", i).
				WithCause(err)
		}
		c.draws.Add(1)
	}
	return nil
}

func (c *Cycle) schedule(odd bool) {
	p := c.Params()
	seconds := float32(c.clock().Seconds())
	prior := c.pending

	rigid := c.scheduleRigid(prior)
	tokens := make([]api.Token, 0, 2*c.matrices.Len())
	if odd {
		t := p.PositionT(seconds)
		for i := range c.matrices.Len() {
			dep := prior
			if rigid != nil {
				dep = rigid[i]
			}
			job := jobs.PositionNoise{Matrices: c.matrices.Chunk(i).JobView(), T: t, NoiseScale: p.NoiseScale}
			tokens = append(tokens, jobs.Schedule(c.scheduler, job, c.inner, dep))
		}
		c.positionSchedules.Add(int64(c.matrices.Len()))
	} else {
		t := p.ColorT(seconds)
		for i := range c.colors.Len() {
			job := jobs.ColorShift{Colors: c.colors.Chunk(i).JobView(), T: t}
			tokens = append(tokens, jobs.Schedule(c.scheduler, job, c.inner, prior))
		}
		c.colorSchedules.Add(int64(c.colors.Len()))
	}
	tokens = append(tokens, rigid...)

	combined := c.scheduler.Combine(tokens...)
	if odd || rigid != nil {
		c.matrices.Begin(combined)
	}
	if !odd {
		c.colors.Begin(combined)
	}
	c.pending = combined
}

// scheduleRigid applies a group placement change to every transform chunk.
// Only the first differing component (translation, then scale, then
// rotation) is applied per tick; the others stay pending and are applied on
// later ticks. Returns nil when nothing changed.
func (c *Cycle) scheduleRigid(prior api.Token) []api.Token {
	if c.placement == nil {
		return nil
	}
	cur := c.placement.Placement()
	last := c.lastPlacement
	if cur == last {
		return nil
	}

	var apply func(view []vmath.Float4x4) jobs.Job
	switch {
	case cur.Translation != last.Translation:
		delta := cur.Translation.Sub(last.Translation)
		apply = func(view []vmath.Float4x4) jobs.Job { return jobs.NewTranslatePosition(view, delta) }
		c.lastPlacement.Translation = cur.Translation
	case cur.Scale != last.Scale:
		apply = func(view []vmath.Float4x4) jobs.Job { return jobs.ScaleUpdate{Matrices: view, Scale: cur.Scale} }
		c.lastPlacement.Scale = cur.Scale
	default:
		apply = func(view []vmath.Float4x4) jobs.Job { return jobs.NewOriginRotationUpdate(view, cur.Scale, cur.Rotation) }
		c.lastPlacement.Rotation = cur.Rotation
	}

	tokens := make([]api.Token, c.matrices.Len())
	for i := range tokens {
		tokens[i] = jobs.Schedule(c.scheduler, apply(c.matrices.Chunk(i).JobView()), c.inner, prior)
	}
	c.rigidSchedules.Add(int64(len(tokens)))
	c.log.Debug().
		Uint64("tick", c.tick).
		Int("chunks", len(tokens)).
		Bool("pending", c.lastPlacement != cur).
		Msg("rigid update scheduled")
	return tokens
}

// Close waits for outstanding tasks and disables the cycle.
func (c *Cycle) Close() error {
	if c.Disabled() {
		return nil
	}
	err := c.wait()
	c.state.Store(int32(StateDisabled))
	return err
}

// Stats is a point-in-time snapshot.
type Stats struct {
	Ticks             int64         `json:"ticks"`
	Draws             int64         `json:"draws"`
	ColorSchedules    int64         `json:"color_schedules"`
	PositionSchedules int64         `json:"position_schedules"`
	RigidSchedules    int64         `json:"rigid_schedules"`
	GateBlocks        int64         `json:"gate_blocks"`
	WaitTime          time.Duration `json:"wait_time_ns"`
	LastWait          time.Duration `json:"last_wait_ns"`
	State             State         `json:"state"`
}

// Stats returns the counters.
func (c *Cycle) Stats() Stats {
	return Stats{
		Ticks:             c.ticks.Load(),
		Draws:             c.draws.Load(),
		ColorSchedules:    c.colorSchedules.Load(),
		PositionSchedules: c.positionSchedules.Load(),
		RigidSchedules:    c.rigidSchedules.Load(),
		GateBlocks:        c.gateBlocks(),
		WaitTime:          time.Duration(c.waitNanos.Load()),
		LastWait:          time.Duration(c.lastWaitNanos.Load()),
		State:             c.State(),
	}
}

// gateBlocks sums the waits that found a gate still held by running tasks.
func (c *Cycle) gateBlocks() int64 {
	var n int64
	for i := range c.matrices.Len() {
		n += c.matrices.Chunk(i).Gate().Stats().Blocked
		n += c.colors.Chunk(i).Gate().Stats().Blocked
	}
	return n
}
