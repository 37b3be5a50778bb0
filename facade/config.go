// File: facade/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Instancer configuration: defaults, TOML loading and the effect-scalar keys
// published through api.Control.

package facade

import (
	"fmt"

	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/batch"
	"github.com/momentics/dualview/control"
	"github.com/momentics/dualview/internal/concurrency"
	"github.com/momentics/dualview/jobs"
	"github.com/momentics/dualview/vmath"
)

// Config holds parameters fixed for the life of one build of the batches.
// Effect scalars may change at runtime through the Control interface.
type Config struct {
	InstanceCount   int          `toml:"instance_count"`   // logical instances to draw
	ChunkCapacity   int          `toml:"chunk_capacity"`   // instances per draw call
	InnerBatch      int          `toml:"inner_batch"`      // indices per scheduled task
	StrictAlignment bool         `toml:"strict_alignment"` // truncate InstanceCount to a multiple of ChunkCapacity
	NumWorkers      int          `toml:"workers"`          // executor goroutines; <= 0 means GOMAXPROCS
	CPUAffinity     bool         `toml:"cpu_affinity"`     // pin workers to CPUs
	PooledStorage   bool         `toml:"pooled_storage"`   // back chunks with pinned pool regions instead of adopted slices
	LockMemory      bool         `toml:"lock_memory"`      // mlock pooled regions, best effort
	Seed            uint64       `toml:"seed"`             // initial layout seed
	Center          vmath.Float3 `toml:"center"`           // sphere center for the initial layout
	FrameRate       int          `toml:"frame_rate"`       // Run ticks per second; 0 runs unthrottled
	Layer           int          `toml:"layer"`            // render layer
	EnableMetrics   bool         `toml:"enable_metrics"`   // publish stats through Control after every tick
	Effects         jobs.Params  `toml:"effects"`          // live-tunable through Control and Watch
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		InstanceCount:   batch.DefaultChunkCapacity * 4,
		ChunkCapacity:   batch.DefaultChunkCapacity,
		InnerBatch:      concurrency.DefaultInnerBatch,
		StrictAlignment: true,
		Seed:            1,
		FrameRate:       60,
		EnableMetrics:   true,
		Effects:         jobs.DefaultParams(),
	}
}

// LoadConfig overlays a TOML file onto DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := control.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the structural fields and the effect scalars.
func (c *Config) Validate() error {
	switch {
	case c.ChunkCapacity <= 0:
		return fmt.Errorf("facade: chunk capacity %d: %w", c.ChunkCapacity, api.ErrInvalidArgument)
	case c.InstanceCount < 0:
		return fmt.Errorf("facade: instance count %d: %w", c.InstanceCount, api.ErrInvalidArgument)
	case c.FrameRate < 0:
		return fmt.Errorf("facade: frame rate %d: %w", c.FrameRate, api.ErrInvalidArgument)
	}
	return c.Effects.Validate()
}

// alignedCount applies the StrictAlignment clamp.
func (c *Config) alignedCount(n int) int {
	if c.StrictAlignment {
		return batch.ClampCount(n, c.ChunkCapacity)
	}
	return n
}

// Control keys for the live-tunable effect scalars.
const (
	KeyNoiseScale     = "noise_scale"
	KeyDistanceScale  = "distance_scale"
	KeyColorScale     = "color_scale"
	KeyCycleTimeScale = "cycle_time_scale"
	KeyInstanceCount  = "instance_count"
)

func paramsToConfig(p jobs.Params) map[string]any {
	return map[string]any{
		KeyNoiseScale:     float64(p.NoiseScale),
		KeyDistanceScale:  float64(p.DistanceScale),
		KeyColorScale:     float64(p.ColorScale),
		KeyCycleTimeScale: float64(p.CycleTimeScale),
	}
}

// EffectsSection is the TOML table holding the effect scalars.
const EffectsSection = "effects"

// paramsFromConfig reads the effect keys over base; absent keys keep base.
func paramsFromConfig(m map[string]any, base jobs.Params) (jobs.Params, error) {
	p := base
	fields := []struct {
		key string
		dst *float32
	}{
		{KeyNoiseScale, &p.NoiseScale},
		{KeyDistanceScale, &p.DistanceScale},
		{KeyColorScale, &p.ColorScale},
		{KeyCycleTimeScale, &p.CycleTimeScale},
	}
	for _, f := range fields {
		v, err := control.Float32(m, f.key, *f.dst)
		if err != nil {
			return base, err
		}
		*f.dst = v
	}
	return p, p.Validate()
}
