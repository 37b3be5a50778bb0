// File: jobs/params.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package jobs

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/momentics/dualview/api"
)

// Params are the effect scalars.
type Params struct {
	NoiseScale     float32 `toml:"noise_scale" json:"noise_scale"`
	DistanceScale  float32 `toml:"distance_scale" json:"distance_scale"`
	ColorScale     float32 `toml:"color_scale" json:"color_scale"`
	CycleTimeScale float32 `toml:"cycle_time_scale" json:"cycle_time_scale"`
}

// DefaultParams returns the stock effect strength.
func DefaultParams() Params {
	return Params{
		NoiseScale:     10,
		DistanceScale:  0.5,
		ColorScale:     1,
		CycleTimeScale: 0.25,
	}
}

// Validate rejects values that would make the derived factors non-finite.
func (p Params) Validate() error {
	if p.CycleTimeScale <= 0 || math32.IsInf(p.CycleTimeScale, 0) || math32.IsNaN(p.CycleTimeScale) {
		return fmt.Errorf("jobs: cycle time scale %v: %w", p.CycleTimeScale, api.ErrInvalidArgument)
	}
	for _, v := range []float32{p.NoiseScale, p.DistanceScale, p.ColorScale} {
		if math32.IsInf(v, 0) || math32.IsNaN(v) {
			return fmt.Errorf("jobs: non-finite effect scale %v: %w", v, api.ErrInvalidArgument)
		}
	}
	return nil
}

// PositionT is the position lerp factor at time seconds.
func (p Params) PositionT(seconds float32) float32 {
	return p.DistanceScale * 0.01 * math32.Sin(seconds/p.CycleTimeScale)
}

// ColorT is the color lerp factor at time seconds.
func (p Params) ColorT(seconds float32) float32 {
	return p.ColorScale * 0.001 * math32.Cos(seconds/p.CycleTimeScale*0.5)
}
