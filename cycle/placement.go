// File: cycle/placement.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package cycle

import (
	"sync"

	"github.com/momentics/dualview/vmath"
)

// Placement is the group transform all instances hang off.
type Placement struct {
	Translation vmath.Float3
	Scale       vmath.Float3
	Rotation    vmath.Quaternion
}

// DefaultPlacement sits at the origin with unit scale and no rotation.
func DefaultPlacement() Placement {
	return Placement{Scale: vmath.Vec3(1, 1, 1), Rotation: vmath.QuatIdentity}
}

// PlacementSource reports the current group transform.
type PlacementSource interface {
	Placement() Placement
}

// PlacementVar is a PlacementSource settable from any goroutine.
type PlacementVar struct {
	mu sync.Mutex
	p  Placement
}

// NewPlacementVar starts at p.
func NewPlacementVar(p Placement) *PlacementVar { return &PlacementVar{p: p} }

// Placement implements PlacementSource.
func (v *PlacementVar) Placement() Placement {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.p
}

// Set replaces the placement; it takes effect at the next tick.
func (v *PlacementVar) Set(p Placement) {
	v.mu.Lock()
	v.p = p
	v.mu.Unlock()
}

// Translate moves the placement by d.
func (v *PlacementVar) Translate(d vmath.Float3) {
	v.mu.Lock()
	v.p.Translation = v.p.Translation.Add(d)
	v.mu.Unlock()
}
