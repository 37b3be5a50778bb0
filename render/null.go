// File: render/null.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// NullRenderer validates and counts draws without a GPU.

package render

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/vmath"
)

// MaxInstancesPerDraw is the per-call instance limit enforced by NullRenderer.
const MaxInstancesPerDraw = 1023

// Ensure compile-time interface compliance.
var _ api.Renderer = (*NullRenderer)(nil)

// NullRenderer accepts draws headlessly, enforcing the same input rules a
// GPU-backed renderer would.
type NullRenderer struct {
	log zerolog.Logger

	draws     atomic.Int64
	instances atomic.Int64
	checksum  atomic.Uint64
}

// NewNullRenderer returns a renderer logging at trace level to l.
func NewNullRenderer(l zerolog.Logger) *NullRenderer {
	return &NullRenderer{log: l}
}

// Prepare enables instancing, failing for materials without support.
func (r *NullRenderer) Prepare(mesh *api.Mesh, mat *api.Material) error {
	if mesh == nil || mat == nil {
		return api.NewError(api.ErrCodeExternalCollaborator, "render: mesh and material required")
	}
	if !mat.SupportsInstancing {
		return api.NewError(api.ErrCodeExternalCollaborator, "render: material must support instancing").
			WithContext("material", mat.Name)
	}
	mat.Instancing = true
	return nil
}

// DrawMeshInstanced checks the call and folds the translations into a checksum.
func (r *NullRenderer) DrawMeshInstanced(mesh *api.Mesh, mat *api.Material, matrices []vmath.Matrix4x4, count int, params api.DrawParams) error {
	switch {
	case mat == nil || !mat.Instancing:
		return api.NewError(api.ErrCodeExternalCollaborator, "render: material not prepared for instancing")
	case count < 0 || count > len(matrices) || count > MaxInstancesPerDraw:
		return api.NewError(api.ErrCodeExternalCollaborator, "render: instance count out of range").
			WithContext("count", count).
			WithContext("matrices", len(matrices))
	}
	var sum uint64
	for i := range count {
		m := &matrices[i]
		sum += uint64(int64(m.M03*16)) ^ uint64(int64(m.M13*16))<<21 ^ uint64(int64(m.M23*16))<<42
	}
	r.checksum.Add(sum)
	r.draws.Add(1)
	r.instances.Add(int64(count))
	r.log.Trace().Int("count", count).Int("layer", params.Layer).Str("mesh", mesh.Name).Msg("draw")
	return nil
}

// NullStats counts accepted draws.
type NullStats struct {
	Draws     int64  `json:"draws"`
	Instances int64  `json:"instances"`
	Checksum  uint64 `json:"checksum"`
}

// Stats returns a snapshot of the counters.
func (r *NullRenderer) Stats() NullStats {
	return NullStats{
		Draws:     r.draws.Load(),
		Instances: r.instances.Load(),
		Checksum:  r.checksum.Load(),
	}
}
