// File: api/render.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Rendering collaborator contract and the draw-call input types.

package api

import "github.com/momentics/dualview/vmath"

// Mesh identifies geometry to instance. Only metadata is needed here;
// vertex data lives with the renderer.
type Mesh struct {
	Name        string
	VertexCount int
	SubMeshes   int
}

// Material describes shading state for instanced draws.
type Material struct {
	Name string
	// SupportsInstancing reports whether the shader has an instancing variant.
	SupportsInstancing bool
	// Instancing is switched on by Renderer.Prepare.
	Instancing bool
}

// ShadowCasting mirrors the usual renderer shadow modes.
type ShadowCasting int

const (
	ShadowsOff ShadowCasting = iota
	ShadowsOn
	ShadowsTwoSided
	ShadowsOnly
)

// DrawParams carries per-batch shading parameters.
type DrawParams struct {
	SubMesh        int
	Block          *PropertyBlock
	CastShadows    ShadowCasting
	ReceiveShadows bool
	Layer          int
}

// Renderer is the rendering collaborator.
type Renderer interface {
	// Prepare validates mesh and material and enables instancing on the
	// material. A non-nil error disables the calling pipeline.
	Prepare(mesh *Mesh, mat *Material) error

	// DrawMeshInstanced draws count instances using matrices[:count].
	// Implementations must not retain matrices after returning.
	DrawMeshInstanced(mesh *Mesh, mat *Material, matrices []vmath.Matrix4x4, count int, params DrawParams) error
}

// PropertyBlock holds per-batch shader property arrays keyed by property id.
// Setters copy their input, so callers may keep mutating the source slice.
// Not safe for concurrent use.
type PropertyBlock struct {
	vectors map[int][]vmath.Vector4
}

// NewPropertyBlock returns an empty block.
func NewPropertyBlock() *PropertyBlock {
	return &PropertyBlock{vectors: make(map[int][]vmath.Vector4)}
}

// SetVectorArray copies values under id, reusing the previous backing array
// when it is large enough.
func (b *PropertyBlock) SetVectorArray(id int, values []vmath.Vector4) {
	dst := b.vectors[id]
	if cap(dst) < len(values) {
		dst = make([]vmath.Vector4, len(values))
	}
	dst = dst[:len(values)]
	copy(dst, values)
	b.vectors[id] = dst
}

// VectorArray returns the array stored under id, or nil.
func (b *PropertyBlock) VectorArray(id int) []vmath.Vector4 { return b.vectors[id] }

// Clear drops every property.
func (b *PropertyBlock) Clear() { clear(b.vectors) }
