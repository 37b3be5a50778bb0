// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"

	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/vmath"
)

// DrawCall is a recorded draw. Matrices and Colors are copies.
type DrawCall struct {
	Count    int
	Matrices []vmath.Matrix4x4
	Colors   []vmath.Vector4
}

// Renderer records draw calls. Hooks let tests inject failures or probe
// state at draw time.
type Renderer struct {
	mu    sync.Mutex
	calls []DrawCall

	// ColorProperty selects which block array to capture; zero skips capture.
	ColorProperty int
	// PrepareErr is returned from Prepare.
	PrepareErr error
	// OnDraw runs before each draw is recorded; a non-nil error fails the draw.
	OnDraw func(matrices []vmath.Matrix4x4, count int) error
}

var _ api.Renderer = (*Renderer)(nil)

func (r *Renderer) Prepare(_ *api.Mesh, mat *api.Material) error {
	if r.PrepareErr != nil {
		return r.PrepareErr
	}
	if mat != nil {
		mat.Instancing = true
	}
	return nil
}

func (r *Renderer) DrawMeshInstanced(_ *api.Mesh, _ *api.Material, matrices []vmath.Matrix4x4, count int, params api.DrawParams) error {
	if r.OnDraw != nil {
		if err := r.OnDraw(matrices, count); err != nil {
			return err
		}
	}
	call := DrawCall{Count: count, Matrices: append([]vmath.Matrix4x4(nil), matrices[:count]...)}
	if r.ColorProperty != 0 && params.Block != nil {
		call.Colors = append([]vmath.Vector4(nil), params.Block.VectorArray(r.ColorProperty)...)
	}
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
	return nil
}

// Calls returns the recorded draws.
func (r *Renderer) Calls() []DrawCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DrawCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset forgets recorded draws.
func (r *Renderer) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
