// File: jobs/jobs.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package jobs

import (
	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/vmath"
)

// Job is one data-parallel transformation over a chunk.
type Job interface {
	// Execute transforms element i.
	Execute(i int)
	// Len is the number of elements the job covers.
	Len() int
}

// Schedule hands j to s over its whole range, after prior.
func Schedule(s api.Scheduler, j Job, innerBatch int, prior api.Token) api.Token {
	return s.Schedule(j.Len(), innerBatch, prior, j.Execute)
}

// PositionNoise pulls each translation towards a noise-displaced point.
type PositionNoise struct {
	Matrices   []vmath.Float4x4
	T          float32
	NoiseScale float32
}

func (j PositionNoise) Len() int { return len(j.Matrices) }

// Execute implements Job.
func (j PositionNoise) Execute(i int) {
	m := &j.Matrices[i]
	c3 := m.C3
	n := vmath.SRDNoise(c3.XY(), c3[2]).Scale(j.NoiseScale).Extend(c3[3])
	m.C3 = vmath.Lerp(c3, n, j.T)
}

// ColorShift nudges each color towards a noise color, keeping alpha.
type ColorShift struct {
	Colors []vmath.Float4
	T      float32
}

func (j ColorShift) Len() int { return len(j.Colors) }

// Execute implements Job.
func (j ColorShift) Execute(i int) {
	c := j.Colors[i]
	n := vmath.SRDNoise(c.XY(), c[2]).Extend(c[3])
	j.Colors[i] = vmath.Lerp(c, n, j.T)
}

// TranslatePosition moves every instance by Delta.
type TranslatePosition struct {
	Matrices []vmath.Float4x4
	Delta    vmath.Float4 // w is 0
}

// NewTranslatePosition builds the job from a 3D offset.
func NewTranslatePosition(m []vmath.Float4x4, delta vmath.Float3) TranslatePosition {
	return TranslatePosition{Matrices: m, Delta: delta.Extend(0)}
}

func (j TranslatePosition) Len() int { return len(j.Matrices) }

// Execute implements Job.
func (j TranslatePosition) Execute(i int) {
	j.Matrices[i] = j.Matrices[i].TranslatePosition(j.Delta)
}

// ScaleUpdate rewrites each matrix's diagonal scale terms.
type ScaleUpdate struct {
	Matrices []vmath.Float4x4
	Scale    vmath.Float3
}

func (j ScaleUpdate) Len() int { return len(j.Matrices) }

// Execute implements Job.
func (j ScaleUpdate) Execute(i int) {
	j.Matrices[i] = j.Matrices[i].Scaled(j.Scale)
}

// TransformUpdate translates then rescales.
type TransformUpdate struct {
	Matrices []vmath.Float4x4
	Scale    vmath.Float3
	Delta    vmath.Float4
}

func (j TransformUpdate) Len() int { return len(j.Matrices) }

// Execute implements Job.
func (j TransformUpdate) Execute(i int) {
	j.Matrices[i] = j.Matrices[i].TranslatePosition(j.Delta).Scaled(j.Scale)
}

// OriginRotationUpdate rebuilds each matrix so the instance faces away from
// the origin, pre-rotated by the group's rotation. Only the position
// survives from the previous matrix.
type OriginRotationUpdate struct {
	Matrices []vmath.Float4x4
	Scale    vmath.Float3
	Up       vmath.Float3
	Rotation vmath.Quaternion
}

// NewOriginRotationUpdate defaults Up to +Y and a zero rotation to identity.
func NewOriginRotationUpdate(m []vmath.Float4x4, scale vmath.Float3, rot vmath.Quaternion) OriginRotationUpdate {
	if rot.IsZero() {
		rot = vmath.QuatIdentity
	}
	return OriginRotationUpdate{Matrices: m, Scale: scale, Up: vmath.Vec3(0, 1, 0), Rotation: rot}
}

func (j OriginRotationUpdate) Len() int { return len(j.Matrices) }

// Execute implements Job.
func (j OriginRotationUpdate) Execute(i int) {
	pos := j.Matrices[i].Position()
	rot := j.Rotation.Mul(vmath.LookRotation(pos, j.Up))
	j.Matrices[i] = vmath.TRS(pos, rot, j.Scale)
}
