// File: seed/seed.go
// Package seed produces the deterministic initial contents of instance
// chunks: transforms scattered on spheres and random opaque-ish colors.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package seed

import (
	"math/rand/v2"

	"github.com/chewxy/math32"

	"github.com/momentics/dualview/vmath"
)

// Source is a deterministic random stream. Not safe for concurrent use.
type Source struct {
	r *rand.Rand
}

// New returns a stream for seed. Equal seeds yield equal streams.
func New(seed uint64) *Source {
	return &Source{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Source) rangef(lo, hi float32) float32 { return lo + (hi-lo)*s.r.Float32() }

// OnUnitSphere returns a uniformly distributed unit vector.
func (s *Source) OnUnitSphere() vmath.Float3 {
	for {
		v := vmath.Vec3(float32(s.r.NormFloat64()), float32(s.r.NormFloat64()), float32(s.r.NormFloat64()))
		if l := v.Length(); l > 1e-6 {
			return v.Scale(1 / l)
		}
	}
}

// Matrices returns count transforms on the sphere of radius around center,
// each facing outward with unit scale.
func (s *Source) Matrices(center vmath.Float3, count int, radius float32) []vmath.Matrix4x4 {
	up := vmath.Vec3(0, 1, 0)
	one := vmath.Vec3(1, 1, 1)
	out := make([]vmath.Matrix4x4, count)
	for i := range out {
		pos := center.Add(s.OnUnitSphere().Scale(radius))
		out[i] = vmath.TRS(pos, vmath.LookRotation(pos, up), one).Matrix()
	}
	return out
}

// Colors returns count colors with hue in [0,1], saturation in [0.6,1],
// value in [0,1] and alpha in [0.2,0.8].
func (s *Source) Colors(count int) []vmath.Vector4 {
	out := make([]vmath.Vector4, count)
	for i := range out {
		h := s.rangef(0, 1)
		sat := s.rangef(0.6, 1)
		v := s.rangef(0, 1)
		a := s.rangef(0.2, 0.8)
		r, g, b := HSVToRGB(h, sat, v)
		out[i] = vmath.Vector4{X: r, Y: g, Z: b, W: a}
	}
	return out
}

// HSVToRGB converts a color with all components in [0,1].
func HSVToRGB(h, s, v float32) (r, g, b float32) {
	if s <= 0 {
		return v, v, v
	}
	h = math32.Mod(h, 1) * 6
	sector := math32.Floor(h)
	f := h - sector
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(sector) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// SphereRadius is the radius chunk index is scattered on: inner chunks
// form the core, later chunks larger shells.
func SphereRadius(chunk int) float32 { return float32(chunk)*10 + 18 }
