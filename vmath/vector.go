// File: vmath/vector.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Four-component vector types.

package vmath

import "github.com/chewxy/math32"

// Vector4 is the friendly four-component vector, also used as an RGBA color.
type Vector4 struct {
	X, Y, Z, W float32
}

// Float4 is the lane-oriented counterpart of Vector4.
type Float4 [4]float32

// Float3 holds three lanes; used for positions, scales and directions.
type Float3 [3]float32

// Float2 holds two lanes.
type Float2 [2]float32

// Vec4 builds a Float4 from components.
func Vec4(x, y, z, w float32) Float4 { return Float4{x, y, z, w} }

// Vec3 builds a Float3 from components.
func Vec3(x, y, z float32) Float3 { return Float3{x, y, z} }

// Add returns a+b.
func (a Float4) Add(b Float4) Float4 {
	return Float4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

// Sub returns a-b.
func (a Float4) Sub(b Float4) Float4 {
	return Float4{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
}

// Scale multiplies every lane by s.
func (a Float4) Scale(s float32) Float4 {
	return Float4{a[0] * s, a[1] * s, a[2] * s, a[3] * s}
}

// XY returns the first two lanes.
func (a Float4) XY() Float2 { return Float2{a[0], a[1]} }

// XYZ returns the first three lanes.
func (a Float4) XYZ() Float3 { return Float3{a[0], a[1], a[2]} }

// Lerp interpolates from a towards b by t, per lane.
// t == 0 returns a unchanged.
func Lerp(a, b Float4, t float32) Float4 {
	return Float4{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
		a[3] + (b[3]-a[3])*t,
	}
}

// Vector converts to the friendly representation.
func (a Float4) Vector() Vector4 { return Vector4{a[0], a[1], a[2], a[3]} }

// Float converts to the lane representation.
func (v Vector4) Float() Float4 { return Float4{v.X, v.Y, v.Z, v.W} }

// Add returns a+b.
func (a Float3) Add(b Float3) Float3 { return Float3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }

// Sub returns a-b.
func (a Float3) Sub(b Float3) Float3 { return Float3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

// Scale multiplies every lane by s.
func (a Float3) Scale(s float32) Float3 { return Float3{a[0] * s, a[1] * s, a[2] * s} }

// Dot returns the dot product.
func (a Float3) Dot(b Float3) float32 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

// Cross returns the cross product a×b.
func (a Float3) Cross(b Float3) Float3 {
	return Float3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Length returns the euclidean length.
func (a Float3) Length() float32 { return math32.Sqrt(a.Dot(a)) }

// Normalize returns a unit vector, or the zero vector when a has no length.
func (a Float3) Normalize() Float3 {
	l := a.Length()
	if l == 0 {
		return Float3{}
	}
	return a.Scale(1 / l)
}

// Extend appends w as the fourth lane.
func (a Float3) Extend(w float32) Float4 { return Float4{a[0], a[1], a[2], w} }

// Dot returns the dot product.
func (a Float2) Dot(b Float2) float32 { return a[0]*b[0] + a[1]*b[1] }

// Sub returns a-b.
func (a Float2) Sub(b Float2) Float2 { return Float2{a[0] - b[0], a[1] - b[1]} }
