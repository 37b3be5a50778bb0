// File: vmath/quaternion.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package vmath

import "github.com/chewxy/math32"

// Quaternion is a rotation. The zero value is not a valid rotation; callers
// treat it as "unset" and substitute QuatIdentity.
type Quaternion struct {
	X, Y, Z, W float32
}

// QuatIdentity is the no-op rotation.
var QuatIdentity = Quaternion{W: 1}

// IsZero reports whether q is the zero value.
func (q Quaternion) IsZero() bool { return q == Quaternion{} }

// Mul composes rotations: the result applies b first, then q.
func (q Quaternion) Mul(b Quaternion) Quaternion {
	return Quaternion{
		X: q.W*b.X + q.X*b.W + q.Y*b.Z - q.Z*b.Y,
		Y: q.W*b.Y - q.X*b.Z + q.Y*b.W + q.Z*b.X,
		Z: q.W*b.Z + q.X*b.Y - q.Y*b.X + q.Z*b.W,
		W: q.W*b.W - q.X*b.X - q.Y*b.Y - q.Z*b.Z,
	}
}

// Normalize returns q scaled to unit length; the zero quaternion maps to identity.
func (q Quaternion) Normalize() Quaternion {
	l := math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if l == 0 {
		return QuatIdentity
	}
	inv := 1 / l
	return Quaternion{q.X * inv, q.Y * inv, q.Z * inv, q.W * inv}
}

// Columns returns the three columns of the rotation matrix of q.
func (q Quaternion) Columns() (c0, c1, c2 Float3) {
	x2, y2, z2 := q.X+q.X, q.Y+q.Y, q.Z+q.Z
	xx, yy, zz := q.X*x2, q.Y*y2, q.Z*z2
	xy, xz, yz := q.X*y2, q.X*z2, q.Y*z2
	wx, wy, wz := q.W*x2, q.W*y2, q.W*z2
	c0 = Float3{1 - (yy + zz), xy + wz, xz - wy}
	c1 = Float3{xy - wz, 1 - (xx + zz), yz + wx}
	c2 = Float3{xz + wy, yz - wx, 1 - (xx + yy)}
	return
}

// QuatFromColumns converts an orthonormal rotation basis to a quaternion.
func QuatFromColumns(c0, c1, c2 Float3) Quaternion {
	m00, m10, m20 := c0[0], c0[1], c0[2]
	m01, m11, m21 := c1[0], c1[1], c1[2]
	m02, m12, m22 := c2[0], c2[1], c2[2]

	var q Quaternion
	switch trace := m00 + m11 + m22; {
	case trace > 0:
		s := math32.Sqrt(trace+1) * 2
		q = Quaternion{(m21 - m12) / s, (m02 - m20) / s, (m10 - m01) / s, 0.25 * s}
	case m00 > m11 && m00 > m22:
		s := math32.Sqrt(1+m00-m11-m22) * 2
		q = Quaternion{0.25 * s, (m01 + m10) / s, (m02 + m20) / s, (m21 - m12) / s}
	case m11 > m22:
		s := math32.Sqrt(1+m11-m00-m22) * 2
		q = Quaternion{(m01 + m10) / s, 0.25 * s, (m12 + m21) / s, (m02 - m20) / s}
	default:
		s := math32.Sqrt(1+m22-m00-m11) * 2
		q = Quaternion{(m02 + m20) / s, (m12 + m21) / s, 0.25 * s, (m10 - m01) / s}
	}
	return q.Normalize()
}

// LookRotation returns the rotation whose forward (+Z) axis points along
// forward, with its up axis as close to up as possible. Degenerate inputs
// (zero forward, forward parallel to up) yield identity.
func LookRotation(forward, up Float3) Quaternion {
	f := forward.Normalize()
	if f == (Float3{}) {
		return QuatIdentity
	}
	t := up.Cross(f)
	if t.Length() < 1e-6 {
		return QuatIdentity
	}
	t = t.Normalize()
	return QuatFromColumns(t, f.Cross(t), f)
}

// AxisAngle returns the rotation of angle radians around axis.
func AxisAngle(axis Float3, angle float32) Quaternion {
	s, c := math32.Sincos(angle * 0.5)
	a := axis.Normalize().Scale(s)
	return Quaternion{a[0], a[1], a[2], c}
}
