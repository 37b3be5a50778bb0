// File: vmath/matrix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// 4x4 column-major transform matrices.

package vmath

import "fmt"

// Matrix4x4 is the friendly column-major matrix. Field Mrc is row r, column c;
// fields are declared in memory order (column by column).
type Matrix4x4 struct {
	M00, M10, M20, M30 float32
	M01, M11, M21, M31 float32
	M02, M12, M22, M32 float32
	M03, M13, M23, M33 float32
}

// Float4x4 is the lane-oriented counterpart of Matrix4x4: four column vectors.
type Float4x4 struct {
	C0, C1, C2, C3 Float4
}

// Identity returns the identity transform.
func Identity() Float4x4 {
	return Float4x4{
		C0: Float4{1, 0, 0, 0},
		C1: Float4{0, 1, 0, 0},
		C2: Float4{0, 0, 1, 0},
		C3: Float4{0, 0, 0, 1},
	}
}

// TRS composes translation, rotation and scale.
func TRS(pos Float3, rot Quaternion, scale Float3) Float4x4 {
	r0, r1, r2 := rot.Columns()
	return Float4x4{
		C0: r0.Scale(scale[0]).Extend(0),
		C1: r1.Scale(scale[1]).Extend(0),
		C2: r2.Scale(scale[2]).Extend(0),
		C3: pos.Extend(1),
	}
}

// Position returns the translation column.
func (m Float4x4) Position() Float3 { return m.C3.XYZ() }

// WithPosition replaces the translation column, keeping w at 1.
func (m Float4x4) WithPosition(p Float3) Float4x4 {
	m.C3 = p.Extend(1)
	return m
}

// TranslatePosition adds delta to the translation column.
func (m Float4x4) TranslatePosition(delta Float4) Float4x4 {
	m.C3 = m.C3.Add(delta)
	return m
}

// ScaleDiagonal returns the diagonal scale terms.
func (m Float4x4) ScaleDiagonal() Float3 { return Float3{m.C0[0], m.C1[1], m.C2[2]} }

// Scaled overwrites the diagonal scale terms. Off-diagonal terms are left as is,
// so for rotated matrices this is an approximation of rescaling.
func (m Float4x4) Scaled(s Float3) Float4x4 {
	m.C0[0] = s[0]
	m.C1[1] = s[1]
	m.C2[2] = s[2]
	return m
}

// Matrix converts to the friendly representation.
func (m Float4x4) Matrix() Matrix4x4 {
	return Matrix4x4{
		M00: m.C0[0], M10: m.C0[1], M20: m.C0[2], M30: m.C0[3],
		M01: m.C1[0], M11: m.C1[1], M21: m.C1[2], M31: m.C1[3],
		M02: m.C2[0], M12: m.C2[1], M22: m.C2[2], M32: m.C2[3],
		M03: m.C3[0], M13: m.C3[1], M23: m.C3[2], M33: m.C3[3],
	}
}

// Float converts to the lane representation.
func (m Matrix4x4) Float() Float4x4 {
	return Float4x4{
		C0: Float4{m.M00, m.M10, m.M20, m.M30},
		C1: Float4{m.M01, m.M11, m.M21, m.M31},
		C2: Float4{m.M02, m.M12, m.M22, m.M32},
		C3: Float4{m.M03, m.M13, m.M23, m.M33},
	}
}

// Column returns column i (0..3).
func (m Matrix4x4) Column(i int) Vector4 {
	switch i {
	case 0:
		return Vector4{m.M00, m.M10, m.M20, m.M30}
	case 1:
		return Vector4{m.M01, m.M11, m.M21, m.M31}
	case 2:
		return Vector4{m.M02, m.M12, m.M22, m.M32}
	case 3:
		return Vector4{m.M03, m.M13, m.M23, m.M33}
	}
	panic(fmt.Sprintf("vmath: column index %d out of range", i))
}

// SetColumn replaces column i (0..3).
func (m *Matrix4x4) SetColumn(i int, v Vector4) {
	switch i {
	case 0:
		m.M00, m.M10, m.M20, m.M30 = v.X, v.Y, v.Z, v.W
	case 1:
		m.M01, m.M11, m.M21, m.M31 = v.X, v.Y, v.Z, v.W
	case 2:
		m.M02, m.M12, m.M22, m.M32 = v.X, v.Y, v.Z, v.W
	case 3:
		m.M03, m.M13, m.M23, m.M33 = v.X, v.Y, v.Z, v.W
	default:
		panic(fmt.Sprintf("vmath: column index %d out of range", i))
	}
}

// Position returns the translation column as a vector.
func (m Matrix4x4) Position() Vector4 { return m.Column(3) }

// String formats the matrix row by row.
func (m Matrix4x4) String() string {
	return fmt.Sprintf("[%g %g %g %g | %g %g %g %g | %g %g %g %g | %g %g %g %g]",
		m.M00, m.M01, m.M02, m.M03,
		m.M10, m.M11, m.M12, m.M13,
		m.M20, m.M21, m.M22, m.M23,
		m.M30, m.M31, m.M32, m.M33)
}
