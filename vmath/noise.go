// File: vmath/noise.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// 2D simplex noise with rotating gradients and analytic derivatives
// (after Gustavson & McEwan's srdnoise). Pure and allocation free, safe to
// call from any number of workers.

package vmath

import "github.com/chewxy/math32"

const (
	twoPi      = 6.28318530718
	inv289     = 1.0 / 289.0
	inv41      = 1.0 / 41.0
	noiseScale = 10.9
)

func mod289(x float32) float32 { return x - math32.Floor(x*inv289)*289 }

func permute(x float32) float32 { return mod289((x*34 + 1) * x) }

// SRDNoise samples noise at pos with the gradients rotated by rot (in turns).
// The result holds the noise value followed by its partial derivatives along
// x and y, each roughly in [-1, 1].
func SRDNoise(pos Float2, rot float32) Float3 {
	// offset y slightly to hide rare artifacts on grid lines
	pos[1] += 0.001

	// skew to the hexagonal grid
	u, v := pos[0]+pos[1]*0.5, pos[1]
	i0u, i0v := math32.Floor(u), math32.Floor(v)
	f0u, f0v := u-i0u, v-i0v

	var i1u, i1v float32 = 0, 1
	if f0u > f0v {
		i1u, i1v = 1, 0
	}

	// unskewed corners
	p0 := Float2{i0u - i0v*0.5, i0v}
	p1 := Float2{p0[0] + i1u - i1v*0.5, p0[1] + i1v}
	p2 := Float2{p0[0] + 0.5, p0[1] + 1}

	corners := [3]Float2{p0, p1, p2}
	var n, gx, gy float32
	for _, p := range corners {
		d := pos.Sub(p)
		w := 0.8 - d.Dot(d)
		if w <= 0 {
			continue
		}
		iu := mod289(p[0] + 0.5*p[1])
		iv := mod289(p[1])
		psi := (permute(permute(iu)+iv)*inv41 + rot) * twoPi
		s, c := math32.Sincos(psi)
		g := Float2{c, s}

		w2 := w * w
		w4 := w2 * w2
		gdotd := g.Dot(d)
		n += w4 * gdotd

		dw := -8 * w2 * w * gdotd
		gx += w4*g[0] + dw*d[0]
		gy += w4*g[1] + dw*d[1]
	}
	return Float3{n * noiseScale, gx * noiseScale, gy * noiseScale}
}
