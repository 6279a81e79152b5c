package render

import (
	"math"

	"golang.org/x/image/math/f64"

	"github.com/taigrr/tiltframe/pkg/math3d"
)

// Warp is a 2x3 affine map from texture space to screen space:
//
//	x' = A*u + B*v + C
//	y' = D*u + E*v + F
type Warp struct {
	A, B, C float64
	D, E, F float64
}

// IdentityWarp returns the identity map.
func IdentityWarp() Warp {
	return Warp{A: 1, E: 1}
}

// WarpFromTriangles solves for the warp that maps the three texture points
// src onto the three screen points dst. ok is false when the source
// triangle has zero area and no unique warp exists.
func WarpFromTriangles(src, dst [3]math3d.Vec2) (w Warp, ok bool) {
	u0, v0 := src[0].X, src[0].Y
	u1, v1 := src[1].X, src[1].Y
	u2, v2 := src[2].X, src[2].Y

	det := u0*(v1-v2) - v0*(u1-u2) + (u1*v2 - u2*v1)
	if det == 0 {
		return Warp{}, false
	}

	// Cramer's rule, once for each output coordinate.
	solve := func(t0, t1, t2 float64) (a, b, c float64) {
		a = (t0*(v1-v2) - v0*(t1-t2) + (t1*v2 - t2*v1)) / det
		b = (u0*(t1-t2) - t0*(u1-u2) + (u1*t2 - u2*t1)) / det
		c = (u0*(v1*t2-v2*t1) - v0*(u1*t2-u2*t1) + t0*(u1*v2-u2*v1)) / det
		return a, b, c
	}
	w.A, w.B, w.C = solve(dst[0].X, dst[1].X, dst[2].X)
	w.D, w.E, w.F = solve(dst[0].Y, dst[1].Y, dst[2].Y)
	return w, true
}

// Apply maps a texture point to the screen.
func (w Warp) Apply(p math3d.Vec2) math3d.Vec2 {
	return math3d.Vec2{
		X: w.A*p.X + w.B*p.Y + w.C,
		Y: w.D*p.X + w.E*p.Y + w.F,
	}
}

// Det returns the determinant of the linear part.
func (w Warp) Det() float64 {
	return w.A*w.E - w.B*w.D
}

// Invert returns the screen-to-texture map. ok is false when the warp
// collapses the texture onto a line or point, or is not finite.
func (w Warp) Invert() (Warp, bool) {
	det := w.Det()
	if det == 0 {
		return Warp{}, false
	}
	inv := Warp{
		A: w.E / det, B: -w.B / det,
		D: -w.D / det, E: w.A / det,
	}
	inv.C = -(inv.A*w.C + inv.B*w.F)
	inv.F = -(inv.D*w.C + inv.E*w.F)
	for _, v := range inv.Aff3() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Warp{}, false
		}
	}
	return inv, true
}

// Aff3 returns the warp in the layout used by golang.org/x/image/draw.
func (w Warp) Aff3() f64.Aff3 {
	return f64.Aff3{w.A, w.B, w.C, w.D, w.E, w.F}
}
