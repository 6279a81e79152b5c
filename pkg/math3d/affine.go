package math3d

import "math"

// Affine is a 3x4 affine transform stored in column-major order. The
// bottom row of the equivalent 4x4 matrix is always [0 0 0 1] and is not
// stored.
//
// Memory layout (indices):
// | 0  3  6  9  |
// | 1  4  7  10 |
// | 2  5  8  11 |
//
// For an orientation matrix:
// | Xx Yx Zx Tx |   X,Y,Z = basis vectors (orthonormal)
// | Xy Yy Zy Ty |   T = translation
// | Xz Yz Zz Tz |
type Affine [12]float64

// affineRows builds an Affine from its elements written out row by row.
func affineRows(
	r00, r01, r02, tx,
	r10, r11, r12, ty,
	r20, r21, r22, tz float64,
) Affine {
	return Affine{
		r00, r10, r20,
		r01, r11, r21,
		r02, r12, r22,
		tx, ty, tz,
	}
}

// Identity returns the identity transform.
func Identity() Affine {
	return affineRows(
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
	)
}

// Translate creates a translation transform.
func Translate(v Vec3) Affine {
	return affineRows(
		1, 0, 0, v.X,
		0, 1, 0, v.Y,
		0, 0, 1, v.Z,
	)
}

// Scale creates a scaling transform.
func Scale(v Vec3) Affine {
	return affineRows(
		v.X, 0, 0, 0,
		0, v.Y, 0, 0,
		0, 0, v.Z, 0,
	)
}

// RotateX creates a rotation of theta radians around the X axis.
func RotateX(theta float64) Affine {
	c, s := math.Cos(theta), math.Sin(theta)
	return affineRows(
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
	)
}

// RotateY creates a rotation of theta radians around the Y axis.
func RotateY(theta float64) Affine {
	c, s := math.Cos(theta), math.Sin(theta)
	return affineRows(
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
	)
}

// RotateZ creates a rotation of theta radians around the Z axis.
func RotateZ(theta float64) Affine {
	c, s := math.Cos(theta), math.Sin(theta)
	return affineRows(
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
	)
}

// RotateAxisAngle creates a rotation around an arbitrary axis using
// Rodrigues' formula. A zero axis falls back to +X (see Vec3.Normalize).
func RotateAxisAngle(axis Vec3, angle float64) Affine {
	axis = axis.Normalize()
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z
	xs, ys, zs := x*s, y*s, z*s
	xt, yt, zt := x*t, y*t, z*t
	xyt, yzt, zxt := x*yt, y*zt, z*xt

	return affineRows(
		x*xt+c, xyt-zs, zxt+ys, 0,
		xyt+zs, y*yt+c, yzt-xs, 0,
		zxt-ys, yzt+xs, z*zt+c, 0,
	)
}

// Orientation maps the origin to pos, the X axis to dir, the Y axis to up
// and the Z axis to dir × up.
func Orientation(pos, dir, up Vec3) Affine {
	right := dir.Cross(up)
	return affineRows(
		dir.X, up.X, right.X, pos.X,
		dir.Y, up.Y, right.Y, pos.Y,
		dir.Z, up.Z, right.Z, pos.Z,
	)
}

// ViewFromOrientation converts a camera orientation (see Orientation) into
// a view transform producing conventional eye coordinates: the camera
// direction maps to -Z, its right to +X, its up to +Y and its position to
// the origin. The orientation's rotation part must be orthonormal.
func ViewFromOrientation(orient Affine) Affine {
	// Swap X and Z, negate Z. Two changes keep the basis right-handed.
	m := Affine{
		orient[6], orient[7], orient[8],
		orient[3], orient[4], orient[5],
		-orient[0], -orient[1], -orient[2],
		orient[9], orient[10], orient[11],
	}
	return m.InvertNormalized()
}

// WindowProjection maps eye coordinates into pre-projection window
// coordinates for a window of the given size and horizontal field of view.
//
// In window coordinates z > 0 is in front of the eye and (x/z, y/z) is the
// pixel position: (0, 0) at the upper left, (width, height) at the lower
// right. This differs from OpenGL clip space so that near-plane tests are a
// single comparison on z.
func WindowProjection(width, height, fovX float64) Affine {
	halfW := width / 2
	halfH := height / 2
	s := halfW / math.Tan(fovX/2)
	return affineRows(
		s, 0, -halfW, 0,
		0, -s, -halfH, 0,
		0, 0, -1, 0,
	)
}

// Mul returns the composition a∘b: b is applied first, then a.
//
//nolint:st1016 // a*b naming convention is clearer for matrix multiplication
func (a Affine) Mul(b Affine) Affine {
	var m Affine
	m.SetMul(a, b)
	return m
}

// SetMul stores a∘b into m. It is safe for m to alias a or b.
func (m *Affine) SetMul(a, b Affine) {
	var out Affine
	for col := range 3 {
		for row := range 3 {
			out[row+col*3] = a[row]*b[col*3] + a[row+3]*b[col*3+1] + a[row+6]*b[col*3+2]
		}
	}
	for row := range 3 {
		out[row+9] = a[row]*b[9] + a[row+3]*b[10] + a[row+6]*b[11] + a[row+9]
	}
	*m = out
}

// TransformPoint applies the transform to a point.
func (a Affine) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		a[0]*p.X + a[3]*p.Y + a[6]*p.Z + a[9],
		a[1]*p.X + a[4]*p.Y + a[7]*p.Z + a[10],
		a[2]*p.X + a[5]*p.Y + a[8]*p.Z + a[11],
	}
}

// ApplyRotation applies only the 3x3 part to p (a direction).
func (a Affine) ApplyRotation(p Vec3) Vec3 {
	return Vec3{
		a[0]*p.X + a[3]*p.Y + a[6]*p.Z,
		a[1]*p.X + a[4]*p.Y + a[7]*p.Z,
		a[2]*p.X + a[5]*p.Y + a[8]*p.Z,
	}
}

// ApplyInverseRotation applies the transpose of the 3x3 part to p, which is
// its inverse when the rotation part is orthonormal.
func (a Affine) ApplyInverseRotation(p Vec3) Vec3 {
	return Vec3{
		a[0]*p.X + a[1]*p.Y + a[2]*p.Z,
		a[3]*p.X + a[4]*p.Y + a[5]*p.Z,
		a[6]*p.X + a[7]*p.Y + a[8]*p.Z,
	}
}

// InvertNormalizedRotation returns the inverse of the rotation part,
// assuming it is orthonormal. The translation of the result is zero.
func (a Affine) InvertNormalizedRotation() Affine {
	return Affine{
		a[0], a[3], a[6],
		a[1], a[4], a[7],
		a[2], a[5], a[8],
		0, 0, 0,
	}
}

// InvertNormalized returns the inverse of a by transposing the rotation
// part and negating the rotated translation. Only valid while the rotation
// part is orthonormal; call Orthonormalize after repeated composition.
func (a Affine) InvertNormalized() Affine {
	m := a.InvertNormalizedRotation()
	m.SetTranslation(m.TransformPoint(a.Translation()).Negate())
	return m
}

// Orthonormalize rebuilds the rotation part as an orthonormal basis,
// keeping the X axis direction and the plane of the X and Y axes.
func (a *Affine) Orthonormalize() {
	x := a.Column(0).Normalize()
	z := x.Cross(a.Column(1)).Normalize()
	y := z.Cross(x)
	a[0], a[1], a[2] = x.X, x.Y, x.Z
	a[3], a[4], a[5] = y.X, y.Y, y.Z
	a[6], a[7], a[8] = z.X, z.Y, z.Z
}

// Column returns column i (0..3) of the matrix. Column 3 is the
// translation.
func (a Affine) Column(i int) Vec3 {
	return Vec3{a[i*3], a[i*3+1], a[i*3+2]}
}

// Get returns the element at (row, col).
func (a Affine) Get(row, col int) float64 {
	return a[row+col*3]
}

// Translation extracts the translation component.
func (a Affine) Translation() Vec3 {
	return a.Column(3)
}

// SetTranslation sets the translation component.
func (a *Affine) SetTranslation(v Vec3) {
	a[9] = v.X
	a[10] = v.Y
	a[11] = v.Z
}

// Project perspective-divides a window-space point. Points at or behind
// the eye (z <= 0) project to (0, 0) with z preserved; callers reject them
// with a near-plane test before using x and y.
func Project(p Vec3) Vec3 {
	if p.Z <= 0 {
		return Vec3{0, 0, p.Z}
	}
	return Vec3{p.X / p.Z, p.Y / p.Z, p.Z}
}
