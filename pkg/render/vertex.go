package render

import "github.com/taigrr/tiltframe/pkg/math3d"

// Vertex is a position paired with texture coordinates in source pixels.
type Vertex struct {
	Position math3d.Vec3
	UV       math3d.Vec2
}

// V creates a vertex from position and texture coordinates.
func V(x, y, z, u, v float64) Vertex {
	return Vertex{Position: math3d.V3(x, y, z), UV: math3d.V2(u, v)}
}

// Lerp interpolates position and texture coordinates between a and b.
func Lerp(a, b Vertex, t float64) Vertex {
	return Vertex{
		Position: a.Position.Lerp(b.Position, t),
		UV:       a.UV.Lerp(b.UV, t),
	}
}

// Bisect returns the midpoint of a and b.
func Bisect(a, b Vertex) Vertex {
	return Lerp(a, b, 0.5)
}

// BisectFat returns two points straddling the midpoint of a and b, each
// margin/2 pixels from it given the edge's screen length. The first point
// lies toward b, the second toward a. Neighbouring patches built from these
// points overlap slightly, hiding seams between separately warped pieces.
// The offset never exceeds a quarter of the edge; zero-length edges return
// the plain midpoint twice.
func BisectFat(a, b Vertex, screenLen, margin float64) (Vertex, Vertex) {
	if screenLen <= 0 {
		m := Bisect(a, b)
		return m, m
	}
	d := 0.5 * margin / screenLen
	if d > 0.25 {
		d = 0.25
	}
	return Lerp(a, b, 0.5+d), Lerp(a, b, 0.5-d)
}

// clipToPlane returns the point where edge a-b crosses z == minZ.
func clipToPlane(a, b Vertex, minZ float64) Vertex {
	f := (minZ - a.Position.Z) / (b.Position.Z - a.Position.Z)
	return Lerp(a, b, f)
}
