package render

import "github.com/taigrr/tiltframe/pkg/math3d"

// MeshRenderer is the geometry a Context can draw with DrawMesh.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetFace(i int) [3]int
	GetVertex(i int) (pos math3d.Vec3, uv math3d.Vec2)
}

// Rasterizer draws subdivision patches onto a Surface, one affine warp per
// patch.
type Rasterizer struct {
	surface Surface
	texture *Texture

	// Skipped counts patches whose texture triangle was degenerate.
	Skipped int
}

// NewRasterizer creates a rasterizer targeting surface.
func NewRasterizer(surface Surface) *Rasterizer {
	return &Rasterizer{surface: surface}
}

// SetTexture sets the texture drawn by subsequent patches.
func (r *Rasterizer) SetTexture(tex *Texture) {
	r.texture = tex
}

// DrawPatch implements PatchSink. The warp is solved from the first three
// correspondences; for quads the fourth corner only shapes the clip.
func (r *Rasterizer) DrawPatch(p *Patch) {
	src := [3]math3d.Vec2{p.Texture[0], p.Texture[1], p.Texture[2]}
	dst := [3]math3d.Vec2{p.Screen[0], p.Screen[1], p.Screen[2]}
	w, ok := WarpFromTriangles(src, dst)
	if !ok {
		r.Skipped++
		return
	}
	r.surface.DrawWarped(p.Clip(), w, r.texture)
}

// DrawTriangle draws one screen-space triangle with a single warp. Points
// are already projected; Position.Z is ignored.
func (r *Rasterizer) DrawTriangle(p0, p1, p2 Vertex) {
	p := Patch{N: 3}
	for i, v := range [3]Vertex{p0, p1, p2} {
		p.Screen[i] = v.Position.XY()
		p.Texture[i] = v.UV
	}
	r.DrawPatch(&p)
}
