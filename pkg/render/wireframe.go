package render

import (
	"image/color"
	"math"

	"github.com/taigrr/tiltframe/pkg/math3d"
)

// LineDrawer is a surface that can stroke lines.
type LineDrawer interface {
	DrawLine(x0, y0, x1, y1 int, c color.RGBA)
}

// wireframeWash is the translucent black laid over the frame before the
// outlines, so they read against the texture.
var wireframeWash = color.RGBA{0, 0, 0, 77}

// Wireframe strokes subdivision patch outlines and other debug geometry
// using a Context's transform and options.
type Wireframe struct {
	ctx   *Context
	dst   LineDrawer
	Color Color
}

// NewWireframe creates a wireframe renderer for ctx, stroking onto dst.
func NewWireframe(ctx *Context, dst LineDrawer) *Wireframe {
	return &Wireframe{
		ctx:   ctx,
		dst:   dst,
		Color: ColorOutline,
	}
}

// DrawPatch implements PatchSink by outlining the patch.
func (w *Wireframe) DrawPatch(p *Patch) {
	for i := range p.N {
		a, b := p.Screen[i], p.Screen[(i+1)%p.N]
		w.line(a, b, w.Color)
	}
}

// DrawQuad washes the surface and outlines the patches the perspective
// path would draw for the object-space quad v0 v1 v2 v3.
func (w *Wireframe) DrawQuad(v0, v1, v2, v3 Vertex) Stats {
	w.ctx.Surface().FillRect(w.ctx.Surface().Bounds(), wireframeWash)

	sub := NewSubdivider(w.ctx.Options(), w)
	t := w.ctx.TransformVertices([]Vertex{v0, v1, v2, v3})
	sub.Quad(t[0], t[1], t[2], t[3])
	return sub.Stats()
}

// DrawLine3D draws a line between two object-space points. Lines with
// either end behind the near plane are skipped.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, c Color) {
	a := w.ctx.Project(p1)
	b := w.ctx.Project(p2)
	minZ := w.ctx.Options().MinZ
	if a.Z < minZ || b.Z < minZ {
		return
	}
	w.line(a.XY(), b.XY(), c)
}

// DrawAxes draws the object's coordinate axes from its origin.
func (w *Wireframe) DrawAxes(length float64) {
	origin := math3d.Zero3()
	w.DrawLine3D(origin, math3d.V3(length, 0, 0), ColorRed)   // X axis
	w.DrawLine3D(origin, math3d.V3(0, length, 0), ColorGreen) // Y axis
	w.DrawLine3D(origin, math3d.V3(0, 0, length), ColorBlue)  // Z axis
}

// maxLineCoord bounds the endpoints handed to the line drawer so that
// patches projected far off screen cannot stall Bresenham.
const maxLineCoord = 1 << 14

func (w *Wireframe) line(a, b math3d.Vec2, c Color) {
	for _, v := range [4]float64{a.X, a.Y, b.X, b.Y} {
		if math.IsNaN(v) || math.Abs(v) > maxLineCoord {
			return
		}
	}
	w.dst.DrawLine(
		int(math.Round(a.X)), int(math.Round(a.Y)),
		int(math.Round(b.X)), int(math.Round(b.Y)),
		c,
	)
}
