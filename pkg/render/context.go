package render

import (
	"fmt"

	"github.com/taigrr/tiltframe/pkg/math3d"
)

// Context carries the per-frame state for drawing onto one Surface: the
// object-to-window transform, the bound texture and the subdivision
// options.
type Context struct {
	surface   Surface
	transform math3d.Affine
	texture   *Texture
	opts      Options

	raster *Rasterizer
	sub    *Subdivider
	stats  Stats
	temp   []Vertex
}

// NewContext creates a context drawing onto surface with DefaultOptions
// and an identity transform.
func NewContext(surface Surface) *Context {
	c := &Context{
		surface:   surface,
		transform: math3d.Identity(),
		raster:    NewRasterizer(surface),
	}
	c.SetOptions(DefaultOptions())
	return c
}

// SetOptions replaces the subdivision options. Unset fields take their
// default values.
func (c *Context) SetOptions(opts Options) {
	c.sub = NewSubdivider(opts, c.raster)
	c.opts = c.sub.Options()
}

// Options returns the effective subdivision options.
func (c *Context) Options() Options {
	return c.opts
}

// SetTransform sets the object-to-window transform. The matrix is copied.
func (c *Context) SetTransform(m math3d.Affine) {
	c.transform = m
}

// Transform returns the current object-to-window transform.
func (c *Context) Transform() math3d.Affine {
	return c.transform
}

// SetTexture binds the texture used by subsequent draws.
func (c *Context) SetTexture(tex *Texture) {
	c.texture = tex
	c.raster.SetTexture(tex)
}

// Texture returns the bound texture.
func (c *Context) Texture() *Texture {
	return c.texture
}

// Surface returns the draw target.
func (c *Context) Surface() Surface {
	return c.surface
}

// Stats returns the subdivision counters of the last perspective draw.
func (c *Context) Stats() Stats {
	return c.stats
}

// Project transforms p into window space and applies the perspective
// divide. See math3d.Project for points behind the eye.
func (c *Context) Project(p math3d.Vec3) math3d.Vec3 {
	return math3d.Project(c.transform.TransformPoint(p))
}

// TransformVertices returns vs transformed into window space, before the
// perspective divide, with texture coordinates carried over.
func (c *Context) TransformVertices(vs []Vertex) []Vertex {
	out := make([]Vertex, len(vs))
	for i, v := range vs {
		out[i] = Vertex{Position: c.transform.TransformPoint(v.Position), UV: v.UV}
	}
	return out
}

// DrawTriangles draws an indexed triangle list with one affine warp per
// triangle and no perspective correction. Triangles with any vertex at or
// behind the eye are skipped, as are triangles facing away (positive
// signed screen area).
func (c *Context) DrawTriangles(vs []Vertex, indices []int) error {
	if c.texture == nil {
		return ErrNoTexture
	}
	if cap(c.temp) < len(vs) {
		c.temp = make([]Vertex, len(vs))
	}
	temp := c.temp[:len(vs)]
	for i, v := range vs {
		temp[i] = Vertex{Position: c.Project(v.Position), UV: v.UV}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		for _, idx := range [3]int{i0, i1, i2} {
			if idx < 0 || idx >= len(temp) {
				return fmt.Errorf("triangle %d: vertex index %d out of range", i/3, idx)
			}
		}
		p0, p1, p2 := temp[i0], temp[i1], temp[i2]
		if p0.Position.Z <= 0 || p1.Position.Z <= 0 || p2.Position.Z <= 0 {
			continue
		}
		a, b := p0.Position.XY(), p1.Position.XY()
		if b.Sub(a).Cross(p2.Position.XY().Sub(a)) > 0 {
			continue
		}
		c.raster.DrawTriangle(p0, p1, p2)
	}
	return nil
}

// DrawMesh draws every face of m with DrawTriangles.
func (c *Context) DrawMesh(m MeshRenderer) error {
	vs := make([]Vertex, m.VertexCount())
	for i := range vs {
		pos, uv := m.GetVertex(i)
		vs[i] = Vertex{Position: pos, UV: uv}
	}
	indices := make([]int, 0, m.TriangleCount()*3)
	for i := range m.TriangleCount() {
		f := m.GetFace(i)
		indices = append(indices, f[0], f[1], f[2])
	}
	return c.DrawTriangles(vs, indices)
}

// DrawQuad draws the object-space quad v0 v1 v2 v3 with perspective
// approximated by subdivision.
func (c *Context) DrawQuad(v0, v1, v2, v3 Vertex) error {
	if c.texture == nil {
		return ErrNoTexture
	}
	w := c.TransformVertices([]Vertex{v0, v1, v2, v3})
	c.sub.ResetStats()
	c.sub.Quad(w[0], w[1], w[2], w[3])
	c.finish("quad")
	return nil
}

// DrawTriangle draws the object-space triangle v0 v1 v2 with perspective
// approximated by subdivision.
func (c *Context) DrawTriangle(v0, v1, v2 Vertex) error {
	if c.texture == nil {
		return ErrNoTexture
	}
	w := c.TransformVertices([]Vertex{v0, v1, v2})
	c.sub.ResetStats()
	c.sub.Triangle(w[0], w[1], w[2])
	c.finish("triangle")
	return nil
}

func (c *Context) finish(shape string) {
	c.stats = c.sub.Stats()
	Logger().Debug("perspective draw",
		"shape", shape,
		"patches", c.stats.Patches,
		"splits", c.stats.Splits,
		"discarded", c.stats.Discarded,
		"clip", c.opts.Clip.String(),
	)
}
