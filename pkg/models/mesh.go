// Package models provides the geometry tiltframe draws: the fixed template
// quad and triangle meshes loaded from glTF.
package models

import (
	"github.com/taigrr/tiltframe/pkg/math3d"
)

// Mesh is an indexed triangle mesh with per-vertex texture coordinates.
type Mesh struct {
	Name     string
	Vertices []MeshVertex
	Faces    []Face

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex holds the vertex attributes the renderer consumes.
type MeshVertex struct {
	Position math3d.Vec3
	UV       math3d.Vec2 // texture pixels, origin top left
}

// Face is a triangle of indices into Mesh.Vertices.
type Face struct {
	V [3]int
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]MeshVertex, 0),
		Faces:    make([]Face, 0),
	}
}

// TemplateQuad returns the unit template quad spanning [-1,1] in x and y at
// z=0, textured by a width x height image. Texture rows run top to bottom,
// so the quad's top edge (y=+1) samples row 0. Faces are (0,1,2) and
// (0,2,3).
func TemplateQuad(width, height int) *Mesh {
	w, h := float64(width), float64(height)
	m := NewMesh("template")
	m.Vertices = append(m.Vertices,
		MeshVertex{Position: math3d.V3(-1, -1, 0), UV: math3d.V2(0, h)},
		MeshVertex{Position: math3d.V3(1, -1, 0), UV: math3d.V2(w, h)},
		MeshVertex{Position: math3d.V3(1, 1, 0), UV: math3d.V2(w, 0)},
		MeshVertex{Position: math3d.V3(-1, 1, 0), UV: math3d.V2(0, 0)},
	)
	m.Faces = append(m.Faces, Face{V: [3]int{0, 1, 2}}, Face{V: [3]int{0, 2, 3}})
	m.CalculateBounds()
	return m
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// Normalize recenters the mesh on the origin and scales it so its largest
// extent spans [-1,1], the size of the template quad.
func (m *Mesh) Normalize() {
	size := m.Size()
	extent := max(size.X, size.Y, size.Z)
	if extent == 0 {
		return
	}
	center := m.Center()
	s := 2 / extent
	for i := range m.Vertices {
		m.Vertices[i].Position = m.Vertices[i].Position.Sub(center).Scale(s)
	}
	m.CalculateBounds()
}

// ScaleUV converts normalized texture coordinates to texture pixels.
func (m *Mesh) ScaleUV(width, height int) {
	for i := range m.Vertices {
		uv := m.Vertices[i].UV
		m.Vertices[i].UV = math3d.V2(uv.X*float64(width), uv.Y*float64(height))
	}
}

// Transform applies an affine transform to all vertices.
func (m *Mesh) Transform(a math3d.Affine) {
	for i := range m.Vertices {
		m.Vertices[i].Position = a.TransformPoint(m.Vertices[i].Position)
	}
	m.CalculateBounds()
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Vertices:  make([]MeshVertex, len(m.Vertices)),
		Faces:     make([]Face, len(m.Faces)),
		BoundsMin: m.BoundsMin,
		BoundsMax: m.BoundsMax,
	}
	copy(clone.Vertices, m.Vertices)
	copy(clone.Faces, m.Faces)
	return clone
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// GetVertex returns the position and UV for vertex i.
// Implements render.MeshRenderer interface.
func (m *Mesh) GetVertex(i int) (pos math3d.Vec3, uv math3d.Vec2) {
	v := m.Vertices[i]
	return v.Position, v.UV
}

// GetFace returns the vertex indices for face i.
// Implements render.MeshRenderer interface.
func (m *Mesh) GetFace(i int) [3]int {
	return m.Faces[i].V
}

// GetBounds returns the axis-aligned bounding box.
func (m *Mesh) GetBounds() (min, max math3d.Vec3) {
	return m.BoundsMin, m.BoundsMax
}
