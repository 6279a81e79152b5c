// Package scene holds the camera and object state around the template
// quad, and drives it two ways: Driver renders single deterministic test
// frames, Spinner animates the interactive viewer.
package scene

import (
	"math"

	"github.com/taigrr/tiltframe/pkg/math3d"
)

const (
	// DefaultStandoff is the distance from the camera's focus point to the
	// object's center.
	DefaultStandoff = 1.9

	// DefaultFOV is the horizontal field of view in radians.
	DefaultFOV = math.Pi / 2

	// cameraOffset keeps the eye outside the unit sphere around the object
	// even at zero standoff.
	cameraOffset = 0.2

	maxRotationStep = math.Pi / 8
)

// Scene is the object orientation, camera orientation and projection for
// one output surface.
type Scene struct {
	width, height int
	fov           float64
	distance      float64

	object     math3d.Affine
	camera     math3d.Affine
	projection math3d.Affine
}

// NewScene returns a scene for a width x height surface with the object at
// the origin, unrotated, and the camera on +Z looking down -Z.
func NewScene(width, height int) *Scene {
	s := &Scene{width: width, height: height, fov: DefaultFOV}
	s.Reset()
	return s
}

// Reset restores the default standoff and an unrotated object.
func (s *Scene) Reset() {
	s.object = math3d.Identity()
	s.SetDistance(DefaultStandoff)
	s.updateProjection()
}

// Size returns the surface size the projection targets.
func (s *Scene) Size() (width, height int) {
	return s.width, s.height
}

// Resize retargets the projection to a new surface size.
func (s *Scene) Resize(width, height int) {
	s.width, s.height = width, height
	s.updateProjection()
}

// FOV returns the horizontal field of view in radians.
func (s *Scene) FOV() float64 {
	return s.fov
}

// SetFOV sets the horizontal field of view in radians.
func (s *Scene) SetFOV(fov float64) {
	s.fov = fov
	s.updateProjection()
}

func (s *Scene) updateProjection() {
	s.projection = math3d.WindowProjection(float64(s.width), float64(s.height), s.fov)
}

// Distance returns the camera standoff.
func (s *Scene) Distance() float64 {
	return s.distance
}

// SetDistance moves the camera along +Z to the given standoff. Negative
// values are clamped to zero.
func (s *Scene) SetDistance(d float64) {
	s.distance = max(d, 0)
	s.camera = math3d.Orientation(
		math3d.V3(0, 0, cameraOffset+s.distance),
		math3d.Forward(),
		math3d.Up(),
	)
}

// Object returns the object orientation.
func (s *Scene) Object() math3d.Affine {
	return s.object
}

// SetObject replaces the object orientation.
func (s *Scene) SetObject(m math3d.Affine) {
	s.object = m
}

// Camera returns the camera orientation (see math3d.Orientation).
func (s *Scene) Camera() math3d.Affine {
	return s.camera
}

// Transform returns the object-to-window transform: projection ∘ view ∘
// object.
func (s *Scene) Transform() math3d.Affine {
	view := math3d.ViewFromOrientation(s.camera)
	return s.projection.Mul(view).Mul(s.object)
}

// RotateObject applies m to the object in world space and restores the
// orthonormality lost to rounding.
func (s *Scene) RotateObject(m math3d.Affine) {
	s.object = m.Mul(s.object)
	s.object.Orthonormalize()
}

// RotateObjectScaledAxis rotates the object around axis by asin(|axis|),
// capped at π/8 per call. A zero axis is a no-op.
func (s *Scene) RotateObjectScaledAxis(axis math3d.Vec3) {
	l := axis.Len()
	if l == 0 {
		return
	}
	angle := min(math.Asin(min(l, 1)), maxRotationStep)
	s.RotateObject(math3d.RotateAxisAngle(axis, angle))
}

// SpherePoint casts a ray from the camera through the normalized pointer
// position (x, y) and returns where it meets the unit sphere around the
// object: the first exterior hit, or the closest point on the sphere when
// the ray misses. ok is false when the camera is inside the sphere or the
// sphere is behind the ray.
func (s *Scene) SpherePoint(x, y float64) (p math3d.Vec3, ok bool) {
	origin := s.camera.Translation()
	tanHalf := math.Tan(s.fov / 2)
	dir := s.camera.Column(0).
		Add(s.camera.Column(2).Scale(x * tanHalf)).
		Add(s.camera.Column(1).Scale(y * tanHalf)).
		Normalize()
	return rayVsUnitSphere(origin, dir)
}

func rayVsUnitSphere(p, r math3d.Vec3) (math3d.Vec3, bool) {
	if p.LenSq() < 1 {
		return math3d.Vec3{}, false
	}
	along := -p.Dot(r)
	if along < 0 {
		return math3d.Vec3{}, false
	}
	perp := p.Add(r.Scale(along))
	perpSq := perp.LenSq()
	if perpSq >= 0.999999 {
		return perp.Normalize(), true
	}
	e := math.Sqrt(1 - perpSq)
	return p.Add(r.Scale(along - e)).Normalize(), true
}

// NormalizePointer maps a pixel position on a width x height surface to
// pointer coordinates: x runs -1..1 left to right, y is +up and scaled by
// the width so both axes share units.
func NormalizePointer(px, py, width, height float64) (x, y float64) {
	x = px/width*2 - 1
	y = -((py - height/2) / (width / 2))
	return x, y
}
