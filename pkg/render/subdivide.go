package render

import (
	"math"

	"github.com/taigrr/tiltframe/pkg/math3d"
)

// ClipMode selects how patches crossing the near plane are handled.
type ClipMode int

const (
	// ClipRecursive keeps subdividing patches that straddle the near plane
	// and drops pieces that end up wholly behind it. Patches never cross
	// the plane, so no clipped geometry is generated.
	ClipRecursive ClipMode = iota
	// ClipExplicit intersects triangle edges with z == MinZ and draws the
	// one or two triangles left in front. Quads are split into two
	// triangles first.
	ClipExplicit
)

func (m ClipMode) String() string {
	switch m {
	case ClipRecursive:
		return "recursive"
	case ClipExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// Options controls perspective subdivision.
type Options struct {
	// SubdivideFactor is the threshold on screen edge length (Manhattan,
	// pixels) times the edge's window-space depth change. Edges above it
	// are split. Lower values give more accurate perspective.
	SubdivideFactor float64
	// DepthCount, when positive, replaces the adaptive test with uniform
	// splitting: every patch is split until the counter, decremented once
	// per level, reaches zero.
	DepthCount int
	// MaxDepth is a hard recursion limit for adaptive splitting and
	// near-plane recursion.
	MaxDepth int
	// MinZ is the near plane in window space.
	MinZ float64
	// TriGuard and QuadGuard scale MinZ into a guard band: straddling
	// patches entirely below MinZ*guard are dropped instead of split.
	TriGuard  float64
	QuadGuard float64
	// SeamMargin is the overlap, in pixels, between adjacent quad patches.
	SeamMargin float64
	Clip       ClipMode
}

// DefaultOptions returns the standard subdivision settings.
func DefaultOptions() Options {
	return Options{
		SubdivideFactor: 10,
		DepthCount:      7,
		MaxDepth:        10,
		MinZ:            0.05,
		TriGuard:        1.1,
		QuadGuard:       3,
		SeamMargin:      5,
		Clip:            ClipRecursive,
	}
}

// withDefaults fills unset or invalid fields from DefaultOptions. A zero
// DepthCount is meaningful (adaptive mode) and is kept.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SubdivideFactor <= 0 {
		o.SubdivideFactor = d.SubdivideFactor
	}
	if o.DepthCount < 0 {
		o.DepthCount = 0
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.MinZ <= 0 {
		o.MinZ = d.MinZ
	}
	if o.TriGuard < 1 {
		o.TriGuard = d.TriGuard
	}
	if o.QuadGuard < 1 {
		o.QuadGuard = d.QuadGuard
	}
	if o.SeamMargin < 0 {
		o.SeamMargin = 0
	}
	return o
}

// Patch is a leaf of the subdivision: a triangle or quad small enough to
// be drawn with a single affine warp. Screen holds projected positions,
// Texture the matching texture coordinates and Z the window-space depths;
// only the first N are valid.
type Patch struct {
	Screen  [4]math3d.Vec2
	Texture [4]math3d.Vec2
	Z       [4]float64
	N       int
	Level   int
}

// Clip returns the screen polygon of the patch.
func (p *Patch) Clip() []math3d.Vec2 {
	return p.Screen[:p.N]
}

// PatchSink receives the leaves produced by a Subdivider. The patch is
// reused between calls and must not be retained.
type PatchSink interface {
	DrawPatch(p *Patch)
}

// PatchFunc adapts a function to a PatchSink.
type PatchFunc func(p *Patch)

// DrawPatch calls f(p).
func (f PatchFunc) DrawPatch(p *Patch) { f(p) }

// Stats counts what one or more subdivisions produced.
type Stats struct {
	Patches   int // leaves emitted
	Splits    int // patches split into children
	Discarded int // patches dropped behind the near plane or at a depth limit
}

// Add returns the sum of two Stats.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Patches:   s.Patches + o.Patches,
		Splits:    s.Splits + o.Splits,
		Discarded: s.Discarded + o.Discarded,
	}
}

// Subdivider splits window-space triangles and quads into patches whose
// affine approximation of perspective is within tolerance. Vertex
// positions must already be transformed into window space (before the
// perspective divide); see Context.
type Subdivider struct {
	opts  Options
	sink  PatchSink
	stats Stats
	patch Patch
}

// NewSubdivider creates a subdivider emitting leaves to sink.
func NewSubdivider(opts Options, sink PatchSink) *Subdivider {
	return &Subdivider{opts: opts.withDefaults(), sink: sink}
}

// Options returns the effective options.
func (s *Subdivider) Options() Options {
	return s.opts
}

// Stats returns the counters accumulated since the last ResetStats.
func (s *Subdivider) Stats() Stats {
	return s.stats
}

// ResetStats zeroes the counters.
func (s *Subdivider) ResetStats() {
	s.stats = Stats{}
}

// Quad subdivides the quad v0 v1 v2 v3, given in order around its edge.
//
//	v0       v1
//	  **----*
//	  *     |
//	  |     *
//	  *----**
//	v3       v2
func (s *Subdivider) Quad(v0, v1, v2, v3 Vertex) {
	if s.opts.Clip == ClipExplicit {
		s.clippedTriangle(v0, v1, v2)
		s.clippedTriangle(v0, v2, v3)
		return
	}
	s.quad([4]Vertex{v0, v1, v2, v3}, s.opts.DepthCount, 0)
}

// Triangle subdivides the triangle v0 v1 v2.
func (s *Subdivider) Triangle(v0, v1, v2 Vertex) {
	if s.opts.Clip == ClipExplicit {
		s.clippedTriangle(v0, v1, v2)
		return
	}
	s.triangle(v0, v1, v2, s.opts.DepthCount, 0)
}

// projected is a window-space vertex with its perspective-divided screen
// position.
type projected struct {
	Vertex
	screen math3d.Vec2
}

func project(v Vertex) projected {
	return projected{Vertex: v, screen: math3d.Project(v.Position).XY()}
}

// edgeCost returns the Manhattan screen length of a-b and whether the edge
// needs splitting.
func (s *Subdivider) edgeCost(a, b projected) (float64, bool) {
	l := a.screen.Manhattan(b.screen)
	dz := math.Abs(a.Position.Z - b.Position.Z)
	return l, l*dz > s.opts.SubdivideFactor
}

// nearMask sets bit i when vertex i lies closer than limit.
func nearMask(limit float64, vs ...Vertex) int {
	mask := 0
	for i, v := range vs {
		if v.Position.Z < limit {
			mask |= 1 << i
		}
	}
	return mask
}

// triangle handles near-plane clipping by recursive subdivision.
func (s *Subdivider) triangle(v0, v1, v2 Vertex, count, level int) {
	const all = 7
	switch nearMask(s.opts.MinZ, v0, v1, v2) {
	case 0:
		s.triangleUnclipped(project(v0), project(v1), project(v2), count, level)
		return
	case all:
		s.stats.Discarded++
		return
	}
	if nearMask(s.opts.MinZ*s.opts.TriGuard, v0, v1, v2) == all || level >= s.opts.MaxDepth {
		s.stats.Discarded++
		return
	}

	v01 := Bisect(v0, v1)
	v12 := Bisect(v1, v2)
	v20 := Bisect(v2, v0)
	if count > 0 {
		count--
	}
	s.stats.Splits++
	level++
	s.triangle(v0, v01, v20, count, level)
	s.triangle(v01, v1, v12, count, level)
	s.triangle(v12, v2, v20, count, level)
	s.triangle(v01, v12, v20, count, level)
}

// triangleUnclipped splits a triangle lying in front of the near plane
// until each piece passes the perspective tolerance.
func (s *Subdivider) triangleUnclipped(p0, p1, p2 projected, count, level int) {
	_, split01 := s.edgeCost(p0, p1)
	_, split12 := s.edgeCost(p1, p2)
	_, split20 := s.edgeCost(p2, p0)

	mask := 0
	if split01 {
		mask |= 1
	}
	if split12 {
		mask |= 2
	}
	if split20 {
		mask |= 4
	}

	switch {
	case count > 0:
		count--
		if count == 0 {
			mask = 0
		} else {
			mask = 7
		}
	case level >= s.opts.MaxDepth:
		mask = 0
	}

	if mask == 0 {
		s.emit(level, p0, p1, p2)
		return
	}

	s.stats.Splits++
	level++
	p01 := project(Bisect(p0.Vertex, p1.Vertex))
	p12 := project(Bisect(p1.Vertex, p2.Vertex))
	p20 := project(Bisect(p2.Vertex, p0.Vertex))

	switch mask {
	case 1: // along p01-p2
		s.triangleUnclipped(p0, p01, p2, count, level)
		s.triangleUnclipped(p01, p1, p2, count, level)
	case 2: // along p0-p12
		s.triangleUnclipped(p0, p1, p12, count, level)
		s.triangleUnclipped(p0, p12, p2, count, level)
	case 3: // along p01-p12
		s.triangleUnclipped(p0, p01, p12, count, level)
		s.triangleUnclipped(p0, p12, p2, count, level)
		s.triangleUnclipped(p01, p1, p12, count, level)
	case 4: // along p1-p20
		s.triangleUnclipped(p0, p1, p20, count, level)
		s.triangleUnclipped(p1, p2, p20, count, level)
	case 5: // along p01-p20
		s.triangleUnclipped(p0, p01, p20, count, level)
		s.triangleUnclipped(p1, p2, p01, count, level)
		s.triangleUnclipped(p2, p20, p01, count, level)
	case 6: // along p12-p20
		s.triangleUnclipped(p0, p1, p20, count, level)
		s.triangleUnclipped(p1, p12, p20, count, level)
		s.triangleUnclipped(p12, p2, p20, count, level)
	default:
		s.triangleUnclipped(p0, p01, p20, count, level)
		s.triangleUnclipped(p1, p12, p01, count, level)
		s.triangleUnclipped(p2, p20, p12, count, level)
		s.triangleUnclipped(p01, p12, p20, count, level)
	}
}

// clippedTriangle clips a triangle against z == MinZ exactly and
// subdivides the pieces in front.
func (s *Subdivider) clippedTriangle(v0, v1, v2 Vertex) {
	minZ := s.opts.MinZ
	count := s.opts.DepthCount
	draw := func(a, b, c Vertex) {
		s.triangleUnclipped(project(a), project(b), project(c), count, 0)
	}
	clip := func(a, b Vertex) Vertex { return clipToPlane(a, b, minZ) }

	switch nearMask(minZ, v0, v1, v2) {
	case 0:
		draw(v0, v1, v2)
	case 1:
		v01, v20 := clip(v0, v1), clip(v0, v2)
		draw(v01, v1, v2)
		draw(v01, v2, v20)
	case 2:
		v01, v12 := clip(v1, v0), clip(v1, v2)
		draw(v0, v01, v12)
		draw(v0, v12, v2)
	case 3:
		v12, v20 := clip(v1, v2), clip(v0, v2)
		draw(v2, v20, v12)
	case 4:
		v12, v20 := clip(v2, v1), clip(v2, v0)
		draw(v0, v1, v12)
		draw(v0, v12, v20)
	case 5:
		v01, v12 := clip(v0, v1), clip(v2, v1)
		draw(v1, v12, v01)
	case 6:
		v01, v20 := clip(v0, v1), clip(v0, v2)
		draw(v0, v01, v20)
	default:
		s.stats.Discarded++
	}
}

// quad handles near-plane clipping of quads by recursive subdivision. A
// straddling quad still crossing the plane when the depth counter runs out
// is dropped.
func (s *Subdivider) quad(v [4]Vertex, count, level int) {
	const all = 15
	switch nearMask(s.opts.MinZ, v[:]...) {
	case 0:
		s.quadUnclipped([4]projected{project(v[0]), project(v[1]), project(v[2]), project(v[3])}, count, level)
		return
	case all:
		s.stats.Discarded++
		return
	}
	if nearMask(s.opts.MinZ*s.opts.QuadGuard, v[:]...) == all {
		s.stats.Discarded++
		return
	}

	// The quad crosses the eye plane, so projected lengths are meaningless;
	// size the seam overlap from the window-space diagonals instead.
	p0, p1, p2, p3 := v[0].Position, v[1].Position, v[2].Position, v[3].Position
	approx := (math.Abs(p0.X-p2.X) + math.Abs(p0.Y-p2.Y) +
		math.Abs(p1.X-p3.X) + math.Abs(p1.Y-p3.Y)) / 2

	if count > 0 {
		count--
		if count == 0 {
			s.stats.Discarded++
			return
		}
	}
	if level >= s.opts.MaxDepth {
		s.stats.Discarded++
		return
	}

	s.stats.Splits++
	for _, c := range s.splitQuad(v, [4]float64{approx, approx, approx, approx}) {
		s.quad(c, count, level+1)
	}
}

// quadUnclipped splits a quad lying in front of the near plane until each
// piece passes the perspective tolerance.
func (s *Subdivider) quadUnclipped(p [4]projected, count, level int) {
	var lens [4]float64
	split := false
	for i := range 4 {
		l, need := s.edgeCost(p[i], p[(i+1)%4])
		lens[i] = l
		split = split || need
	}

	switch {
	case count > 0:
		count--
		split = count != 0
	case level >= s.opts.MaxDepth:
		split = false
	}

	if !split {
		s.emit(level, p[0], p[1], p[2], p[3])
		return
	}

	s.stats.Splits++
	v := [4]Vertex{p[0].Vertex, p[1].Vertex, p[2].Vertex, p[3].Vertex}
	for _, c := range s.splitQuad(v, lens) {
		s.quadUnclipped([4]projected{project(c[0]), project(c[1]), project(c[2]), project(c[3])}, count, level+1)
	}
}

// splitQuad returns the four overlapping children of v, one per corner.
// lens holds the screen length estimate of edges 01, 12, 23 and 30.
func (s *Subdivider) splitQuad(v [4]Vertex, lens [4]float64) [4][4]Vertex {
	m := s.opts.SeamMargin
	v01a, v01b := BisectFat(v[0], v[1], lens[0], m)
	v12a, v12b := BisectFat(v[1], v[2], lens[1], m)
	v23a, v23b := BisectFat(v[2], v[3], lens[2], m)
	v30a, v30b := BisectFat(v[3], v[0], lens[3], m)
	ccA, ccB := BisectFat(v01a, v23b, lens[1], m)
	ccC, ccD := BisectFat(v23a, v01b, lens[3], m)

	return [4][4]Vertex{
		{v[0], v01a, ccA, v30b},
		{v[1], v12a, ccD, v01b},
		{v[2], v23a, ccC, v12b},
		{v[3], v30a, ccB, v23b},
	}
}

func (s *Subdivider) emit(level int, ps ...projected) {
	s.patch = Patch{N: len(ps), Level: level}
	for i, p := range ps {
		s.patch.Screen[i] = p.screen
		s.patch.Texture[i] = p.UV
		s.patch.Z[i] = p.Position.Z
	}
	s.stats.Patches++
	if s.sink != nil {
		s.sink.DrawPatch(&s.patch)
	}
}
