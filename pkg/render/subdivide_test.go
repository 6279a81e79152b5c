package render

import (
	"fmt"
	"math"
	"testing"

	"github.com/taigrr/tiltframe/pkg/math3d"
)

// recorder collects emitted patches.
type recorder struct {
	patches []Patch
}

func (r *recorder) DrawPatch(p *Patch) { r.patches = append(r.patches, *p) }

// wv returns a window-space vertex that projects to screen (x, y) at
// depth z.
func wv(x, y, z, u, v float64) Vertex {
	return V(x*z, y*z, z, u, v)
}

// tiltedQuad is a 200x200 pixel square whose depth varies across both
// axes, so every edge has a depth change.
func tiltedQuad(z0, z1, z2, z3 float64) [4]Vertex {
	return [4]Vertex{
		wv(100, 100, z0, 0, 0),
		wv(300, 100, z1, 64, 0),
		wv(300, 300, z2, 64, 64),
		wv(100, 300, z3, 0, 64),
	}
}

func subdivideQuad(opts Options, q [4]Vertex) (*recorder, Stats) {
	rec := &recorder{}
	s := NewSubdivider(opts, rec)
	s.Quad(q[0], q[1], q[2], q[3])
	return rec, s.Stats()
}

func TestSubdivideFlatQuadIsOnePatch(t *testing.T) {
	opts := DefaultOptions()
	opts.DepthCount = 0
	q := tiltedQuad(2, 2, 2, 2)

	rec, st := subdivideQuad(opts, q)
	if st.Patches != 1 || len(rec.patches) != 1 || st.Splits != 0 {
		t.Fatalf("stats = %+v, want a single unsplit patch", st)
	}
	p := rec.patches[0]
	if p.N != 4 {
		t.Fatalf("patch has %d corners, want 4", p.N)
	}
	want := []math3d.Vec2{{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 300, Y: 300}, {X: 100, Y: 300}}
	for i, w := range want {
		if !vec2Near(p.Screen[i], w, 1e-9) {
			t.Errorf("corner %d = %v, want %v", i, p.Screen[i], w)
		}
	}
}

func TestSubdivideDepthCount(t *testing.T) {
	tests := []struct {
		depth int
		want  int
	}{
		{1, 1},
		{2, 4},
		{3, 16},
		{7, 4096},
	}
	for _, tc := range tests {
		opts := DefaultOptions()
		opts.DepthCount = tc.depth
		_, st := subdivideQuad(opts, tiltedQuad(1, 1.5, 2, 1.2))
		if st.Patches != tc.want {
			t.Errorf("depth %d: %d patches, want %d", tc.depth, st.Patches, tc.want)
		}
		if st.Discarded != 0 {
			t.Errorf("depth %d: %d discarded, want 0", tc.depth, st.Discarded)
		}
	}
}

func TestSubdivideDepthCountTriangle(t *testing.T) {
	opts := DefaultOptions()
	opts.DepthCount = 3
	rec := &recorder{}
	s := NewSubdivider(opts, rec)
	s.Triangle(wv(0, 0, 1, 0, 0), wv(100, 0, 1, 10, 0), wv(0, 100, 1, 0, 10))

	if got := s.Stats().Patches; got != 16 {
		t.Errorf("got %d patches, want 16", got)
	}
	for _, p := range rec.patches {
		if p.N != 3 {
			t.Fatalf("triangle produced a %d-corner patch", p.N)
		}
	}
}

func TestSubdivideMaxDepthBoundsAdaptive(t *testing.T) {
	opts := DefaultOptions()
	opts.DepthCount = 0
	opts.SubdivideFactor = 1e-9
	opts.MaxDepth = 3

	_, st := subdivideQuad(opts, tiltedQuad(1, 1.6, 2.2, 1.6))
	if st.Patches != 64 {
		t.Errorf("got %d patches, want 4^3 with every level split", st.Patches)
	}
}

func TestSubdivideFactorTerminatesAndAgreesAtCorners(t *testing.T) {
	q := tiltedQuad(0.6, 1.4, 2.5, 1.4)
	corners := make([]math3d.Vec2, 4)
	for i, v := range q {
		corners[i] = math3d.Project(v.Position).XY()
	}

	counts := map[float64]int{}
	for _, factor := range []float64{0.5, 50} {
		opts := DefaultOptions()
		opts.DepthCount = 0
		opts.MaxDepth = 5
		opts.SubdivideFactor = factor

		rec, st := subdivideQuad(opts, q)
		counts[factor] = st.Patches
		if st.Patches == 0 {
			t.Fatalf("factor %v: no patches", factor)
		}
		for i, c := range corners {
			found := false
			for _, p := range rec.patches {
				for k := range p.N {
					if vec2Near(p.Screen[k], c, 1e-9) && p.Texture[k] == q[i].UV {
						found = true
					}
				}
			}
			if !found {
				t.Errorf("factor %v: corner %d (%v) not reproduced by any patch", factor, i, c)
			}
		}
	}
	if counts[0.5] <= counts[50] {
		t.Errorf("smaller factor should split more: %d vs %d patches", counts[0.5], counts[50])
	}
}

func TestSubdivideAllBehind(t *testing.T) {
	for _, mode := range []ClipMode{ClipRecursive, ClipExplicit} {
		t.Run(mode.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Clip = mode
			rec, st := subdivideQuad(opts, tiltedQuad(-1, -0.5, 0.01, -2))
			if len(rec.patches) != 0 || st.Patches != 0 {
				t.Errorf("got %d patches from geometry behind the near plane", len(rec.patches))
			}
			if st.Discarded == 0 {
				t.Error("expected the patch to be counted as discarded")
			}
		})
	}
}

func TestSubdivideGuardBandStraddler(t *testing.T) {
	opts := DefaultOptions()
	opts.DepthCount = 0
	minZ := opts.MinZ

	// Two corners behind the near plane, two well in front.
	q := [4]Vertex{
		V(-1, -1, minZ*0.5, 0, 0),
		V(1, -1, minZ*0.5, 64, 0),
		V(3, 3, 2, 64, 64),
		V(-3, 3, 2, 0, 64),
	}
	rec, st := subdivideQuad(opts, q)
	if st.Splits < 1 {
		t.Fatalf("straddling quad was not split: %+v", st)
	}
	if st.Patches == 0 {
		t.Fatal("front part of the straddling quad was not drawn")
	}
	for _, p := range rec.patches {
		for k := range p.N {
			if p.Z[k] < minZ {
				t.Fatalf("patch vertex at z=%v lies behind the near plane", p.Z[k])
			}
		}
	}
}

func TestSubdivideGuardBandDropsNearPatch(t *testing.T) {
	opts := DefaultOptions()
	minZ := opts.MinZ
	// One corner in front of MinZ but all within the quad guard band.
	q := [4]Vertex{
		V(-1, -1, minZ*0.5, 0, 0),
		V(1, -1, minZ*1.5, 64, 0),
		V(1, 1, minZ*2, 64, 64),
		V(-1, 1, minZ*0.9, 0, 64),
	}
	_, st := subdivideQuad(opts, q)
	if st.Patches != 0 || st.Splits != 0 || st.Discarded != 1 {
		t.Errorf("stats = %+v, want the quad dropped without recursion", st)
	}
}

func TestSubdivideTriangleGuardBand(t *testing.T) {
	opts := DefaultOptions()
	opts.DepthCount = 0
	minZ := opts.MinZ
	guard := minZ * opts.TriGuard
	between := (minZ + guard) / 2

	tests := []struct {
		name      string
		z         [3]float64
		wantSplit bool
		wantDrawn bool
	}{
		{"one behind one in band", [3]float64{minZ * 0.5, between, 2}, true, true},
		{"all inside band", [3]float64{minZ * 0.5, between, guard * 0.99}, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			s := NewSubdivider(opts, rec)
			s.Triangle(V(-1, -1, tc.z[0], 0, 0), V(1, -1, tc.z[1], 64, 0), V(0, 2, tc.z[2], 32, 64))
			st := s.Stats()

			if got := st.Splits >= 1; got != tc.wantSplit {
				t.Errorf("split = %v, want %v (%+v)", got, tc.wantSplit, st)
			}
			if got := st.Patches > 0; got != tc.wantDrawn {
				t.Errorf("drawn = %v, want %v (%+v)", got, tc.wantDrawn, st)
			}
			if st.Discarded == 0 {
				t.Error("expected pieces near the eye to be discarded")
			}
			for _, p := range rec.patches {
				for k := range p.N {
					if p.Z[k] < minZ {
						t.Fatalf("patch vertex at z=%v lies behind the near plane", p.Z[k])
					}
				}
			}
		})
	}
}

func textureArea(p Patch) float64 {
	a, b, c := p.Texture[0], p.Texture[1], p.Texture[2]
	return math.Abs(b.Sub(a).Cross(c.Sub(a))) / 2
}

func TestSubdivideTriangleEdgeMasks(t *testing.T) {
	// One long edge with a depth change; the short edges stay under the
	// factor.
	long := func(a, b, c int) [3]Vertex {
		var vs [3]Vertex
		vs[a] = wv(0, 0, 1, 0, 0)
		vs[b] = wv(200, 0, 1.5, 64, 0)
		vs[c] = wv(200, 10, 1, 64, 8)
		return vs
	}
	// Two edges meeting at vertex i change depth; the third does not.
	apex := func(i int) [3]Vertex {
		z := [3]float64{1, 1, 1}
		z[i] = 1.5
		return [3]Vertex{
			wv(0, 0, z[0], 0, 0),
			wv(100, 100, z[1], 32, 32),
			wv(200, 0, z[2], 64, 0),
		}
	}

	tests := []struct {
		name     string
		tri      [3]Vertex
		children int
	}{
		{"edge 01", long(0, 1, 2), 2},
		{"edge 12", long(1, 2, 0), 2},
		{"edge 20", long(2, 0, 1), 2},
		{"edges 01 12", apex(1), 3},
		{"edges 01 20", apex(0), 3},
		{"edges 12 20", apex(2), 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.DepthCount = 0
			opts.MaxDepth = 1
			rec := &recorder{}
			s := NewSubdivider(opts, rec)
			s.Triangle(tc.tri[0], tc.tri[1], tc.tri[2])

			if st := s.Stats(); st.Splits != 1 || st.Patches != tc.children {
				t.Fatalf("stats = %+v, want one split into %d children", st, tc.children)
			}
			parent := textureArea(Patch{
				Texture: [4]math3d.Vec2{tc.tri[0].UV, tc.tri[1].UV, tc.tri[2].UV},
				N:       3,
			})
			sum := 0.0
			for _, p := range rec.patches {
				if p.N != 3 {
					t.Fatalf("child has %d corners, want 3", p.N)
				}
				sum += textureArea(p)
			}
			if math.Abs(sum-parent) > 1e-9 {
				t.Errorf("children cover %v of texture, want %v", sum, parent)
			}
		})
	}
}

func TestSubdivideExplicitClip(t *testing.T) {
	opts := DefaultOptions()
	opts.Clip = ClipExplicit
	opts.DepthCount = 0
	minZ := opts.MinZ

	tests := []struct {
		name    string
		v       [3]Vertex
		minWant int
	}{
		{"one behind", [3]Vertex{V(0, 0, -1, 0, 0), V(1, 0, 2, 1, 0), V(0, 1, 2, 0, 1)}, 2},
		{"two behind", [3]Vertex{V(0, 0, -1, 0, 0), V(1, 0, -1, 1, 0), V(0, 1, 2, 0, 1)}, 1},
		{"none behind", [3]Vertex{V(0, 0, 1, 0, 0), V(1, 0, 1, 1, 0), V(0, 1, 1, 0, 1)}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			s := NewSubdivider(opts, rec)
			s.Triangle(tc.v[0], tc.v[1], tc.v[2])
			if len(rec.patches) < tc.minWant {
				t.Fatalf("got %d patches, want at least %d", len(rec.patches), tc.minWant)
			}
			for _, p := range rec.patches {
				for k := range p.N {
					if p.Z[k] < minZ-1e-12 {
						t.Fatalf("clipped vertex at z=%v is behind the near plane", p.Z[k])
					}
				}
			}
		})
	}
}

func TestSubdivideExplicitQuadSplitsIntoTriangles(t *testing.T) {
	opts := DefaultOptions()
	opts.Clip = ClipExplicit
	opts.DepthCount = 1

	rec, st := subdivideQuad(opts, tiltedQuad(1, 1, 1, 1))
	if st.Patches != 2 {
		t.Fatalf("got %d patches, want 2 triangles", st.Patches)
	}
	for _, p := range rec.patches {
		if p.N != 3 {
			t.Errorf("patch has %d corners, want 3", p.N)
		}
	}
}

func TestSubdivideSeamOverlap(t *testing.T) {
	opts := DefaultOptions()
	opts.DepthCount = 2
	rec, _ := subdivideQuad(opts, tiltedQuad(1, 1, 1, 1))
	if len(rec.patches) != 4 {
		t.Fatalf("got %d patches, want 4", len(rec.patches))
	}
	// The upper-left child reaches past the vertical center line.
	ul := rec.patches[0]
	if ul.Screen[1].X <= 200 {
		t.Errorf("upper-left child stops at x=%v, want overlap past 200", ul.Screen[1].X)
	}
	// ...and the upper-right child past it the other way.
	ur := rec.patches[1]
	if ur.Screen[3].X >= 200 {
		t.Errorf("upper-right child starts at x=%v, want overlap before 200", ur.Screen[3].X)
	}
	if math.Abs(ul.Screen[1].X-202.5) > 1e-9 {
		t.Errorf("seam offset = %v, want 2.5px", ul.Screen[1].X-200)
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	got := Options{}.withDefaults()
	want := DefaultOptions()
	want.DepthCount = 0
	want.SeamMargin = 0
	if got != want {
		t.Errorf("withDefaults() = %+v, want %+v", got, want)
	}
}

func BenchmarkSubdivideQuadDepth7(b *testing.B) {
	s := NewSubdivider(DefaultOptions(), PatchFunc(func(*Patch) {}))
	q := tiltedQuad(1, 1.5, 2, 1.2)

	for b.Loop() {
		s.Quad(q[0], q[1], q[2], q[3])
	}
}

func BenchmarkSubdivideQuadAdaptive(b *testing.B) {
	opts := DefaultOptions()
	opts.DepthCount = 0
	s := NewSubdivider(opts, PatchFunc(func(*Patch) {}))
	q := tiltedQuad(0.6, 1.4, 2.5, 1.4)

	for b.Loop() {
		s.Quad(q[0], q[1], q[2], q[3])
	}
}

// BenchmarkRasterizeQuad includes the masked warp of every patch. Each
// x/image/draw call with a DstMask takes the generic path, so the cost
// grows with the patch count rather than the covered area.
func BenchmarkRasterizeQuad(b *testing.B) {
	for _, depth := range []int{0, 4, 7} {
		b.Run(fmt.Sprintf("depth=%d", depth), func(b *testing.B) {
			fb := NewFramebuffer(400, 400)
			opts := DefaultOptions()
			opts.DepthCount = depth
			r := NewRasterizer(fb)
			r.SetTexture(NewCheckerTexture(64, 64, 8, ColorWhite, ColorBlack))
			s := NewSubdivider(opts, r)
			q := tiltedQuad(1, 1.5, 2, 1.2)

			for b.Loop() {
				s.Quad(q[0], q[1], q[2], q[3])
			}
		})
	}
}
