package render

import (
	"math"
	"testing"

	"github.com/taigrr/tiltframe/pkg/math3d"
)

func vec2Near(a, b math3d.Vec2, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

func TestWarpFromTriangles(t *testing.T) {
	tests := []struct {
		name string
		src  [3]math3d.Vec2
		dst  [3]math3d.Vec2
	}{
		{
			name: "identity",
			src:  [3]math3d.Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}},
			dst:  [3]math3d.Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}},
		},
		{
			name: "scale and translate",
			src:  [3]math3d.Vec2{{X: 0, Y: 0}, {X: 64, Y: 0}, {X: 64, Y: 64}},
			dst:  [3]math3d.Vec2{{X: 20, Y: 30}, {X: 52, Y: 30}, {X: 52, Y: 62}},
		},
		{
			name: "rotated and sheared",
			src:  [3]math3d.Vec2{{X: 3, Y: 7}, {X: 120, Y: 15}, {X: 40, Y: 90}},
			dst:  [3]math3d.Vec2{{X: 200, Y: 10}, {X: 150, Y: 180}, {X: 20, Y: 60}},
		},
		{
			name: "mirrored",
			src:  [3]math3d.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
			dst:  [3]math3d.Vec2{{X: 5, Y: 5}, {X: 5, Y: 9}, {X: 9, Y: 5}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, ok := WarpFromTriangles(tc.src, tc.dst)
			if !ok {
				t.Fatal("WarpFromTriangles reported a degenerate source")
			}
			for i := range 3 {
				if got := w.Apply(tc.src[i]); !vec2Near(got, tc.dst[i], 1e-9) {
					t.Errorf("point %d: warp(%v) = %v, want %v", i, tc.src[i], got, tc.dst[i])
				}
			}
		})
	}
}

func TestWarpFromTrianglesDegenerate(t *testing.T) {
	tests := []struct {
		name string
		src  [3]math3d.Vec2
	}{
		{"collinear", [3]math3d.Vec2{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}},
		{"repeated point", [3]math3d.Vec2{{X: 4, Y: 4}, {X: 4, Y: 4}, {X: 0, Y: 9}}},
		{"single point", [3]math3d.Vec2{{X: 1, Y: 2}, {X: 1, Y: 2}, {X: 1, Y: 2}}},
	}
	dst := [3]math3d.Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := WarpFromTriangles(tc.src, dst); ok {
				t.Error("expected degenerate source to be rejected")
			}
		})
	}
}

func TestWarpInvert(t *testing.T) {
	w := Warp{A: 2, B: 0.5, C: 10, D: -0.25, E: 1.5, F: -3}
	inv, ok := w.Invert()
	if !ok {
		t.Fatal("Invert failed on an invertible warp")
	}
	for _, p := range []math3d.Vec2{{X: 0, Y: 0}, {X: 12, Y: -7}, {X: 0.5, Y: 99}} {
		if got := inv.Apply(w.Apply(p)); !vec2Near(got, p, 1e-9) {
			t.Errorf("inv(w(%v)) = %v", p, got)
		}
	}

	if _, ok := (Warp{A: 1, B: 2, D: 2, E: 4}).Invert(); ok {
		t.Error("Invert should fail for a singular warp")
	}
	if _, ok := (Warp{A: math.Inf(1), E: 1}).Invert(); ok {
		t.Error("Invert should fail for an infinite warp")
	}
}

func TestWarpAff3Layout(t *testing.T) {
	w := Warp{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6}
	a := w.Aff3()
	for i, want := range []float64{1, 2, 3, 4, 5, 6} {
		if a[i] != want {
			t.Errorf("Aff3()[%d] = %v, want %v", i, a[i], want)
		}
	}
}

func TestBisectFat(t *testing.T) {
	a := V(0, 0, 1, 0, 0)
	b := V(100, 0, 1, 50, 0)

	t.Run("straddles midpoint", func(t *testing.T) {
		toB, toA := BisectFat(a, b, 100, 5)
		if math.Abs(toB.Position.X-52.5) > 1e-9 || math.Abs(toA.Position.X-47.5) > 1e-9 {
			t.Errorf("got %v and %v, want x=52.5 and x=47.5", toB.Position.X, toA.Position.X)
		}
		if math.Abs(toB.UV.X-26.25) > 1e-9 {
			t.Errorf("texture coordinate not interpolated with position: %v", toB.UV)
		}
	})

	t.Run("offset capped on short edges", func(t *testing.T) {
		toB, toA := BisectFat(a, b, 2, 5)
		if math.Abs(toB.Position.X-75) > 1e-9 || math.Abs(toA.Position.X-25) > 1e-9 {
			t.Errorf("got %v and %v, want quarter points", toB.Position.X, toA.Position.X)
		}
	})

	t.Run("zero length edge", func(t *testing.T) {
		toB, toA := BisectFat(a, b, 0, 5)
		mid := Bisect(a, b)
		if toB != mid || toA != mid {
			t.Errorf("got %v and %v, want midpoint %v", toB, toA, mid)
		}
	})
}
