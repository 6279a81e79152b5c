package render

import (
	"errors"
	"image"
	"image/color"

	"github.com/taigrr/tiltframe/pkg/math3d"
)

// ErrNoTexture is returned when drawing textured geometry without a bound
// texture.
var ErrNoTexture = errors.New("render: no texture bound")

// Surface is a 2-D raster target whose only image primitive is an affine
// warp clipped to a polygon.
type Surface interface {
	// Bounds returns the pixel extent of the surface.
	Bounds() image.Rectangle
	// FillRect blends c over r.
	FillRect(r image.Rectangle, c color.Color)
	// ClearRect resets r to transparent black.
	ClearRect(r image.Rectangle)
	// DrawWarped draws tex through the texture-to-screen warp w, limited to
	// the screen polygon clip. Degenerate warps draw nothing.
	DrawWarped(clip []math3d.Vec2, w Warp, tex *Texture)
}
