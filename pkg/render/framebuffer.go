// Package render implements the software rasterizer for tiltframe: a raster
// surface whose only image primitive is a polygon-clipped affine warp, and
// the adaptive subdivision that approximates perspective with it.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/taigrr/tiltframe/pkg/math3d"
)

// Framebuffer is the software Surface. It can also be shown in a terminal
// using half-block characters (see Draw), in which case Height should be
// 2x the terminal rows.
type Framebuffer struct {
	Width  int
	Height int

	img  *image.RGBA
	rast vector.Rasterizer
	mask []uint8 // reused clip mask storage
	poly [2][]math3d.Vec2
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Bounds returns the framebuffer extent.
func (fb *Framebuffer) Bounds() image.Rectangle {
	return fb.img.Rect
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	draw.Draw(fb.img, fb.img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
}

// FillRect blends c over r.
func (fb *Framebuffer) FillRect(r image.Rectangle, c color.Color) {
	draw.Draw(fb.img, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// ClearRect resets r to transparent black.
func (fb *Framebuffer) ClearRect(r image.Rectangle) {
	draw.Draw(fb.img, r, image.Transparent, image.Point{}, draw.Src)
}

// SetPixel sets a pixel at (x, y) to the given color.
// Out of bounds writes are ignored.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	fb.img.SetRGBA(x, y, c)
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	return fb.img.RGBAAt(x, y)
}

// DrawLine draws a line from (x0, y0) to (x1, y1) using Bresenham's algorithm.
// Colors with partial alpha are blended over the existing pixels.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		fb.plot(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (fb *Framebuffer) plot(x, y int, c color.RGBA) {
	if c.A == 0xff {
		fb.img.SetRGBA(x, y, c)
		return
	}
	if !(image.Point{x, y}).In(fb.img.Rect) {
		return
	}
	d := fb.img.RGBAAt(x, y)
	a := 0xff - uint32(c.A)
	fb.img.SetRGBA(x, y, color.RGBA{
		R: uint8(uint32(c.R) + uint32(d.R)*a/0xff),
		G: uint8(uint32(c.G) + uint32(d.G)*a/0xff),
		B: uint8(uint32(c.B) + uint32(d.B)*a/0xff),
		A: uint8(uint32(c.A) + uint32(d.A)*a/0xff),
	})
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// DrawWarped draws tex through w, clipped to the polygon clip. Coverage of
// the polygon edges is antialiased. Nothing is drawn when the warp is not
// invertible or the polygon misses the framebuffer.
func (fb *Framebuffer) DrawWarped(clip []math3d.Vec2, w Warp, tex *Texture) {
	if len(clip) < 3 || tex == nil {
		return
	}
	if _, ok := w.Invert(); !ok {
		return
	}
	r, ok := fb.clipBounds(clip)
	if !ok {
		return
	}
	poly := fb.clipToRect(clip, r)
	if len(poly) < 3 {
		return
	}

	mask := fb.clipMask(r, poly)
	dst := fb.img.SubImage(r).(*image.RGBA)
	tex.transformer().Transform(dst, w.Aff3(), tex.Image, tex.Image.Rect, xdraw.Over, &xdraw.Options{
		DstMask: mask,
	})
}

// clipBounds returns the pixel bounding box of the polygon, limited to the
// framebuffer.
func (fb *Framebuffer) clipBounds(clip []math3d.Vec2) (image.Rectangle, bool) {
	minX, minY := clip[0].X, clip[0].Y
	maxX, maxY := minX, minY
	for _, p := range clip[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	b := fb.img.Rect
	minX = math.Max(minX, float64(b.Min.X))
	minY = math.Max(minY, float64(b.Min.Y))
	maxX = math.Min(maxX, float64(b.Max.X))
	maxY = math.Min(maxY, float64(b.Max.Y))
	// Negated so NaN coordinates are rejected too.
	if !(minX < maxX) || !(minY < maxY) {
		return image.Rectangle{}, false
	}
	r := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
	return r, !r.Empty()
}

// clipToRect clips the polygon to r grown by one pixel. The rasterizer
// works in fixed point and cannot take points far outside the mask.
// Polygons with non-finite points yield nil.
func (fb *Framebuffer) clipToRect(clip []math3d.Vec2, r image.Rectangle) []math3d.Vec2 {
	for _, p := range clip {
		if math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) || math.IsNaN(p.X) || math.IsNaN(p.Y) {
			return nil
		}
	}
	minX, minY := float64(r.Min.X-1), float64(r.Min.Y-1)
	maxX, maxY := float64(r.Max.X+1), float64(r.Max.Y+1)

	in := append(fb.poly[0][:0], clip...)
	out := fb.poly[1][:0]
	edges := [4]func(math3d.Vec2) float64{
		func(p math3d.Vec2) float64 { return p.X - minX },
		func(p math3d.Vec2) float64 { return maxX - p.X },
		func(p math3d.Vec2) float64 { return p.Y - minY },
		func(p math3d.Vec2) float64 { return maxY - p.Y },
	}
	for _, dist := range edges {
		out = clipEdge(out[:0], in, dist)
		in, out = out, in
	}
	fb.poly[0], fb.poly[1] = in, out

	// Intersections can land a rounding error outside the box.
	for i, p := range in {
		in[i] = math3d.Vec2{
			X: math.Min(math.Max(p.X, minX), maxX),
			Y: math.Min(math.Max(p.Y, minY), maxY),
		}
	}
	return in
}

// clipEdge appends to dst the part of poly where dist is non-negative.
func clipEdge(dst, poly []math3d.Vec2, dist func(math3d.Vec2) float64) []math3d.Vec2 {
	if len(poly) == 0 {
		return dst
	}
	prev := poly[len(poly)-1]
	dPrev := dist(prev)
	for _, p := range poly {
		d := dist(p)
		if (d >= 0) != (dPrev >= 0) {
			t := dPrev / (dPrev - d)
			dst = append(dst, math3d.Vec2{
				X: prev.X + (p.X-prev.X)*t,
				Y: prev.Y + (p.Y-prev.Y)*t,
			})
		}
		if d >= 0 {
			dst = append(dst, p)
		}
		prev, dPrev = p, d
	}
	return dst
}

// clipMask rasterizes the polygon into an alpha mask covering r, in
// framebuffer coordinates.
func (fb *Framebuffer) clipMask(r image.Rectangle, clip []math3d.Vec2) *image.Alpha {
	w, h := r.Dx(), r.Dy()
	n := w * h
	if cap(fb.mask) < n {
		fb.mask = make([]uint8, n)
	}
	pix := fb.mask[:n]
	clear(pix)
	mask := &image.Alpha{Pix: pix, Stride: w, Rect: r}

	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	fb.rast.Reset(w, h)
	fb.rast.MoveTo(float32(clip[0].X-ox), float32(clip[0].Y-oy))
	for _, p := range clip[1:] {
		fb.rast.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	fb.rast.ClosePath()
	fb.rast.Draw(mask, r, image.Opaque, image.Point{})
	return mask
}

// Image returns the framebuffer's backing image. It is not a copy.
func (fb *Framebuffer) Image() *image.RGBA {
	return fb.img
}

// ToImage returns a copy of the framebuffer as a standard image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(fb.img.Rect)
	copy(img.Pix, fb.img.Pix)
	return img
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, fb.img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
