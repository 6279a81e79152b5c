package render

import (
	"image"
	"image/color"
)

// Random is a source of uniform samples in [0, 1).
type Random interface {
	Next() float64
}

// AddNoise covers every pixel of s with grey noise. Each pixel draws a grey
// level and then an opacity in [0, maxOpacity) from r, in row-major order,
// so a seeded source gives reproducible noise. maxOpacity <= 0 draws
// nothing and consumes no samples.
func AddNoise(s Surface, maxOpacity float64, r Random) {
	if maxOpacity <= 0 {
		return
	}
	maxOpacity = min(maxOpacity, 1)
	b := s.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			grey := r.Next() * 255
			alpha := r.Next() * maxOpacity
			// color.RGBA is premultiplied.
			v := uint8(grey * alpha)
			s.FillRect(image.Rect(x, y, x+1, y+1), color.RGBA{v, v, v, uint8(alpha * 255)})
		}
	}
}
