package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"

	xdraw "golang.org/x/image/draw"
)

// FilterMode determines how the texture is resampled when warped.
type FilterMode int

const (
	FilterNearest  FilterMode = iota // Nearest-neighbor (pixelated)
	FilterBilinear                   // Bilinear interpolation (smooth)
)

// Texture is a source image addressed in pixel coordinates: (0, 0) is the
// upper-left corner and (Width, Height) the lower-right.
type Texture struct {
	Width  int
	Height int
	Image  *image.RGBA
	Filter FilterMode
}

// NewTexture creates an empty texture with the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Image:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// LoadTexture loads a texture from a PNG or JPEG file.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return TextureFromImage(img), nil
}

// TextureFromImage creates a texture from an image.Image. The image is
// copied and rebased so its upper-left pixel is (0, 0).
func TextureFromImage(img image.Image) *Texture {
	b := img.Bounds()
	tex := NewTexture(b.Dx(), b.Dy())
	draw.Draw(tex.Image, tex.Image.Bounds(), img, b.Min, draw.Src)
	return tex
}

// NewCheckerTexture creates a procedural checkerboard texture.
func NewCheckerTexture(width, height, checkSize int, c1, c2 Color) *Texture {
	tex := NewTexture(width, height)
	for y := range height {
		for x := range width {
			if (x/checkSize+y/checkSize)%2 == 0 {
				tex.SetPixel(x, y, c1)
			} else {
				tex.SetPixel(x, y, c2)
			}
		}
	}
	return tex
}

// NewQuadrantTexture creates a texture split into four solid quadrants:
// topLeft, topRight, bottomLeft and bottomRight. Orientation and
// foreshortening are easy to measure on it.
func NewQuadrantTexture(width, height int, topLeft, topRight, bottomLeft, bottomRight Color) *Texture {
	tex := NewTexture(width, height)
	halfW, halfH := width/2, height/2
	fill := func(r image.Rectangle, c Color) {
		draw.Draw(tex.Image, r, image.NewUniform(c), image.Point{}, draw.Src)
	}
	fill(image.Rect(0, 0, halfW, halfH), topLeft)
	fill(image.Rect(halfW, 0, width, halfH), topRight)
	fill(image.Rect(0, halfH, halfW, height), bottomLeft)
	fill(image.Rect(halfW, halfH, width, height), bottomRight)
	return tex
}

// SetPixel sets a pixel in the texture.
func (t *Texture) SetPixel(x, y int, c Color) {
	t.Image.SetRGBA(x, y, c)
}

// GetPixel returns the pixel at (x, y), or transparent black outside the
// texture.
func (t *Texture) GetPixel(x, y int) Color {
	return t.Image.RGBAAt(x, y)
}

// Bounds returns the texture extent.
func (t *Texture) Bounds() image.Rectangle {
	return t.Image.Bounds()
}

// ColorModel implements image.Image.
func (t *Texture) ColorModel() color.Model { return color.RGBAModel }

// At implements image.Image.
func (t *Texture) At(x, y int) color.Color { return t.Image.At(x, y) }

// transformer returns the resampler matching the filter mode.
func (t *Texture) transformer() xdraw.Transformer {
	if t.Filter == FilterBilinear {
		return xdraw.ApproxBiLinear
	}
	return xdraw.NearestNeighbor
}
