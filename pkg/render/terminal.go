package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// halfBlock shows the top pixel of a cell in the foreground and the bottom
// one in the background.
const halfBlock = "▀"

// NewTerminalFramebuffer returns a framebuffer covering cols x rows
// terminal cells, two pixel rows per cell.
func NewTerminalFramebuffer(cols, rows int) *Framebuffer {
	return NewFramebuffer(cols, rows*2)
}

// Draw implements uv.Drawable. Pixel (x, 2y) lands in cell
// (area.Min.X+x, area.Min.Y+y); cells past the framebuffer are left alone.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	rows := min(area.Dy(), (fb.Height+1)/2)
	cols := min(area.Dx(), fb.Width)
	for y := range rows {
		for x := range cols {
			scr.SetCell(area.Min.X+x, area.Min.Y+y, &uv.Cell{
				Content: halfBlock,
				Width:   1,
				Style: uv.Style{
					Fg: cellColor(fb.GetPixel(x, 2*y)),
					Bg: cellColor(fb.GetPixel(x, 2*y+1)),
				},
			})
		}
	}
}

// cellColor converts a premultiplied pixel to an opaque terminal color.
// Fully transparent pixels, such as those left by ClearRect, use the
// terminal's default color; antialiased edges keep their hue.
func cellColor(c color.RGBA) color.Color {
	switch c.A {
	case 0:
		return nil
	case 0xff:
		return c
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return color.RGBA{n.R, n.G, n.B, 0xff}
}

// Color is an alias for color.RGBA for convenience.
type Color = color.RGBA

var (
	ColorBlack  = color.RGBA{0, 0, 0, 255}
	ColorWhite  = color.RGBA{255, 255, 255, 255}
	ColorRed    = color.RGBA{255, 0, 0, 255}
	ColorGreen  = color.RGBA{0, 255, 0, 255}
	ColorBlue   = color.RGBA{0, 0, 255, 255}
	ColorYellow = color.RGBA{255, 255, 0, 255}
	ColorGray   = color.RGBA{128, 128, 128, 255}
	// ColorOutline strokes wireframe patches; it is premultiplied.
	ColorOutline = color.RGBA{180, 180, 180, 180}
)

// RGB creates an opaque color.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}
