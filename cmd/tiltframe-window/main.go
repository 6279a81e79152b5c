// tiltframe-window - windowed perspective viewer
// Spins a code template in a desktop window with the same controls as
// tiltframe -view.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/taigrr/tiltframe/pkg/math3d"
	"github.com/taigrr/tiltframe/pkg/render"
	"github.com/taigrr/tiltframe/pkg/rng"
	"github.com/taigrr/tiltframe/pkg/scene"
)

var (
	texturePath = flag.String("texture", "", "Template image (PNG/JPG/GLB); a checker pattern if empty")
	size        = flag.Int("size", 512, "Window width and height in pixels")
	factor      = flag.Float64("factor", 10, "Subdivide factor (smaller subdivides more)")
	depth       = flag.Int("depth", 0, "Forced subdivision depth (0 = adaptive)")
	verbose     = flag.Bool("v", false, "Debug logging to stderr")
)

// Viewer implements ebiten.Game.
type Viewer struct {
	view   *scene.View
	fb     *render.Framebuffer
	screen *ebiten.Image
	rand   *rng.Rand
	dirty  bool
	hud    bool
}

func NewViewer(tex *render.Texture, width, height int, opts render.Options) *Viewer {
	v := scene.NewView(tex, width, height, ebiten.TPS())
	v.SetOptions(opts)
	return &Viewer{
		view:   v,
		fb:     render.NewFramebuffer(width, height),
		screen: ebiten.NewImage(width, height),
		rand:   rng.New(uint64(time.Now().UnixNano())),
		dirty:  true,
		hud:    true,
	}
}

func (g *Viewer) pointer() (float64, float64) {
	x, y := ebiten.CursorPosition()
	return scene.NormalizePointer(float64(x), float64(y), float64(g.fb.Width), float64(g.fb.Height))
}

func (g *Viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	sp := g.view.Spinner
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		sp.Press(g.pointer())
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		sp.Release()
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		sp.Move(g.pointer())
	}

	sp.SetZoom(ebiten.IsKeyPressed(ebiten.KeyA), ebiten.IsKeyPressed(ebiten.KeyZ))

	if inpututil.IsKeyJustPressed(ebiten.KeyW) {
		g.view.Wireframe = !g.view.Wireframe
		g.dirty = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.view.Reset()
		g.dirty = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		sp.Impulse(math3d.V3(g.rand.Range(-3, 3), g.rand.Range(-3, 3), g.rand.Range(-3, 3)))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySlash) {
		g.hud = !g.hud
	}

	active := sp.State() != scene.Idle
	if sp.Tick(time.Second/time.Duration(ebiten.TPS())) || active {
		g.dirty = true
	}
	return nil
}

func (g *Viewer) Draw(screen *ebiten.Image) {
	if g.dirty {
		if err := g.view.Render(g.fb); err != nil {
			render.Logger().Error("render", "err", err)
		}
		g.screen.WritePixels(g.fb.Image().Pix)
		g.dirty = false
	}
	screen.DrawImage(g.screen, nil)

	if g.hud {
		st := g.view.Stats()
		ebitenutil.DebugPrint(screen, fmt.Sprintf(
			"FPS: %.0f | %s | patches %d splits %d discarded %d\n"+
				"distance %.2f | [Drag] Rotate [A/Z] Zoom [W] Wireframe [Space] Spin [R] Reset [/] HUD",
			ebiten.ActualFPS(), g.view.Spinner.State(),
			st.Patches, st.Splits, st.Discarded,
			g.view.Scene.Distance(),
		))
	}
}

func (g *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.fb.Width, g.fb.Height
}

func main() {
	flag.Parse()

	if *verbose {
		render.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	var tex *render.Texture
	if *texturePath != "" {
		var err error
		tex, err = scene.FileSource(*texturePath).Texture(context.Background())
		if err != nil {
			log.Fatalf("load texture: %v", err)
		}
	} else {
		tex = render.NewCheckerTexture(256, 256, 32, render.RGB(230, 230, 230), render.RGB(40, 40, 40))
		tex.Filter = render.FilterBilinear
	}

	opts := render.DefaultOptions()
	opts.SubdivideFactor = *factor
	opts.DepthCount = *depth

	ebiten.SetWindowSize(*size, *size)
	ebiten.SetWindowTitle("tiltframe")
	ebiten.SetVsyncEnabled(true)

	if err := ebiten.RunGame(NewViewer(tex, *size, *size, opts)); err != nil {
		log.Fatal(err)
	}
}
