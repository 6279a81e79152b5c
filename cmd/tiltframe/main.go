// tiltframe - perspective test frame generator
// Renders a code template under seeded random tilts to PNG files, or spins
// it interactively in the terminal.
//
// Controls (-view):
//
//	Mouse drag  - Grab and rotate the template
//	A/Z         - Zoom in/out (hold)
//	W           - Toggle patch wireframe
//	Space       - Random spin
//	R           - Reset view
//	Esc/Q       - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/tiltframe/pkg/math3d"
	"github.com/taigrr/tiltframe/pkg/render"
	"github.com/taigrr/tiltframe/pkg/rng"
	"github.com/taigrr/tiltframe/pkg/scene"
)

var (
	texturePath = flag.String("texture", "", "Template image (PNG/JPG/GLB); a quadrant test pattern if empty")
	outDir      = flag.String("out", "frames", "Output directory for generated frames")
	numFrames   = flag.Int("n", 1, "Number of frames to generate")
	seed        = flag.Uint64("seed", 0, "Seed of the first frame; frame i uses seed+i")
	angle       = flag.Float64("angle", 30, "Maximum X/Y tilt in degrees")
	noise       = flag.Float64("noise", 0, "Maximum noise opacity (0-1)")
	size        = flag.Int("size", 350, "Frame width and height in pixels")
	factor      = flag.Float64("factor", 10, "Subdivide factor (smaller subdivides more)")
	depth       = flag.Int("depth", 7, "Forced subdivision depth (0 = adaptive)")
	clipMode    = flag.String("clip", "recursive", "Near-plane clipping: recursive or explicit")
	view        = flag.Bool("view", false, "Interactive terminal viewer")
	targetFPS   = flag.Int("fps", 60, "Target FPS for -view")
	verbose     = flag.Bool("v", false, "Debug logging to stderr")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "tiltframe - perspective test frame generator\n\n")
		fmt.Fprintf(os.Stderr, "Usage: tiltframe [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls (-view):\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Rotate template\n")
		fmt.Fprintf(os.Stderr, "  A/Z         - Zoom in/out\n")
		fmt.Fprintf(os.Stderr, "  W           - Toggle wireframe\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  Esc/Q       - Quit\n")
	}
	flag.Parse()

	if *verbose {
		render.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	opts, err := options()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *view {
		err = runView(ctx, opts)
	} else {
		err = generate(ctx, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func options() (render.Options, error) {
	opts := render.DefaultOptions()
	opts.SubdivideFactor = *factor
	opts.DepthCount = *depth
	switch *clipMode {
	case "recursive":
		opts.Clip = render.ClipRecursive
	case "explicit":
		opts.Clip = render.ClipExplicit
	default:
		return opts, fmt.Errorf("unknown clip mode %q", *clipMode)
	}
	return opts, nil
}

func source() scene.Source {
	if *texturePath != "" {
		return scene.FileSource(*texturePath)
	}
	tex := render.NewQuadrantTexture(200, 200, render.ColorRed, render.ColorGreen, render.ColorBlue, render.ColorYellow)
	return scene.ImageSource(tex.Image)
}

func generate(ctx context.Context, opts render.Options) error {
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	src := source()
	driver := scene.NewDriver(scene.Immediate{})
	driver.SetOptions(opts)
	driver.Background = render.ColorWhite

	for i := range *numFrames {
		fb := render.NewFramebuffer(*size, *size)
		s := *seed + uint64(i)
		if err := driver.GenerateDistortedFrame(ctx, src, fb, *angle, s); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		render.AddNoise(fb, *noise, driver.Rand())

		path := filepath.Join(*outDir, fmt.Sprintf("frame_%03d.png", i))
		if err := fb.SavePNG(path); err != nil {
			return err
		}
		a := driver.LastAngles()
		st := driver.Stats()
		fmt.Printf("%s seed=%d x=%.2f y=%.2f z=%.2f patches=%d\n", path, s, a.X, a.Y, a.Z, st.Patches)
	}
	return nil
}

func runView(ctx context.Context, opts render.Options) error {
	tex, err := source().Texture(ctx)
	if err != nil {
		return fmt.Errorf("load texture: %w", err)
	}

	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	// Each cell shows two pixel rows.
	fb := render.NewTerminalFramebuffer(width, height)
	v := scene.NewView(tex, fb.Width, fb.Height, *targetFPS)
	v.SetOptions(opts)
	r := rng.New(uint64(time.Now().UnixNano()))

	pointer := func(x, y int) (float64, float64) {
		// Cell centers, in pixel units.
		return scene.NormalizePointer(float64(x)+0.5, float64(y)*2+1, float64(fb.Width), float64(fb.Height))
	}

	var zoomIn, zoomOut bool
	// Terminals rarely report key releases; a held key repeats instead.
	var zoomUntil time.Time
	const zoomHold = 150 * time.Millisecond

	ticker := time.NewTicker(time.Second / time.Duration(max(*targetFPS, 1)))
	defer ticker.Stop()
	last := time.Now()
	dirty := true

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-term.Events():
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				fb = render.NewTerminalFramebuffer(width, height)
				v.Resize(fb.Width, fb.Height)

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape", "q", "ctrl+c"):
					return nil
				case ev.MatchString("a"):
					zoomIn, zoomOut = true, false
					zoomUntil = time.Now().Add(zoomHold)
				case ev.MatchString("z"):
					zoomIn, zoomOut = false, true
					zoomUntil = time.Now().Add(zoomHold)
				case ev.MatchString("w"):
					v.Wireframe = !v.Wireframe
				case ev.MatchString("r"):
					v.Reset()
				case ev.MatchString("space"):
					v.Spinner.Impulse(math3d.V3(r.Range(-3, 3), r.Range(-3, 3), r.Range(-3, 3)))
				}
				v.Spinner.SetZoom(zoomIn, zoomOut)

			case uv.KeyReleaseEvent:
				if ev.MatchString("a", "z") {
					zoomIn, zoomOut = false, false
					v.Spinner.SetZoom(false, false)
				}

			case uv.MouseClickEvent:
				v.Spinner.Press(pointer(ev.X, ev.Y))

			case uv.MouseMotionEvent:
				v.Spinner.Move(pointer(ev.X, ev.Y))

			case uv.MouseReleaseEvent:
				v.Spinner.Release()
			}
			dirty = true

		case now := <-ticker.C:
			if (zoomIn || zoomOut) && now.After(zoomUntil) {
				zoomIn, zoomOut = false, false
				v.Spinner.SetZoom(false, false)
			}
			// The stopping tick still moves the camera onto its target.
			active := v.Spinner.State() != scene.Idle
			if v.Spinner.Tick(now.Sub(last)) || active {
				dirty = true
			}
			last = now
			if !dirty {
				continue
			}
			dirty = false

			if err := v.Render(fb); err != nil {
				return err
			}
			fb.Draw(term, term.Bounds())
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
		}
	}
}
