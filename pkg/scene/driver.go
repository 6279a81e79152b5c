package scene

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/taigrr/tiltframe/pkg/math3d"
	"github.com/taigrr/tiltframe/pkg/models"
	"github.com/taigrr/tiltframe/pkg/render"
	"github.com/taigrr/tiltframe/pkg/rng"
)

// ErrEmptySurface is returned when the output surface has no pixels.
var ErrEmptySurface = errors.New("scene: empty output surface")

// Angles are the rotations applied to a generated frame, in degrees.
type Angles struct {
	X, Y, Z float64
}

// Driver renders deterministic test frames: the template quad under a
// seeded random rotation. A Driver is not safe for concurrent use.
type Driver struct {
	// Background fills each frame before the quad is drawn. Nil leaves
	// the cleared surface transparent.
	Background color.Color

	scheduler FrameScheduler
	opts      render.Options
	rand      *rng.Rand

	scene *Scene
	last  Angles
	stats render.Stats
}

// NewDriver returns a driver pacing frames with sched. A nil sched renders
// immediately.
func NewDriver(sched FrameScheduler) *Driver {
	if sched == nil {
		sched = Immediate{}
	}
	return &Driver{
		scheduler: sched,
		opts:      render.DefaultOptions(),
		rand:      rng.New(0),
	}
}

// SetOptions sets the subdivision options used for later frames.
func (d *Driver) SetOptions(opts render.Options) {
	d.opts = opts
}

// Options returns the subdivision options.
func (d *Driver) Options() render.Options {
	return d.opts
}

// Rand returns the driver's random stream. After GenerateDistortedFrame it
// continues the sequence seeded for that frame, so noise drawn from it is
// reproducible per seed.
func (d *Driver) Rand() *rng.Rand {
	return d.rand
}

// LastAngles returns the rotation applied by the last generated frame.
func (d *Driver) LastAngles() Angles {
	return d.last
}

// Stats returns the subdivision counters of the last generated frame.
func (d *Driver) Stats() render.Stats {
	return d.stats
}

// Scene returns the scene of the last generated frame, or nil.
func (d *Driver) Scene() *Scene {
	return d.scene
}

// GenerateDistortedFrame renders src onto out, tilted about X and Y by up
// to angleVariation degrees each way and rotated about Z by [0, 359)
// degrees, all drawn from the driver's stream seeded with seed. Nothing is
// drawn if the texture fails to load.
func (d *Driver) GenerateDistortedFrame(ctx context.Context, src Source, out render.Surface, angleVariation float64, seed uint64) error {
	d.rand.Seed(seed)
	env := math.Abs(angleVariation)
	a := Angles{
		X: d.rand.Range(-env, env),
		Y: d.rand.Range(-env, env),
		Z: d.rand.Range(0, 359),
	}
	render.Logger().Debug("generate frame",
		"seed", seed,
		"x", a.X,
		"y", a.Y,
		"z", a.Z,
	)
	return d.RenderFrame(ctx, src, out, a)
}

// RenderFrame renders src onto out with the object rotated by a: about
// world X, then Y, then Z. The render itself is not interrupted by ctx;
// cancellation is observed at the frame boundaries before and after it.
func (d *Driver) RenderFrame(ctx context.Context, src Source, out render.Surface, a Angles) error {
	tex, err := src.Texture(ctx)
	if err != nil {
		return fmt.Errorf("load texture: %w", err)
	}
	b := out.Bounds()
	if b.Empty() {
		return ErrEmptySurface
	}

	sc := NewScene(b.Dx(), b.Dy())
	sc.RotateObject(math3d.RotateX(radians(a.X)))
	sc.RotateObject(math3d.RotateY(radians(a.Y)))
	sc.RotateObject(math3d.RotateZ(radians(a.Z)))
	d.scene = sc
	d.last = a

	if err := d.scheduler.NextFrame(ctx); err != nil {
		return err
	}
	if err := d.renderFrame(sc, out, tex); err != nil {
		return err
	}
	return d.scheduler.NextFrame(ctx)
}

func (d *Driver) renderFrame(sc *Scene, out render.Surface, tex *render.Texture) error {
	out.ClearRect(out.Bounds())
	if d.Background != nil {
		out.FillRect(out.Bounds(), d.Background)
	}
	rc := render.NewContext(out)
	rc.SetOptions(d.opts)
	rc.SetTexture(tex)
	rc.SetTransform(offsetTransform(sc.Transform(), out))
	if err := DrawTemplate(rc, tex); err != nil {
		return err
	}
	d.stats = rc.Stats()
	return nil
}

// DrawTemplate draws the template quad textured with tex through rc.
func DrawTemplate(rc *render.Context, tex *render.Texture) error {
	vs := templateVertices(tex)
	return rc.DrawQuad(vs[0], vs[1], vs[2], vs[3])
}

func templateVertices(tex *render.Texture) [4]render.Vertex {
	q := models.TemplateQuad(tex.Width, tex.Height)
	var vs [4]render.Vertex
	for i := range vs {
		pos, uv := q.GetVertex(i)
		vs[i] = render.Vertex{Position: pos, UV: uv}
	}
	return vs
}

// offsetTransform moves window coordinates to a surface whose bounds do not
// start at the origin.
func offsetTransform(m math3d.Affine, out render.Surface) math3d.Affine {
	origin := out.Bounds().Min
	if origin.X == 0 && origin.Y == 0 {
		return m
	}
	// Window x and y are pre-divide, so the offset scales with z.
	shift := math3d.Identity()
	shift[6] = float64(origin.X)
	shift[7] = float64(origin.Y)
	return shift.Mul(m)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
