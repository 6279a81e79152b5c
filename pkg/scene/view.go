package scene

import (
	"github.com/taigrr/tiltframe/pkg/math3d"
	"github.com/taigrr/tiltframe/pkg/render"
)

// View is the interactive viewer state shared by the terminal and window
// front ends: a scene, the spinner driving it and how frames are drawn.
type View struct {
	Scene   *Scene
	Spinner *Spinner

	// Wireframe overlays the subdivision patch outlines.
	Wireframe  bool
	Background render.Color

	tex   *render.Texture
	opts  render.Options
	stats render.Stats
}

// NewView returns a view of tex for a width x height framebuffer, tilted
// toward the camera by the first step of a rotation about X.
func NewView(tex *render.Texture, width, height, fps int) *View {
	sc := NewScene(width, height)
	v := &View{
		Scene:      sc,
		Spinner:    NewSpinner(sc, fps),
		Background: render.RGB(30, 30, 40),
		tex:        tex,
		opts:       render.DefaultOptions(),
	}
	sc.RotateObjectScaledAxis(math3d.V3(1, 0, 0))
	return v
}

// SetOptions sets the subdivision options for later frames.
func (v *View) SetOptions(opts render.Options) {
	v.opts = opts
}

// Options returns the subdivision options.
func (v *View) Options() render.Options {
	return v.opts
}

// Stats returns the subdivision counters of the last frame.
func (v *View) Stats() render.Stats {
	return v.stats
}

// Resize retargets the scene to a new framebuffer size.
func (v *View) Resize(width, height int) {
	v.Scene.Resize(width, height)
}

// Reset restores the initial view.
func (v *View) Reset() {
	v.Spinner.Reset()
	v.Scene.RotateObjectScaledAxis(math3d.V3(1, 0, 0))
}

// axisLength is the length of the object axes drawn in wireframe mode.
const axisLength = 0.5

// Render draws the current frame onto fb. In wireframe mode the patch
// outlines and object axes are drawn over the textured quad.
func (v *View) Render(fb *render.Framebuffer) error {
	fb.Clear(v.Background)
	rc := render.NewContext(fb)
	rc.SetOptions(v.opts)
	rc.SetTexture(v.tex)
	rc.SetTransform(v.Scene.Transform())
	if err := DrawTemplate(rc, v.tex); err != nil {
		return err
	}
	v.stats = rc.Stats()
	if v.Wireframe {
		vs := templateVertices(v.tex)
		wf := render.NewWireframe(rc, fb)
		wf.DrawQuad(vs[0], vs[1], vs[2], vs[3])
		wf.DrawAxes(axisLength)
	}
	return nil
}
