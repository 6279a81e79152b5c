package scene

import (
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/tiltframe/pkg/math3d"
)

// SpinState is the interaction state of a Spinner.
type SpinState int

const (
	// Idle: nothing moves and Tick does nothing.
	Idle SpinState = iota
	// Dragging: the pointer is down and the grabbed point follows it.
	Dragging
	// Spinning: the object coasts on its angular velocity, or the camera
	// is still zooming.
	Spinning
)

func (s SpinState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Spinning:
		return "spinning"
	}
	return "unknown"
}

const (
	dragGain      = 0.95
	spinDecay     = 0.95
	stopOmegaSq   = 1e-9
	zoomSpeed     = 2.0 // standoff units per second
	minTick       = time.Millisecond
	maxTick       = 100 * time.Millisecond
	settleEpsilon = 1e-4
)

// Spinner turns pointer and key input into object rotation and camera
// zoom on a Scene.
type Spinner struct {
	scene *Scene
	state SpinState

	omega math3d.Vec3 // radians per second, world space

	pointerX, pointerY float64
	grab               math3d.Vec3 // object space
	grabbed            bool

	zoomIn, zoomOut bool
	target          float64
	zoomVel         float64
	spring          harmonica.Spring
}

// NewSpinner returns an idle spinner acting on sc. The zoom spring is
// stepped at fps.
func NewSpinner(sc *Scene, fps int) *Spinner {
	return &Spinner{
		scene:  sc,
		target: sc.Distance(),
		// Critically damped so the camera never overshoots the target.
		spring: harmonica.NewSpring(harmonica.FPS(max(fps, 1)), 6.0, 1.0),
	}
}

// State returns the current interaction state.
func (s *Spinner) State() SpinState {
	return s.state
}

// Omega returns the angular velocity in radians per second.
func (s *Spinner) Omega() math3d.Vec3 {
	return s.omega
}

// Target returns the standoff the camera is zooming toward.
func (s *Spinner) Target() float64 {
	return s.target
}

// Press starts a drag at pointer position (x, y); see NormalizePointer.
func (s *Spinner) Press(x, y float64) {
	s.pointerX, s.pointerY = x, y
	s.grabbed = false
	s.state = Dragging
}

// Move updates the pointer position.
func (s *Spinner) Move(x, y float64) {
	s.pointerX, s.pointerY = x, y
}

// Release ends a drag. The object keeps the angular velocity of the last
// drag step.
func (s *Spinner) Release() {
	if s.state == Dragging {
		s.grabbed = false
		s.state = Spinning
	}
}

// SetZoom sets the zoom intent. While in is held the standoff target
// shrinks, while out is held it grows.
func (s *Spinner) SetZoom(in, out bool) {
	s.zoomIn, s.zoomOut = in, out
	if (in || out) && s.state == Idle {
		s.state = Spinning
	}
}

// Impulse adds axis (radians per second) to the angular velocity.
func (s *Spinner) Impulse(axis math3d.Vec3) {
	s.omega = s.omega.Add(axis)
	if s.state == Idle {
		s.state = Spinning
	}
}

// Reset stops all motion and restores the scene defaults.
func (s *Spinner) Reset() {
	s.scene.Reset()
	s.omega = math3d.Vec3{}
	s.grabbed = false
	s.target = s.scene.Distance()
	s.zoomVel = 0
	s.state = Idle
}

// Tick advances the animation by dt, clamped to [1ms, 100ms]. It reports
// whether the spinner is still active; once it returns false the scene is
// at rest until the next input.
func (s *Spinner) Tick(dt time.Duration) bool {
	if s.state == Idle {
		return false
	}
	dt = min(max(dt, minTick), maxTick)
	sec := dt.Seconds()

	s.stepZoom(sec)

	if s.state == Dragging {
		s.stepDrag(sec)
		return true
	}

	s.omega = s.omega.Scale(spinDecay)
	if s.omega.LenSq() < stopOmegaSq && !s.zoomIn && !s.zoomOut && s.zoomSettled() {
		s.omega = math3d.Vec3{}
		s.zoomVel = 0
		s.scene.SetDistance(s.target)
		s.state = Idle
		return false
	}
	s.scene.RotateObjectScaledAxis(s.omega.Scale(sec))
	return true
}

func (s *Spinner) stepZoom(sec float64) {
	if s.zoomIn {
		s.target -= zoomSpeed * sec
	}
	if s.zoomOut {
		s.target += zoomSpeed * sec
	}
	s.target = max(s.target, 0)

	d, v := s.spring.Update(s.scene.Distance(), s.zoomVel, s.target)
	s.zoomVel = v
	s.scene.SetDistance(d)
}

func (s *Spinner) zoomSettled() bool {
	diff := s.scene.Distance() - s.target
	return diff*diff < settleEpsilon*settleEpsilon && s.zoomVel*s.zoomVel < settleEpsilon*settleEpsilon
}

// stepDrag rotates the object so the grabbed point moves toward the point
// now under the pointer.
func (s *Spinner) stepDrag(sec float64) {
	p, ok := s.scene.SpherePoint(s.pointerX, s.pointerY)
	if !ok {
		return
	}
	obj := s.scene.Object()
	if !s.grabbed {
		s.grab = obj.ApplyInverseRotation(p)
		s.grabbed = true
	}
	from := obj.ApplyRotation(s.grab)
	axis := from.Cross(p).Scale(dragGain)
	s.scene.RotateObjectScaledAxis(axis)
	s.omega = axis.Scale(1 / sec)
}
