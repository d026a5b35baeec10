package render

import (
	"github.com/ohnishi-git-dev/CloudPeek/camera"
)

// GridRotationSpeed is the grid spin rate for held rotation keys, in
// degrees per second.
const GridRotationSpeed = 50.0

// FrameInput is what one input step decided: window side effects the
// renderer must apply, and whether termination was requested.
type FrameInput struct {
	Quit           bool
	CaptureChanged bool
	Captured       bool
	Resized        bool
	Width, Height  int
}

// InputState folds event records into camera and grid state. It tracks
// held keys itself because panning and grid spin continue while a key is
// down, scaled by frame time rather than by event count.
type InputState struct {
	held         map[Control]bool
	captured     bool
	firstMouse   bool
	lastX, lastY float64
}

// NewInputState returns an input state with nothing held and the cursor
// not captured.
func NewInputState() *InputState {
	return &InputState{held: map[Control]bool{}}
}

// Captured reports whether cursor capture mode is on.
func (s *InputState) Captured() bool {
	return s.captured
}

// Process consumes one frame's buffered events, then applies held-key
// motion for the elapsed frame time dt in seconds.
func (s *InputState) Process(events []Event, cam *camera.Camera, grid *GridRotation, dt float64) FrameInput {
	var out FrameInput
	for _, ev := range events {
		switch ev.Type {
		case KeyPress:
			s.held[ev.Control] = true
			switch ev.Control {
			case KeyF1:
				s.captured = !s.captured
				out.CaptureChanged = true
				out.Captured = s.captured
				if s.captured {
					// Seed from the next cursor sample instead of jumping.
					s.firstMouse = true
				}
			case KeyR:
				cam.Reset()
			case KeyEscape:
				out.Quit = true
			}
		case KeyRelease:
			delete(s.held, ev.Control)
		case CursorMove:
			s.cursorMove(ev.X, ev.Y, cam)
		case Scroll:
			cam.Zoom(ev.Y)
		case Resize:
			out.Resized = true
			out.Width = int(ev.X)
			out.Height = int(ev.Y)
		}
	}

	pan := camera.PanSpeed * dt
	if s.held[KeyA] || s.held[KeyLeft] {
		cam.Pan(-pan, 0)
	}
	if s.held[KeyD] || s.held[KeyRight] {
		cam.Pan(pan, 0)
	}
	if s.held[KeyW] || s.held[KeyUp] {
		cam.Pan(0, pan)
	}
	if s.held[KeyS] || s.held[KeyDown] {
		cam.Pan(0, -pan)
	}

	spin := GridRotationSpeed * dt
	if s.held[KeyQ] {
		grid.Y += spin
	}
	if s.held[KeyE] {
		grid.Y -= spin
	}
	if s.held[KeyZ] {
		grid.X += spin
	}
	if s.held[KeyX] {
		grid.X -= spin
	}
	if s.held[KeyC] {
		grid.Z += spin
	}
	if s.held[KeyV] {
		grid.Z -= spin
	}
	return out
}

// cursorMove orbits the camera from one cursor sample. Samples outside
// capture mode are ignored, and the first sample after capture turns on
// only seeds the reference position.
func (s *InputState) cursorMove(x, y float64, cam *camera.Camera) {
	if !s.captured {
		return
	}
	if s.firstMouse {
		s.lastX, s.lastY = x, y
		s.firstMouse = false
		return
	}
	dx := x - s.lastX
	dy := s.lastY - y
	s.lastX, s.lastY = x, y
	cam.Orbit(dx, dy)
}
