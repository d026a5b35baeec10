package render

import (
	"testing"

	"go.viam.com/test"

	"github.com/ohnishi-git-dev/CloudPeek/camera"
)

func press(c Control) Event   { return Event{Type: KeyPress, Control: c} }
func release(c Control) Event { return Event{Type: KeyRelease, Control: c} }

func TestInputCursorIgnoredUntilCaptured(t *testing.T) {
	s := NewInputState()
	cam := camera.New(camera.DefaultConfig())
	var grid GridRotation

	s.Process([]Event{
		{Type: CursorMove, X: 100, Y: 100},
		{Type: CursorMove, X: 200, Y: 150},
	}, cam, &grid, 0.016)

	test.That(t, cam.Azimuth(), test.ShouldEqual, camera.DefaultAzimuth)
	test.That(t, cam.Elevation(), test.ShouldEqual, camera.DefaultElevation)
}

func TestInputCaptureToggleAndOrbit(t *testing.T) {
	s := NewInputState()
	cam := camera.New(camera.DefaultConfig())
	var grid GridRotation

	out := s.Process([]Event{press(KeyF1)}, cam, &grid, 0.016)
	test.That(t, out.CaptureChanged, test.ShouldBeTrue)
	test.That(t, out.Captured, test.ShouldBeTrue)
	test.That(t, s.Captured(), test.ShouldBeTrue)

	// The first sample only seeds the reference position.
	s.Process([]Event{{Type: CursorMove, X: 100, Y: 100}}, cam, &grid, 0.016)
	test.That(t, cam.Azimuth(), test.ShouldEqual, camera.DefaultAzimuth)

	// Moving right spins the azimuth; moving the cursor down lowers the
	// elevation.
	s.Process([]Event{{Type: CursorMove, X: 150, Y: 120}}, cam, &grid, 0.016)
	test.That(t, cam.Azimuth(), test.ShouldAlmostEqual, 50*camera.Sensitivity, 1e-9)
	test.That(t, cam.Elevation(), test.ShouldAlmostEqual, camera.DefaultElevation-20*camera.Sensitivity, 1e-9)

	// Toggling capture off stops orbiting and re-toggling reseeds.
	out = s.Process([]Event{press(KeyF1)}, cam, &grid, 0.016)
	test.That(t, out.Captured, test.ShouldBeFalse)
	azimuth := cam.Azimuth()
	s.Process([]Event{{Type: CursorMove, X: 500, Y: 500}}, cam, &grid, 0.016)
	test.That(t, cam.Azimuth(), test.ShouldEqual, azimuth)

	s.Process([]Event{press(KeyF1)}, cam, &grid, 0.016)
	s.Process([]Event{{Type: CursorMove, X: 900, Y: 900}}, cam, &grid, 0.016)
	test.That(t, cam.Azimuth(), test.ShouldEqual, azimuth)
}

func TestInputScrollZooms(t *testing.T) {
	s := NewInputState()
	cam := camera.New(camera.DefaultConfig())
	var grid GridRotation

	s.Process([]Event{{Type: Scroll, Y: 2}}, cam, &grid, 0.016)
	test.That(t, cam.Distance(), test.ShouldAlmostEqual, camera.DefaultDistance-2*camera.ZoomSpeed, 1e-9)
}

func TestInputHeldKeysPan(t *testing.T) {
	s := NewInputState()
	cam := camera.New(camera.DefaultConfig())
	var grid GridRotation

	s.Process([]Event{press(KeyW)}, cam, &grid, 0.5)
	_, panY := cam.PanOffset()
	test.That(t, panY, test.ShouldAlmostEqual, camera.PanSpeed*0.5, 1e-9)

	// Still held: panning continues with no new events.
	s.Process(nil, cam, &grid, 0.1)
	_, panY = cam.PanOffset()
	test.That(t, panY, test.ShouldAlmostEqual, camera.PanSpeed*0.6, 1e-9)

	s.Process([]Event{release(KeyW)}, cam, &grid, 0.1)
	s.Process(nil, cam, &grid, 0.1)
	_, panY = cam.PanOffset()
	test.That(t, panY, test.ShouldAlmostEqual, camera.PanSpeed*0.6, 1e-9)
}

func TestInputArrowsMatchLetterKeys(t *testing.T) {
	letters := NewInputState()
	arrows := NewInputState()
	camLetters := camera.New(camera.DefaultConfig())
	camArrows := camera.New(camera.DefaultConfig())
	var grid GridRotation

	letters.Process([]Event{press(KeyA), press(KeyS)}, camLetters, &grid, 0.25)
	arrows.Process([]Event{press(KeyLeft), press(KeyDown)}, camArrows, &grid, 0.25)

	lx, ly := camLetters.PanOffset()
	ax, ay := camArrows.PanOffset()
	test.That(t, lx, test.ShouldEqual, ax)
	test.That(t, ly, test.ShouldEqual, ay)
	test.That(t, lx, test.ShouldAlmostEqual, -camera.PanSpeed*0.25, 1e-9)
	test.That(t, ly, test.ShouldAlmostEqual, -camera.PanSpeed*0.25, 1e-9)
}

func TestInputGridRotationKeys(t *testing.T) {
	s := NewInputState()
	cam := camera.New(camera.DefaultConfig())
	var grid GridRotation

	s.Process([]Event{press(KeyQ)}, cam, &grid, 1)
	test.That(t, grid.Y, test.ShouldAlmostEqual, GridRotationSpeed, 1e-9)

	s.Process([]Event{release(KeyQ), press(KeyE)}, cam, &grid, 0.5)
	test.That(t, grid.Y, test.ShouldAlmostEqual, GridRotationSpeed/2, 1e-9)

	s.Process([]Event{release(KeyE), press(KeyZ), press(KeyC)}, cam, &grid, 1)
	test.That(t, grid.X, test.ShouldAlmostEqual, GridRotationSpeed, 1e-9)
	test.That(t, grid.Z, test.ShouldAlmostEqual, GridRotationSpeed, 1e-9)

	s.Process([]Event{release(KeyZ), release(KeyC), press(KeyX), press(KeyV)}, cam, &grid, 1)
	test.That(t, grid.X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, grid.Z, test.ShouldAlmostEqual, 0, 1e-9)
}

func TestInputResetKey(t *testing.T) {
	s := NewInputState()
	cam := camera.New(camera.DefaultConfig())
	var grid GridRotation

	s.Process([]Event{{Type: Scroll, Y: 5}, press(KeyD)}, cam, &grid, 0.5)
	test.That(t, cam.Distance(), test.ShouldNotEqual, camera.DefaultDistance)

	s.Process([]Event{press(KeyR)}, cam, &grid, 0)
	test.That(t, cam.Distance(), test.ShouldEqual, camera.DefaultDistance)
	panX, _ := cam.PanOffset()
	test.That(t, panX, test.ShouldEqual, 0)
}

func TestInputQuitAndResize(t *testing.T) {
	s := NewInputState()
	cam := camera.New(camera.DefaultConfig())
	var grid GridRotation

	out := s.Process([]Event{press(KeyEscape)}, cam, &grid, 0.016)
	test.That(t, out.Quit, test.ShouldBeTrue)

	out = s.Process([]Event{{Type: Resize, X: 1280, Y: 720}}, cam, &grid, 0.016)
	test.That(t, out.Resized, test.ShouldBeTrue)
	test.That(t, out.Width, test.ShouldEqual, 1280)
	test.That(t, out.Height, test.ShouldEqual, 720)
}
