package render

import (
	"time"

	"github.com/edaniels/golog"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"

	"github.com/ohnishi-git-dev/CloudPeek/camera"
	"github.com/ohnishi-git-dev/CloudPeek/pointcloud"
)

// Window defaults.
const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
	DefaultTitle  = "CloudPeek Point Cloud Viewer"
)

// Config sets up the window. Zero values fall back to the defaults above.
type Config struct {
	Width  int
	Height int
	Title  string
}

// Renderer owns the window, the GPU resources and the per-frame state
// machine. Every method must be called from the OS thread that created it,
// which the GPU context is bound to.
type Renderer struct {
	logger golog.Logger

	window *glfw.Window
	width  int
	height int

	pointProgram program
	gridProgram  program
	axesProgram  program

	points mesh
	grid   mesh
	axes   mesh

	input     *InputState
	gridSpin  GridRotation
	pending   []Event
	lastFrame time.Time
}

// NewRenderer initializes the window system, creates the window and GL
// context, compiles the shader programs and uploads the static geometry.
// On any failure it releases everything acquired up to that point and
// returns the wrapped cause.
func NewRenderer(cfg Config, logger golog.Logger) (r *Renderer, err error) {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}

	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "cannot initialize glfw")
	}
	defer func() {
		if err != nil {
			glfw.Terminate()
		}
	}()

	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create window")
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		window.Destroy()
		return nil, errors.Wrap(err, "cannot load opengl")
	}

	r = &Renderer{
		logger: logger,
		window: window,
		width:  cfg.Width,
		height: cfg.Height,
		input:  NewInputState(),
	}
	defer func() {
		if err != nil {
			r.releaseGPU()
			window.Destroy()
		}
	}()

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.ClearColor(0.1, 0.1, 0.1, 1.0)

	if r.pointProgram, err = newProgram(pointVertexShader, pointFragmentShader); err != nil {
		return nil, errors.Wrap(err, "point pass")
	}
	if r.gridProgram, err = newProgram(gridVertexShader, gridFragmentShader); err != nil {
		return nil, errors.Wrap(err, "grid pass")
	}
	if r.axesProgram, err = newProgram(axesVertexShader, axesFragmentShader); err != nil {
		return nil, errors.Wrap(err, "axes pass")
	}

	r.points = newPointMesh()
	r.grid = newLineMesh(gridVertices(), false)
	r.axes = newLineMesh(axesVertices(), true)

	r.installCallbacks()
	fbWidth, fbHeight := window.GetFramebufferSize()
	r.resize(fbWidth, fbHeight)

	if code := gl.GetError(); code != gl.NO_ERROR {
		logger.Errorw("opengl error during setup", "error", glErrorString(code))
	}
	r.lastFrame = time.Now()
	logger.Infow("renderer ready", "width", cfg.Width, "height", cfg.Height)
	return r, nil
}

// installCallbacks translates window callbacks into buffered event
// records. The callbacks run inside PollEvents on the render thread, so
// the buffer needs no lock.
func (r *Renderer) installCallbacks() {
	r.window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		control, ok := controlFromKey(key)
		if !ok {
			return
		}
		switch action {
		case glfw.Press:
			r.pending = append(r.pending, Event{Type: KeyPress, Control: control})
		case glfw.Release:
			r.pending = append(r.pending, Event{Type: KeyRelease, Control: control})
		}
	})
	r.window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		r.pending = append(r.pending, Event{Type: CursorMove, X: x, Y: y})
	})
	r.window.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		r.pending = append(r.pending, Event{Type: Scroll, Y: yoff})
	})
	r.window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		r.pending = append(r.pending, Event{Type: Resize, X: float64(width), Y: float64(height)})
	})
}

func controlFromKey(key glfw.Key) (Control, bool) {
	switch key {
	case glfw.KeyW:
		return KeyW, true
	case glfw.KeyA:
		return KeyA, true
	case glfw.KeyS:
		return KeyS, true
	case glfw.KeyD:
		return KeyD, true
	case glfw.KeyUp:
		return KeyUp, true
	case glfw.KeyDown:
		return KeyDown, true
	case glfw.KeyLeft:
		return KeyLeft, true
	case glfw.KeyRight:
		return KeyRight, true
	case glfw.KeyQ:
		return KeyQ, true
	case glfw.KeyE:
		return KeyE, true
	case glfw.KeyZ:
		return KeyZ, true
	case glfw.KeyX:
		return KeyX, true
	case glfw.KeyC:
		return KeyC, true
	case glfw.KeyV:
		return KeyV, true
	case glfw.KeyR:
		return KeyR, true
	case glfw.KeyF1:
		return KeyF1, true
	case glfw.KeyEscape:
		return KeyEscape, true
	default:
		return ControlNone, false
	}
}

// Frame advances the state machine once: process input, sync the point
// snapshot to the GPU, draw the three passes, present. GPU errors are
// logged and the loop carries on; one bad frame must not end a session.
func (r *Renderer) Frame(cam *camera.Camera, store *pointcloud.Store) {
	now := time.Now()
	dt := now.Sub(r.lastFrame).Seconds()
	r.lastFrame = now

	events := r.pending
	r.pending = r.pending[:0]
	frame := r.input.Process(events, cam, &r.gridSpin, dt)
	if frame.CaptureChanged {
		if frame.Captured {
			r.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		} else {
			r.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		}
	}
	if frame.Resized {
		r.resize(frame.Width, frame.Height)
	}
	if frame.Quit {
		r.window.SetShouldClose(true)
	}

	// The snapshot was copied out under the store lock; no lock is held
	// across the upload.
	if positions, colors, ok := store.SnapshotIfDirty(); ok {
		r.points.uploadPoints(positions, colors)
	}

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	projView := cam.Projection(float64(r.width) / float64(r.height)).Mul4(cam.ViewMatrix())

	r.gridProgram.use(projView.Mul4(r.gridSpin.Model()))
	r.grid.draw(gl.LINES)

	r.axesProgram.use(projView)
	r.axes.draw(gl.LINES)

	r.pointProgram.use(projView)
	r.points.draw(gl.POINTS)

	if code := gl.GetError(); code != gl.NO_ERROR {
		r.logger.Errorw("opengl error during draw", "error", glErrorString(code))
	}

	r.window.SwapBuffers()
	glfw.PollEvents()
}

func (r *Renderer) resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	r.width, r.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
}

// ShouldClose reports whether the window was asked to close, by the user
// or by a processed quit event.
func (r *Renderer) ShouldClose() bool {
	return r.window.ShouldClose()
}

// Close releases the GPU resources, destroys the window and shuts the
// window system down.
func (r *Renderer) Close() error {
	r.releaseGPU()
	if r.window != nil {
		r.window.Destroy()
		r.window = nil
	}
	glfw.Terminate()
	return nil
}

func (r *Renderer) releaseGPU() {
	r.points.release()
	r.grid.release()
	r.axes.release()
	r.pointProgram.release()
	r.gridProgram.release()
	r.axesProgram.release()
}
