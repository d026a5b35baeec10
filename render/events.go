// Package render owns the window, the GPU resources and the per-frame
// state machine that turns input and the point store into frames.
package render

// EventType distinguishes the input records the frame state machine
// consumes.
type EventType uint8

const (
	// KeyPress and KeyRelease are edge events for one key.
	KeyPress EventType = iota + 1
	KeyRelease
	// CursorMove carries an absolute cursor position in X and Y.
	CursorMove
	// Scroll carries the vertical scroll offset in Y.
	Scroll
	// Resize carries a new framebuffer size in X and Y.
	Resize
)

// Control identifies the keys the viewer reacts to.
type Control uint8

const (
	ControlNone Control = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyQ
	KeyE
	KeyZ
	KeyX
	KeyC
	KeyV
	KeyR
	KeyF1
	KeyEscape
)

// Event is one buffered input record. Window callbacks only translate and
// append these; every state change they imply happens later, when the
// frame's input step consumes the buffer on the render goroutine.
type Event struct {
	Type    EventType
	Control Control
	X, Y    float64
}
