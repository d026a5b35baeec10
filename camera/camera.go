// Package camera implements the orbit camera: spherical coordinates around
// a target point plus a pan offset, and the view and projection matrices
// derived from them.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Motion constants tuned for the stock interactive feel.
const (
	DefaultDistance  = 10.0
	DefaultAzimuth   = 0.0
	DefaultElevation = 20.0
	DefaultFOV       = 45.0

	// Sensitivity scales raw cursor deltas into orbit degrees.
	Sensitivity = 0.1
	// ZoomSpeed scales scroll offsets into distance units.
	ZoomSpeed = 0.35
	// PanSpeed is the pan rate for held keys in world units per second.
	PanSpeed = 5.0

	MinDistance = 0.5
	MaxDistance = 150.0

	NearPlane = 0.5
	FarPlane  = 2 * MaxDistance

	minElevation = -89.0
	maxElevation = 89.0
)

// Config is the camera's construction-time pose, which Reset returns to.
type Config struct {
	Target    r3.Vector
	Distance  float64
	Azimuth   float64
	Elevation float64
	FOV       float64
}

// DefaultConfig returns the stock viewing pose.
func DefaultConfig() Config {
	return Config{
		Distance:  DefaultDistance,
		Azimuth:   DefaultAzimuth,
		Elevation: DefaultElevation,
		FOV:       DefaultFOV,
	}
}

// Camera holds the orbit state. It belongs to the render goroutine and is
// not safe for concurrent use.
type Camera struct {
	cfg Config

	target     r3.Vector
	distance   float64
	azimuth    float64
	elevation  float64
	panX, panY float64
	fov        float64
}

// New returns a camera at cfg's pose. Non-positive distance and field of
// view fall back to the package defaults, and the pose is clamped into the
// same bounds interaction keeps it in afterward.
func New(cfg Config) *Camera {
	if cfg.Distance <= 0 {
		cfg.Distance = DefaultDistance
	}
	if cfg.FOV <= 0 {
		cfg.FOV = DefaultFOV
	}
	cfg.Distance = mgl64.Clamp(cfg.Distance, MinDistance, MaxDistance)
	cfg.Elevation = mgl64.Clamp(cfg.Elevation, minElevation, maxElevation)
	c := &Camera{cfg: cfg}
	c.applyConfig()
	return c
}

func (c *Camera) applyConfig() {
	c.target = c.cfg.Target
	c.distance = c.cfg.Distance
	c.azimuth = normalizeAzimuth(c.cfg.Azimuth)
	c.elevation = c.cfg.Elevation
	c.panX, c.panY = 0, 0
	c.fov = c.cfg.FOV
}

// Reset restores the construction-time pose regardless of interaction
// history.
func (c *Camera) Reset() {
	c.applyConfig()
}

func normalizeAzimuth(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Orbit applies one cursor-motion sample: dx spins the azimuth and dy
// raises or lowers the elevation, both scaled by Sensitivity. The azimuth
// wraps; the elevation clamps at just short of the poles so the up vector
// never becomes ambiguous.
func (c *Camera) Orbit(dx, dy float64) {
	c.azimuth = normalizeAzimuth(c.azimuth + dx*Sensitivity)
	c.elevation = mgl64.Clamp(c.elevation+dy*Sensitivity, minElevation, maxElevation)
}

// Zoom moves the camera along the view ray; a positive delta (scroll up)
// moves closer. The distance stays within [MinDistance, MaxDistance].
func (c *Camera) Zoom(delta float64) {
	c.distance = mgl64.Clamp(c.distance-delta*ZoomSpeed, MinDistance, MaxDistance)
}

// Pan shifts the view parallel to the world XY plane. Deltas arrive
// already scaled by frame time.
func (c *Camera) Pan(dx, dy float64) {
	c.panX += dx
	c.panY += dy
}

// Eye returns the camera position implied by the orbit state: the target
// offset by the spherical coordinates, shifted by the pan offset.
func (c *Camera) Eye() r3.Vector {
	az := mgl64.DegToRad(c.azimuth)
	el := mgl64.DegToRad(c.elevation)
	return r3.Vector{
		X: c.target.X + c.distance*math.Cos(el)*math.Cos(az) + c.panX,
		Y: c.target.Y + c.distance*math.Cos(el)*math.Sin(az) + c.panY,
		Z: c.target.Z + c.distance*math.Sin(el),
	}
}

// Center returns the look-at point: the target shifted by the pan offset.
// Eye and Center move together under panning, so the view translates
// without turning.
func (c *Camera) Center() r3.Vector {
	return r3.Vector{X: c.target.X + c.panX, Y: c.target.Y + c.panY, Z: c.target.Z}
}

// ViewMatrix builds the look-at transform from Eye toward Center with the
// world +Z axis as up. MinDistance keeps the two apart, so the look
// direction is always defined.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	eye := c.Eye()
	center := c.Center()
	return mgl32.LookAtV(
		mgl32.Vec3{float32(eye.X), float32(eye.Y), float32(eye.Z)},
		mgl32.Vec3{float32(center.X), float32(center.Y), float32(center.Z)},
		mgl32.Vec3{0, 0, 1},
	)
}

// Projection builds the perspective transform for the given viewport
// aspect ratio. A degenerate aspect is treated as square rather than
// rejected, since a collapsed window should not break the frame.
func (c *Camera) Projection(aspect float64) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(float32(c.fov)), float32(aspect), NearPlane, FarPlane)
}

// Target returns the orbit target.
func (c *Camera) Target() r3.Vector { return c.target }

// Distance returns the orbit distance.
func (c *Camera) Distance() float64 { return c.distance }

// Azimuth returns the orbit azimuth in degrees, in [0, 360).
func (c *Camera) Azimuth() float64 { return c.azimuth }

// Elevation returns the orbit elevation in degrees.
func (c *Camera) Elevation() float64 { return c.elevation }

// PanOffset returns the accumulated pan in world units.
func (c *Camera) PanOffset() (x, y float64) { return c.panX, c.panY }

// FOV returns the vertical field of view in degrees.
func (c *Camera) FOV() float64 { return c.fov }
