package render

import "github.com/go-gl/mathgl/mgl32"

// Grid footprint: a one meter square on the XY plane with 5 cm cells.
const (
	GridSize = 0.5
	GridStep = 0.05
)

// GridRotation is the grid's own model rotation in degrees, driven by the
// rotation keys independently of the camera.
type GridRotation struct {
	X, Y, Z float64
}

// Model returns the rotation's model matrix, the product of the X, Y and
// Z axis rotations in that order.
func (g GridRotation) Model() mgl32.Mat4 {
	m := mgl32.HomogRotate3DX(mgl32.DegToRad(float32(g.X)))
	m = m.Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(float32(g.Y))))
	return m.Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(float32(g.Z))))
}

// gridVertices lays out the grid's line segments as xyz triples: for each
// step along X a line parallel to Y, and the transposed counterpart.
func gridVertices() []float32 {
	steps := int(GridSize / GridStep)
	verts := make([]float32, 0, (2*steps+1)*4*3)
	for j := -steps; j <= steps; j++ {
		i := float32(j) * GridStep
		verts = append(verts,
			i, -GridSize, 0,
			i, GridSize, 0,
			-GridSize, i, 0,
			GridSize, i, 0,
		)
	}
	return verts
}

// axesVertices interleaves position and color for the three unit axes:
// X red, Y green, Z blue.
func axesVertices() []float32 {
	return []float32{
		0, 0, 0, 1, 0, 0,
		1, 0, 0, 1, 0, 0,

		0, 0, 0, 0, 1, 0,
		0, 1, 0, 0, 1, 0,

		0, 0, 0, 0, 0, 1,
		0, 0, 1, 0, 0, 1,
	}
}
