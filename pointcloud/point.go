// Package pointcloud defines the point and batch data model shared by the
// viewer's producers and its render loop, and implements the point cloud
// file formats the viewer ingests.
package pointcloud

// A Point is one position in the world frame with an 8-bit RGB color.
type Point struct {
	X, Y, Z float32
	R, G, B uint8
}

// NewPoint returns a white point at the given position.
func NewPoint(x, y, z float32) Point {
	return Point{X: x, Y: y, Z: z, R: 255, G: 255, B: 255}
}

// NewColoredPoint returns a point at the given position with the given color.
func NewColoredPoint(x, y, z float32, r, g, b uint8) Point {
	return Point{X: x, Y: y, Z: z, R: r, G: g, B: b}
}

// A Batch is an ordered group of points handed from a producer to the
// viewer as one unit. Ownership moves with the hand-off; a producer must
// not retain or mutate a batch after delivering it.
type Batch []Point

// Unpack converts the batch into the two parallel component slices the
// store keeps: xyz position triples and rgb color triples with each channel
// normalized to [0, 1].
func (b Batch) Unpack() (positions, colors []float32) {
	positions = make([]float32, 0, len(b)*3)
	colors = make([]float32, 0, len(b)*3)
	for _, p := range b {
		positions = append(positions, p.X, p.Y, p.Z)
		colors = append(colors,
			float32(p.R)/255.0,
			float32(p.G)/255.0,
			float32(p.B)/255.0,
		)
	}
	return positions, colors
}
