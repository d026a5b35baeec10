package pointcloud

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
)

func distanceFromOrigin(p Point) float64 {
	return math.Sqrt(
		float64(p.X)*float64(p.X) +
			float64(p.Y)*float64(p.Y) +
			float64(p.Z)*float64(p.Z))
}

// MaxDistance returns the largest Euclidean distance from the origin over
// the batch, or 0 for an empty batch.
func MaxDistance(batch Batch) float64 {
	if len(batch) == 0 {
		return 0
	}
	dists := make([]float64, len(batch))
	for i, p := range batch {
		dists[i] = distanceFromOrigin(p)
	}
	return floats.Max(dists)
}

// ColorizeByDistance recolors the batch in place on a blue-to-red ramp:
// points at the origin come out blue, points at or beyond maxDistance red.
// A non-positive maxDistance normalizes against 1 instead of dividing by
// zero.
func ColorizeByDistance(batch Batch, maxDistance float64) {
	if maxDistance <= 0 {
		maxDistance = 1
	}
	for i := range batch {
		p := &batch[i]
		t := math.Min(distanceFromOrigin(*p)/maxDistance, 1)
		hue := (1 - t) * 0.66 * 360
		p.R, p.G, p.B = colorful.Hsv(hue, 1, 1).RGB255()
	}
}
