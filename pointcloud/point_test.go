package pointcloud

import (
	"testing"

	"go.viam.com/test"
)

func TestNewPoint(t *testing.T) {
	p := NewPoint(1, 2, 3)
	test.That(t, p.X, test.ShouldEqual, 1)
	test.That(t, p.Y, test.ShouldEqual, 2)
	test.That(t, p.Z, test.ShouldEqual, 3)
	test.That(t, p.R, test.ShouldEqual, 255)
	test.That(t, p.G, test.ShouldEqual, 255)
	test.That(t, p.B, test.ShouldEqual, 255)

	q := NewColoredPoint(4, 5, 6, 10, 20, 30)
	test.That(t, q.R, test.ShouldEqual, 10)
	test.That(t, q.G, test.ShouldEqual, 20)
	test.That(t, q.B, test.ShouldEqual, 30)
}

func TestBatchUnpack(t *testing.T) {
	batch := Batch{
		NewColoredPoint(1, 2, 3, 255, 0, 51),
		NewPoint(-4, 5, -6),
	}
	positions, colors := batch.Unpack()
	test.That(t, positions, test.ShouldResemble, []float32{1, 2, 3, -4, 5, -6})
	test.That(t, colors, test.ShouldResemble, []float32{1, 0, 0.2, 1, 1, 1})

	positions, colors = Batch{}.Unpack()
	test.That(t, positions, test.ShouldHaveLength, 0)
	test.That(t, colors, test.ShouldHaveLength, 0)
}
