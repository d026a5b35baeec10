package pointcloud

import (
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestReadPLY(t *testing.T) {
	data := `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
property uchar red
property uchar green
property uchar blue
end_header
1.5 -2 3 255 0 0
0 0.5 1 0 255 0
4 4 4 0 0 255
`
	got, err := ReadPLY(strings.NewReader(data))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldHaveLength, 3)
	test.That(t, got[0].X, test.ShouldEqual, 1.5)
	test.That(t, got[0].Y, test.ShouldEqual, -2)
	test.That(t, got[0].Z, test.ShouldEqual, 3)
	test.That(t, got[0].R, test.ShouldEqual, 255)
	test.That(t, got[1].G, test.ShouldEqual, 255)
	test.That(t, got[2].B, test.ShouldEqual, 255)
}

func TestReadPLYWithoutColor(t *testing.T) {
	data := `ply
format ascii 1.0
element vertex 1
property float x
property float y
property float z
end_header
7 8 9
`
	got, err := ReadPLY(strings.NewReader(data))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, Batch{NewPoint(7, 8, 9)})
}
