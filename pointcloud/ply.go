package pointcloud

import (
	"io"

	"github.com/chenzhekl/goply"
	"github.com/pkg/errors"
)

// ReadPLY reads the vertex element of a PLY file. Positions come from the
// x, y and z properties; red, green and blue properties are applied when
// present, otherwise points default to white.
func ReadPLY(in io.Reader) (Batch, error) {
	ply := goply.New(in)
	vertices := ply.Elements("vertex")
	batch := make(Batch, 0, len(vertices))
	for i, vertex := range vertices {
		x, okX := plyFloat(vertex["x"])
		y, okY := plyFloat(vertex["y"])
		z, okZ := plyFloat(vertex["z"])
		if !okX || !okY || !okZ {
			return nil, errors.Errorf("ply vertex %d is missing a coordinate property", i)
		}
		p := NewPoint(float32(x), float32(y), float32(z))
		if r, ok := plyFloat(vertex["red"]); ok {
			g, _ := plyFloat(vertex["green"])
			b, _ := plyFloat(vertex["blue"])
			p.R, p.G, p.B = uint8(r), uint8(g), uint8(b)
		}
		batch = append(batch, p)
	}
	return batch, nil
}

// plyFloat coerces a parsed property value to float64. The parser hands
// back whatever width the file declared, so every numeric type is accepted.
func plyFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
