package pointcloud

import (
	"github.com/edaniels/golog"
	"github.com/edaniels/lidario"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ReadLAS reads a LAS file into one batch. Point format 2 carries 16-bit
// color channels that are scaled down to 8-bit; other formats come out
// white.
func ReadLAS(path string, logger golog.Logger) (Batch, error) {
	lf, err := lidario.NewLasFile(path, "r")
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open las file %q", path)
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	batch := make(Batch, 0, lf.Header.NumberPoints)
	for i := 0; i < lf.Header.NumberPoints; i++ {
		pt, err := lf.LasPoint(i)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read las point %d", i)
		}
		data := pt.PointData()
		p := NewPoint(float32(data.X), float32(data.Y), float32(data.Z))
		if lf.Header.PointFormatID == 2 && pt.RgbData() != nil {
			rgb := pt.RgbData()
			p.R = uint8(rgb.Red / 256)
			p.G = uint8(rgb.Green / 256)
			p.B = uint8(rgb.Blue / 256)
		}
		batch = append(batch, p)
	}
	logger.Debugf("read %d las points from %s", len(batch), path)
	return batch, nil
}
