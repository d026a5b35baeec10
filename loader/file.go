package loader

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/ohnishi-git-dev/CloudPeek/pointcloud"
)

// NewFileSource opens path and returns the source matching its extension.
// Point cloud formats (.pcd, .ply, .las) parse fully up front and stream
// in fixed-size slices; event dumps (.raw, .csv) decode incrementally.
func NewFileSource(path string, logger golog.Logger) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pcd":
		return newParsedFileSource(path, logger, pointcloud.ReadPCD)
	case ".ply":
		return newParsedFileSource(path, logger, pointcloud.ReadPLY)
	case ".las":
		batch, err := pointcloud.ReadLAS(path, logger)
		if err != nil {
			return nil, err
		}
		return newBatchSource(filepath.Base(path), batch), nil
	case ".raw":
		return NewRAWSource(path)
	case ".csv":
		return NewCSVSource(path, CSVOptions{})
	default:
		return nil, errors.Errorf("do not know how to read points from %q", path)
	}
}

// ReadFile parses the whole file into one batch. Watch reloads use it; the
// incremental event formats have no meaningful whole-file snapshot and are
// rejected.
func ReadFile(path string, logger golog.Logger) (pointcloud.Batch, error) {
	src, err := NewFileSource(path, logger)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(src.Close)
	bs, ok := src.(*batchSource)
	if !ok {
		return nil, errors.Errorf("%q decodes incrementally and cannot be reloaded whole", path)
	}
	return bs.points, nil
}

func newParsedFileSource(
	path string,
	logger golog.Logger,
	read func(io.Reader) (pointcloud.Batch, error),
) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %q", path)
	}
	defer utils.UncheckedErrorFunc(f.Close)

	batch, err := read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse %q", path)
	}
	logger.Infow("parsed point file", "path", path, "points", len(batch))
	return newBatchSource(filepath.Base(path), batch), nil
}

// batchSource streams an already parsed batch in fixed-size slices, so
// even a file loaded in one gulp arrives on screen progressively.
type batchSource struct {
	info   SourceInfo
	points pointcloud.Batch
	offset int
}

func newBatchSource(name string, batch pointcloud.Batch) *batchSource {
	return &batchSource{
		info: SourceInfo{
			Name:        name,
			MaxDistance: pointcloud.MaxDistance(batch),
		},
		points: batch,
	}
}

func (s *batchSource) Info() SourceInfo {
	return s.info
}

func (s *batchSource) Next(ctx context.Context) (pointcloud.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.offset >= len(s.points) {
		return nil, io.EOF
	}
	end := s.offset + DefaultBatchSize
	if end > len(s.points) {
		end = len(s.points)
	}
	batch := s.points[s.offset:end:end]
	s.offset = end
	return batch, nil
}

func (s *batchSource) Close() error {
	return nil
}
