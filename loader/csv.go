package loader

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/ohnishi-git-dev/CloudPeek/pointcloud"
)

// CSV event logs carry one x,y,t record per line, with an optional
// polarity column. Timestamps become depth the same way RAW event indices
// do, and the source keeps a sliding window of recent events, emitting the
// whole window each step so old events age out on screen.
const (
	csvBatchSize  = 5000
	csvDelay      = 20 * time.Millisecond
	csvWindowSize = 200000
	csvZScale     = 0.001

	// polarityOffGray colors off-polarity events mid-gray so the two
	// populations are distinguishable.
	polarityOffGray = 128
)

// CSVOptions tune the event window.
type CSVOptions struct {
	// WindowSize is how many recent events stay on screen; non-positive
	// means the default.
	WindowSize int
	// ZScale converts timestamp deltas to world units; non-positive means
	// the default.
	ZScale float64
}

type csvSource struct {
	f    *os.File
	r    *csv.Reader
	opts CSVOptions

	window    pointcloud.Batch
	epoch     float64
	haveEpoch bool
	lenient   bool
	done      bool
}

// NewCSVSource opens a CSV event log for incremental decoding.
func NewCSVSource(path string, opts CSVOptions) (Source, error) {
	if opts.WindowSize <= 0 {
		opts.WindowSize = csvWindowSize
	}
	if opts.ZScale <= 0 {
		opts.ZScale = csvZScale
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %q", path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return &csvSource{f: f, r: r, opts: opts, lenient: true}, nil
}

func (s *csvSource) Info() SourceInfo {
	return SourceInfo{
		Name:     filepath.Base(s.f.Name()),
		Windowed: true,
		Delay:    csvDelay,
	}
}

func (s *csvSource) Next(ctx context.Context) (pointcloud.Batch, error) {
	if s.done {
		return nil, io.EOF
	}
	read := 0
	for read < csvBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := s.r.Read()
		if errors.Is(err, io.EOF) {
			s.done = true
			if read == 0 {
				return nil, io.EOF
			}
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "cannot read csv event record")
		}
		p, ok, err := s.parseEvent(record)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		s.window = append(s.window, p)
		read++
	}
	if over := len(s.window) - s.opts.WindowSize; over > 0 {
		s.window = append(pointcloud.Batch(nil), s.window[over:]...)
	}
	// The sink takes ownership of what it is handed, so the retained
	// window goes out as a copy.
	out := make(pointcloud.Batch, len(s.window))
	copy(out, s.window)
	return out, nil
}

// parseEvent decodes one x,y,t[,p] record. One leading unparsable record
// is tolerated as the header; after that, bad records are errors.
func (s *csvSource) parseEvent(record []string) (pointcloud.Point, bool, error) {
	if len(record) < 3 {
		return pointcloud.Point{}, false, errors.Errorf("csv event record needs at least x,y,t: %v", record)
	}
	x, errX := strconv.ParseFloat(record[0], 32)
	y, errY := strconv.ParseFloat(record[1], 32)
	ts, errT := strconv.ParseFloat(record[2], 64)
	if errX != nil || errY != nil || errT != nil {
		if s.lenient {
			s.lenient = false
			return pointcloud.Point{}, false, nil
		}
		return pointcloud.Point{}, false, errors.Errorf("invalid csv event record %v", record)
	}
	s.lenient = false

	if !s.haveEpoch {
		s.epoch = ts
		s.haveEpoch = true
	}
	p := pointcloud.NewPoint(float32(x), float32(y), float32((ts-s.epoch)*s.opts.ZScale))
	if len(record) >= 4 {
		if polarity, err := strconv.ParseInt(record[3], 10, 64); err == nil && polarity == 0 {
			p.R, p.G, p.B = polarityOffGray, polarityOffGray, polarityOffGray
		}
	}
	return p, true, nil
}

func (s *csvSource) Close() error {
	return s.f.Close()
}
