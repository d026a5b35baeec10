package loader

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/ohnishi-git-dev/CloudPeek/pointcloud"
)

// RAW event dumps carry little-endian 32-bit words after '%' comment
// lines. The top nibble is the event type, with 8 marking timestamp-high
// words that carry no position; the low bits pack 14-bit x and y sensor
// coordinates. The accepted-event index stands in for depth, so the
// stream unrolls along +Z as it plays.
const (
	rawBatchSize = 50000
	rawDelay     = 20 * time.Millisecond

	rawTypeShift = 28
	rawTimeHigh  = 8
	rawCoordMask = 0x3FFF
	rawYShift    = 14
	rawZScale    = 0.001
)

type rawSource struct {
	f        *os.File
	r        *bufio.Reader
	accepted uint64
	done     bool
}

// NewRAWSource opens a RAW event dump for incremental decoding.
func NewRAWSource(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %q", path)
	}
	r := bufio.NewReader(f)
	if err := skipRAWHeader(r); err != nil {
		utils.UncheckedError(f.Close())
		return nil, errors.Wrapf(err, "cannot read %q", path)
	}
	return &rawSource{f: f, r: r}, nil
}

// skipRAWHeader consumes the leading '%' comment lines.
func skipRAWHeader(r *bufio.Reader) error {
	for {
		head, err := r.Peek(1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if head[0] != '%' {
			return nil
		}
		if _, err := r.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (s *rawSource) Info() SourceInfo {
	return SourceInfo{Name: filepath.Base(s.f.Name()), Delay: rawDelay}
}

func (s *rawSource) Next(ctx context.Context) (pointcloud.Batch, error) {
	if s.done {
		return nil, io.EOF
	}
	batch := make(pointcloud.Batch, 0, rawBatchSize)
	var word [4]byte
	for len(batch) < rawBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(s.r, word[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				s.done = true
				if len(batch) == 0 {
					return nil, io.EOF
				}
				return batch, nil
			}
			return nil, errors.Wrap(err, "cannot read raw event word")
		}
		w := binary.LittleEndian.Uint32(word[:])
		if w>>rawTypeShift == rawTimeHigh {
			continue
		}
		batch = append(batch, pointcloud.NewPoint(
			float32(w&rawCoordMask),
			float32((w>>rawYShift)&rawCoordMask),
			float32(float64(s.accepted)*rawZScale),
		))
		s.accepted++
	}
	return batch, nil
}

func (s *rawSource) Close() error {
	return s.f.Close()
}
