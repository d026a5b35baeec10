// Package loader streams point batches out of files and into the viewer:
// one producer per viewer, with a source implementation per file format.
package loader

import (
	"context"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/ohnishi-git-dev/CloudPeek/pointcloud"
)

// Streaming defaults for fully parsed files.
const (
	DefaultBatchSize = 10000
	DefaultDelay     = 50 * time.Millisecond

	// DefaultMaxDistance is the coloring normalization used when nothing
	// better is known about the data.
	DefaultMaxDistance = 50.0
)

// SourceInfo describes a source to the streaming loop.
type SourceInfo struct {
	Name string
	// Windowed sources emit self-contained snapshots that replace the
	// cloud instead of extending it.
	Windowed bool
	// Delay is the source's preferred pause between batches; zero means
	// the streaming default.
	Delay time.Duration
	// MaxDistance is the dataset-wide distance maximum when the source
	// knows it, for global distance coloring. Zero means unknown.
	MaxDistance float64
}

// A Source produces point batches until exhausted, at which point Next
// returns io.EOF. Sources are not safe for concurrent use; one streaming
// loop owns a source from construction through Close.
type Source interface {
	Info() SourceInfo
	Next(ctx context.Context) (pointcloud.Batch, error)
	Close() error
}

// Sink is the slice of the viewer that loaders stream into.
type Sink interface {
	AddPoints(batch pointcloud.Batch)
	SetPoints(batch pointcloud.Batch)
	IsRunning() bool
}

// ColorMode selects how distance coloring normalizes distances.
type ColorMode int

const (
	// ColorNone keeps whatever colors the source decoded.
	ColorNone ColorMode = iota
	// ColorFixed normalizes against Options.MaxDistance.
	ColorFixed
	// ColorGlobal normalizes against the source's dataset-wide maximum.
	// Sources with no global view of their data (incremental event
	// decoders) keep their own colors, so the polarity and default
	// coloring they decode survives the default mode.
	ColorGlobal
	// ColorPerBatch normalizes each batch against its own maximum.
	ColorPerBatch
)

// Options tune one Stream call.
type Options struct {
	Color ColorMode
	// MaxDistance is the fixed coloring normalization; non-positive means
	// DefaultMaxDistance.
	MaxDistance float64
	// Delay overrides the pause between batches for every source.
	Delay time.Duration
	// Clock paces the stream; nil means the wall clock.
	Clock clock.Clock
}

// Stream drains src into sink until the source is exhausted, ctx is
// canceled, or the sink stops running. Batches are colored per opts before
// delivery and paced by the configured delay, so arrival order stays
// visible on screen. The source is closed before returning.
func Stream(ctx context.Context, src Source, sink Sink, opts Options, logger golog.Logger) error {
	defer utils.UncheckedErrorFunc(src.Close)

	if opts.MaxDistance <= 0 {
		opts.MaxDistance = DefaultMaxDistance
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	info := src.Info()
	delay := opts.Delay
	if delay <= 0 {
		delay = info.Delay
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	batches, points := 0, 0
	for sink.IsRunning() && ctx.Err() == nil {
		batch, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "%s: reading batch %d", info.Name, batches+1)
		}

		colorizeBatch(batch, opts, info)
		if info.Windowed {
			sink.SetPoints(batch)
		} else {
			sink.AddPoints(batch)
		}
		batches++
		points += len(batch)
		logger.Debugf("%s: delivered batch %d (%d points)", info.Name, batches, len(batch))

		if !pause(ctx, clk, delay) {
			break
		}
	}
	logger.Infow("source drained", "source", info.Name, "batches", batches, "points", points)
	return nil
}

func colorizeBatch(batch pointcloud.Batch, opts Options, info SourceInfo) {
	switch opts.Color {
	case ColorNone:
	case ColorFixed:
		pointcloud.ColorizeByDistance(batch, opts.MaxDistance)
	case ColorGlobal:
		if info.MaxDistance > 0 {
			pointcloud.ColorizeByDistance(batch, info.MaxDistance)
		}
	case ColorPerBatch:
		pointcloud.ColorizeByDistance(batch, pointcloud.MaxDistance(batch))
	}
}

// pause waits out the inter-batch delay on the given clock, reporting
// false when ctx ended first.
func pause(ctx context.Context, clk clock.Clock, delay time.Duration) bool {
	timer := clk.Timer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
