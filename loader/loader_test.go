package loader

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/ohnishi-git-dev/CloudPeek/pointcloud"
)

type fakeSink struct {
	mu      sync.Mutex
	added   []pointcloud.Batch
	set     []pointcloud.Batch
	running bool
	// stopAfter stops the sink once this many deliveries landed; zero
	// means never.
	stopAfter int
}

func newFakeSink() *fakeSink {
	return &fakeSink{running: true}
}

func (f *fakeSink) AddPoints(batch pointcloud.Batch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, batch)
	f.maybeStop()
}

func (f *fakeSink) SetPoints(batch pointcloud.Batch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set = append(f.set, batch)
	f.maybeStop()
}

func (f *fakeSink) maybeStop() {
	if f.stopAfter > 0 && len(f.added)+len(f.set) >= f.stopAfter {
		f.running = false
	}
}

func (f *fakeSink) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeSink) addCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.added)
}

func (f *fakeSink) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.set)
}

type stubSource struct {
	info    SourceInfo
	batches []pointcloud.Batch
	next    int
	closed  bool
}

func (s *stubSource) Info() SourceInfo {
	return s.info
}

func (s *stubSource) Next(ctx context.Context) (pointcloud.Batch, error) {
	if s.next >= len(s.batches) {
		return nil, io.EOF
	}
	batch := s.batches[s.next]
	s.next++
	return batch, nil
}

func (s *stubSource) Close() error {
	s.closed = true
	return nil
}

func indexedBatch(n int, base float32) pointcloud.Batch {
	batch := make(pointcloud.Batch, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, pointcloud.NewPoint(base+float32(i), 0, 0))
	}
	return batch
}

func TestStreamDeliversSlicesInOrder(t *testing.T) {
	logger := golog.NewTestLogger(t)
	sink := newFakeSink()
	src := newBatchSource("big", indexedBatch(25000, 0))

	err := Stream(context.Background(), src, sink, Options{Delay: time.Millisecond}, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, sink.added, test.ShouldHaveLength, 3)
	test.That(t, sink.added[0], test.ShouldHaveLength, DefaultBatchSize)
	test.That(t, sink.added[1], test.ShouldHaveLength, DefaultBatchSize)
	test.That(t, sink.added[2], test.ShouldHaveLength, 5000)
	test.That(t, sink.added[0][0].X, test.ShouldEqual, 0)
	test.That(t, sink.added[1][0].X, test.ShouldEqual, 10000)
	test.That(t, sink.added[2][0].X, test.ShouldEqual, 20000)
	test.That(t, sink.set, test.ShouldHaveLength, 0)
}

func TestStreamWindowedReplaces(t *testing.T) {
	logger := golog.NewTestLogger(t)
	sink := newFakeSink()
	src := &stubSource{
		info: SourceInfo{Name: "windowed", Windowed: true},
		batches: []pointcloud.Batch{
			indexedBatch(3, 0),
			indexedBatch(5, 0),
		},
	}

	err := Stream(context.Background(), src, sink, Options{Delay: time.Millisecond}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sink.set, test.ShouldHaveLength, 2)
	test.That(t, sink.added, test.ShouldHaveLength, 0)
	test.That(t, src.closed, test.ShouldBeTrue)
}

func TestStreamStopsWhenSinkStops(t *testing.T) {
	logger := golog.NewTestLogger(t)
	sink := newFakeSink()
	sink.stopAfter = 1
	src := &stubSource{
		info: SourceInfo{Name: "stopper"},
		batches: []pointcloud.Batch{
			indexedBatch(1, 0),
			indexedBatch(1, 0),
			indexedBatch(1, 0),
		},
	}

	err := Stream(context.Background(), src, sink, Options{Delay: time.Millisecond}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sink.addCount(), test.ShouldEqual, 1)
	test.That(t, src.next, test.ShouldEqual, 1)
	test.That(t, src.closed, test.ShouldBeTrue)
}

func TestStreamContextCancelInterruptsPause(t *testing.T) {
	logger := golog.NewTestLogger(t)
	sink := newFakeSink()
	src := &stubSource{
		info:    SourceInfo{Name: "slow"},
		batches: []pointcloud.Batch{indexedBatch(1, 0), indexedBatch(1, 0)},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- Stream(ctx, src, sink, Options{Delay: time.Hour}, logger)
	}()

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, sink.addCount(), test.ShouldEqual, 1)
	})
	cancel()
	test.That(t, <-done, test.ShouldBeNil)
	test.That(t, sink.addCount(), test.ShouldEqual, 1)
}

func TestStreamPacedByClock(t *testing.T) {
	logger := golog.NewTestLogger(t)
	clk := clock.NewMock()
	sink := newFakeSink()
	src := &stubSource{
		info: SourceInfo{Name: "paced"},
		batches: []pointcloud.Batch{
			indexedBatch(1, 0),
			indexedBatch(1, 0),
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- Stream(ctx, src, sink, Options{Clock: clk}, logger)
	}()

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, sink.addCount(), test.ShouldEqual, 1)
	})

	// Wall time alone delivers nothing more; the stream waits on the
	// mock clock.
	time.Sleep(100 * time.Millisecond)
	test.That(t, sink.addCount(), test.ShouldEqual, 1)

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		clk.Add(DefaultDelay)
		test.That(tb, sink.addCount(), test.ShouldEqual, 2)
	})
	cancel()
	test.That(t, <-done, test.ShouldBeNil)
}

func TestStreamColoring(t *testing.T) {
	logger := golog.NewTestLogger(t)

	t.Run("fixed", func(t *testing.T) {
		sink := newFakeSink()
		src := &stubSource{
			info:    SourceInfo{Name: "fixed"},
			batches: []pointcloud.Batch{{pointcloud.NewPoint(100, 0, 0), pointcloud.NewPoint(0, 0, 0)}},
		}
		err := Stream(context.Background(), src, sink, Options{
			Color:       ColorFixed,
			MaxDistance: 10,
			Delay:       time.Millisecond,
		}, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, sink.added[0][0].R, test.ShouldEqual, 255)
		test.That(t, sink.added[0][1].B, test.ShouldEqual, 255)
	})

	t.Run("global uses the dataset maximum", func(t *testing.T) {
		sink := newFakeSink()
		src := newBatchSource("global", pointcloud.Batch{
			pointcloud.NewPoint(0, 0, 0),
			pointcloud.NewPoint(30, 0, 0),
		})
		test.That(t, src.Info().MaxDistance, test.ShouldEqual, 30)

		err := Stream(context.Background(), src, sink, Options{
			Color: ColorGlobal,
			Delay: time.Millisecond,
		}, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, sink.added[0][0].B, test.ShouldEqual, 255)
		test.That(t, sink.added[0][1].R, test.ShouldEqual, 255)
	})

	t.Run("global keeps source colors without a dataset maximum", func(t *testing.T) {
		sink := newFakeSink()
		src := &stubSource{
			info:    SourceInfo{Name: "eventish"},
			batches: []pointcloud.Batch{{pointcloud.NewColoredPoint(9000, 2, 0, 128, 128, 128)}},
		}
		err := Stream(context.Background(), src, sink, Options{
			Color: ColorGlobal,
			Delay: time.Millisecond,
		}, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, sink.added[0][0].R, test.ShouldEqual, 128)
		test.That(t, sink.added[0][0].B, test.ShouldEqual, 128)
	})

	t.Run("per batch", func(t *testing.T) {
		sink := newFakeSink()
		src := &stubSource{
			info: SourceInfo{Name: "batchwise"},
			batches: []pointcloud.Batch{
				{pointcloud.NewPoint(0, 0, 0), pointcloud.NewPoint(5, 0, 0)},
				{pointcloud.NewPoint(0, 0, 0), pointcloud.NewPoint(500, 0, 0)},
			},
		}
		err := Stream(context.Background(), src, sink, Options{
			Color: ColorPerBatch,
			Delay: time.Millisecond,
		}, logger)
		test.That(t, err, test.ShouldBeNil)
		// Each batch's farthest point is red against its own maximum.
		test.That(t, sink.added[0][1].R, test.ShouldEqual, 255)
		test.That(t, sink.added[1][1].R, test.ShouldEqual, 255)
	})

	t.Run("none keeps source colors", func(t *testing.T) {
		sink := newFakeSink()
		src := &stubSource{
			info:    SourceInfo{Name: "plain"},
			batches: []pointcloud.Batch{{pointcloud.NewColoredPoint(1, 2, 3, 7, 8, 9)}},
		}
		err := Stream(context.Background(), src, sink, Options{Delay: time.Millisecond}, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, sink.added[0][0].R, test.ShouldEqual, 7)
		test.That(t, sink.added[0][0].G, test.ShouldEqual, 8)
		test.That(t, sink.added[0][0].B, test.ShouldEqual, 9)
	})
}
