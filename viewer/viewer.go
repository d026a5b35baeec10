// Package viewer ties the streaming queue, the point store, the camera and
// the renderer together behind the interface producers stream into.
package viewer

import (
	"context"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/ohnishi-git-dev/CloudPeek/camera"
	"github.com/ohnishi-git-dev/CloudPeek/pointcloud"
	"github.com/ohnishi-git-dev/CloudPeek/render"
)

// Config configures the viewer window and camera.
type Config struct {
	Render render.Config
	Camera camera.Config
}

// update is one queued change to the displayed cloud. A replace swaps the
// whole cloud; otherwise the batch extends it. Both travel the same queue,
// so producers observe their calls applied in order.
type update struct {
	batch   pointcloud.Batch
	replace bool
}

// Viewer is the engine seen by producers: batches stream in from any
// goroutine while the render loop owns the window and camera. The ingest
// worker between them starts at construction, so producers can stream
// before and while the window comes up.
type Viewer struct {
	logger golog.Logger
	cfg    Config

	queue *Queue[update]
	store *pointcloud.Store
	cam   *camera.Camera

	shutdownCtx             context.Context
	shutdownCtxCancel       func()
	activeBackgroundWorkers sync.WaitGroup
}

// New returns a running viewer. Call Run on the main OS thread to present
// it, and Stop or Close to wind it down.
func New(cfg Config, logger golog.Logger) *Viewer {
	shutdownCtx, shutdownCtxCancel := context.WithCancel(context.Background())
	v := &Viewer{
		logger:            logger,
		cfg:               cfg,
		queue:             NewQueue[update](),
		store:             pointcloud.NewStore(),
		cam:               camera.New(cfg.Camera),
		shutdownCtx:       shutdownCtx,
		shutdownCtxCancel: shutdownCtxCancel,
	}
	v.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(v.ingest, v.activeBackgroundWorkers.Done)
	return v
}

// AddPoints enqueues a batch to extend the displayed cloud. It is safe
// from any goroutine, never blocks on rendering, and an empty batch is a
// no-op. The batch must not be reused by the caller afterward.
func (v *Viewer) AddPoints(batch pointcloud.Batch) {
	if len(batch) == 0 {
		return
	}
	v.queue.Push(update{batch: batch})
}

// SetPoints replaces the displayed cloud with the given batch. The swap is
// atomic with respect to rendering: no frame shows a partially replaced
// cloud. Ordering against other AddPoints and SetPoints calls is
// preserved.
func (v *Viewer) SetPoints(batch pointcloud.Batch) {
	v.queue.Push(update{batch: batch, replace: true})
}

// Clear removes every displayed point.
func (v *Viewer) Clear() {
	v.SetPoints(nil)
}

// IsRunning reports whether the viewer still wants data. Producers poll it
// to stop streaming early when the viewer goes away.
func (v *Viewer) IsRunning() bool {
	return v.shutdownCtx.Err() == nil
}

// Stop requests shutdown: IsRunning flips false, the render loop winds
// down, and the ingest worker drains what was already queued before
// exiting. Safe to call more than once and from any goroutine.
func (v *Viewer) Stop() {
	v.shutdownCtxCancel()
	v.queue.Shutdown()
}

// Close stops the viewer and waits for the ingest worker to finish
// draining. It covers headless use; Run performs the same shutdown itself.
func (v *Viewer) Close(ctx context.Context) error {
	v.Stop()
	v.activeBackgroundWorkers.Wait()
	return nil
}

// ingest is the worker loop: block for the next update, fold it into the
// store, repeat until the queue reports shutdown and empty. The store
// marks itself dirty, which is all the signaling the render loop needs.
func (v *Viewer) ingest() {
	for {
		u, ok := v.queue.Pop()
		if !ok {
			return
		}
		positions, colors := u.batch.Unpack()
		var err error
		if u.replace {
			err = v.store.Replace(positions, colors)
		} else {
			err = v.store.Append(positions, colors)
		}
		if err != nil {
			v.logger.Errorw("dropping malformed batch", "error", err)
		}
	}
}

// Run drives the render loop until the window closes, Stop is called, or
// ctx is canceled, then winds the viewer down: stop flag first, queue
// shutdown next, worker join, and GPU release last. It must run on the
// main OS thread; callers lock it in init.
func (v *Viewer) Run(ctx context.Context) (err error) {
	r, err := render.NewRenderer(v.cfg.Render, v.logger)
	if err != nil {
		v.Stop()
		v.activeBackgroundWorkers.Wait()
		return errors.Wrap(err, "cannot set up rendering")
	}
	defer func() {
		err = multierr.Combine(err, r.Close())
	}()

	for v.IsRunning() && ctx.Err() == nil && !r.ShouldClose() {
		r.Frame(v.cam, v.store)
	}

	v.Stop()
	v.activeBackgroundWorkers.Wait()
	return nil
}
