// Package main is the cloudpeek command, an interactive viewer for point
// cloud and event camera files.
package main

import (
	"context"
	"runtime"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"golang.org/x/sync/errgroup"

	"github.com/ohnishi-git-dev/CloudPeek/camera"
	"github.com/ohnishi-git-dev/CloudPeek/loader"
	"github.com/ohnishi-git-dev/CloudPeek/pointcloud"
	"github.com/ohnishi-git-dev/CloudPeek/render"
	"github.com/ohnishi-git-dev/CloudPeek/viewer"
)

func main() {
	utils.ContextualMainQuit(mainWithArgs, logger)
}

func init() {
	// GLFW windowing has to happen on the startup thread.
	runtime.LockOSThread()
}

var (
	defaultFile = "data/lidar_kitti_sample.pcd"

	logger = golog.NewDevelopmentLogger("cloudpeek")
)

// Arguments for the command.
type Arguments struct {
	File        string  `flag:"0,usage=point cloud or event file (.pcd .ply .las .raw .csv)"`
	Color       string  `flag:"color,default=global,usage=distance coloring (none fixed global batch)"`
	MaxDistance float64 `flag:"max-distance,default=50,usage=distance at which coloring saturates"`
	Watch       bool    `flag:"watch,usage=reload the file whenever it changes on disk"`
	Width       int     `flag:"width,default=1920,usage=window width in pixels"`
	Height      int     `flag:"height,default=1080,usage=window height in pixels"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.File == "" {
		argsParsed.File = defaultFile
		logger.Infow("no file given; using default", "file", argsParsed.File)
	}
	colorMode, err := parseColorMode(argsParsed.Color)
	if err != nil {
		return err
	}
	return view(ctx, argsParsed, colorMode)
}

func view(ctx context.Context, args Arguments, colorMode loader.ColorMode) (err error) {
	v := viewer.New(viewer.Config{
		Render: render.Config{Width: args.Width, Height: args.Height},
		Camera: camera.DefaultConfig(),
	}, logger)
	defer func() {
		err = multierr.Combine(err, v.Close(context.Background()))
	}()

	src, err := loader.NewFileSource(args.File, logger)
	if err != nil {
		return err
	}

	streamCtx, cancelStream := context.WithCancel(ctx)
	defer cancelStream()
	eg, streamCtx := errgroup.WithContext(streamCtx)
	eg.Go(func() error {
		return loader.Stream(streamCtx, src, v, loader.Options{
			Color:       colorMode,
			MaxDistance: args.MaxDistance,
		}, logger)
	})
	if args.Watch {
		eg.Go(func() error {
			return viewer.WatchFile(streamCtx, args.File, v, func(path string) (pointcloud.Batch, error) {
				return loader.ReadFile(path, logger)
			}, logger)
		})
	}

	utils.ContextMainReadyFunc(ctx)()

	runErr := v.Run(ctx)
	cancelStream()
	waitErr := eg.Wait()
	if errors.Is(waitErr, context.Canceled) {
		waitErr = nil
	}
	return multierr.Combine(runErr, waitErr)
}

func parseColorMode(name string) (loader.ColorMode, error) {
	switch name {
	case "", "global":
		return loader.ColorGlobal, nil
	case "none":
		return loader.ColorNone, nil
	case "fixed":
		return loader.ColorFixed, nil
	case "batch":
		return loader.ColorPerBatch, nil
	default:
		return 0, errors.Errorf("unknown color mode %q", name)
	}
}
