// Package main implements an interactive viewer that replays a texture pool trace
// on an OpenGL context and shows the resulting VRAM slots.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v3.2-core/gl"
	"github.com/inkyblackness/imgui-go/v4"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/texpool/internal/cli"
	"github.com/retroenv/texpool/internal/config"
	"github.com/retroenv/texpool/internal/debugwin"
	"github.com/retroenv/texpool/internal/fileprocessor"
	"github.com/retroenv/texpool/internal/gpu/glbackend"
	"github.com/retroenv/texpool/internal/options"
	"github.com/retroenv/texpool/internal/report"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

const windowTitle = "texpoolview"

func init() {
	// SDL and OpenGL calls have to be issued from the main thread
	runtime.LockOSThread()
}

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			fileprocessor.PrintBanner(logger, opts, version, commit, date)
			if usageErr.Error() != "" {
				logger.Error(usageErr.Error())
			}
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	fileprocessor.PrintBanner(logger, opts, version, commit, date)

	if err := run(ctx, logger, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Error("Viewer failed", log.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *log.Logger, opts options.Program) error {
	plt, err := newPlatform(fmt.Sprintf("%s (%s)", windowTitle, version))
	if err != nil {
		return err
	}
	defer func() {
		if err := plt.destroy(); err != nil {
			logger.Error("Closing window failed", log.Err(err))
		}
	}()

	imguiContext := imgui.CreateContext(nil)
	defer imguiContext.Destroy()
	io := imgui.CurrentIO()
	setKeyMapping(io)

	backend, err := glbackend.New()
	if err != nil {
		return err
	}
	logger.Debug("OpenGL context created", log.String("version", gl.GoStr(gl.GetString(gl.VERSION))))

	rnd, err := newRenderer(io)
	if err != nil {
		return err
	}
	defer rnd.destroy()

	pool, err := fileprocessor.Replay(ctx, logger, opts, backend)
	if err != nil {
		return err
	}

	if opts.Dump != "" {
		filter, err := report.NewFilter(opts.Filter)
		if err != nil {
			return err
		}
		if err := fileprocessor.Dump(logger, backend, opts, report.Rows(pool, filter)); err != nil {
			return err
		}
	}

	win := debugwin.New(pool)
	win.SetFilter(opts.Filter)

	last := time.Now()
	for win.Open() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !plt.processEvents(io) {
			return nil
		}

		now := time.Now()
		io.SetDeltaTime(float32(now.Sub(last).Seconds()))
		last = now

		plt.newFrame(io)
		imgui.NewFrame()
		win.Draw()
		imgui.Render()

		rnd.preRender()
		rnd.render(plt.displaySize(), plt.framebufferSize(), imgui.RenderedDrawData())
		plt.postRender()
	}
	return nil
}
