// Command oxyplot connects to a plotting host over a websocket and draws the scenes it
// streams in a native window.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Carmen-Shannon/oxy-plot/engine"
	"github.com/Carmen-Shannon/oxy-plot/engine/config"
	"github.com/Carmen-Shannon/oxy-plot/engine/loader"
	"github.com/Carmen-Shannon/oxy-plot/engine/registry"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer"
	"github.com/Carmen-Shannon/oxy-plot/engine/session"
	"github.com/Carmen-Shannon/oxy-plot/engine/transport"
	"github.com/Carmen-Shannon/oxy-plot/engine/window"
)

// The smallest window that still fits a plot with its axes.
const (
	minWindowWidth  = 320
	minWindowHeight = 240
)

type flags struct {
	configPath string
	url        string
	headless   bool
	profile    bool
	logLevel   string
	software   bool
}

func main() {
	var f flags
	cmd := &cobra.Command{
		Use:           "oxyplot",
		Short:         "Draw the plots streamed by a plotting host",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, f)
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "config file (default "+config.DefaultPath+")")
	cmd.Flags().StringVar(&f.url, "url", "", "websocket URL of the plotting host")
	cmd.Flags().BoolVar(&f.headless, "headless", false, "run without a window or GPU")
	cmd.Flags().BoolVar(&f.profile, "profile", false, "log frame and memory statistics")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	cmd.Flags().BoolVar(&f.software, "software", false, "force the fallback software adapter")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "oxyplot:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the flags the user set on top of it.
func loadConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("url") {
		cfg.Host.URL = f.url
	}
	if cmd.Flags().Changed("headless") {
		cfg.Window.Headless = f.headless
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg config.Config, f flags) error {
	level := new(slog.LevelVar)
	lvl, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	level.Set(lvl)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var win window.Window
	backendType := renderer.BackendTypeHeadless
	if !cfg.Window.Headless {
		win, err = window.NewWindow(
			window.WithTitle(cfg.Window.Title),
			window.WithSize(cfg.Window.Width, cfg.Window.Height),
			window.WithSizeLimits(minWindowWidth, minWindowHeight, 0, 0),
		)
		if err != nil {
			return fmt.Errorf("create window: %w", err)
		}
		backendType = renderer.BackendTypeWGPU
	}

	presentMode, err := renderer.ParsePresentMode(cfg.Render.PresentMode)
	if err != nil {
		return err
	}
	msaa := renderer.MSAA4x
	if cfg.Render.MSAA == 1 {
		msaa = renderer.MSAAOff
	}
	var surface renderer.SurfaceSource
	if win != nil {
		surface = win
	}
	r, err := renderer.NewRenderer(backendType, surface,
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(msaa),
		renderer.WithForceSoftwareRenderer(f.software),
		renderer.WithBackgroundColor(cfg.Render.BackgroundColor),
		renderer.WithLogger(logger),
	)
	if err != nil {
		if win != nil {
			_ = win.Close()
		}
		return err
	}
	if win == nil {
		r.Resize(cfg.Window.Width, cfg.Window.Height)
	}

	reg := registry.NewContext(registry.WithSurface(r))
	ld := loader.NewLoader(loader.WithWorkers(cfg.Loader.Workers), loader.WithLogger(logger))
	defer ld.Close()
	sess := session.NewSession(reg, ld, session.WithLogger(logger))
	client := transport.NewClient(cfg.Host.URL, sess,
		transport.WithLogger(logger),
		transport.WithReconnectDelay(cfg.Host.ReconnectDelay.Duration),
	)

	eng := engine.NewEngine(reg,
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithLogger(logger),
		engine.WithProfiling(f.profile),
		engine.WithRenderFrameLimit(cfg.Render.FrameLimit),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sess.Run(gctx) })
	g.Go(func() error { return client.Run(gctx) })
	g.Go(func() error {
		err := config.Watch(gctx, f.configPath, logger, func(next config.Config) {
			applyReload(logger, level, eng, r, next)
		})
		if err != nil {
			logger.Warn("config reload disabled", "err", err)
		}
		return nil
	})
	// A failed background task or a signal stops the engine.
	g.Go(func() error {
		<-gctx.Done()
		eng.Quit()
		return nil
	})

	// The engine pumps window messages, which must happen on the main goroutine.
	engErr := eng.Run(ctx)
	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if engErr != nil && !errors.Is(engErr, context.Canceled) {
		return engErr
	}
	return nil
}

// applyReload applies the settings that can change while running. Host and window
// settings need a restart.
func applyReload(logger *slog.Logger, level *slog.LevelVar, eng engine.Engine, r renderer.Renderer, cfg config.Config) {
	if lvl, err := cfg.LogLevel(); err == nil {
		level.Set(lvl)
	}
	eng.SetRenderFrameLimit(cfg.Render.FrameLimit)
	if mode, err := renderer.ParsePresentMode(cfg.Render.PresentMode); err == nil {
		r.SetPresentMode(mode)
	}
	logger.Debug("applied config", "frame_limit", cfg.Render.FrameLimit, "present_mode", cfg.Render.PresentMode, "log_level", cfg.Log.Level)
}
