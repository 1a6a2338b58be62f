package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-plot/common"
	"github.com/Carmen-Shannon/oxy-plot/engine/profiler"
	"github.com/Carmen-Shannon/oxy-plot/engine/registry"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer"
	"github.com/Carmen-Shannon/oxy-plot/engine/scene"
	"github.com/Carmen-Shannon/oxy-plot/engine/window"
)

// headlessFrameLimit caps the render loop when there is no display to pace it.
const headlessFrameLimit = time.Second / 60

// engine implements the Engine interface.
// Coordinates the tick, render and window goroutines.
type engine struct {
	reg      *registry.Context
	window   window.Window
	renderer renderer.Renderer
	logger   *slog.Logger

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate   time.Duration
	renderFrameLimit atomic.Int64 // minimum frame duration in nanoseconds; 0 = uncapped

	input *input
}

// Engine drives the renderer and the interactive cameras of a registry.
//
// The render loop draws every frame from the registry under its read lock. The tick loop
// applies accumulated window input (orbit, pan, zoom and resize) to controller-driven
// cameras under the registry's write lock, so window callbacks never wait on a frame.
// Without a window the engine runs headless at a capped frame rate.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance, nil when headless
	Window() window.Window

	// Renderer returns the renderer the engine drives.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the input tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default). Headless engines are always capped.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the tick and render loops and blocks until ctx is done, the window is
	// closed or Quit is called. With a window it must be called from the main goroutine
	// because it pumps window messages. The renderer and window are released on return.
	//
	// Parameters:
	//   - ctx: stops the engine
	//
	// Returns:
	//   - error: nil on a window close or Quit, otherwise the context error
	Run(ctx context.Context) error

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine over a registry. The renderer is required; the window
// is optional.
//
// Parameters:
//   - reg: the registry whose attached scenes are drawn
//   - options: functional options for engine configuration (window, renderer, profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(reg *registry.Context, options ...EngineBuilderOption) Engine {
	if reg == nil {
		panic("engine: registry is required")
	}
	e := &engine{
		reg:             reg,
		logger:          slog.Default(),
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		engineTickRate:  time.Second / 60,
		input:           &input{},
	}

	for _, opt := range options {
		opt(e)
	}
	if e.renderer == nil {
		panic("engine: renderer is required")
	}
	e.profiler = profiler.NewProfiler(e.logger, time.Second)

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			e.renderer.Resize(width, height)
			e.input.resize(width, height)
		})
		e.window.SetMouseButtonCallback(e.input.button)
		e.window.SetMouseMoveCallback(e.input.move)
		e.window.SetScrollCallback(e.input.scroll)
		e.input.resize(e.window.Width(), e.window.Height())
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Run(ctx context.Context) error {
	e.running.Store(true)
	defer e.running.Store(false)

	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()

	var err error
	if e.window != nil {
		e.window.SetUpdateCallback(func() {
			select {
			case <-ctx.Done():
				e.window.RequestClose()
			case <-e.quitChannel:
				e.window.RequestClose()
			default:
			}
		})
		e.window.ProcessMessages()
		err = ctx.Err()
	} else {
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-e.quitChannel:
		}
	}

	e.signalQuit()
	e.wg.Wait()
	e.renderer.Release()
	if e.window != nil {
		if cerr := e.window.Close(); cerr != nil {
			e.logger.Warn("close window", "error", cerr)
		}
	}
	return err
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate tick loop in its own goroutine and listens for dynamic
// rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			e.tick()
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// tick applies the input accumulated since the previous tick.
func (e *engine) tick() {
	in, ok := e.input.take()
	if !ok {
		return
	}
	_ = e.reg.Update(func() error {
		roots := e.renderer.Scenes()
		if in.resized {
			resizeFullSurfaceCameras(roots, in.width, in.height)
		}
		if in.hasGesture() {
			if s, area := sceneAt(roots, in.x, in.y, in.width, in.height); s != nil {
				applyGesture(s, area, in)
			}
		}
		return nil
	})
}

// handleRender runs the (optionally frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("render goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	failing := false
	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}
		frameStart := time.Now()

		err := e.renderer.Render(e.reg)
		switch {
		case err != nil && !failing:
			e.logger.Warn("frame failed", "error", err)
			failing = true
		case err == nil && failing:
			e.logger.Info("frames recovered")
			failing = false
		}

		if e.profilingEnabled.Load() {
			stats := e.renderer.Stats()
			e.profiler.Tick("scenes", stats.Scenes, "draws", stats.Draws, "uploads", stats.Uploads, "writes", stats.Writes, "skipped", stats.Skipped)
		}

		limit := time.Duration(e.renderFrameLimit.Load())
		if e.window == nil && (limit == 0 || limit < headlessFrameLimit) {
			limit = headlessFrameLimit
		}
		if limit > 0 {
			if remaining := limit - time.Since(frameStart); remaining > 0 {
				select {
				case <-e.quitChannel:
					return
				case <-time.After(remaining):
				}
			}
		}
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}
	// Non-blocking send - if channel is full, replace the pending value
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop. Safe to call from any goroutine.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit.Store(0)
		return
	}
	e.renderFrameLimit.Store(int64(time.Duration(float64(time.Second) / fps)))
}

// sceneAt returns the deepest visible scene whose area contains the cursor and whose camera
// is driven by a controller, plus that scene's area in bottom-left origin pixels. Later
// siblings are drawn on top, so they are hit first.
func sceneAt(scenes []scene.Scene, x, y, width, height int) (scene.Scene, common.Rect) {
	for i := len(scenes) - 1; i >= 0; i-- {
		s := scenes[i]
		if !s.Visible() {
			continue
		}
		area := s.PixelArea()
		if area.Width <= 0 || area.Height <= 0 {
			area = common.Rect{Width: width, Height: height}
		}
		// Window cursor positions have a top-left origin; scene areas a bottom-left one.
		fy := height - y
		if x < area.X || x >= area.X+area.Width || fy < area.Y || fy >= area.Y+area.Height {
			continue
		}
		if child, childArea := sceneAt(s.Children(), x, y, width, height); child != nil {
			return child, childArea
		}
		if s.UsesController() {
			return s, area
		}
	}
	return nil, common.Rect{}
}

// applyGesture feeds a tick's accumulated gesture to the scene's controller and rebuilds
// the camera matrices.
func applyGesture(s scene.Scene, area common.Rect, in gesture) {
	cam := s.Camera()
	ctrl := cam.Controller()
	if in.orbitX != 0 || in.orbitY != 0 {
		ctrl.Drag(in.orbitX, in.orbitY)
	}
	if (in.panX != 0 || in.panY != 0) && area.Height > 0 {
		h := float32(area.Height)
		ctrl.Pan(-in.panX/h, in.panY/h)
	}
	if in.zoom != 0 {
		ctrl.Zoom(in.zoom)
	}
	cam.Tick()
}

// resizeFullSurfaceCameras keeps the aspect ratio of controller cameras whose scene covers
// the whole surface. Scenes with an explicit pixel area are resized when the area is set.
func resizeFullSurfaceCameras(scenes []scene.Scene, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	for _, s := range scenes {
		if a := s.PixelArea(); s.UsesController() && (a.Width <= 0 || a.Height <= 0) {
			s.Camera().Resize(float32(width), float32(height))
			s.Camera().Tick()
		}
		resizeFullSurfaceCameras(s.Children(), width, height)
	}
}
