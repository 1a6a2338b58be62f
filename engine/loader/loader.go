package loader

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Carmen-Shannon/oxy-plot/engine/camera"
	"github.com/Carmen-Shannon/oxy-plot/engine/plot"
	"github.com/Carmen-Shannon/oxy-plot/engine/registry"
	"github.com/Carmen-Shannon/oxy-plot/engine/scene"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.Mutex

	logger  *slog.Logger
	workers int
	pool    worker.DynamicWorkerPool
	nextID  int
	closed  bool
}

// Loader turns host scene descriptions into live scenes.
//
// Plot preparation (geometry building and uniform decoding) touches no shared state and
// is fanned out to a worker pool. Everything that mutates the registry runs on the
// calling goroutine, in description order.
type Loader interface {
	// LoadScene builds the scene tree of desc and registers every scene and plot in reg.
	// Each scene is registered before its plots and children are built. The root scene
	// is attached to the registry's surface. A scene already registered under the same
	// id is torn down first. On error the partially built tree is removed again.
	//
	// Parameters:
	//   - ctx: cancels plot preparation between plots
	//   - desc: the host scene description
	//   - reg: the registry receiving the scenes and plots
	//
	// Returns:
	//   - scene.Scene: the root scene
	//   - error: ErrMissingCamera, a plot build error or the context error
	LoadScene(ctx context.Context, desc SceneDescription, reg *registry.Context) (scene.Scene, error)

	// BuildPlots prepares plots from host specs against a camera without registering them.
	//
	// Parameters:
	//   - ctx: cancels preparation
	//   - cam: the camera whose uniforms are injected
	//   - specs: the host plot descriptions
	//
	// Returns:
	//   - []plot.Plot: the plots, in spec order
	//   - error: the first build error in spec order; no plots are returned with it
	BuildPlots(ctx context.Context, cam camera.Camera, specs []plot.Spec) ([]plot.Plot, error)

	// Close stops the worker pool. The loader must not be used afterwards.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the new loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		logger:  slog.Default(),
		workers: runtime.NumCPU(),
	}
	for _, option := range options {
		option(l)
	}
	if l.workers < 1 {
		l.workers = 1
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)
	return l
}

func (l *loader) LoadScene(ctx context.Context, desc SceneDescription, reg *registry.Context) (scene.Scene, error) {
	root, err := l.loadScene(ctx, desc, reg)
	if err != nil {
		if root != nil {
			reg.DeleteScene(root.ID())
		}
		return nil, err
	}
	if surface := reg.Surface(); surface != nil {
		surface.AddScene(root)
	}
	return root, nil
}

func (l *loader) loadScene(ctx context.Context, desc SceneDescription, reg *registry.Context) (scene.Scene, error) {
	cam, err := newSceneCamera(desc)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", desc.UUID, err)
	}

	s := scene.NewScene(desc.UUID, cam,
		scene.WithVisible(desc.IsVisible()),
		scene.WithBackgroundColor(desc.BackgroundColor),
		scene.WithClear(desc.ClearScene),
		scene.WithPixelArea(desc.Area()),
	)
	// a reloaded id replaces the whole old tree
	reg.DeleteScene(desc.UUID)
	reg.AddScene(s)

	plots, err := l.BuildPlots(ctx, cam, desc.Plots)
	if err != nil {
		return s, fmt.Errorf("scene %s: %w", desc.UUID, err)
	}
	for _, p := range plots {
		reg.AddPlot(s.ID(), p)
	}
	l.logger.Debug("scene loaded", "scene", desc.UUID, "plots", len(plots), "controller", s.UsesController())

	for _, childDesc := range desc.Children {
		child, err := l.loadScene(ctx, childDesc, reg)
		if child != nil {
			s.AddChild(child)
		}
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

// newSceneCamera creates the camera of a scene. An interactive camera state takes
// precedence over host camera values, which are then ignored by the scene.
func newSceneCamera(desc SceneDescription) (camera.Camera, error) {
	area := desc.Area()
	opts := []camera.CameraBuilderOption{}
	if area.Width > 0 && area.Height > 0 {
		opts = append(opts, camera.WithResolution(float32(area.Width), float32(area.Height)))
	}
	cam := camera.NewCamera(opts...)

	switch {
	case desc.Cam3DState != nil:
		camera.NewControllerFromState(cam, *desc.Cam3DState)
		cam.Tick()
	case desc.Camera != nil:
		desc.Camera.Apply(cam)
	default:
		return nil, ErrMissingCamera
	}
	return cam, nil
}

func (l *loader) BuildPlots(ctx context.Context, cam camera.Camera, specs []plot.Spec) ([]plot.Plot, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plots := make([]plot.Plot, len(specs))
	errs := make([]error, len(specs))

	if len(specs) == 1 {
		plots[0], errs[0] = plot.NewPlot(specs[0], cam)
	} else {
		var wg sync.WaitGroup
		for i := range specs {
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				continue
			}
			wg.Add(1)
			l.pool.SubmitTask(worker.Task{
				ID:      l.taskID(),
				Payload: specs[i].UUID,
				Do: func() (any, error) {
					defer wg.Done()
					plots[i], errs[i] = plot.NewPlot(specs[i], cam)
					return plots[i], errs[i]
				},
			})
		}
		wg.Wait()
	}

	for i, err := range errs {
		if err == nil {
			continue
		}
		for _, p := range plots {
			if p != nil {
				p.Dispose()
			}
		}
		return nil, fmt.Errorf("plot %s: %w", specs[i].UUID, err)
	}
	return plots, nil
}

func (l *loader) taskID() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	return l.nextID
}

func (l *loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.pool.Stop()
}
