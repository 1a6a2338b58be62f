package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-plot/common"
	"github.com/Carmen-Shannon/oxy-plot/engine/camera"
	"github.com/Carmen-Shannon/oxy-plot/engine/registry"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer"
	"github.com/Carmen-Shannon/oxy-plot/engine/scene"
	"github.com/Carmen-Shannon/oxy-plot/engine/window"
)

func controllerScene(id string, opts ...scene.SceneBuilderOption) scene.Scene {
	cam := camera.NewCamera(camera.WithController(camera.NewOrbitController()))
	return scene.NewScene(id, cam, opts...)
}

func newHeadlessEngine(t *testing.T, roots ...scene.Scene) (*engine, *registry.Context) {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeHeadless, nil)
	require.NoError(t, err)
	r.Resize(800, 600)
	reg := registry.NewContext(registry.WithSurface(r))
	require.NoError(t, reg.Update(func() error {
		for _, s := range roots {
			reg.AddScene(s)
			r.AddScene(s)
		}
		return nil
	}))
	e := NewEngine(reg, WithRenderer(r)).(*engine)
	return e, reg
}

func TestNewEnginePanicsWithoutRenderer(t *testing.T) {
	assert.Panics(t, func() { NewEngine(registry.NewContext()) })
	assert.Panics(t, func() { NewEngine(nil) })
}

func TestSceneAt(t *testing.T) {
	left := controllerScene("left", scene.WithPixelArea(common.Rect{X: 0, Y: 0, Width: 400, Height: 600}))
	right := scene.NewScene("right", camera.NewCamera(), scene.WithPixelArea(common.Rect{X: 400, Y: 0, Width: 400, Height: 600}))
	inset := controllerScene("inset", scene.WithPixelArea(common.Rect{X: 0, Y: 0, Width: 100, Height: 100}))
	left.AddChild(inset)
	hidden := controllerScene("hidden", scene.WithVisible(false))
	roots := []scene.Scene{left, right, hidden}

	tests := []struct {
		name   string
		x, y   int
		wantID string
	}{
		{name: "left half", x: 200, y: 100, wantID: "left"},
		{name: "inset in bottom left corner", x: 50, y: 550, wantID: "inset"},
		{name: "scene without controller", x: 600, y: 300, wantID: ""},
		{name: "outside every scene", x: 900, y: 300, wantID: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := sceneAt(roots, tt.x, tt.y, 800, 600)
			if tt.wantID == "" {
				assert.Nil(t, s)
				return
			}
			require.NotNil(t, s)
			assert.Equal(t, tt.wantID, s.ID())
		})
	}
}

func TestSceneAtFullSurface(t *testing.T) {
	full := controllerScene("full")
	s, area := sceneAt([]scene.Scene{full}, 10, 10, 800, 600)
	require.NotNil(t, s)
	assert.Equal(t, common.Rect{Width: 800, Height: 600}, area)
}

func TestInputTake(t *testing.T) {
	in := &input{}
	_, ok := in.take()
	assert.False(t, ok)

	in.resize(800, 600)
	in.move(5, 5)
	in.button(window.MouseButtonLeft, true, 10, 20)
	in.move(15, 18)
	in.move(20, 20)
	in.button(window.MouseButtonLeft, false, 20, 20)
	in.move(40, 40)

	g, ok := in.take()
	require.True(t, ok)
	assert.True(t, g.resized)
	assert.Equal(t, 800, g.width)
	assert.Equal(t, 10, g.x)
	assert.Equal(t, 20, g.y)
	assert.Equal(t, float32(10), g.orbitX)
	assert.Equal(t, float32(0), g.orbitY)
	assert.Zero(t, g.panX)

	_, ok = in.take()
	assert.False(t, ok)

	in.button(window.MouseButtonRight, true, 0, 0)
	in.move(0, 6)
	in.scroll(0, 0, 2)
	g, ok = in.take()
	require.True(t, ok)
	assert.False(t, g.resized)
	assert.Equal(t, float32(6), g.panY)
	assert.Equal(t, float32(2), g.zoom)
	assert.True(t, g.hasGesture())
}

func TestTickAppliesGestureToController(t *testing.T) {
	s := controllerScene("s")
	e, _ := newHeadlessEngine(t, s)
	ctrl := s.Camera().Controller()
	azimuth, radius := ctrl.Azimuth(), ctrl.Radius()

	e.input.resize(800, 600)
	e.input.button(window.MouseButtonLeft, true, 100, 100)
	e.input.move(140, 100)
	e.input.button(window.MouseButtonLeft, false, 140, 100)
	e.input.scroll(140, 100, 1)
	e.tick()

	assert.NotEqual(t, azimuth, ctrl.Azimuth())
	assert.Less(t, ctrl.Radius(), radius)
}

func TestRunHeadless(t *testing.T) {
	e, _ := newHeadlessEngine(t, controllerScene("s"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, e.Run(ctx), context.DeadlineExceeded)

	e2, _ := newHeadlessEngine(t)
	done := make(chan error, 1)
	go func() { done <- e2.Run(context.Background()) }()
	e2.Quit()
	e2.Quit()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop after Quit")
	}
}

func TestSetTickRateAndFrameLimit(t *testing.T) {
	e, _ := newHeadlessEngine(t)
	e.SetTickRate(0)
	assert.Equal(t, time.Second/60, e.engineTickRate)
	e.SetTickRate(120)
	assert.Equal(t, time.Second/120, e.engineTickRate)
	e.SetRenderFrameLimit(30)
	assert.Equal(t, int64(time.Duration(float64(time.Second)/30)), e.renderFrameLimit.Load())
	e.SetRenderFrameLimit(-1)
	assert.Zero(t, e.renderFrameLimit.Load())
}
