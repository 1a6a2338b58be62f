package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-plot/common"
	"github.com/Carmen-Shannon/oxy-plot/engine/camera"
	"github.com/Carmen-Shannon/oxy-plot/engine/loader"
	"github.com/Carmen-Shannon/oxy-plot/engine/plot"
	"github.com/Carmen-Shannon/oxy-plot/engine/registry"
	"github.com/Carmen-Shannon/oxy-plot/engine/uniform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity() [16]float32 {
	return common.Identity4()
}

func meshSpec(id string) plot.Spec {
	return plot.Spec{
		UUID:         id,
		PlotType:     plot.TypeMesh,
		Uniforms:     map[string]any{"color": []any{1.0, 0.0, 0.0, 1.0}},
		VertexArrays: map[string]plot.Buffer{"position": {Flat: make([]float32, 9), ItemSize: 3}},
	}
}

func sceneDesc(id string, plots ...plot.Spec) loader.SceneDescription {
	return loader.SceneDescription{
		UUID:      id,
		PixelArea: [4]int{0, 0, 640, 480},
		Camera: &loader.CameraState{
			View:       identity(),
			Projection: identity(),
			Resolution: [2]float32{640, 480},
		},
		Plots: plots,
	}
}

func newTestSession(t *testing.T, options ...SessionBuilderOption) Session {
	t.Helper()
	ld := loader.NewLoader(loader.WithWorkers(2))
	t.Cleanup(ld.Close)
	return NewSession(registry.NewContext(), ld, options...)
}

func TestHandleLifecycle(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	reg := s.Registry()

	require.NoError(t, s.Handle(ctx, &LoadScene{Scene: sceneDesc("s", meshSpec("a"))}))
	require.NoError(t, s.Handle(ctx, InsertPlots{SceneID: "s", Plots: []plot.Spec{meshSpec("b"), {UUID: "line", PlotType: plot.TypeLines, Positions: []float32{0, 0, 1, 1}}}}))
	assert.Equal(t, 3, reg.PlotCount())

	require.NoError(t, s.Handle(ctx, AttributeUpdate{PlotID: "a", Name: "position", Values: []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, Length: 3}))
	a, ok := reg.FindPlot("a")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, a.Model().Geometry().Attribute("position").Array)

	require.NoError(t, s.Handle(ctx, UniformUpdate{PlotID: "a", Name: "color", Value: []any{0.0, 1.0, 0.0, 1.0}}))
	assert.Equal(t, []float32{0, 1, 0, 1}, uniform.Floats(a.Model().Material().Uniform("color").Value))

	require.NoError(t, s.Handle(ctx, VisibleUpdate{PlotID: "a", Visible: false}))
	assert.False(t, a.Visible())

	require.NoError(t, s.Handle(ctx, FacesUpdate{PlotID: "a", Faces: []uint32{0, 1, 2}}))
	assert.Equal(t, []uint32{0, 1, 2}, a.Model().Geometry().Index())

	line, _ := reg.FindPlot("line")
	before := line.Model().Geometry()
	require.NoError(t, s.Handle(ctx, AttributeUpdate{PlotID: "line", Name: plot.PositionsUpdate, Values: []float32{0, 0, 1, 1, 2, 4, 3, 9}}))
	assert.True(t, line.Model().Geometry() != before)
	assert.True(t, before.Disposed())
	assert.Equal(t, 3, line.Model().Geometry().InstanceCount())

	require.NoError(t, s.Handle(ctx, DeletePlots{SceneID: "s", PlotIDs: []string{"b"}}))
	require.NoError(t, s.Handle(ctx, DeleteScenes{SceneIDs: []string{"s"}}))
	assert.Equal(t, 0, reg.PlotCount())
	assert.True(t, a.Disposed())
}

func TestHandleMissingIDsAreNoops(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	msgs := []Message{
		InsertPlots{SceneID: "gone", Plots: []plot.Spec{meshSpec("a")}},
		DeletePlots{SceneID: "gone", PlotIDs: []string{"a"}},
		DeleteScenes{SceneIDs: []string{"gone"}, PlotIDs: []string{"a"}},
		AttributeUpdate{PlotID: "a", Name: "position", Values: []float32{1}, Length: 1},
		UniformUpdate{PlotID: "a", Name: "color", Value: 1.0},
		VisibleUpdate{PlotID: "a"},
		FacesUpdate{PlotID: "a"},
		CameraUpdate{SceneID: "gone"},
		SceneUpdate{SceneID: "gone"},
	}
	for _, msg := range msgs {
		t.Run(string(msg.Kind()), func(t *testing.T) {
			assert.NoError(t, s.Handle(ctx, msg))
		})
	}
	assert.Equal(t, 0, s.Registry().PlotCount())
}

func TestHandleUnknownAttribute(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, s.Handle(ctx, LoadScene{Scene: sceneDesc("s", meshSpec("a"))}))

	err := s.Handle(ctx, AttributeUpdate{PlotID: "a", Name: "normal", Values: []float32{1}, Length: 1})
	assert.ErrorIs(t, err, plot.ErrUnknownAttribute)
}

func TestCameraAndSceneUpdates(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	interactive := sceneDesc("orbit")
	interactive.Camera = nil
	interactive.Cam3DState = &camera.Cam3DState{EyePosition: [3]float32{5, 5, 5}, Fov: 45}
	host := sceneDesc("host")
	host.Children = []loader.SceneDescription{interactive}
	require.NoError(t, s.Handle(ctx, LoadScene{Scene: host}))

	reg := s.Registry()
	hostScene, _ := reg.FindScene("host")
	orbitScene, _ := reg.FindScene("orbit")
	orbitView := uniform.Floats(orbitScene.Camera().View().Value)
	orbitBefore := append([]float32(nil), orbitView...)

	moved := identity()
	moved[12] = 3
	update := loader.CameraState{View: moved, Projection: identity(), Resolution: [2]float32{100, 50}}
	require.NoError(t, s.Handle(ctx, CameraUpdate{SceneID: "host", Camera: update}))
	require.NoError(t, s.Handle(ctx, CameraUpdate{SceneID: "orbit", Camera: update}))

	assert.Equal(t, moved[:], uniform.Floats(hostScene.Camera().View().Value))
	assert.Equal(t, orbitBefore, uniform.Floats(orbitScene.Camera().View().Value))

	hidden := false
	color := [4]float32{0, 0, 0, 1}
	area := [4]int{1, 2, 30, 40}
	require.NoError(t, s.Handle(ctx, SceneUpdate{SceneID: "host", Visible: &hidden, BackgroundColor: &color, PixelArea: &area}))
	assert.False(t, hostScene.Visible())
	assert.Equal(t, color, hostScene.BackgroundColor())
	assert.Equal(t, common.Rect{X: 1, Y: 2, Width: 30, Height: 40}, hostScene.PixelArea())
	assert.False(t, hostScene.Clear())
}

func TestSnapshotRepliesOnNextInsert(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, s.Handle(ctx, LoadScene{Scene: sceneDesc("s")}))

	type reply struct{ id, plotID string }
	var replies []reply
	record := func(id, plotID string) { replies = append(replies, reply{id, plotID}) }

	require.NoError(t, s.Handle(ctx, Snapshot{ID: "first", Reply: record}))
	require.NoError(t, s.Handle(ctx, Snapshot{ID: "cancelled", Reply: record}))
	require.NoError(t, s.Handle(ctx, Snapshot{ID: "cancelled", Cancel: true}))
	require.NoError(t, s.Handle(ctx, InsertPlots{SceneID: "s", Plots: []plot.Spec{meshSpec("a"), meshSpec("b")}}))

	assert.Equal(t, []reply{{"first", "a"}}, replies)
}

func TestRunProcessesInSendOrder(t *testing.T) {
	var failures []error
	s := newTestSession(t, WithErrorListener(func(msg Message, err error) {
		failures = append(failures, err)
	}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.NoError(t, s.Send(ctx, LoadScene{Scene: sceneDesc("s", meshSpec("a"))}))
	require.NoError(t, s.Send(ctx, AttributeUpdate{PlotID: "a", Name: "missing", Values: []float32{1}, Length: 1}))
	require.NoError(t, s.Send(ctx, DeletePlots{SceneID: "s", PlotIDs: []string{"a"}}))

	inserted := make(chan string, 1)
	require.NoError(t, s.Send(ctx, Snapshot{ID: "x", Reply: func(id, plotID string) { inserted <- plotID }}))
	require.NoError(t, s.Send(ctx, InsertPlots{SceneID: "s", Plots: []plot.Spec{meshSpec("b")}}))

	select {
	case id := <-inserted:
		assert.Equal(t, "b", id)
	case <-time.After(5 * time.Second):
		t.Fatal("no insert notification")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.ErrorIs(t, s.Send(context.Background(), DeletePlots{}), ErrClosed)

	require.Len(t, failures, 1)
	assert.True(t, errors.Is(failures[0], plot.ErrUnknownAttribute))
	_, ok := s.Registry().FindPlot("a")
	assert.False(t, ok)
}

func TestNewMessageKinds(t *testing.T) {
	kinds := []Kind{KindScene, KindInsertPlots, KindDeletePlots, KindDeleteScenes, KindAttribute,
		KindUniform, KindVisible, KindFaces, KindCamera, KindSceneUpdate, KindSnapshot}
	for _, k := range kinds {
		msg, ok := New(k)
		require.True(t, ok, k)
		assert.Equal(t, k, msg.Kind())
	}
	_, ok := New("bogus")
	assert.False(t, ok)
}
