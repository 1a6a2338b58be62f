package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-plot/common"
	"github.com/Carmen-Shannon/oxy-plot/engine/camera"
	"github.com/Carmen-Shannon/oxy-plot/engine/plot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlot(t *testing.T, id string, cam camera.Camera) plot.Plot {
	t.Helper()
	p, err := plot.NewPlot(plot.Spec{UUID: id, PlotType: plot.TypeMesh}, cam)
	require.NoError(t, err)
	return p
}

func TestNewScenePanicsWithoutCamera(t *testing.T) {
	assert.Panics(t, func() { NewScene("s", nil) })
}

func TestSceneContainer(t *testing.T) {
	s := NewScene("s", camera.NewCamera())
	a, b := newPlot(t, "a", s.Camera()), newPlot(t, "b", s.Camera())

	s.AddPlot(a)
	s.AddPlot(b)
	s.AddPlot(a)
	require.Len(t, s.Plots(), 2)
	assert.Equal(t, "a", s.Plots()[0].ID())

	assert.True(t, s.RemovePlot("a"))
	assert.False(t, s.RemovePlot("a"))
	_, ok := s.Plot("b")
	assert.True(t, ok)

	s.ClearContainer()
	assert.Empty(t, s.Plots())
	assert.False(t, b.Disposed())
}

func TestSceneChildren(t *testing.T) {
	parent := NewScene("parent", camera.NewCamera())
	child := NewScene("child", camera.NewCamera())

	parent.AddChild(child)

	assert.Same(t, parent, child.Parent())
	require.Len(t, parent.Children(), 1)
	assert.True(t, parent.RemoveChild("child"))
	assert.Empty(t, parent.Children())
}

func TestUpdateCameraIgnoredWithController(t *testing.T) {
	s := NewScene("s", camera.NewCamera())
	id := common.Identity4()
	assert.True(t, s.UpdateCamera(id, id, [2]float32{10, 10}, [3]float32{}))

	camera.NewControllerFromState(s.Camera(), camera.Cam3DState{EyePosition: [3]float32{5, 5, 5}})
	assert.True(t, s.UsesController())
	assert.False(t, s.UpdateCamera(id, id, [2]float32{10, 10}, [3]float32{}))

	s.SetPixelArea(common.Rect{Width: 300, Height: 200})
	assert.Equal(t, common.Rect{Width: 300, Height: 200}, s.PixelArea())
}

func TestSceneProperties(t *testing.T) {
	s := NewScene("s", camera.NewCamera(),
		WithVisible(false),
		WithClear(false),
		WithBackgroundColor([4]float32{0, 0, 0, 1}),
	)
	assert.False(t, s.Visible())
	assert.False(t, s.Clear())
	assert.Equal(t, [4]float32{0, 0, 0, 1}, s.BackgroundColor())
}
