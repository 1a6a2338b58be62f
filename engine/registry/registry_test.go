package registry

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-plot/engine/camera"
	"github.com/Carmen-Shannon/oxy-plot/engine/plot"
	"github.com/Carmen-Shannon/oxy-plot/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSurface struct {
	added   []string
	removed []string
}

func (r *recordingSurface) AddScene(s scene.Scene)    { r.added = append(r.added, s.ID()) }
func (r *recordingSurface) RemoveScene(s scene.Scene) { r.removed = append(r.removed, s.ID()) }

func meshSpec(id string) plot.Spec {
	return plot.Spec{
		UUID:         id,
		PlotType:     plot.TypeMesh,
		VertexArrays: map[string]plot.Buffer{"position": {Flat: make([]float32, 9), ItemSize: 3}},
	}
}

func newScene(id string) scene.Scene {
	return scene.NewScene(id, camera.NewCamera())
}

func TestInsertThenDeletePlot(t *testing.T) {
	c := NewContext()
	c.AddScene(newScene("s"))
	require.NoError(t, c.InsertPlot("s", meshSpec("p")))

	p, ok := c.FindPlot("p")
	require.True(t, ok)
	geomDisposed, matDisposed := 0, 0
	p.Model().Geometry().OnDispose(func() { geomDisposed++ })
	p.Model().Material().OnDispose(func() { matDisposed++ })

	c.DeletePlots("s", []string{"p"})
	c.DeletePlots("s", []string{"p"})
	c.DeleteScenes(nil, []string{"p"})

	_, ok = c.FindPlot("p")
	assert.False(t, ok)
	s, _ := c.FindScene("s")
	assert.Empty(t, s.Plots())
	assert.Equal(t, 1, geomDisposed)
	assert.Equal(t, 1, matDisposed)
	assert.Equal(t, 0, c.PlotCount())
}

func TestInsertIntoMissingSceneIsNoop(t *testing.T) {
	c := NewContext()
	assert.NoError(t, c.InsertPlot("missing", meshSpec("p")))
	_, ok := c.FindPlot("p")
	assert.False(t, ok)
}

func TestInsertPlotError(t *testing.T) {
	c := NewContext()
	c.AddScene(newScene("s"))
	err := c.InsertPlot("s", meshSpec("ok"), plot.Spec{UUID: "bad", PlotType: "Volume"})
	assert.ErrorIs(t, err, plot.ErrUnknownPlotType)
	_, ok := c.FindPlot("ok")
	assert.True(t, ok)
}

func TestReinsertReplacesPlot(t *testing.T) {
	c := NewContext()
	c.AddScene(newScene("s"))
	require.NoError(t, c.InsertPlot("s", meshSpec("p")))
	first, _ := c.FindPlot("p")

	require.NoError(t, c.InsertPlot("s", meshSpec("p")))
	second, _ := c.FindPlot("p")

	assert.NotSame(t, first, second)
	assert.True(t, first.Disposed())
	s, _ := c.FindScene("s")
	assert.Len(t, s.Plots(), 1)
}

func TestFindPlotsSkipsMissing(t *testing.T) {
	c := NewContext()
	c.AddScene(newScene("s"))
	require.NoError(t, c.InsertPlot("s", meshSpec("a"), meshSpec("b")))

	got := c.FindPlots([]string{"b", "missing", "a"})
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID())
	assert.Equal(t, "a", got[1].ID())
}

func TestDeleteSceneRecursive(t *testing.T) {
	surface := &recordingSurface{}
	c := NewContext(WithSurface(surface))

	root := newScene("root")
	child := newScene("child")
	grandchild := newScene("grandchild")

	// children registered before their parent
	c.AddScene(grandchild)
	c.AddScene(child)
	c.AddScene(root)
	root.AddChild(child)
	child.AddChild(grandchild)
	require.NoError(t, c.InsertPlot("grandchild", meshSpec("g1")))
	require.NoError(t, c.InsertPlot("root", meshSpec("r1")))
	g1, _ := c.FindPlot("g1")

	assert.Len(t, c.Roots(), 1)

	c.DeleteScene("root")
	c.DeleteScene("root")

	for _, id := range []string{"root", "child", "grandchild"} {
		_, ok := c.FindScene(id)
		assert.False(t, ok, id)
	}
	assert.Empty(t, c.FindPlots([]string{"g1", "r1"}))
	assert.True(t, g1.Disposed())
	assert.ElementsMatch(t, []string{"root", "child", "grandchild"}, surface.removed)
	assert.Empty(t, c.Scenes())
}

func TestDeleteScenesPlotsFirst(t *testing.T) {
	c := NewContext()
	c.AddScene(newScene("a"))
	c.AddScene(newScene("b"))
	require.NoError(t, c.InsertPlot("b", meshSpec("p")))

	c.DeleteScenes([]string{"a", "missing"}, []string{"p", "missing"})

	_, ok := c.FindScene("a")
	assert.False(t, ok)
	b, ok := c.FindScene("b")
	require.True(t, ok)
	assert.Empty(t, b.Plots())
}

func TestOnNextInsert(t *testing.T) {
	c := NewContext()
	c.AddScene(newScene("s"))

	var calls []string
	var cancelB func()
	c.OnNextInsert(func(p plot.Plot) {
		calls = append(calls, "a:"+p.ID())
		// cancelling during dispatch must not affect the in-flight dispatch
		cancelB()
		c.OnNextInsert(func(p plot.Plot) { calls = append(calls, "c:"+p.ID()) })
	})
	cancelB = c.OnNextInsert(func(p plot.Plot) { calls = append(calls, "b:"+p.ID()) })
	cancelD := c.OnNextInsert(func(p plot.Plot) { calls = append(calls, "d:"+p.ID()) })
	cancelD()

	require.NoError(t, c.InsertPlot("s", meshSpec("p1"), meshSpec("p2")))
	require.NoError(t, c.InsertPlot("s", meshSpec("p3")))

	assert.Equal(t, []string{"a:p1", "b:p1", "c:p2"}, calls)
}

func TestUpdateAndView(t *testing.T) {
	c := NewContext()
	err := c.Update(func() error {
		c.AddScene(newScene("s"))
		return nil
	})
	require.NoError(t, err)

	var n int
	c.View(func() { n = len(c.Scenes()) })
	assert.Equal(t, 1, n)
}
