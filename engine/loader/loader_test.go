package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-plot/common"
	"github.com/Carmen-Shannon/oxy-plot/engine/camera"
	"github.com/Carmen-Shannon/oxy-plot/engine/plot"
	"github.com/Carmen-Shannon/oxy-plot/engine/registry"
	"github.com/Carmen-Shannon/oxy-plot/engine/scene"
	"github.com/Carmen-Shannon/oxy-plot/engine/uniform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSurface struct {
	added   []string
	removed []string
}

func (r *recordingSurface) AddScene(s scene.Scene)    { r.added = append(r.added, s.ID()) }
func (r *recordingSurface) RemoveScene(s scene.Scene) { r.removed = append(r.removed, s.ID()) }

const sceneJSON = `{
	"uuid": "root",
	"pixelarea": [0, 0, 800, 600],
	"backgroundcolor": [0.1, 0.2, 0.3, 1],
	"clearscene": true,
	"camera": [
		[1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1],
		[2,0,0,0, 0,2,0,0, 0,0,1,0, 0,0,0,1],
		[800, 600],
		[0, 0, 5]
	],
	"plots": [
		{
			"uuid": "labels",
			"plot_type": "Mesh",
			"cam_space": "pixel",
			"uniforms": {"color": [1, 0, 0, 1]},
			"vertexarrays": {"position": {"flat": [0,0, 1,0, 1,1], "type_length": 2}},
			"faces": [0, 1, 2]
		},
		{
			"uuid": "trace",
			"plot_type": "Lines",
			"positions": [0,0, 1,1, 2,4]
		}
	],
	"children": [
		{
			"uuid": "inset",
			"visible": false,
			"pixelarea": [10, 10, 100, 100],
			"cam3d_state": {"eyeposition": [3,3,3], "lookat": [0,0,0], "upvector": [0,0,1], "fov": 45, "near": 0.1, "far": 100},
			"plots": [{"uuid": "surface", "plot_type": "Mesh", "vertexarrays": {"position": {"flat": [0,0,0, 1,0,0, 0,1,0], "type_length": 3}}}]
		}
	]
}`

func decodeScene(t *testing.T) SceneDescription {
	t.Helper()
	var desc SceneDescription
	require.NoError(t, json.Unmarshal([]byte(sceneJSON), &desc))
	return desc
}

func TestLoadSceneBuildsTree(t *testing.T) {
	l := NewLoader(WithWorkers(2))
	defer l.Close()
	surface := &recordingSurface{}
	reg := registry.NewContext(registry.WithSurface(surface))

	root, err := l.LoadScene(context.Background(), decodeScene(t), reg)
	require.NoError(t, err)

	assert.Equal(t, []string{"root"}, surface.added)
	assert.Equal(t, common.Rect{Width: 800, Height: 600}, root.PixelArea())
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, root.BackgroundColor())
	assert.False(t, root.UsesController())

	ids := []string{}
	for _, p := range root.Plots() {
		ids = append(ids, p.ID())
	}
	assert.Equal(t, []string{"labels", "trace"}, ids)
	assert.Equal(t, 3, reg.PlotCount())

	require.Len(t, root.Children(), 1)
	inset := root.Children()[0]
	assert.Equal(t, "inset", inset.ID())
	assert.Equal(t, root, inset.Parent())
	assert.False(t, inset.Visible())
	assert.True(t, inset.UsesController())
	_, ok := reg.FindScene("inset")
	assert.True(t, ok)
	_, ok = inset.Plot("surface")
	assert.True(t, ok)
}

func TestLoadScenePixelPlotUsesPixelSpace(t *testing.T) {
	l := NewLoader()
	defer l.Close()
	reg := registry.NewContext()

	root, err := l.LoadScene(context.Background(), decodeScene(t), reg)
	require.NoError(t, err)

	p, ok := reg.FindPlot("labels")
	require.True(t, ok)
	mat := p.Model().Material()
	pixel := uniform.Floats(root.Camera().PixelSpace().Value)
	assert.Equal(t, pixel, uniform.Floats(mat.Uniform("projection").Value))
	assert.Equal(t, pixel, uniform.Floats(mat.Uniform("projectionview").Value))
	identity := common.Identity4()
	assert.Equal(t, identity[:], uniform.Floats(mat.Uniform("view").Value))

	trace, ok := reg.FindPlot("trace")
	require.True(t, ok)
	assert.Same(t, root.Camera().ProjectionView(), trace.Model().Material().Uniform("projectionview"))
}

func TestLoadSceneListenersFirePerPlot(t *testing.T) {
	l := NewLoader(WithWorkers(4))
	defer l.Close()
	reg := registry.NewContext()

	var seen []string
	var watch func(p plot.Plot)
	watch = func(p plot.Plot) {
		seen = append(seen, p.ID())
		reg.OnNextInsert(watch)
	}
	reg.OnNextInsert(watch)

	_, err := l.LoadScene(context.Background(), decodeScene(t), reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"labels", "trace", "surface"}, seen)
}

func TestLoadSceneWithoutCamera(t *testing.T) {
	l := NewLoader()
	defer l.Close()
	reg := registry.NewContext()

	_, err := l.LoadScene(context.Background(), SceneDescription{UUID: "bare"}, reg)
	assert.ErrorIs(t, err, ErrMissingCamera)
	_, ok := reg.FindScene("bare")
	assert.False(t, ok)
}

func TestLoadSceneReplacesSceneWithSameID(t *testing.T) {
	l := NewLoader()
	defer l.Close()
	surface := &recordingSurface{}
	reg := registry.NewContext(registry.WithSurface(surface))

	first, err := l.LoadScene(context.Background(), decodeScene(t), reg)
	require.NoError(t, err)
	oldLabels, ok := reg.FindPlot("labels")
	require.True(t, ok)
	oldTrace, ok := reg.FindPlot("trace")
	require.True(t, ok)
	oldSurface, ok := reg.FindPlot("surface")
	require.True(t, ok)

	desc := decodeScene(t)
	desc.Plots = desc.Plots[:1]
	desc.Children = nil
	second, err := l.LoadScene(context.Background(), desc, reg)
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	found, ok := reg.FindScene("root")
	require.True(t, ok)
	assert.Same(t, second, found)
	_, ok = reg.FindScene("inset")
	assert.False(t, ok)
	_, ok = reg.FindPlot("trace")
	assert.False(t, ok)
	_, ok = reg.FindPlot("surface")
	assert.False(t, ok)
	assert.Equal(t, 1, reg.PlotCount())
	assert.True(t, oldLabels.Disposed())
	assert.True(t, oldTrace.Disposed())
	assert.True(t, oldSurface.Disposed())
	assert.Equal(t, []string{"root", "root"}, surface.added)
	assert.Equal(t, []string{"inset", "root"}, surface.removed)

	labels, ok := reg.FindPlot("labels")
	require.True(t, ok)
	assert.False(t, labels.Disposed())

	reg.DeleteScene("root")
	assert.Zero(t, reg.PlotCount())
	assert.True(t, labels.Disposed())
	_, ok = reg.FindScene("root")
	assert.False(t, ok)
}

func TestLoadSceneRemovesPartialTreeOnError(t *testing.T) {
	tests := []struct {
		name   string
		modify func(desc *SceneDescription)
	}{
		{
			name:   "root plot fails",
			modify: func(desc *SceneDescription) { desc.Plots[1].PlotType = "Volume" },
		},
		{
			name:   "child plot fails",
			modify: func(desc *SceneDescription) { desc.Children[0].Plots[0].PlotType = "Volume" },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader()
			defer l.Close()
			surface := &recordingSurface{}
			reg := registry.NewContext(registry.WithSurface(surface))

			desc := decodeScene(t)
			tt.modify(&desc)
			root, err := l.LoadScene(context.Background(), desc, reg)
			assert.ErrorIs(t, err, plot.ErrUnknownPlotType)
			assert.Nil(t, root)

			_, ok := reg.FindScene("root")
			assert.False(t, ok)
			_, ok = reg.FindScene("inset")
			assert.False(t, ok)
			assert.Zero(t, reg.PlotCount())
			assert.Empty(t, surface.added)
		})
	}
}

func TestBuildPlotsKeepsOrderAndDisposesOnError(t *testing.T) {
	l := NewLoader(WithWorkers(3))
	defer l.Close()
	cam := camera.NewCamera()

	specs := make([]plot.Spec, 8)
	for i := range specs {
		specs[i] = plot.Spec{
			UUID:         fmt.Sprintf("p%d", i),
			PlotType:     plot.TypeMesh,
			VertexArrays: map[string]plot.Buffer{"position": {Flat: make([]float32, 9), ItemSize: 3}},
		}
	}
	plots, err := l.BuildPlots(context.Background(), cam, specs)
	require.NoError(t, err)
	require.Len(t, plots, len(specs))
	for i, p := range plots {
		assert.Equal(t, specs[i].UUID, p.ID())
	}

	specs[5].PlotType = "Volume"
	plots, err = l.BuildPlots(context.Background(), cam, specs)
	assert.ErrorIs(t, err, plot.ErrUnknownPlotType)
	assert.ErrorContains(t, err, "p5")
	assert.Nil(t, plots)
}

func TestBuildPlotsHonorsCancelledContext(t *testing.T) {
	l := NewLoader()
	defer l.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.BuildPlots(ctx, camera.NewCamera(), []plot.Spec{{UUID: "p", PlotType: plot.TypeLines}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCameraStateDecoding(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantEye [3]float32
		wantErr bool
	}{
		{
			name:    "tuple",
			input:   `[[1,0,0,0,0,1,0,0,0,0,1,0,0,0,0,1],[1,0,0,0,0,1,0,0,0,0,1,0,0,0,0,1],[10,20],[1,2,3]]`,
			wantEye: [3]float32{1, 2, 3},
		},
		{
			name:    "object",
			input:   `{"resolution": [10, 20], "eyeposition": [4, 5, 6]}`,
			wantEye: [3]float32{4, 5, 6},
		},
		{name: "short tuple", input: `[[1], [2]]`, wantErr: true},
		{name: "bad element", input: `[1, 2, 3, 4]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c CameraState
			err := json.Unmarshal([]byte(tt.input), &c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEye, c.EyePosition)
			assert.Equal(t, [2]float32{10, 20}, c.Resolution)
		})
	}
}
