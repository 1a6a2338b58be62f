package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-plot/common"
	"github.com/Carmen-Shannon/oxy-plot/engine/camera"
	"github.com/Carmen-Shannon/oxy-plot/engine/plot"
	"github.com/Carmen-Shannon/oxy-plot/engine/registry"
	"github.com/Carmen-Shannon/oxy-plot/engine/scene"
)

const meshVS = `
struct VertexInput {
    @location(0) position: vec3f,
};

@vertex
fn vs_main(in: VertexInput) -> @builtin(position) vec4f {
    return vec4f(in.position, 1.0);
}
`

const colorVS = `
@vertex
fn vs_main(@location(0) position: vec3f, @location(1) color: vec4f) -> @builtin(position) vec4f {
    return vec4f(position, color.a);
}
`

const meshFS = `@fragment fn fs_main() -> @location(0) vec4f { return vec4f(1.0); }`

func meshSpec(id string) plot.Spec {
	return plot.Spec{
		UUID:           id,
		PlotType:       plot.TypeMesh,
		VertexShader:   meshVS,
		FragmentShader: meshFS,
		VertexArrays:   map[string]plot.Buffer{"position": {Flat: make([]float32, 9), ItemSize: 3}},
	}
}

type fixture struct {
	reg      *registry.Context
	backend  *headlessRendererBackend
	renderer Renderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := newHeadlessRendererBackend()
	r, err := NewRenderer(BackendTypeHeadless, nil, WithBackend(backend))
	require.NoError(t, err)
	r.Resize(800, 600)

	reg := registry.NewContext(registry.WithSurface(r))
	return &fixture{reg: reg, backend: backend, renderer: r}
}

func (f *fixture) addScene(t *testing.T, id string, opts ...scene.SceneBuilderOption) scene.Scene {
	t.Helper()
	s := scene.NewScene(id, camera.NewCamera(), opts...)
	require.NoError(t, f.reg.Update(func() error {
		f.reg.AddScene(s)
		f.renderer.AddScene(s)
		return nil
	}))
	return s
}

func (f *fixture) insert(t *testing.T, sceneID string, specs ...plot.Spec) {
	t.Helper()
	require.NoError(t, f.reg.Update(func() error {
		return f.reg.InsertPlot(sceneID, specs...)
	}))
}

func (f *fixture) render(t *testing.T) FrameStats {
	t.Helper()
	require.NoError(t, f.renderer.Render(f.reg))
	return f.renderer.Stats()
}

func TestRenderDrawsMesh(t *testing.T) {
	f := newFixture(t)
	f.addScene(t, "s")
	f.insert(t, "s", meshSpec("p"))

	stats := f.render(t)
	assert.Equal(t, 1, stats.Scenes)
	assert.Equal(t, 1, stats.Draws)
	assert.Equal(t, 2, stats.Uploads)
	assert.Zero(t, stats.Skipped)

	frame := f.backend.lastFrame
	require.Len(t, frame.scenes, 1)
	assert.Equal(t, common.Rect{Width: 800, Height: 600}, frame.scenes[0].viewport)
	require.Len(t, frame.scenes[0].draws, 1)
	draw := frame.scenes[0].draws[0]
	assert.Equal(t, "p", draw.Label)
	assert.Equal(t, 3, draw.Count)
	assert.Equal(t, 1, draw.InstanceCount)
	assert.Len(t, draw.VertexBuffers, 1)
	assert.Nil(t, draw.IndexBuffer)

	// position buffer, uniform buffer and bind group
	assert.Equal(t, 3, f.backend.liveResources())

	stats = f.render(t)
	assert.Zero(t, stats.Uploads)
	assert.Zero(t, stats.Writes)
	assert.Equal(t, 1, f.backend.pipelines)
}

func TestRenderWritesInPlaceAndRecreatesOnResize(t *testing.T) {
	f := newFixture(t)
	f.addScene(t, "s")
	f.insert(t, "s", meshSpec("p"))
	f.render(t)

	require.NoError(t, f.reg.Update(func() error {
		p, _ := f.reg.FindPlot("p")
		_, err := p.UpdateAttribute("position", []float32{1, 2, 3, 4, 5, 6}, 2)
		return err
	}))
	stats := f.render(t)
	assert.Equal(t, 1, stats.Writes)
	assert.Zero(t, stats.Uploads)
	assert.Equal(t, 2, f.backend.lastFrame.scenes[0].draws[0].Count)

	require.NoError(t, f.reg.Update(func() error {
		p, _ := f.reg.FindPlot("p")
		rebuilt, err := p.UpdateAttribute("position", make([]float32, 12), 4)
		assert.True(t, rebuilt)
		return err
	}))
	stats = f.render(t)
	assert.Equal(t, 1, stats.Uploads)
	assert.Equal(t, 4, f.backend.lastFrame.scenes[0].draws[0].Count)
	// the old geometry's buffer was released
	assert.Equal(t, 3, f.backend.liveResources())
}

func TestRenderReleasesDeletedPlots(t *testing.T) {
	f := newFixture(t)
	f.addScene(t, "s")
	f.insert(t, "s", meshSpec("a"), meshSpec("b"))
	f.render(t)
	assert.Equal(t, 6, f.backend.liveResources())
	assert.Equal(t, 1, f.backend.pipelines)

	require.NoError(t, f.reg.Update(func() error {
		f.reg.DeletePlots("s", []string{"a"})
		return nil
	}))
	stats := f.render(t)
	assert.Equal(t, 1, stats.Draws)
	assert.Equal(t, 3, f.backend.liveResources())

	require.NoError(t, f.reg.Update(func() error {
		f.reg.DeleteScene("s")
		return nil
	}))
	stats = f.render(t)
	assert.Zero(t, stats.Scenes)
	assert.Empty(t, f.renderer.Scenes())
	assert.Zero(t, f.backend.liveResources())
}

func TestRenderSkipsUnboundShaderInputs(t *testing.T) {
	f := newFixture(t)
	f.addScene(t, "s")
	spec := meshSpec("p")
	spec.VertexShader = colorVS
	f.insert(t, "s", spec)

	stats := f.render(t)
	assert.Zero(t, stats.Draws)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, f.backend.pipelines)
}

func TestRenderHonorsVisibilityAndOrder(t *testing.T) {
	f := newFixture(t)
	f.addScene(t, "s")
	f.addScene(t, "hidden", scene.WithVisible(false))
	hidden := false
	invisible := meshSpec("invisible")
	invisible.Visible = &hidden
	f.insert(t, "s", meshSpec("first"), invisible, meshSpec("second"))
	f.insert(t, "hidden", meshSpec("never"))

	stats := f.render(t)
	assert.Equal(t, 1, stats.Scenes)
	assert.Equal(t, 2, stats.Draws)
	draws := f.backend.lastFrame.scenes[0].draws
	assert.Equal(t, "first", draws[0].Label)
	assert.Equal(t, "second", draws[1].Label)
}

func TestRenderUploadsTextureUniforms(t *testing.T) {
	f := newFixture(t)
	f.addScene(t, "s")
	spec := meshSpec("p")
	spec.Uniforms = map[string]any{
		"colormap": map[string]any{
			"type":     "Sampler",
			"data":     []any{0.0, 0.5, 1.0, 1.0},
			"size":     []any{4.0},
			"format":   "RedFormat",
			"datatype": "FloatType",
		},
	}
	f.insert(t, "s", spec)

	stats := f.render(t)
	require.Equal(t, 1, stats.Draws)
	assert.Equal(t, 3, stats.Uploads)
	textures := f.backend.lastFrame.scenes[0].draws[0].Pipeline.Textures()
	require.Len(t, textures, 1)
	assert.Equal(t, "colormap", textures[0].Name)
	assert.True(t, textures[0].Float)

	require.NoError(t, f.reg.Update(func() error {
		p, _ := f.reg.FindPlot("p")
		return p.UpdateUniform("colormap", map[string]any{"size": []any{4.0}, "data": []any{1.0, 1.0, 1.0, 1.0}})
	}))
	stats = f.render(t)
	assert.Zero(t, stats.Uploads)
	assert.Equal(t, 1, stats.Writes)
}

func TestViewport(t *testing.T) {
	r := &renderer{width: 800, height: 600}
	tests := []struct {
		name string
		area common.Rect
		want common.Rect
		ok   bool
	}{
		{name: "zero area covers the surface", area: common.Rect{}, want: common.Rect{Width: 800, Height: 600}, ok: true},
		{name: "bottom left origin", area: common.Rect{X: 10, Y: 20, Width: 100, Height: 50}, want: common.Rect{X: 10, Y: 530, Width: 100, Height: 50}, ok: true},
		{name: "clamped to the surface", area: common.Rect{X: 700, Y: 0, Width: 200, Height: 700}, want: common.Rect{X: 700, Y: 0, Width: 100, Height: 600}, ok: true},
		{name: "off surface", area: common.Rect{X: 900, Y: 0, Width: 10, Height: 10}, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.viewport(tt.area)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParsePresentMode(t *testing.T) {
	mode, err := ParsePresentMode("mailbox")
	require.NoError(t, err)
	assert.Equal(t, PresentModeMailbox, mode)

	_, err = ParsePresentMode("vsync")
	assert.Error(t, err)
}
