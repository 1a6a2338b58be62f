package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/geometry"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/shader"
)

const lineVS = `
@vertex
fn main(
    @location(0) position: f32,
    @location(1) linepoint_start: vec2f,
    @location(2) linepoint_end: vec2f,
    @location(3) color: vec4f,
    @location(4) model: vec4f,
    @location(5) model_1: vec4f,
    @location(6) model_2: vec4f,
    @location(7) model_3: vec4f,
) -> @builtin(position) vec4f {
    return vec4f(linepoint_start, 0.0, position);
}
`

const plainFS = `@fragment fn main() -> @location(0) vec4f { return vec4f(1.0); }`

func mustShader(t *testing.T, stage shader.Stage, src string) shader.Shader {
	t.Helper()
	s, err := shader.NewShader(stage, src)
	require.NoError(t, err)
	return s
}

func lineGeometry() geometry.Geometry {
	return geometry.NewGeometry(
		geometry.WithAttribute(geometry.NewAttribute("position", []float32{0, 1, 2, 3, 4, 5}, 1, false)),
		geometry.WithAttribute(geometry.NewAttribute("linepoint", make([]float32, 16), 8, true,
			geometry.View{Name: "linepoint_prev", Offset: 0, ItemSize: 2},
			geometry.View{Name: "linepoint_start", Offset: 2, ItemSize: 2},
			geometry.View{Name: "linepoint_end", Offset: 4, ItemSize: 2},
			geometry.View{Name: "linepoint_next", Offset: 6, ItemSize: 2},
		)),
		geometry.WithAttribute(geometry.NewAttribute("color", make([]float32, 8), 4, true)),
		geometry.WithAttribute(geometry.NewAttribute("model", make([]float32, 32), 16, true)),
		geometry.WithAttribute(geometry.NewAttribute("unused", make([]float32, 6), 1, false)),
	)
}

func TestBindAttributes(t *testing.T) {
	layouts, err := BindAttributes(lineGeometry(), mustShader(t, shader.StageVertex, lineVS))
	require.NoError(t, err)
	require.Len(t, layouts, 4)

	assert.Equal(t, VertexBufferLayout{
		Name:     "position",
		Stride:   4,
		StepMode: wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32, Offset: 0, ShaderLocation: 0},
		},
	}, layouts[0])

	assert.Equal(t, VertexBufferLayout{
		Name:     "linepoint",
		Stride:   32,
		StepMode: wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 16, ShaderLocation: 2},
		},
	}, layouts[1])

	assert.Equal(t, "color", layouts[2].Name)
	assert.Equal(t, uint64(16), layouts[2].Stride)

	model := layouts[3]
	assert.Equal(t, "model", model.Name)
	assert.Equal(t, uint64(64), model.Stride)
	require.Len(t, model.Attributes, 4)
	for col, a := range model.Attributes {
		assert.Equal(t, uint32(4+col), a.ShaderLocation)
		assert.Equal(t, uint64(col*16), a.Offset)
		assert.Equal(t, wgpu.VertexFormatFloat32x4, a.Format)
	}
}

func TestBindAttributesReportsUnboundInputs(t *testing.T) {
	g := geometry.NewGeometry(
		geometry.WithAttribute(geometry.NewAttribute("position", []float32{0, 1, 2}, 1, false)),
	)
	layouts, err := BindAttributes(g, mustShader(t, shader.StageVertex, lineVS))
	assert.ErrorIs(t, err, ErrUnboundInput)
	assert.Contains(t, err.Error(), "color@3")
	assert.Len(t, layouts, 1)
}

func TestPipelineKey(t *testing.T) {
	vs := mustShader(t, shader.StageVertex, lineVS)
	fs := mustShader(t, shader.StageFragment, plainFS)
	layouts, err := BindAttributes(lineGeometry(), vs)
	require.NoError(t, err)

	base := NewPipeline(vs, fs, WithVertexLayouts(layouts))
	assert.Equal(t, base.Key(), NewPipeline(vs, fs, WithVertexLayouts(layouts), WithLabel("other")).Key())
	assert.Equal(t, "main/main", base.Label())
	assert.True(t, base.DepthWriteEnabled())
	assert.False(t, base.BlendEnabled())

	transparent := NewPipeline(vs, fs, WithVertexLayouts(layouts), WithTransparent(true))
	assert.NotEqual(t, base.Key(), transparent.Key())
	assert.False(t, transparent.DepthWriteEnabled())

	textured := NewPipeline(vs, fs, WithVertexLayouts(layouts), WithTextures([]TextureSlot{{Name: "colormap", Dims: 2}}))
	assert.NotEqual(t, base.Key(), textured.Key())

	assert.NotEqual(t, base.Key(), NewPipeline(vs, fs).Key())
}

func TestNewPipelinePanicsWithoutShaders(t *testing.T) {
	assert.Panics(t, func() { NewPipeline(nil, nil) })
}
