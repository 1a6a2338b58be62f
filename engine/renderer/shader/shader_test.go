package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lineVertex = `
struct Uniforms {
    projectionview: mat4x4<f32>,
    resolution: vec2<f32>,
}
@group(0) @binding(0) var<uniform> u: Uniforms;

struct SegmentInput {
    @location(1) linepoint_prev: vec2<f32>,
    @location(2) linepoint_start: vec2f,
    /* @location(9) disabled: vec2f, */
    @location(3) linepoint_end: vec2<f32>,
}

@vertex
fn vs_main(
    @builtin(vertex_index) vi: u32,
    @location(0) position: f32,
    segment: SegmentInput,
    // @location(7) color: vec4f,
) -> @builtin(position) vec4<f32> {
    return vec4f(segment.linepoint_start, 0.0, 1.0);
}
`

const flatFragment = `
@fragment fn fs_main(@location(0) @interpolate(flat, either) c: vec4f) -> @location(0) vec4f {
    return c;
}
`

func TestVertexInputs(t *testing.T) {
	s, err := NewShader(StageVertex, lineVertex)
	require.NoError(t, err)
	assert.Equal(t, "vs_main", s.EntryPoint())

	inputs := s.Inputs()
	require.Len(t, inputs, 4)
	assert.Equal(t, Input{Name: "position", Location: 0, Format: wgpu.VertexFormatFloat32, Floats: 1}, inputs[0])
	assert.Equal(t, Input{Name: "linepoint_start", Location: 2, Format: wgpu.VertexFormatFloat32x2, Floats: 2}, inputs[2])

	end, ok := s.Input("linepoint_end")
	require.True(t, ok)
	assert.Equal(t, uint32(3), end.Location)
	_, ok = s.Input("color")
	assert.False(t, ok)
}

func TestFragmentEntryPoint(t *testing.T) {
	s, err := NewShader(StageFragment, flatFragment)
	require.NoError(t, err)
	assert.Equal(t, "fs_main", s.EntryPoint())
	assert.Empty(t, s.Inputs())
}

func TestShaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		stage  Stage
		source string
		errIs  error
	}{
		{name: "missing vertex entry", stage: StageVertex, source: flatFragment, errIs: ErrNoEntryPoint},
		{name: "commented entry", stage: StageFragment, source: "// @fragment fn f() {}"},
		{name: "integer input", stage: StageVertex, source: "@vertex fn v(@location(0) id: u32) -> @builtin(position) vec4f { return vec4f(); }"},
		{name: "shared location", stage: StageVertex, source: "@vertex fn v(@location(0) a: f32, @location(0) b: f32) -> @builtin(position) vec4f { return vec4f(); }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewShader(tt.stage, tt.source)
			require.Error(t, err)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
			}
		})
	}
}

func TestKeyDependsOnStageAndSource(t *testing.T) {
	a, err := NewShader(StageFragment, flatFragment)
	require.NoError(t, err)
	b, err := NewShader(StageFragment, flatFragment)
	require.NoError(t, err)
	assert.Equal(t, a.Key(), b.Key())

	c, err := NewShader(StageFragment, flatFragment+"\n")
	require.NoError(t, err)
	assert.NotEqual(t, a.Key(), c.Key())
}
