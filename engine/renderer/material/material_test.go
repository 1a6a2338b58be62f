package material

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-plot/engine/uniform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateUniformNoneIsIgnored(t *testing.T) {
	m := NewMaterial()
	require.NoError(t, m.UpdateUniform(NoneUniform, 1.0))
	assert.Empty(t, m.Uniforms())
}

func TestUpdateUniformCreatesUnknownNames(t *testing.T) {
	m := NewMaterial(WithName("scatter"))
	require.NoError(t, m.UpdateUniform("color", []any{1.0, 0.0, 0.0, 1.0}))
	assert.Equal(t, &uniform.Vector4{1, 0, 0, 1}, m.Uniform("color").Value)

	err := m.UpdateUniform("lut", map[string]any{"type": "Volume"})
	assert.ErrorIs(t, err, uniform.ErrUnsupportedUniformType)
	assert.Nil(t, m.Uniform("lut"))
}

func TestUpdateUniformKeepsHandleIdentity(t *testing.T) {
	shared := uniform.New(&uniform.Vector2{})
	a := NewMaterial(WithUniforms(map[string]*uniform.Uniform{"resolution": shared}))
	b := NewMaterial(WithUniforms(map[string]*uniform.Uniform{"resolution": shared}))

	require.NoError(t, a.UpdateUniform("resolution", []any{800.0, 600.0}))

	assert.Same(t, shared, a.Uniform("resolution"))
	assert.Equal(t, &uniform.Vector2{800, 600}, b.Uniform("resolution").Value)
}

func TestUpdateUniformTexture(t *testing.T) {
	tex, err := texture.NewTexture(make([]float32, 4), []int{4})
	require.NoError(t, err)
	m := NewMaterial(WithUniforms(map[string]*uniform.Uniform{
		"colormap": uniform.New(uniform.TextureValue{Texture: tex}),
	}))

	require.NoError(t, m.UpdateUniform("colormap", uniform.TexturePayload{Size: []int{4}, Data: []float32{1, 2, 3, 4}}))
	assert.Same(t, tex, m.Uniform("colormap").Texture())

	require.NoError(t, m.UpdateUniform("colormap", uniform.TexturePayload{Size: []int{8}, Data: make([]float32, 8)}))
	assert.NotSame(t, tex, m.Uniform("colormap").Texture())
	assert.True(t, tex.Disposed())
}

func TestPackUniforms(t *testing.T) {
	tex, err := texture.NewTexture(make([]float32, 4), []int{4})
	require.NoError(t, err)
	m := NewMaterial(WithUniforms(map[string]*uniform.Uniform{
		"a_width":  uniform.New(uniform.Scalar(2)),
		"b_offset": uniform.New(&uniform.Vector2{3, 4}),
		"c_color":  uniform.New(&uniform.Vector3{5, 6, 7}),
		"d_label":  uniform.New(uniform.Opaque{V: "x"}),
		"e_lut":    uniform.New(uniform.TextureValue{Texture: tex}),
	}))

	b := PackUniforms(m)

	require.Len(t, b.Fields, 3)
	assert.Equal(t, UniformField{Name: "a_width", Offset: 0, Size: 4}, b.Fields[0])
	assert.Equal(t, UniformField{Name: "b_offset", Offset: 8, Size: 8}, b.Fields[1])
	assert.Equal(t, UniformField{Name: "c_color", Offset: 16, Size: 12}, b.Fields[2])
	assert.Equal(t, 32, b.Size())
	require.Len(t, b.Textures, 1)
	assert.Equal(t, "e_lut", b.Textures[0].Name)

	read := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b.Data[off:])) }
	assert.Equal(t, float32(2), read(0))
	assert.Equal(t, float32(4), read(12))
	assert.Equal(t, float32(7), read(24))
}

func TestDisposeOnce(t *testing.T) {
	m := NewMaterial()
	calls := 0
	m.OnDispose(func() { calls++ })
	m.Dispose()
	m.Dispose()
	assert.Equal(t, 1, calls)
}
