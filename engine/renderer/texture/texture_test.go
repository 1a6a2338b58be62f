package texture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTexture(t *testing.T) {
	tests := []struct {
		name    string
		size    []int
		wantErr bool
	}{
		{name: "1d", size: []int{4}},
		{name: "2d", size: []int{2, 2}},
		{name: "3d", size: []int{2, 2, 1}},
		{name: "empty", size: nil, wantErr: true},
		{name: "4d", size: []int{1, 1, 1, 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tex, err := NewTexture(make([]float32, 16), tt.size)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.size), tex.Dims())
			assert.Len(t, tex.Wrap(), len(tt.size))
		})
	}
}

func TestTextureOptions(t *testing.T) {
	tex, err := NewTexture(make([]float32, 4), []int{2, 2},
		WithFormat(FormatRed, ""),
		WithFilters(FilterNearest, ""),
		WithWrap(WrapRepeat),
		WithAnisotropy(0),
	)
	require.NoError(t, err)

	assert.Equal(t, FormatRed, tex.Format())
	assert.Equal(t, TypeFloat, tex.Type())
	assert.Equal(t, FilterNearest, tex.MinFilter())
	assert.Equal(t, FilterLinear, tex.MagFilter())
	assert.Equal(t, []string{WrapRepeat, WrapRepeat}, tex.Wrap())
	assert.Equal(t, 1, tex.Anisotropy())
	assert.Equal(t, 1, ChannelCount(tex.Format()))
}

func TestTextureWrite(t *testing.T) {
	tex, err := NewTexture(make([]float32, 4), []int{4}, WithFormat(FormatRed, TypeFloat))
	require.NoError(t, err)
	v := tex.Version()

	require.NoError(t, tex.Write([]float32{1, 2, 3, 4}))
	assert.Equal(t, []float32{1, 2, 3, 4}, tex.Data())
	assert.Greater(t, tex.Version(), v)

	assert.Error(t, tex.Write([]float32{1}))
}

func TestTextureDisposeOnce(t *testing.T) {
	tex, err := NewTexture(nil, []int{1})
	require.NoError(t, err)
	calls := 0
	tex.OnDispose(func() { calls++ })

	tex.Dispose()
	tex.Dispose()

	assert.True(t, tex.Disposed())
	assert.Equal(t, 1, calls)
}

func TestEncode(t *testing.T) {
	t.Run("red bytes", func(t *testing.T) {
		tex, err := NewTexture([]float32{0, 127.6, 300, -4}, []int{2, 2}, WithFormat(FormatRed, TypeUnsignedByte))
		require.NoError(t, err)
		p := Encode(tex)
		assert.False(t, p.Float)
		assert.Equal(t, 8, p.BytesPerRow())
		assert.Equal(t, []byte{
			0, 0, 0, 255,
			128, 0, 0, 255,
			255, 0, 0, 255,
			0, 0, 0, 255,
		}, p.Data)
	})

	t.Run("rgb floats", func(t *testing.T) {
		tex, err := NewTexture([]float32{0.5, 0.25, 1}, []int{1}, WithFormat(FormatRGB, TypeFloat))
		require.NoError(t, err)
		p := Encode(tex)
		assert.True(t, p.Float)
		assert.Equal(t, 1, p.Height)
		require.Len(t, p.Data, 16)
		assert.Equal(t, []byte{0, 0, 0, 0x3f}, p.Data[0:4])
		assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, p.Data[12:16])
	})

	t.Run("short data", func(t *testing.T) {
		tex, err := NewTexture([]float32{1}, []int{1, 1, 2}, WithFormat(FormatRG, TypeFloat))
		require.NoError(t, err)
		p := Encode(tex)
		assert.Equal(t, 2, p.Depth)
		assert.Len(t, p.Data, 32)
	})
}
