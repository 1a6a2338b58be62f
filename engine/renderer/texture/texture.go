package texture

import (
	"fmt"
)

// Filter and wrap mode names as sent by the host.
const (
	FilterLinear  = "LinearFilter"
	FilterNearest = "NearestFilter"

	WrapClampToEdge    = "ClampToEdgeWrapping"
	WrapRepeat         = "RepeatWrapping"
	WrapMirroredRepeat = "MirroredRepeatWrapping"
)

// Pixel format and component type names as sent by the host.
const (
	FormatRed  = "RedFormat"
	FormatRG   = "RGFormat"
	FormatRGB  = "RGBFormat"
	FormatRGBA = "RGBAFormat"

	TypeFloat        = "FloatType"
	TypeUnsignedByte = "UnsignedByteType"
)

// texture is the implementation of the Texture interface.
type texture struct {
	label      string
	data       []float32
	size       []int
	format     string
	dataType   string
	minFilter  string
	magFilter  string
	wrap       []string
	anisotropy int

	version   uint64
	disposed  bool
	onDispose []func()
}

// Texture is a CPU-side texture description backing a sampler uniform.
// The pixel buffer is owned by the texture; the renderer uploads it whenever
// Version changes and releases its GPU copy when the texture is disposed.
type Texture interface {
	// Label returns the debug label of the texture.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Data returns the pixel buffer. The slice is owned by the texture.
	//
	// Returns:
	//   - []float32: the pixel buffer
	Data() []float32

	// Size returns the texture extent, one entry per dimension (1D, 2D or 3D).
	//
	// Returns:
	//   - []int: the size tuple
	Size() []int

	// Dims returns the number of dimensions of the texture.
	//
	// Returns:
	//   - int: 1, 2 or 3
	Dims() int

	// Format returns the pixel format name.
	//
	// Returns:
	//   - string: the format name, e.g. RGBAFormat
	Format() string

	// Type returns the pixel component type name.
	//
	// Returns:
	//   - string: the type name, e.g. FloatType
	Type() string

	// MinFilter returns the minification filter name.
	//
	// Returns:
	//   - string: the filter name
	MinFilter() string

	// MagFilter returns the magnification filter name.
	//
	// Returns:
	//   - string: the filter name
	MagFilter() string

	// Wrap returns the wrap mode per dimension.
	//
	// Returns:
	//   - []string: wrap mode names, one per dimension
	Wrap() []string

	// Anisotropy returns the anisotropic filtering level.
	//
	// Returns:
	//   - int: the anisotropy level (1 = off)
	Anisotropy() int

	// Write overwrites the pixel buffer in place and marks the texture dirty.
	//
	// Parameters:
	//   - data: the new pixels, which must have exactly len(Data()) elements
	//
	// Returns:
	//   - error: an error if the lengths differ
	Write(data []float32) error

	// Version returns a counter that increments every time the texture is marked dirty.
	//
	// Returns:
	//   - uint64: the current version
	Version() uint64

	// MarkDirty flags the pixel buffer for re-upload.
	MarkDirty()

	// Dispose releases the texture. Dispose listeners run exactly once; later calls are no-ops.
	Dispose()

	// Disposed reports whether Dispose has been called.
	//
	// Returns:
	//   - bool: true once disposed
	Disposed() bool

	// OnDispose registers a listener that runs when the texture is disposed.
	//
	// Parameters:
	//   - fn: the listener
	OnDispose(fn func())
}

var _ Texture = &texture{}

// NewTexture creates a Texture over the given pixel buffer and size tuple.
//
// Parameters:
//   - data: the pixel buffer (ownership passes to the texture)
//   - size: the extent per dimension, 1 to 3 entries
//   - options: functional options for filters, wrap modes and pixel format
//
// Returns:
//   - Texture: the new texture
//   - error: an error if the size tuple is not 1D, 2D or 3D
func NewTexture(data []float32, size []int, options ...TextureBuilderOption) (Texture, error) {
	if len(size) < 1 || len(size) > 3 {
		return nil, fmt.Errorf("texture: size must have 1 to 3 dimensions, got %d", len(size))
	}
	t := &texture{
		data:       data,
		size:       append([]int(nil), size...),
		format:     FormatRGBA,
		dataType:   TypeFloat,
		minFilter:  FilterLinear,
		magFilter:  FilterLinear,
		anisotropy: 1,
		version:    1,
	}
	for _, opt := range options {
		opt(t)
	}
	if len(t.wrap) == 0 {
		t.wrap = make([]string, len(t.size))
		for i := range t.wrap {
			t.wrap[i] = WrapClampToEdge
		}
	}
	return t, nil
}

func (t *texture) Label() string {
	return t.label
}

func (t *texture) Data() []float32 {
	return t.data
}

func (t *texture) Size() []int {
	return t.size
}

func (t *texture) Dims() int {
	return len(t.size)
}

func (t *texture) Format() string {
	return t.format
}

func (t *texture) Type() string {
	return t.dataType
}

func (t *texture) MinFilter() string {
	return t.minFilter
}

func (t *texture) MagFilter() string {
	return t.magFilter
}

func (t *texture) Wrap() []string {
	return t.wrap
}

func (t *texture) Anisotropy() int {
	return t.anisotropy
}

func (t *texture) Write(data []float32) error {
	if len(data) != len(t.data) {
		return fmt.Errorf("texture %q: in-place write of %d values into buffer of %d", t.label, len(data), len(t.data))
	}
	copy(t.data, data)
	t.MarkDirty()
	return nil
}

func (t *texture) Version() uint64 {
	return t.version
}

func (t *texture) MarkDirty() {
	t.version++
}

func (t *texture) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	listeners := t.onDispose
	t.onDispose = nil
	for _, fn := range listeners {
		fn()
	}
}

func (t *texture) Disposed() bool {
	return t.disposed
}

func (t *texture) OnDispose(fn func()) {
	t.onDispose = append(t.onDispose, fn)
}

// ChannelCount returns the number of components per texel for a pixel format name.
// Unknown formats are treated as single-channel.
//
// Parameters:
//   - format: the pixel format name
//
// Returns:
//   - int: components per texel
func ChannelCount(format string) int {
	switch format {
	case FormatRG:
		return 2
	case FormatRGB:
		return 3
	case FormatRGBA:
		return 4
	}
	return 1
}
