package uniform

import (
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/texture"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindScalar Kind = iota
	KindVector2
	KindVector3
	KindVector4
	KindMatrix4
	KindTexture
	KindOpaque
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "Scalar"
	case KindVector2:
		return "Vector2"
	case KindVector3:
		return "Vector3"
	case KindVector4:
		return "Vector4"
	case KindMatrix4:
		return "Matrix4"
	case KindTexture:
		return "Texture"
	}
	return "Opaque"
}

// Value is the closed set of uniform values: Scalar, *Vector2, *Vector3, *Vector4,
// *Matrix4, TextureValue and Opaque. Vectors and matrices are held by pointer so an
// in-place update is visible to every holder of the value.
type Value interface {
	Kind() Kind
}

// Scalar is a single float uniform.
type Scalar float32

// Vector2 is a two component float uniform.
type Vector2 [2]float32

// Vector3 is a three component float uniform.
type Vector3 [3]float32

// Vector4 is a four component float uniform.
type Vector4 [4]float32

// Matrix4 is a 4x4 column-major float uniform.
type Matrix4 [16]float32

// TextureValue is a sampler uniform backed by a texture.
type TextureValue struct {
	Texture texture.Texture
}

// Opaque carries host values the renderer does not interpret (strings, bools,
// odd-length sequences). They are kept so the host can read them back.
type Opaque struct {
	V any
}

var (
	_ Value = Scalar(0)
	_ Value = &Vector2{}
	_ Value = &Vector3{}
	_ Value = &Vector4{}
	_ Value = &Matrix4{}
	_ Value = TextureValue{}
	_ Value = Opaque{}
)

func (Scalar) Kind() Kind       { return KindScalar }
func (*Vector2) Kind() Kind     { return KindVector2 }
func (*Vector3) Kind() Kind     { return KindVector3 }
func (*Vector4) Kind() Kind     { return KindVector4 }
func (*Matrix4) Kind() Kind     { return KindMatrix4 }
func (TextureValue) Kind() Kind { return KindTexture }
func (Opaque) Kind() Kind       { return KindOpaque }

// Floats returns the components of a fixed-size numeric value as a slice that aliases
// its storage, or nil for any other variant.
//
// Parameters:
//   - v: the value
//
// Returns:
//   - []float32: the components, aliased
func Floats(v Value) []float32 {
	switch t := v.(type) {
	case *Vector2:
		return t[:]
	case *Vector3:
		return t[:]
	case *Vector4:
		return t[:]
	case *Matrix4:
		return t[:]
	}
	return nil
}

// fixedValue returns a fresh vector or matrix for a component count, or nil when the
// count does not map to a fixed-size variant.
func fixedValue(n int) Value {
	switch n {
	case 2:
		return &Vector2{}
	case 3:
		return &Vector3{}
	case 4:
		return &Vector4{}
	case 16:
		return &Matrix4{}
	}
	return nil
}

// Uniform is a named uniform slot. Materials and cameras share *Uniform handles, so
// replacing Value or updating it in place is seen by every material holding the handle.
type Uniform struct {
	Value   Value
	version uint64
}

// New creates a uniform handle holding v.
//
// Parameters:
//   - v: the initial value
//
// Returns:
//   - *Uniform: the new handle
func New(v Value) *Uniform {
	return &Uniform{Value: v, version: 1}
}

// NewMatrix4 creates a matrix uniform handle initialised from m.
//
// Parameters:
//   - m: the 16 column-major components
//
// Returns:
//   - *Uniform: the new handle
func NewMatrix4(m [16]float32) *Uniform {
	v := Matrix4(m)
	return New(&v)
}

// Set replaces the value and marks the uniform dirty.
//
// Parameters:
//   - v: the new value
func (u *Uniform) Set(v Value) {
	u.Value = v
	u.MarkDirty()
}

// MarkDirty flags the uniform for re-upload.
func (u *Uniform) MarkDirty() {
	u.version++
}

// Version returns a counter that changes every time the uniform is marked dirty.
//
// Returns:
//   - uint64: the current version
func (u *Uniform) Version() uint64 {
	return u.version
}

// Texture returns the backing texture of a sampler uniform.
//
// Returns:
//   - texture.Texture: the texture, or nil if the uniform is not texture-backed
func (u *Uniform) Texture() texture.Texture {
	if tv, ok := u.Value.(TextureValue); ok {
		return tv.Texture
	}
	return nil
}
