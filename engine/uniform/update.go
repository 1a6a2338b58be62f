package uniform

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/texture"
)

// TexturePayload is an update for a texture-backed uniform: a new size and pixel buffer.
type TexturePayload struct {
	Size []int
	Data []float32
}

// DecodeTexturePayload accepts a TexturePayload, a {"size", "data"} map or a
// [size, data] pair as sent by the host.
//
// Parameters:
//   - raw: the host value
//
// Returns:
//   - TexturePayload: the decoded payload
//   - error: an error if raw has none of the accepted shapes
func DecodeTexturePayload(raw any) (TexturePayload, error) {
	var sizeRaw, dataRaw any
	switch v := raw.(type) {
	case TexturePayload:
		return v, nil
	case *TexturePayload:
		return *v, nil
	case map[string]any:
		sizeRaw, dataRaw = v["size"], v["data"]
	case []any:
		if len(v) != 2 {
			return TexturePayload{}, fmt.Errorf("texture payload: want [size, data], got %d elements", len(v))
		}
		sizeRaw, dataRaw = v[0], v[1]
	default:
		return TexturePayload{}, fmt.Errorf("texture payload: unexpected %T", raw)
	}

	sizes, ok := toFloats(sizeRaw)
	if !ok {
		return TexturePayload{}, errors.New("texture payload: size is not a numeric sequence")
	}
	data, ok := toFloats(dataRaw)
	if !ok {
		return TexturePayload{}, errors.New("texture payload: data is not a numeric sequence")
	}
	p := TexturePayload{Size: make([]int, len(sizes)), Data: data}
	for i, s := range sizes {
		p.Size[i] = int(s)
	}
	return p, nil
}

// Update applies a host update to the uniform.
//
// Texture-backed uniforms take a texture payload: a pixel buffer of the same length is
// written in place, anything else disposes the old texture and replaces it with a new
// one of the payload size that keeps the old format, type, filters and wrap modes.
// Vector and matrix uniforms are updated component-wise in place when the lengths agree.
// Every other uniform has its value replaced.
//
// Parameters:
//   - raw: the host value
//
// Returns:
//   - error: a decode error, or an error creating the replacement texture
func (u *Uniform) Update(raw any) error {
	switch cur := u.Value.(type) {
	case TextureValue:
		p, err := DecodeTexturePayload(raw)
		if err != nil {
			return err
		}
		return u.updateTexture(cur.Texture, p)
	case *Vector2, *Vector3, *Vector4, *Matrix4:
		dst := Floats(cur)
		if fs, ok := toFloats(raw); ok && len(fs) == len(dst) {
			copy(dst, fs)
			u.MarkDirty()
			return nil
		}
	}

	v, err := Decode(raw)
	if err != nil {
		return err
	}
	u.Set(v)
	return nil
}

func (u *Uniform) updateTexture(old texture.Texture, p TexturePayload) error {
	if old != nil && len(p.Data) == len(old.Data()) {
		if err := old.Write(p.Data); err != nil {
			return err
		}
		u.MarkDirty()
		return nil
	}

	opts := []texture.TextureBuilderOption{}
	if old != nil {
		opts = append(opts,
			texture.WithLabel(old.Label()),
			texture.WithFormat(old.Format(), old.Type()),
			texture.WithFilters(old.MinFilter(), old.MagFilter()),
			texture.WithWrap(old.Wrap()...),
			texture.WithAnisotropy(old.Anisotropy()),
		)
	}
	tex, err := texture.NewTexture(p.Data, p.Size, opts...)
	if err != nil {
		return fmt.Errorf("texture update: %w", err)
	}
	if old != nil {
		old.Dispose()
	}
	u.Set(TextureValue{Texture: tex})
	return nil
}
