package uniform

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/texture"
)

// SamplerType is the only declared uniform type the decoder understands.
const SamplerType = "Sampler"

// Deserialize converts a host uniform map into uniform handles.
// *Uniform values are passed through so shared handles (camera matrices) stay shared.
//
// Parameters:
//   - raw: uniform name to host value
//
// Returns:
//   - map[string]*Uniform: uniform name to handle
//   - error: an *UnsupportedUniformTypeError naming the uniform, or a decode error
func Deserialize(raw map[string]any) (map[string]*Uniform, error) {
	out := make(map[string]*Uniform, len(raw))
	for name, v := range raw {
		if u, ok := v.(*Uniform); ok {
			out[name] = u
			continue
		}
		val, err := Decode(v)
		if err != nil {
			var ute *UnsupportedUniformTypeError
			if errors.As(err, &ute) {
				ute.Name = name
				return nil, ute
			}
			return nil, fmt.Errorf("uniform %q: %w", name, err)
		}
		out[name] = New(val)
	}
	return out, nil
}

// Decode turns one host value into a Value. This is the only place uniform payload
// shapes are inspected; everything downstream switches on the variant.
//
// Parameters:
//   - raw: the host value
//
// Returns:
//   - Value: the decoded value
//   - error: an *UnsupportedUniformTypeError for an unknown declared type, or a sampler decode error
func Decode(raw any) (Value, error) {
	switch v := raw.(type) {
	case Value:
		return v, nil
	case *Uniform:
		return v.Value, nil
	case map[string]any:
		typ, declared := v["type"]
		if !declared {
			return Opaque{V: raw}, nil
		}
		name, _ := typ.(string)
		if name != SamplerType {
			if name == "" {
				name = fmt.Sprint(typ)
			}
			return nil, &UnsupportedUniformTypeError{TypeName: name}
		}
		tex, err := decodeSampler(v)
		if err != nil {
			return nil, err
		}
		return TextureValue{Texture: tex}, nil
	}
	if f, ok := toFloat(raw); ok {
		return Scalar(f), nil
	}
	if fs, ok := toFloats(raw); ok {
		if fixed := fixedValue(len(fs)); fixed != nil {
			copy(Floats(fixed), fs)
			return fixed, nil
		}
	}
	return Opaque{V: raw}, nil
}

// decodeSampler builds a texture from a sampler description. "type" is taken by the
// declared uniform type, so the pixel component type travels as "datatype".
func decodeSampler(m map[string]any) (texture.Texture, error) {
	data, ok := toFloats(m["data"])
	if !ok && m["data"] != nil {
		return nil, errors.New("sampler: data is not a numeric sequence")
	}
	sizes, ok := toFloats(m["size"])
	if !ok {
		return nil, errors.New("sampler: size is not a numeric sequence")
	}
	size := make([]int, len(sizes))
	for i, s := range sizes {
		size[i] = int(s)
	}

	opts := []texture.TextureBuilderOption{
		texture.WithFormat(stringField(m, "format"), stringField(m, "datatype")),
		texture.WithFilters(stringField(m, "minFilter"), stringField(m, "magFilter")),
	}
	switch w := m["wrap"].(type) {
	case string:
		opts = append(opts, texture.WithWrap(w))
	case []string:
		opts = append(opts, texture.WithWrap(w...))
	case []any:
		modes := make([]string, 0, len(w))
		for _, x := range w {
			if s, ok := x.(string); ok {
				modes = append(modes, s)
			}
		}
		opts = append(opts, texture.WithWrap(modes...))
	}
	if a, ok := toFloat(m["anisotropy"]); ok {
		opts = append(opts, texture.WithAnisotropy(int(a)))
	}

	tex, err := texture.NewTexture(data, size, opts...)
	if err != nil {
		return nil, fmt.Errorf("sampler: %w", err)
	}
	return tex, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func toFloat(raw any) (float32, bool) {
	switch v := raw.(type) {
	case float32:
		return v, true
	case float64:
		return float32(v), true
	case int:
		return float32(v), true
	case int32:
		return float32(v), true
	case int64:
		return float32(v), true
	case uint32:
		return float32(v), true
	case json.Number:
		f, err := v.Float64()
		return float32(f), err == nil
	}
	return 0, false
}

// toFloats accepts the sequence shapes the transport produces: typed float slices
// and JSON arrays of numbers.
func toFloats(raw any) ([]float32, bool) {
	switch v := raw.(type) {
	case []float32:
		return v, true
	case []float64:
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out, true
	case []int:
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out, true
	case []any:
		out := make([]float32, len(v))
		for i, x := range v {
			f, ok := toFloat(x)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	}
	return nil, false
}

// Float32s converts a host numeric sequence into a float32 slice.
//
// Parameters:
//   - raw: the host value
//
// Returns:
//   - []float32: the values
//   - bool: false if raw is not a numeric sequence
func Float32s(raw any) ([]float32, bool) {
	return toFloats(raw)
}
