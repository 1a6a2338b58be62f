package texture

// TextureBuilderOption is a functional option for configuring a Texture via NewTexture.
type TextureBuilderOption func(*texture)

// WithLabel sets the debug label of the texture.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - TextureBuilderOption: a function that applies the label option to a texture
func WithLabel(label string) TextureBuilderOption {
	return func(t *texture) {
		t.label = label
	}
}

// WithFormat sets the pixel format and component type names.
// Empty values keep the defaults (RGBAFormat, FloatType).
//
// Parameters:
//   - format: the pixel format name
//   - dataType: the component type name
//
// Returns:
//   - TextureBuilderOption: a function that applies the format option to a texture
func WithFormat(format, dataType string) TextureBuilderOption {
	return func(t *texture) {
		if format != "" {
			t.format = format
		}
		if dataType != "" {
			t.dataType = dataType
		}
	}
}

// WithFilters sets the minification and magnification filters.
// Empty values keep the linear default.
//
// Parameters:
//   - minFilter: the minification filter name
//   - magFilter: the magnification filter name
//
// Returns:
//   - TextureBuilderOption: a function that applies the filter option to a texture
func WithFilters(minFilter, magFilter string) TextureBuilderOption {
	return func(t *texture) {
		if minFilter != "" {
			t.minFilter = minFilter
		}
		if magFilter != "" {
			t.magFilter = magFilter
		}
	}
}

// WithWrap sets the wrap modes. Missing trailing dimensions repeat the last given mode.
//
// Parameters:
//   - wrap: wrap mode names, one per dimension
//
// Returns:
//   - TextureBuilderOption: a function that applies the wrap option to a texture
func WithWrap(wrap ...string) TextureBuilderOption {
	return func(t *texture) {
		if len(wrap) == 0 {
			return
		}
		t.wrap = make([]string, len(t.size))
		for i := range t.wrap {
			t.wrap[i] = wrap[min(i, len(wrap)-1)]
		}
	}
}

// WithAnisotropy sets the anisotropic filtering level. Values below 1 are clamped to 1.
//
// Parameters:
//   - level: the anisotropy level
//
// Returns:
//   - TextureBuilderOption: a function that applies the anisotropy option to a texture
func WithAnisotropy(level int) TextureBuilderOption {
	return func(t *texture) {
		t.anisotropy = max(level, 1)
	}
}
