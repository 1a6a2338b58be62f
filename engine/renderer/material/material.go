package material

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-plot/engine/uniform"
)

// NoneUniform is the name the host sends on a freshly initialised uniform channel. Updates under it are ignored.
const NoneUniform = "none"

// material is the implementation of the Material interface.
type material struct {
	name           string
	vertexShader   string
	fragmentShader string
	uniforms       map[string]*uniform.Uniform
	transparent    bool
	pipelineKey    string

	disposed  bool
	onDispose []func()
}

// Material pairs shader sources with the uniform slots they read.
//
// Uniform handles may be shared with other materials (camera matrices), so a material
// never disposes textures it did not create through UpdateUniform. Shader sources are
// opaque strings; the renderer compiles one pipeline per distinct source pair and looks
// it up by PipelineKey.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// VertexShader retrieves the vertex shader source.
	//
	// Returns:
	//   - string: the shader source
	VertexShader() string

	// FragmentShader retrieves the fragment shader source.
	//
	// Returns:
	//   - string: the shader source
	FragmentShader() string

	// Transparent reports whether the material is blended.
	//
	// Returns:
	//   - bool: true if alpha blending is enabled
	Transparent() bool

	// Uniform looks up a uniform handle by name.
	//
	// Parameters:
	//   - name: the uniform name
	//
	// Returns:
	//   - *uniform.Uniform: the handle, or nil if absent
	Uniform(name string) *uniform.Uniform

	// Uniforms returns all uniform handles keyed by name. The map is owned by the material.
	//
	// Returns:
	//   - map[string]*uniform.Uniform: the uniforms
	Uniforms() map[string]*uniform.Uniform

	// UniformNames returns the uniform names in sorted order, the order the renderer packs them.
	//
	// Returns:
	//   - []string: the sorted names
	UniformNames() []string

	// SetUniform attaches or replaces a uniform handle.
	//
	// Parameters:
	//   - name: the uniform name
	//   - u: the handle
	SetUniform(name string, u *uniform.Uniform)

	// UpdateUniform routes a host update to a uniform slot.
	// The "none" name is ignored. Existing slots are updated through uniform.Uniform.Update,
	// which writes textures and vectors in place when the shapes agree. Unknown names are
	// deserialized into a new slot.
	//
	// Parameters:
	//   - name: the uniform name
	//   - payload: the host value
	//
	// Returns:
	//   - error: a decode error, including *uniform.UnsupportedUniformTypeError
	UpdateUniform(name string, payload any) error

	// PipelineKey retrieves the key identifying the render pipeline this material uses.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// SetPipelineKey sets the render pipeline key for this material.
	//
	// Parameters:
	//   - key: the pipeline key to associate with this material
	SetPipelineKey(key string)

	// Dispose releases the material. Dispose listeners run exactly once.
	Dispose()

	// Disposed reports whether Dispose has been called.
	//
	// Returns:
	//   - bool: true once disposed
	Disposed() bool

	// OnDispose registers a listener that runs when the material is disposed.
	//
	// Parameters:
	//   - fn: the listener
	OnDispose(fn func())
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		uniforms: make(map[string]*uniform.Uniform),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) VertexShader() string {
	return m.vertexShader
}

func (m *material) FragmentShader() string {
	return m.fragmentShader
}

func (m *material) Transparent() bool {
	return m.transparent
}

func (m *material) Uniform(name string) *uniform.Uniform {
	return m.uniforms[name]
}

func (m *material) Uniforms() map[string]*uniform.Uniform {
	return m.uniforms
}

func (m *material) UniformNames() []string {
	names := make([]string, 0, len(m.uniforms))
	for name := range m.uniforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *material) SetUniform(name string, u *uniform.Uniform) {
	m.uniforms[name] = u
}

func (m *material) UpdateUniform(name string, payload any) error {
	if name == NoneUniform {
		return nil
	}
	if u, ok := m.uniforms[name]; ok {
		if err := u.Update(payload); err != nil {
			return fmt.Errorf("material %q: uniform %q: %w", m.name, name, err)
		}
		return nil
	}
	created, err := uniform.Deserialize(map[string]any{name: payload})
	if err != nil {
		return fmt.Errorf("material %q: %w", m.name, err)
	}
	m.uniforms[name] = created[name]
	return nil
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}

func (m *material) SetPipelineKey(key string) {
	m.pipelineKey = key
}

func (m *material) Dispose() {
	if m.disposed {
		return
	}
	m.disposed = true
	listeners := m.onDispose
	m.onDispose = nil
	for _, fn := range listeners {
		fn()
	}
}

func (m *material) Disposed() bool {
	return m.disposed
}

func (m *material) OnDispose(fn func()) {
	m.onDispose = append(m.onDispose, fn)
}
