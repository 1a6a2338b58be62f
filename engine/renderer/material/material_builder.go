package material

import (
	"github.com/Carmen-Shannon/oxy-plot/engine/uniform"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithShaders is an option builder that sets the vertex and fragment shader sources.
//
// Parameters:
//   - vertex: the vertex shader source
//   - fragment: the fragment shader source
//
// Returns:
//   - MaterialBuilderOption: a function that applies the shader option to a material
func WithShaders(vertex, fragment string) MaterialBuilderOption {
	return func(m *material) {
		m.vertexShader = vertex
		m.fragmentShader = fragment
	}
}

// WithUniforms is an option builder that attaches uniform handles. Later calls add to earlier ones.
//
// Parameters:
//   - uniforms: uniform name to handle
//
// Returns:
//   - MaterialBuilderOption: a function that applies the uniforms option to a material
func WithUniforms(uniforms map[string]*uniform.Uniform) MaterialBuilderOption {
	return func(m *material) {
		for name, u := range uniforms {
			m.uniforms[name] = u
		}
	}
}

// WithTransparent is an option builder that enables alpha blending.
//
// Parameters:
//   - transparent: true to blend
//
// Returns:
//   - MaterialBuilderOption: a function that applies the transparency option to a material
func WithTransparent(transparent bool) MaterialBuilderOption {
	return func(m *material) {
		m.transparent = transparent
	}
}

// WithPipelineKey is an option builder that sets the render pipeline key.
//
// Parameters:
//   - key: the pipeline key
//
// Returns:
//   - MaterialBuilderOption: a function that applies the pipeline key option to a material
func WithPipelineKey(key string) MaterialBuilderOption {
	return func(m *material) {
		m.pipelineKey = key
	}
}
