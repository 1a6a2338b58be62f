package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithLabel sets the debug label of the pipeline.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - PipelineBuilderOption: a function that sets the label
func WithLabel(label string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.label = label
	}
}

// WithVertexLayouts sets the vertex buffer layouts, usually produced by BindAttributes.
//
// Parameters:
//   - layouts: the layouts in slot order
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex layouts
func WithVertexLayouts(layouts []VertexBufferLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexLayouts = layouts
	}
}

// WithTextures sets the texture slots of the material bind group.
//
// Parameters:
//   - textures: the slots in binding order
//
// Returns:
//   - PipelineBuilderOption: a function that sets the texture slots
func WithTextures(textures []TextureSlot) PipelineBuilderOption {
	return func(p *pipeline) {
		p.textures = textures
	}
}

// WithTransparent enables alpha blending and disables depth writes so blended plots
// do not hide what is drawn after them.
//
// Parameters:
//   - transparent: true for a blended pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets blending and depth writes
func WithTransparent(transparent bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = transparent
		p.depthWriteEnabled = !transparent
	}
}

func WithDepthTestEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = enabled
	}
}

func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithTopology sets the primitive topology. Plots draw triangle lists, lines included,
// since every line segment is expanded to a quad in the vertex stage.
//
// Parameters:
//   - topology: the topology
//
// Returns:
//   - PipelineBuilderOption: a function that sets the topology
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = frontFace
	}
}

func WithWriteMask(writeMask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = writeMask
	}
}

func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = blendState
	}
}
