package pipeline

import (
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureSlot describes one sampled texture in a pipeline's bind group.
// Slot i occupies binding 1+2i (texture view) and 2+2i (sampler); binding 0 is the uniform block.
type TextureSlot struct {
	Name string
	// Dims is 1, 2 or 3.
	Dims int
	// Float marks 32-bit float texel data, which is sampled without filtering.
	Float bool
}

// pipeline is the implementation of the Pipeline interface.
// It holds everything needed to create a render pipeline for one shader pair and vertex layout,
// plus the backend objects once the pipeline has been registered.
type pipeline struct {
	key   string
	label string

	vertexShader, fragmentShader shader.Shader
	vertexLayouts                []VertexBufferLayout
	textures                     []TextureSlot

	// renderPipeline and bindGroupLayout are backend objects populated by RegisterRenderPipeline
	renderPipeline  any
	bindGroupLayout any

	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
}

// Pipeline defines a render pipeline: a vertex and fragment shader, the vertex buffer layouts that
// feed the vertex shader from attribute buffers, the texture slots of the material bind group, and
// depth, blend, cull and topology state. Pipelines are cached by Key so every plot sharing a shader
// pair and layout shares one GPU pipeline.
type Pipeline interface {
	// Key returns the cache key derived from the shaders, layouts, textures and state.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	Key() string

	// Label returns the debug label.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Shader retrieves the shader for a stage.
	//
	// Parameters:
	//   - stage: the stage
	//
	// Returns:
	//   - shader.Shader: the shader, or nil if not set
	Shader(stage shader.Stage) shader.Shader

	// VertexLayouts returns the vertex buffer layouts in slot order.
	//
	// Returns:
	//   - []VertexBufferLayout: the layouts
	VertexLayouts() []VertexBufferLayout

	// Textures returns the texture slots in binding order.
	//
	// Returns:
	//   - []TextureSlot: the slots
	Textures() []TextureSlot

	// Pipeline returns the backend pipeline object, nil until registered.
	// Note: The caller is responsible for type asserting the returned value.
	//
	// Returns:
	//   - any: the backend pipeline object
	Pipeline() any

	// SetPipeline stores the backend pipeline object.
	//
	// Parameters:
	//   - p: the backend pipeline object
	SetPipeline(p any)

	// BindGroupLayout returns the backend bind group layout, nil until registered.
	//
	// Returns:
	//   - any: the backend bind group layout
	BindGroupLayout() any

	// SetBindGroupLayout stores the backend bind group layout.
	//
	// Parameters:
	//   - l: the backend bind group layout
	SetBindGroupLayout(l any)

	// DepthTestEnabled returns whether depth testing is enabled.
	//
	// Returns:
	//   - bool: true if depth testing is enabled
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writes are enabled.
	//
	// Returns:
	//   - bool: true if depth writes are enabled
	DepthWriteEnabled() bool

	// BlendEnabled returns whether alpha blending is enabled.
	//
	// Returns:
	//   - bool: true if blending is enabled
	BlendEnabled() bool

	// BlendState returns the blend state used when blending is enabled.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState

	// CullMode returns the face culling mode.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the topology
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order.
	//
	// Returns:
	//   - wgpu.FrontFace: the winding order
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the write mask
	WriteMask() wgpu.ColorWriteMask
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a pipeline description. Both shaders are required.
//
// Parameters:
//   - vs: the vertex shader
//   - fs: the fragment shader
//   - opts: variadic list of PipelineBuilderOption functions
//
// Returns:
//   - Pipeline: the pipeline description
func NewPipeline(vs, fs shader.Shader, opts ...PipelineBuilderOption) Pipeline {
	if vs == nil || fs == nil {
		panic("pipeline: vertex and fragment shaders are required")
	}
	p := &pipeline{
		vertexShader:      vs,
		fragmentShader:    fs,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.key = p.computeKey()
	if p.label == "" {
		p.label = vs.EntryPoint() + "/" + fs.EntryPoint()
	}
	return p
}

func (p *pipeline) Key() string {
	return p.key
}

func (p *pipeline) Label() string {
	return p.label
}

func (p *pipeline) Shader(stage shader.Stage) shader.Shader {
	switch stage {
	case shader.StageVertex:
		return p.vertexShader
	case shader.StageFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) VertexLayouts() []VertexBufferLayout {
	return p.vertexLayouts
}

func (p *pipeline) Textures() []TextureSlot {
	return p.textures
}

func (p *pipeline) Pipeline() any {
	return p.renderPipeline
}

func (p *pipeline) SetPipeline(rp any) {
	p.renderPipeline = rp
}

func (p *pipeline) BindGroupLayout() any {
	return p.bindGroupLayout
}

func (p *pipeline) SetBindGroupLayout(l any) {
	p.bindGroupLayout = l
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

// computeKey hashes everything that changes the GPU pipeline object.
func (p *pipeline) computeKey() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d|%d|%d|%t|%t|%t|%d", p.vertexShader.Key(), p.fragmentShader.Key(),
		p.topology, p.cullMode, p.frontFace, p.depthTestEnabled, p.depthWriteEnabled, p.blendEnabled, p.writeMask)
	for _, l := range p.vertexLayouts {
		fmt.Fprintf(h, "|%d:%d", l.Stride, l.StepMode)
		for _, a := range l.Attributes {
			fmt.Fprintf(h, ",%d@%d+%d", a.Format, a.ShaderLocation, a.Offset)
		}
	}
	for _, t := range p.textures {
		fmt.Fprintf(h, "|t%d:%t", t.Dims, t.Float)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
