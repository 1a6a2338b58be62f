package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-plot/common"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/texture"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeHeadless selects a backend that records every call instead of talking to a GPU.
	// It keeps the whole synchronization path running without a window.
	BackendTypeHeadless
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeFifo waits for the next vertical blank before presenting. Eliminates tearing.
	PresentModeFifo PresentMode = iota

	// PresentModeMailbox replaces the queued frame with the newest one without tearing.
	PresentModeMailbox

	// PresentModeImmediate presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeImmediate
)

// ParsePresentMode maps a config name to a PresentMode.
//
// Parameters:
//   - name: one of fifo, mailbox or immediate
//
// Returns:
//   - PresentMode: the mode
//   - error: an error for an unknown name
func ParsePresentMode(name string) (PresentMode, error) {
	switch name {
	case "fifo":
		return PresentModeFifo, nil
	case "mailbox":
		return PresentModeMailbox, nil
	case "immediate":
		return PresentModeImmediate, nil
	}
	return PresentModeFifo, fmt.Errorf("unknown present mode %q", name)
}

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// BufferUsage says what a buffer created through the backend is bound as.
type BufferUsage int

const (
	BufferUsageVertex BufferUsage = iota
	BufferUsageIndex
	BufferUsageUniform
)

// DrawCommand is one draw of one renderable.
type DrawCommand struct {
	Label     string
	Pipeline  pipeline.Pipeline
	BindGroup bind_group_provider.Resource
	// VertexBuffers are bound to slots in order and match Pipeline.VertexLayouts.
	VertexBuffers []bind_group_provider.Resource
	// IndexBuffer is nil for non-indexed draws.
	IndexBuffer   bind_group_provider.Resource
	Count         int
	InstanceCount int
}

// RendererBackend is the GPU API the Renderer drives. Resources it creates are owned by a
// bind_group_provider and released through it.
type RendererBackend interface {
	// ConfigureSurface (re)creates the swapchain and per-size attachments.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the present mode used at the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the present mode
	SetPresentMode(mode PresentMode)

	// CreateBuffer creates a buffer initialized with data.
	//
	// Parameters:
	//   - label: the debug label
	//   - usage: what the buffer is bound as
	//   - data: the initial contents, padded to a multiple of four bytes by the backend
	//
	// Returns:
	//   - bind_group_provider.Resource: the buffer
	//   - error: a creation error
	CreateBuffer(label string, usage BufferUsage, data []byte) (bind_group_provider.Resource, error)

	// WriteBuffers performs in-place buffer writes.
	//
	// Parameters:
	//   - writes: the writes
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// CreateTexture creates a sampled texture and its sampler and uploads the texture data.
	//
	// Parameters:
	//   - label: the debug label
	//   - t: the texture
	//
	// Returns:
	//   - bind_group_provider.Resource: the texture
	//   - error: a creation error
	CreateTexture(label string, t texture.Texture) (bind_group_provider.Resource, error)

	// WriteTexture uploads new data into a texture created from t.
	//
	// Parameters:
	//   - res: the texture resource
	//   - t: the texture holding the new data
	WriteTexture(res bind_group_provider.Resource, t texture.Texture)

	// RegisterRenderPipeline creates the GPU pipeline and bind group layout for p.
	//
	// Parameters:
	//   - p: the pipeline description
	//
	// Returns:
	//   - error: a creation error
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// CreateBindGroup binds a uniform buffer and textures using the layout of p.
	//
	// Parameters:
	//   - label: the debug label
	//   - p: a registered pipeline
	//   - uniforms: the uniform buffer
	//   - textures: the textures in slot order
	//
	// Returns:
	//   - bind_group_provider.Resource: the bind group
	//   - error: a creation error
	CreateBindGroup(label string, p pipeline.Pipeline, uniforms bind_group_provider.Resource, textures []bind_group_provider.Resource) (bind_group_provider.Resource, error)

	// BeginFrame acquires the next surface texture and starts a render pass cleared to color.
	//
	// Parameters:
	//   - color: the clear color
	//
	// Returns:
	//   - error: an acquisition error
	BeginFrame(color [4]float32) error

	// BeginScene restricts drawing to a viewport in top-left origin pixels and optionally
	// clears it to color.
	//
	// Parameters:
	//   - viewport: the viewport
	//   - clear: true to clear the viewport
	//   - color: the clear color
	BeginScene(viewport common.Rect, clear bool, color [4]float32)

	// Draw records a draw call.
	//
	// Parameters:
	//   - cmd: the draw
	Draw(cmd DrawCommand)

	// EndFrame ends the render pass and submits the frame.
	EndFrame()

	// Present presents the frame.
	Present()

	// Release releases the backend's own GPU objects.
	Release()
}
