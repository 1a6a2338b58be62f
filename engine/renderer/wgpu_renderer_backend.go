package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-plot/common"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// clearShader draws a full-viewport triangle at the far plane. Its color comes from the blend
// constant so one pipeline clears every scene area to its own background color.
const clearShader = `
@vertex
fn vs_clear(@builtin(vertex_index) i: u32) -> @builtin(position) vec4f {
    let uv = vec2f(f32((i << 1u) & 2u), f32(i & 2u));
    return vec4f(uv * 2.0 - 1.0, 1.0, 1.0);
}

@fragment
fn fs_clear() -> @location(0) vec4f {
    return vec4f(1.0);
}
`

// wgpuBuffer wraps a GPU buffer as a bind_group_provider.Resource.
type wgpuBuffer struct {
	buf  *wgpu.Buffer
	size uint64
}

func (b *wgpuBuffer) Release() {
	b.buf.Release()
}

// wgpuTexture wraps a sampled texture, its view and its sampler.
type wgpuTexture struct {
	tex     *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
	staging common.TextureStagingData
}

func (t *wgpuTexture) Release() {
	t.sampler.Release()
	t.view.Release()
	t.tex.Release()
}

// wgpuBindGroup wraps a GPU bind group.
type wgpuBindGroup struct {
	bg *wgpu.BindGroup
}

func (g *wgpuBindGroup) Release() {
	g.bg.Release()
}

// wgpuRendererBackend implements RendererBackend on WebGPU.
type wgpuRendererBackend struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	width, height        int
	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode
	sampleCount MSAASampleCount

	clearPipeline *wgpu.RenderPipeline

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ RendererBackend = &wgpuRendererBackend{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount) (*wgpuRendererBackend, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("wgpu backend: no surface descriptor")
	}
	runtime.LockOSThread()
	b := &wgpuRendererBackend{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		sampleCount: sampleCount,
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()
	return b, nil
}

func (b *wgpuRendererBackend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if width <= 0 || height <= 0 {
		return
	}
	b.width, b.height = width, height

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	b.releaseAttachments()
	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if msaaEnabled {
		// The render pass draws into the MSAA texture; the resolved result is written to
		// the swapchain view as the ResolveTarget.
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		b.msaaTexture = msaaTexture
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTexture = depthTexture
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    b.msaaTextureView, // nil when MSAA is off; set in BeginFrame
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: storeOp,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

func (b *wgpuRendererBackend) releaseAttachments() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTexture.Release()
		b.msaaTextureView, b.msaaTexture = nil, nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
		b.depthTextureView, b.depthTexture = nil, nil
	}
}

func (b *wgpuRendererBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeMailbox:
		b.presentMode = wgpu.PresentModeMailbox
	case PresentModeImmediate:
		b.presentMode = wgpu.PresentModeImmediate
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackend) CreateBuffer(label string, usage BufferUsage, data []byte) (bind_group_provider.Resource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var u wgpu.BufferUsage
	switch usage {
	case BufferUsageIndex:
		u = wgpu.BufferUsageIndex
	case BufferUsageUniform:
		u = wgpu.BufferUsageUniform
	default:
		u = wgpu.BufferUsageVertex
	}
	// Buffer sizes and queue writes must be multiples of four bytes.
	size := uint64(max(len(data), 4)+3) &^ 3
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            u | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		b.queue.WriteBuffer(buf, 0, padTo4(data))
	}
	return &wgpuBuffer{buf: buf, size: size}, nil
}

func (b *wgpuRendererBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf, ok := w.Resource().(*wgpuBuffer)
		if !ok {
			continue
		}
		data := padTo4(w.Data)
		if w.Offset+uint64(len(data)) > buf.size {
			continue
		}
		b.queue.WriteBuffer(buf.buf, w.Offset, data)
	}
}

func padTo4(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	padded := make([]byte, (len(data)+3)&^3)
	copy(padded, data)
	return padded
}

func (b *wgpuRendererBackend) CreateTexture(label string, t texture.Texture) (bind_group_provider.Resource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	staging := textureStagingData(texture.Encode(t))
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: staging.Dimension,
		Size: wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: staging.Depth,
		},
		Format:        staging.Format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}

	s := samplerStagingData(t, staging.Format == wgpu.TextureFormatRGBA32Float)
	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  common.Coalesce(s.AddressModeU, wgpu.AddressModeClampToEdge),
		AddressModeV:  common.Coalesce(s.AddressModeV, wgpu.AddressModeClampToEdge),
		AddressModeW:  common.Coalesce(s.AddressModeW, wgpu.AddressModeClampToEdge),
		MagFilter:     common.Coalesce(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(s.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(s.MipmapFilter, wgpu.MipmapFilterModeNearest),
		LodMinClamp:   common.Coalesce(s.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(s.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, 1),
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, err
	}

	res := &wgpuTexture{tex: tex, view: view, sampler: samp, staging: staging}
	b.writeTexture(res)
	return res, nil
}

func (b *wgpuRendererBackend) WriteTexture(res bind_group_provider.Resource, t texture.Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, ok := res.(*wgpuTexture)
	if !ok {
		return
	}
	staging := textureStagingData(texture.Encode(t))
	if staging.Width != tex.staging.Width || staging.Height != tex.staging.Height || staging.Depth != tex.staging.Depth {
		return
	}
	tex.staging = staging
	b.writeTexture(tex)
}

func (b *wgpuRendererBackend) writeTexture(tex *wgpuTexture) {
	s := tex.staging
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		s.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  s.Width * s.BytesPerTexel,
			RowsPerImage: s.Height,
		},
		&wgpu.Extent3D{
			Width:              s.Width,
			Height:             s.Height,
			DepthOrArrayLayers: s.Depth,
		},
	)
}

// textureStagingData maps encoded pixels to an upload description. One and two dimensional
// textures are uploaded as 2D textures; three dimensional ones as 3D.
func textureStagingData(p texture.Pixels) common.TextureStagingData {
	s := common.TextureStagingData{
		Pixels:        p.Data,
		Width:         uint32(p.Width),
		Height:        uint32(p.Height),
		Depth:         uint32(p.Depth),
		BytesPerTexel: uint32(p.BytesPerTexel),
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Dimension:     wgpu.TextureDimension2D,
	}
	if p.Float {
		s.Format = wgpu.TextureFormatRGBA32Float
	}
	if p.Depth > 1 {
		s.Dimension = wgpu.TextureDimension3D
	}
	return s
}

// samplerStagingData maps a texture's filter and wrap names to sampler state. Float textures
// are not filterable so they always sample with nearest filtering.
func samplerStagingData(t texture.Texture, unfilterable bool) common.SamplerStagingData {
	s := common.SamplerStagingData{
		MagFilter:     filterMode(t.MagFilter()),
		MinFilter:     filterMode(t.MinFilter()),
		MaxAnisotropy: uint16(max(t.Anisotropy(), 1)),
	}
	wrap := t.Wrap()
	modes := []*wgpu.AddressMode{&s.AddressModeU, &s.AddressModeV, &s.AddressModeW}
	for i := range min(len(wrap), len(modes)) {
		*modes[i] = addressMode(wrap[i])
	}
	if unfilterable {
		s.MagFilter, s.MinFilter = wgpu.FilterModeNearest, wgpu.FilterModeNearest
	}
	// Anisotropic filtering requires linear filtering everywhere.
	if s.MagFilter != wgpu.FilterModeLinear || s.MinFilter != wgpu.FilterModeLinear {
		s.MaxAnisotropy = 1
	} else if s.MaxAnisotropy > 1 {
		s.MipmapFilter = wgpu.MipmapFilterModeLinear
	}
	return s
}

func filterMode(name string) wgpu.FilterMode {
	if name == texture.FilterNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func addressMode(name string) wgpu.AddressMode {
	switch name {
	case texture.WrapRepeat:
		return wgpu.AddressModeRepeat
	case texture.WrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	}
	return wgpu.AddressModeClampToEdge
}

func (b *wgpuRendererBackend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceFormat == nil {
		return errors.New("surface must be configured before pipelines are registered")
	}
	vertexShader := p.Shader(shader.StageVertex)
	fragmentShader := p.Shader(shader.StageFragment)

	vs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          p.Label() + " vertex",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: vertexShader.Source()},
	})
	if err != nil {
		return err
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          p.Label() + " fragment",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: fragmentShader.Source()},
	})
	if err != nil {
		return err
	}
	defer fs.Release()

	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   p.Label() + " Bind Group Layout",
		Entries: bindGroupLayoutEntries(p.Textures()),
	})
	if err != nil {
		return fmt.Errorf("failed to create bind group layout: %w", err)
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.Label(),
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		layout.Release()
		return err
	}
	defer pipelineLayout.Release()

	vertexLayouts := make([]wgpu.VertexBufferLayout, 0, len(p.VertexLayouts()))
	for _, l := range p.VertexLayouts() {
		vertexLayouts = append(vertexLayouts, wgpu.VertexBufferLayout{
			ArrayStride: l.Stride,
			StepMode:    l.StepMode,
			Attributes:  l.Attributes,
		})
	}

	target := wgpu.ColorTargetState{
		Format:    *b.surfaceFormat,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}
	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.Label() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		layout.Release()
		return err
	}

	p.SetPipeline(created)
	p.SetBindGroupLayout(layout)
	return nil
}

// bindGroupLayoutEntries lays out the material bind group: the uniform block at binding 0,
// then a texture view and sampler pair per texture slot.
func bindGroupLayoutEntries(slots []pipeline.TextureSlot) []wgpu.BindGroupLayoutEntry {
	visibility := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	entries := []wgpu.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: visibility,
	}}
	entries[0].Buffer.Type = wgpu.BufferBindingTypeUniform

	for i, slot := range slots {
		tex := wgpu.BindGroupLayoutEntry{Binding: uint32(1 + 2*i), Visibility: visibility}
		tex.Texture.ViewDimension = wgpu.TextureViewDimension2D
		if slot.Dims == 3 {
			tex.Texture.ViewDimension = wgpu.TextureViewDimension3D
		}
		samp := wgpu.BindGroupLayoutEntry{Binding: uint32(2 + 2*i), Visibility: visibility}
		if slot.Float {
			tex.Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
			samp.Sampler.Type = wgpu.SamplerBindingTypeNonFiltering
		} else {
			tex.Texture.SampleType = wgpu.TextureSampleTypeFloat
			samp.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		}
		entries = append(entries, tex, samp)
	}
	return entries
}

func (b *wgpuRendererBackend) CreateBindGroup(label string, p pipeline.Pipeline, uniforms bind_group_provider.Resource, textures []bind_group_provider.Resource) (bind_group_provider.Resource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	layout, ok := p.BindGroupLayout().(*wgpu.BindGroupLayout)
	if !ok || layout == nil {
		return nil, fmt.Errorf("bind group %s: pipeline %s is not registered", label, p.Label())
	}
	buf, ok := uniforms.(*wgpuBuffer)
	if !ok {
		return nil, fmt.Errorf("bind group %s: uniform block is not a wgpu buffer", label)
	}

	entries := []wgpu.BindGroupEntry{{
		Binding: 0,
		Buffer:  buf.buf,
		Offset:  0,
		Size:    wgpu.WholeSize,
	}}
	for i, res := range textures {
		tex, ok := res.(*wgpuTexture)
		if !ok {
			return nil, fmt.Errorf("bind group %s: texture slot %d is not a wgpu texture", label, i)
		}
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: uint32(1 + 2*i), TextureView: tex.view},
			wgpu.BindGroupEntry{Binding: uint32(2 + 2*i), Sampler: tex.sampler},
		)
	}

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBindGroup{bg: bg}, nil
}

func (b *wgpuRendererBackend) BeginFrame(color [4]float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If a previous frame's surface texture is still held, acquiring another one
	// fails with "Surface image is already acquired".
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}
	if b.renderPassDescriptor == nil {
		return fmt.Errorf("surface is not configured")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	attachment := &b.renderPassDescriptor.ColorAttachments[0]
	if b.sampleCount > 1 {
		attachment.ResolveTarget = view
	} else {
		attachment.View = view
	}
	attachment.ClearValue = wgpu.Color{R: float64(color[0]), G: float64(color[1]), B: float64(color[2]), A: float64(color[3])}

	b.frameEncoder = encoder
	b.framePass = encoder.BeginRenderPass(b.renderPassDescriptor)
	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuRendererBackend) BeginScene(viewport common.Rect, clear bool, color [4]float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.framePass.SetViewport(float32(viewport.X), float32(viewport.Y), float32(viewport.Width), float32(viewport.Height), 0, 1)
	b.framePass.SetScissorRect(uint32(viewport.X), uint32(viewport.Y), uint32(viewport.Width), uint32(viewport.Height))
	if !clear {
		return
	}
	if b.clearPipeline == nil {
		p, err := b.createClearPipeline()
		if err != nil {
			return
		}
		b.clearPipeline = p
	}
	b.framePass.SetPipeline(b.clearPipeline)
	b.framePass.SetBlendConstant(&wgpu.Color{R: float64(color[0]), G: float64(color[1]), B: float64(color[2]), A: float64(color[3])})
	b.framePass.Draw(3, 1, 0, 0)
}

func (b *wgpuRendererBackend) createClearPipeline() (*wgpu.RenderPipeline, error) {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Clear Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: clearShader},
	})
	if err != nil {
		return nil, err
	}
	defer module.Release()

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{Label: "Clear Pipeline Layout"})
	if err != nil {
		return nil, err
	}
	defer layout.Release()

	constant := wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorConstant,
		DstFactor: wgpu.BlendFactorZero,
		Operation: wgpu.BlendOperationAdd,
	}
	return b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Clear Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{Module: module, EntryPoint: "vs_clear"},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_clear",
			Targets: []wgpu.ColorTargetState{{
				Format:    *b.surfaceFormat,
				Blend:     &wgpu.BlendState{Color: constant, Alpha: constant},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionAlways,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
}

func (b *wgpuRendererBackend) Draw(cmd DrawCommand) {
	b.mu.Lock()
	defer b.mu.Unlock()

	renderPipeline, ok := cmd.Pipeline.Pipeline().(*wgpu.RenderPipeline)
	if !ok {
		return
	}
	bg, ok := cmd.BindGroup.(*wgpuBindGroup)
	if !ok {
		return
	}
	b.framePass.SetPipeline(renderPipeline)
	b.framePass.SetBindGroup(0, bg.bg, nil)

	for i, res := range cmd.VertexBuffers {
		if buf, ok := res.(*wgpuBuffer); ok {
			b.framePass.SetVertexBuffer(uint32(i), buf.buf, 0, wgpu.WholeSize)
		}
	}
	if idx, ok := cmd.IndexBuffer.(*wgpuBuffer); ok {
		b.framePass.SetIndexBuffer(idx.buf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		b.framePass.DrawIndexed(uint32(cmd.Count), uint32(cmd.InstanceCount), 0, 0, 0)
		return
	}
	b.framePass.Draw(uint32(cmd.Count), uint32(cmd.InstanceCount), 0, 0)
}

func (b *wgpuRendererBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.framePass = nil
		b.frameSurface = nil
		b.frameView = nil
		return
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil
}

func (b *wgpuRendererBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseAttachments()
	if b.clearPipeline != nil {
		b.clearPipeline.Release()
		b.clearPipeline = nil
	}
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}
