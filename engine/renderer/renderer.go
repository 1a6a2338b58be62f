package renderer

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"cogentcore.org/core/base/ordmap"
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-plot/common"
	"github.com/Carmen-Shannon/oxy-plot/engine/model"
	"github.com/Carmen-Shannon/oxy-plot/engine/plot"
	"github.com/Carmen-Shannon/oxy-plot/engine/registry"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/geometry"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-plot/engine/scene"
)

const (
	indexKey    = "index"
	uniformsKey = "uniforms"
)

// SurfaceSource is what the WebGPU backend needs from a window.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// FrameStats summarizes the work done by the last Render call.
type FrameStats struct {
	// Scenes is the number of scenes drawn.
	Scenes int
	// Draws is the number of draw calls issued.
	Draws int
	// Uploads is the number of buffers and textures created.
	Uploads int
	// Writes is the number of in-place buffer and texture writes.
	Writes int
	// Skipped is the number of visible plots that could not be drawn.
	Skipped int
}

// modelBinding caches the pipeline chosen for a model and the layout it was chosen for.
type modelBinding struct {
	signature string
	pipeline  pipeline.Pipeline
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu     *sync.Mutex
	logger *slog.Logger

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	msaa                 MSAASampleCount
	background           [4]float32

	width, height int

	scenes        *ordmap.Map[string, scene.Scene]
	shaders       map[string]shader.Shader
	pipelineCache map[string]pipeline.Pipeline
	bindings      map[model.Model]*modelBinding
	failures      map[string]struct{}

	geometries map[geometry.Geometry]bind_group_provider.BindGroupProvider
	materials  map[material.Material]bind_group_provider.BindGroupProvider

	// pending holds cleanups of disposed objects. Dispose listeners run on the session
	// goroutine so they only queue; the render goroutine releases.
	pendingMu *sync.Mutex
	pending   []func()

	stats FrameStats
}

// Renderer draws the scenes attached to it. It is the registry's drawing surface: root scenes
// are attached when loaded and detached when deleted.
//
// GPU objects are created lazily while rendering: one buffer per geometry attribute, one uniform
// buffer and bind group per material, and one pipeline per distinct shader pair, vertex layout
// and texture layout. Buffers are rewritten in place when an attribute's version changes and
// recreated when its size changes.
type Renderer interface {
	registry.Surface

	// Scenes returns the attached root scenes in attachment order.
	//
	// Returns:
	//   - []scene.Scene: the scenes
	Scenes() []scene.Scene

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// Render draws one frame. It takes the registry's read lock for the whole frame so the
	// session cannot mutate plots mid-frame.
	//
	// Parameters:
	//   - reg: the registry the attached scenes belong to
	//
	// Returns:
	//   - error: an error if the frame could not be started
	Render(reg *registry.Context) error

	// Stats returns the counters of the last frame.
	//
	// Returns:
	//   - FrameStats: the counters
	Stats() FrameStats

	// Release releases every GPU object and the backend.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type.
// The surface is platform-specific and is typically the engine window; the headless backend ignores it.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - surface: the source of the surface descriptor and initial size, may be nil for BackendTypeHeadless
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if the backend could not be created
func NewRenderer(backendType RendererBackendType, surface SurfaceSource, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		logger:        slog.Default(),
		backendType:   backendType,
		msaa:          MSAA4x,
		background:    [4]float32{0, 0, 0, 1},
		scenes:        ordmap.New[string, scene.Scene](),
		shaders:       make(map[string]shader.Shader),
		pipelineCache: make(map[string]pipeline.Pipeline),
		bindings:      make(map[model.Model]*modelBinding),
		failures:      make(map[string]struct{}),
		geometries:    make(map[geometry.Geometry]bind_group_provider.BindGroupProvider),
		materials:     make(map[material.Material]bind_group_provider.BindGroupProvider),
		pendingMu:     &sync.Mutex{},
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	if r.backend == nil {
		switch backendType {
		case BackendTypeHeadless:
			r.backend = newHeadlessRendererBackend()
		case BackendTypeWGPU:
			fallthrough
		default:
			if surface == nil {
				return nil, errors.New("renderer: the wgpu backend needs a surface")
			}
			b, err := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter, r.msaa)
			if err != nil {
				return nil, fmt.Errorf("renderer: %w", err)
			}
			r.backend = b
		}
	}

	r.backend.SetPresentMode(r.presentMode)
	if surface != nil {
		r.Resize(surface.Width(), surface.Height())
	}
	return r, nil
}

func (r *renderer) AddScene(s scene.Scene) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenes.Add(s.ID(), s)
}

func (r *renderer) RemoveScene(s scene.Scene) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenes.DeleteKey(s.ID())
}

func (r *renderer) Scenes() []scene.Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.scenes.Values())
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width <= 0 || height <= 0 {
		return
	}
	r.width, r.height = width, height
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presentMode = mode
	r.backend.SetPresentMode(mode)
	if r.width > 0 && r.height > 0 {
		r.backend.ConfigureSurface(r.width, r.height)
	}
}

func (r *renderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *renderer) Render(reg *registry.Context) error {
	var err error
	reg.View(func() {
		err = r.render()
	})
	return err
}

func (r *renderer) render() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.drainPending()
	r.stats = FrameStats{}
	if r.width <= 0 || r.height <= 0 {
		return nil
	}

	if err := r.backend.BeginFrame(r.background); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	for _, s := range r.scenes.Values() {
		r.renderScene(s)
	}
	r.backend.EndFrame()
	r.backend.Present()
	return nil
}

// viewport converts a scene's bottom-left origin pixel area to a top-left origin viewport
// clamped to the surface. A zero-sized area covers the whole surface.
func (r *renderer) viewport(area common.Rect) (common.Rect, bool) {
	if area.Width <= 0 || area.Height <= 0 {
		return common.Rect{Width: r.width, Height: r.height}, true
	}
	x0 := max(area.X, 0)
	x1 := min(area.X+area.Width, r.width)
	top := r.height - (area.Y + area.Height)
	y0 := max(top, 0)
	y1 := min(top+area.Height, r.height)
	if x1 <= x0 || y1 <= y0 {
		return common.Rect{}, false
	}
	return common.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, true
}

func (r *renderer) renderScene(s scene.Scene) {
	if !s.Visible() {
		return
	}
	if vp, ok := r.viewport(s.PixelArea()); ok {
		r.backend.BeginScene(vp, s.Clear(), s.BackgroundColor())
		r.stats.Scenes++

		plots := slices.Clone(s.Plots())
		slices.SortStableFunc(plots, func(a, b plot.Plot) int {
			return a.Model().RenderOrder() - b.Model().RenderOrder()
		})
		for _, p := range plots {
			r.renderPlot(p)
		}
	}
	for _, child := range s.Children() {
		r.renderScene(child)
	}
}

func (r *renderer) renderPlot(p plot.Plot) {
	m := p.Model()
	if !p.Visible() || m == nil || !m.Visible() || m.Disposed() {
		return
	}
	g, mat := m.Geometry(), m.Material()
	if g == nil || mat == nil || g.Disposed() || mat.Disposed() {
		return
	}

	count, instances := drawCounts(g)
	if count == 0 || instances == 0 {
		return
	}

	block := material.PackUniforms(mat)
	pl, err := r.pipelineFor(m, block)
	if err != nil {
		r.skip(p, err)
		return
	}
	geom, err := r.syncGeometry(g)
	if err != nil {
		r.skip(p, err)
		return
	}
	matRes, err := r.syncMaterial(mat, block, pl)
	if err != nil {
		r.skip(p, err)
		return
	}

	cmd := DrawCommand{
		Label:         p.ID(),
		Pipeline:      pl,
		BindGroup:     matRes.BindGroup(),
		Count:         count,
		InstanceCount: instances,
	}
	for _, l := range pl.VertexLayouts() {
		e, _ := geom.Entry(l.Name)
		cmd.VertexBuffers = append(cmd.VertexBuffers, e.Resource)
	}
	if g.Index() != nil {
		e, _ := geom.Entry(indexKey)
		cmd.IndexBuffer = e.Resource
	}
	r.backend.Draw(cmd)
	r.stats.Draws++
}

// drawCounts returns the element and instance counts of a draw. The draw count limits indexed
// and non-indexed draws alike; a negative draw count draws everything.
func drawCounts(g geometry.Geometry) (count, instances int) {
	if idx := g.Index(); idx != nil {
		count = len(idx)
	} else {
		count = g.VertexCount()
	}
	if dc := g.DrawCount(); dc >= 0 && dc < count {
		count = dc
	}
	instances = 1
	if g.Instanced() {
		instances = g.InstanceCount()
	}
	return count, instances
}

// skip logs a plot that cannot be drawn. Each distinct failure is logged once.
func (r *renderer) skip(p plot.Plot, err error) {
	r.stats.Skipped++
	msg := err.Error()
	if _, seen := r.failures[msg]; seen {
		return
	}
	r.failures[msg] = struct{}{}
	r.logger.Error("plot skipped", "plot", p.ID(), "type", p.Type(), "error", err)
}

func (r *renderer) shaderFor(stage shader.Stage, source string) (shader.Shader, error) {
	key := stage.String() + "\x00" + source
	if s, ok := r.shaders[key]; ok {
		return s, nil
	}
	s, err := shader.NewShader(stage, source)
	if err != nil {
		return nil, err
	}
	r.shaders[key] = s
	return s, nil
}

// layoutSignature identifies what a model's pipeline depends on besides the shaders.
func layoutSignature(m model.Model, block *material.UniformBlock) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d|%t|", m.Primitive(), m.Material().Transparent())
	for _, a := range m.Geometry().Attributes() {
		fmt.Fprintf(&buf, "%s:%d:%t:%d;", a.Name, a.ItemSize, a.Instanced, len(a.Views))
	}
	for _, t := range block.Textures {
		fmt.Fprintf(&buf, "%s:%d:%s;", t.Name, t.Texture.Dims(), t.Texture.Type())
	}
	fmt.Fprintf(&buf, "|%p|%p", m.Geometry(), m.Material())
	return buf.String()
}

func (r *renderer) pipelineFor(m model.Model, block *material.UniformBlock) (pipeline.Pipeline, error) {
	signature := layoutSignature(m, block)
	if b, ok := r.bindings[m]; ok && b.signature == signature {
		return b.pipeline, nil
	}

	mat := m.Material()
	vs, err := r.shaderFor(shader.StageVertex, mat.VertexShader())
	if err != nil {
		return nil, fmt.Errorf("material %s: %w", mat.Name(), err)
	}
	fs, err := r.shaderFor(shader.StageFragment, mat.FragmentShader())
	if err != nil {
		return nil, fmt.Errorf("material %s: %w", mat.Name(), err)
	}
	layouts, err := pipeline.BindAttributes(m.Geometry(), vs)
	if err != nil {
		return nil, fmt.Errorf("material %s: %w", mat.Name(), err)
	}

	slots := make([]pipeline.TextureSlot, 0, len(block.Textures))
	for _, t := range block.Textures {
		slots = append(slots, pipeline.TextureSlot{
			Name:  t.Name,
			Dims:  t.Texture.Dims(),
			Float: t.Texture.Type() != texture.TypeUnsignedByte,
		})
	}

	candidate := pipeline.NewPipeline(vs, fs,
		pipeline.WithLabel(mat.Name()),
		pipeline.WithVertexLayouts(layouts),
		pipeline.WithTextures(slots),
		pipeline.WithTransparent(mat.Transparent()),
	)
	p, ok := r.pipelineCache[candidate.Key()]
	if !ok {
		if err := r.backend.RegisterRenderPipeline(candidate); err != nil {
			return nil, fmt.Errorf("material %s: register pipeline: %w", mat.Name(), err)
		}
		r.pipelineCache[candidate.Key()] = candidate
		p = candidate
	}

	mat.SetPipelineKey(p.Key())
	if _, known := r.bindings[m]; !known {
		// The pipeline stays cached for other models.
		m.OnDispose(func() { r.queue(func() { delete(r.bindings, m) }) })
	}
	r.bindings[m] = &modelBinding{signature: signature, pipeline: p}
	return p, nil
}

func (r *renderer) queue(fn func()) {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	r.pending = append(r.pending, fn)
}

// drainPending runs the cleanups queued by dispose listeners since the last frame.
func (r *renderer) drainPending() {
	r.pendingMu.Lock()
	pending := r.pending
	r.pending = nil
	r.pendingMu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

func (r *renderer) syncGeometry(g geometry.Geometry) (bind_group_provider.BindGroupProvider, error) {
	p, ok := r.geometries[g]
	if !ok {
		p = bind_group_provider.NewBindGroupProvider(bind_group_provider.WithLabel(g.Label()))
		r.geometries[g] = p
		g.OnDispose(func() {
			r.queue(func() {
				p.Release()
				delete(r.geometries, g)
			})
		})
	}

	var writes []bind_group_provider.BufferWrite
	live := make(map[string]struct{}, len(g.Attributes())+1)
	for _, a := range g.Attributes() {
		live[a.Name] = struct{}{}
		w, err := r.syncBuffer(p, a.Name, BufferUsageVertex, common.SliceToBytes(a.Array), a.Version(), a)
		if err != nil {
			return nil, err
		}
		writes = append(writes, w...)
	}
	if idx := g.Index(); idx != nil {
		live[indexKey] = struct{}{}
		w, err := r.syncBuffer(p, indexKey, BufferUsageIndex, common.SliceToBytes(idx), g.IndexVersion(), g)
		if err != nil {
			return nil, err
		}
		writes = append(writes, w...)
	}
	for _, key := range p.Keys() {
		if _, ok := live[key]; !ok {
			p.DeleteEntry(key)
		}
	}

	if len(writes) > 0 {
		r.backend.WriteBuffers(writes)
		r.stats.Writes += len(writes)
	}
	return p, nil
}

// syncBuffer creates the buffer under key when it is missing or its size changed, and
// returns an in-place write when only its contents changed.
func (r *renderer) syncBuffer(p bind_group_provider.BindGroupProvider, key string, usage BufferUsage, data []byte, version uint64, source any) ([]bind_group_provider.BufferWrite, error) {
	e, ok := p.Entry(key)
	if !ok || e.Size != len(data) {
		res, err := r.backend.CreateBuffer(p.Label()+" "+key, usage, data)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", p.Label(), key, err)
		}
		p.SetEntry(key, bind_group_provider.Entry{Resource: res, Version: version, Size: len(data), Source: source})
		r.stats.Uploads++
		return nil, nil
	}
	if e.Version == version && e.Source == source {
		return nil, nil
	}
	e.Version, e.Source = version, source
	p.SetEntry(key, e)
	return []bind_group_provider.BufferWrite{{Provider: p, Key: key, Data: data}}, nil
}

func textureKey(name string) string {
	return "texture:" + name
}

func textureSize(t texture.Texture) int {
	n := 1
	for _, d := range t.Size() {
		n *= d
	}
	return n
}

func (r *renderer) syncMaterial(mat material.Material, block *material.UniformBlock, pl pipeline.Pipeline) (bind_group_provider.BindGroupProvider, error) {
	p, ok := r.materials[mat]
	if !ok {
		p = bind_group_provider.NewBindGroupProvider(bind_group_provider.WithLabel(mat.Name()))
		r.materials[mat] = p
		mat.OnDispose(func() {
			r.queue(func() {
				p.Release()
				delete(r.materials, mat)
			})
		})
	}
	rebind := p.BindGroup() == nil

	e, ok := p.Entry(uniformsKey)
	switch {
	case !ok || e.Size != len(block.Data):
		res, err := r.backend.CreateBuffer(mat.Name()+" uniforms", BufferUsageUniform, block.Data)
		if err != nil {
			return nil, fmt.Errorf("material %s: %w", mat.Name(), err)
		}
		p.SetEntry(uniformsKey, bind_group_provider.Entry{Resource: res, Size: len(block.Data), Source: bytes.Clone(block.Data)})
		r.stats.Uploads++
		rebind = true
	case !bytes.Equal(e.Source.([]byte), block.Data):
		e.Source = bytes.Clone(block.Data)
		p.SetEntry(uniformsKey, e)
		r.backend.WriteBuffers([]bind_group_provider.BufferWrite{{Provider: p, Key: uniformsKey, Data: block.Data}})
		r.stats.Writes++
	}

	textures := make([]bind_group_provider.Resource, 0, len(block.Textures))
	live := map[string]struct{}{uniformsKey: {}}
	for _, tb := range block.Textures {
		key := textureKey(tb.Name)
		live[key] = struct{}{}
		e, ok := p.Entry(key)
		switch {
		case !ok || e.Source != tb.Texture || e.Size != textureSize(tb.Texture):
			res, err := r.backend.CreateTexture(mat.Name()+" "+tb.Name, tb.Texture)
			if err != nil {
				return nil, fmt.Errorf("material %s texture %s: %w", mat.Name(), tb.Name, err)
			}
			e = bind_group_provider.Entry{Resource: res, Version: tb.Texture.Version(), Size: textureSize(tb.Texture), Source: tb.Texture}
			p.SetEntry(key, e)
			r.stats.Uploads++
			rebind = true
		case e.Version != tb.Texture.Version():
			e.Version = tb.Texture.Version()
			p.SetEntry(key, e)
			r.backend.WriteTexture(e.Resource, tb.Texture)
			r.stats.Writes++
		}
		textures = append(textures, e.Resource)
	}
	for _, key := range p.Keys() {
		if _, ok := live[key]; !ok {
			p.DeleteEntry(key)
			rebind = true
		}
	}

	if rebind {
		uniforms, _ := p.Entry(uniformsKey)
		bg, err := r.backend.CreateBindGroup(mat.Name(), pl, uniforms.Resource, textures)
		if err != nil {
			return nil, fmt.Errorf("material %s: %w", mat.Name(), err)
		}
		p.SetBindGroup(bg)
	}
	return p, nil
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pendingMu.Lock()
	r.pending = nil
	r.pendingMu.Unlock()

	for g, p := range r.geometries {
		p.Release()
		delete(r.geometries, g)
	}
	for m, p := range r.materials {
		p.Release()
		delete(r.materials, m)
	}
	clear(r.bindings)
	clear(r.pipelineCache)
	r.backend.Release()
}
