package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-plot/common"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/texture"
)

// headlessResource is a CPU copy of what would live on the GPU.
type headlessResource struct {
	label    string
	usage    BufferUsage
	data     []byte
	released bool
	backend  *headlessRendererBackend
}

func (r *headlessResource) Release() {
	if r.released {
		return
	}
	r.released = true
	r.backend.mu.Lock()
	delete(r.backend.live, r)
	r.backend.mu.Unlock()
}

// headlessScene is one BeginScene call and the draws recorded after it.
type headlessScene struct {
	viewport common.Rect
	clear    bool
	color    [4]float32
	draws    []DrawCommand
}

// headlessFrame is everything recorded between BeginFrame and EndFrame.
type headlessFrame struct {
	clearColor [4]float32
	scenes     []headlessScene
}

// headlessRendererBackend implements RendererBackend without a GPU. Buffers keep their bytes
// so uploads can be inspected, and each frame's scenes and draws are recorded.
type headlessRendererBackend struct {
	mu sync.Mutex

	width, height int
	presentMode   PresentMode

	live      map[*headlessResource]struct{}
	pipelines int
	writes    int

	current   *headlessFrame
	lastFrame headlessFrame
	frames    int
}

var _ RendererBackend = &headlessRendererBackend{}

func newHeadlessRendererBackend() *headlessRendererBackend {
	return &headlessRendererBackend{
		live: make(map[*headlessResource]struct{}),
	}
}

func (b *headlessRendererBackend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
}

func (b *headlessRendererBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = mode
}

func (b *headlessRendererBackend) newResource(label string, usage BufferUsage, data []byte) *headlessResource {
	r := &headlessResource{label: label, usage: usage, data: append([]byte(nil), data...), backend: b}
	b.mu.Lock()
	b.live[r] = struct{}{}
	b.mu.Unlock()
	return r
}

func (b *headlessRendererBackend) CreateBuffer(label string, usage BufferUsage, data []byte) (bind_group_provider.Resource, error) {
	return b.newResource(label, usage, data), nil
}

func (b *headlessRendererBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		res, ok := w.Resource().(*headlessResource)
		if !ok || res.released {
			continue
		}
		end := int(w.Offset) + len(w.Data)
		if end > len(res.data) {
			continue
		}
		copy(res.data[w.Offset:], w.Data)
		b.mu.Lock()
		b.writes++
		b.mu.Unlock()
	}
}

func (b *headlessRendererBackend) CreateTexture(label string, t texture.Texture) (bind_group_provider.Resource, error) {
	return b.newResource(label, BufferUsageUniform, texture.Encode(t).Data), nil
}

func (b *headlessRendererBackend) WriteTexture(res bind_group_provider.Resource, t texture.Texture) {
	if r, ok := res.(*headlessResource); ok {
		r.data = texture.Encode(t).Data
		b.mu.Lock()
		b.writes++
		b.mu.Unlock()
	}
}

func (b *headlessRendererBackend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pipelines++
	p.SetPipeline(p.Key())
	p.SetBindGroupLayout(p.Key())
	return nil
}

func (b *headlessRendererBackend) CreateBindGroup(label string, p pipeline.Pipeline, uniforms bind_group_provider.Resource, textures []bind_group_provider.Resource) (bind_group_provider.Resource, error) {
	if p.BindGroupLayout() == nil {
		return nil, fmt.Errorf("bind group %s: pipeline %s is not registered", label, p.Label())
	}
	if len(textures) != len(p.Textures()) {
		return nil, fmt.Errorf("bind group %s: %d textures for %d slots", label, len(textures), len(p.Textures()))
	}
	return b.newResource(label, BufferUsageUniform, nil), nil
}

func (b *headlessRendererBackend) BeginFrame(color [4]float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current != nil {
		return fmt.Errorf("previous frame not yet ended")
	}
	b.current = &headlessFrame{clearColor: color}
	return nil
}

func (b *headlessRendererBackend) BeginScene(viewport common.Rect, clear bool, color [4]float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current.scenes = append(b.current.scenes, headlessScene{viewport: viewport, clear: clear, color: color})
}

func (b *headlessRendererBackend) Draw(cmd DrawCommand) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &b.current.scenes[len(b.current.scenes)-1]
	s.draws = append(s.draws, cmd)
}

func (b *headlessRendererBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastFrame = *b.current
	b.current = nil
	b.frames++
}

func (b *headlessRendererBackend) Present() {}

func (b *headlessRendererBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for r := range b.live {
		r.released = true
	}
	clear(b.live)
}

// liveResources returns the number of created resources not yet released.
func (b *headlessRendererBackend) liveResources() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}
