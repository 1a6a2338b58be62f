package geometry

import (
	"cogentcore.org/core/base/ordmap"
)

// DefaultBoundingRadius is the bounding sphere radius given to plot geometry.
// Plots are never culled, so the sphere only has to be large enough to contain any data.
const DefaultBoundingRadius float32 = 1e7

// geometry is the implementation of the Geometry interface.
type geometry struct {
	label          string
	attributes     *ordmap.Map[string, *Attribute]
	index          []uint32
	indexVersion   uint64
	instanced      bool
	instanceCount  int
	drawCount      int
	boundingRadius float32

	disposed  bool
	onDispose []func()
}

// Geometry is a set of named attribute buffers plus an optional index buffer.
// Per-vertex attributes share the vertex count; per-instance attributes share the instance count.
// The renderer keeps one GPU buffer per attribute and re-uploads it whenever its version changes.
type Geometry interface {
	// Label returns the debug label of the geometry.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Attribute looks up an attribute by name.
	//
	// Parameters:
	//   - name: the attribute name
	//
	// Returns:
	//   - *Attribute: the attribute, or nil if absent
	Attribute(name string) *Attribute

	// Attributes returns all attributes in insertion order.
	//
	// Returns:
	//   - []*Attribute: the attributes
	Attributes() []*Attribute

	// SetAttribute adds or replaces an attribute, keeping its insertion position on replace.
	// Adding an instanced attribute marks the geometry instanced.
	//
	// Parameters:
	//   - attr: the attribute
	SetAttribute(attr *Attribute)

	// VertexCount returns the element count of the first per-vertex attribute.
	//
	// Returns:
	//   - int: the vertex count, 0 if there are no per-vertex attributes
	VertexCount() int

	// Index returns the index buffer, nil for non-indexed geometry.
	//
	// Returns:
	//   - []uint32: the indices
	Index() []uint32

	// SetIndex replaces the index buffer and bumps the index version.
	//
	// Parameters:
	//   - index: the new indices
	SetIndex(index []uint32)

	// IndexVersion returns a counter that changes every time the index buffer is replaced.
	//
	// Returns:
	//   - uint64: the index version
	IndexVersion() uint64

	// Instanced reports whether the geometry carries per-instance attributes.
	//
	// Returns:
	//   - bool: true if instanced
	Instanced() bool

	// InstanceCount returns the number of instances to draw.
	//
	// Returns:
	//   - int: the instance count
	InstanceCount() int

	// SetInstanceCount sets the number of instances to draw.
	//
	// Parameters:
	//   - count: the instance count
	SetInstanceCount(count int)

	// DrawCount returns the number of indices (or vertices for non-indexed geometry) to draw.
	// A negative value means the whole buffer.
	//
	// Returns:
	//   - int: the draw count
	DrawCount() int

	// SetDrawCount limits the number of indices or vertices drawn.
	//
	// Parameters:
	//   - count: the draw count, negative for the whole buffer
	SetDrawCount(count int)

	// BoundingRadius returns the bounding sphere radius.
	//
	// Returns:
	//   - float32: the radius
	BoundingRadius() float32

	// Dispose releases the geometry. Dispose listeners run exactly once; later calls are no-ops.
	Dispose()

	// Disposed reports whether Dispose has been called.
	//
	// Returns:
	//   - bool: true once disposed
	Disposed() bool

	// OnDispose registers a listener that runs when the geometry is disposed.
	// The renderer uses it to release GPU buffers.
	//
	// Parameters:
	//   - fn: the listener
	OnDispose(fn func())
}

var _ Geometry = &geometry{}

// NewGeometry creates a new Geometry with the provided options.
//
// Parameters:
//   - options: variadic list of GeometryBuilderOption functions to configure the geometry
//
// Returns:
//   - Geometry: the new geometry
func NewGeometry(options ...GeometryBuilderOption) Geometry {
	g := &geometry{
		attributes:     ordmap.New[string, *Attribute](),
		drawCount:      -1,
		boundingRadius: DefaultBoundingRadius,
		indexVersion:   1,
	}
	for _, opt := range options {
		opt(g)
	}
	if g.instanced && g.instanceCount == 0 {
		for _, a := range g.Attributes() {
			if a.Instanced {
				g.instanceCount = a.Count()
				break
			}
		}
	}
	return g
}

func (g *geometry) Label() string {
	return g.label
}

func (g *geometry) Attribute(name string) *Attribute {
	a, _ := g.attributes.ValueByKeyTry(name)
	return a
}

func (g *geometry) Attributes() []*Attribute {
	return g.attributes.Values()
}

func (g *geometry) SetAttribute(attr *Attribute) {
	g.attributes.Add(attr.Name, attr)
	if attr.Instanced {
		g.instanced = true
	}
}

func (g *geometry) VertexCount() int {
	for _, a := range g.attributes.Order {
		if !a.Value.Instanced {
			return a.Value.Count()
		}
	}
	return 0
}

func (g *geometry) Index() []uint32 {
	return g.index
}

func (g *geometry) SetIndex(index []uint32) {
	g.index = index
	g.indexVersion++
}

func (g *geometry) IndexVersion() uint64 {
	return g.indexVersion
}

func (g *geometry) Instanced() bool {
	return g.instanced
}

func (g *geometry) InstanceCount() int {
	return g.instanceCount
}

func (g *geometry) SetInstanceCount(count int) {
	g.instanceCount = count
}

func (g *geometry) DrawCount() int {
	return g.drawCount
}

func (g *geometry) SetDrawCount(count int) {
	g.drawCount = count
}

func (g *geometry) BoundingRadius() float32 {
	return g.boundingRadius
}

func (g *geometry) Dispose() {
	if g.disposed {
		return
	}
	g.disposed = true
	listeners := g.onDispose
	g.onDispose = nil
	for _, fn := range listeners {
		fn()
	}
}

func (g *geometry) Disposed() bool {
	return g.disposed
}

func (g *geometry) OnDispose(fn func()) {
	g.onDispose = append(g.onDispose, fn)
}
