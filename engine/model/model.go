package model

import (
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/geometry"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/material"
)

// Primitive selects how a model's geometry is assembled into triangles.
type Primitive int

const (
	// PrimitiveMesh draws indexed triangles, instanced when the geometry is.
	PrimitiveMesh Primitive = iota
	// PrimitiveLines draws one 6-vertex quad per line segment instance.
	PrimitiveLines
)

// model is the implementation of the Model interface.
type model struct {
	name        string
	primitive   Primitive
	geometry    geometry.Geometry
	material    material.Material
	visible     bool
	renderOrder int

	disposed  bool
	onDispose []func()
}

// Model is a renderable: one geometry drawn with one material.
// The model exclusively owns both; Dispose releases them together. The geometry can be
// swapped when a plot's buffers are resized, in which case the caller disposes the old one.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Primitive reports how the geometry is drawn.
	//
	// Returns:
	//   - Primitive: mesh or lines
	Primitive() Primitive

	// Geometry retrieves the current geometry.
	//
	// Returns:
	//   - geometry.Geometry: the geometry
	Geometry() geometry.Geometry

	// SetGeometry attaches a new geometry. The previous geometry is not disposed.
	//
	// Parameters:
	//   - g: the new geometry
	SetGeometry(g geometry.Geometry)

	// Material retrieves the material.
	//
	// Returns:
	//   - material.Material: the material
	Material() material.Material

	// Visible reports whether the model is drawn.
	//
	// Returns:
	//   - bool: true if visible
	Visible() bool

	// SetVisible shows or hides the model.
	//
	// Parameters:
	//   - visible: true to draw the model
	SetVisible(visible bool)

	// RenderOrder returns the draw order within a scene; lower values draw first.
	//
	// Returns:
	//   - int: the render order
	RenderOrder() int

	// Dispose releases the geometry and material. Later calls are no-ops.
	Dispose()

	// Disposed reports whether Dispose has been called.
	//
	// Returns:
	//   - bool: true once disposed
	Disposed() bool

	// OnDispose registers a listener that runs once when the model is disposed.
	//
	// Parameters:
	//   - fn: the listener
	OnDispose(fn func())
}

var _ Model = &model{}

// NewModel creates a new Model drawing g with m.
//
// Parameters:
//   - g: the geometry, must not be nil
//   - m: the material, must not be nil
//   - options: functional options to configure the model
//
// Returns:
//   - Model: the new model
func NewModel(g geometry.Geometry, m material.Material, options ...ModelBuilderOption) Model {
	if g == nil || m == nil {
		panic("model: geometry and material are required")
	}
	md := &model{
		geometry: g,
		material: m,
		visible:  true,
	}
	for _, opt := range options {
		opt(md)
	}
	return md
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Primitive() Primitive {
	return m.primitive
}

func (m *model) Geometry() geometry.Geometry {
	return m.geometry
}

func (m *model) SetGeometry(g geometry.Geometry) {
	m.geometry = g
}

func (m *model) Material() material.Material {
	return m.material
}

func (m *model) Visible() bool {
	return m.visible
}

func (m *model) SetVisible(visible bool) {
	m.visible = visible
}

func (m *model) RenderOrder() int {
	return m.renderOrder
}

func (m *model) Dispose() {
	if m.disposed {
		return
	}
	m.disposed = true
	m.geometry.Dispose()
	m.material.Dispose()
	listeners := m.onDispose
	m.onDispose = nil
	for _, fn := range listeners {
		fn()
	}
}

func (m *model) Disposed() bool {
	return m.disposed
}

func (m *model) OnDispose(fn func()) {
	m.onDispose = append(m.onDispose, fn)
}
