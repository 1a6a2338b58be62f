package model

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName sets the model identifier.
//
// Parameters:
//   - name: the model name
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithPrimitive sets how the geometry is drawn.
//
// Parameters:
//   - p: mesh or lines
//
// Returns:
//   - ModelBuilderOption: a function that applies the primitive option to a model
func WithPrimitive(p Primitive) ModelBuilderOption {
	return func(m *model) {
		m.primitive = p
	}
}

// WithVisible sets the initial visibility.
//
// Parameters:
//   - visible: true to draw the model
//
// Returns:
//   - ModelBuilderOption: a function that applies the visibility option to a model
func WithVisible(visible bool) ModelBuilderOption {
	return func(m *model) {
		m.visible = visible
	}
}

// WithRenderOrder sets the draw order within a scene.
//
// Parameters:
//   - order: lower values draw first
//
// Returns:
//   - ModelBuilderOption: a function that applies the render order option to a model
func WithRenderOrder(order int) ModelBuilderOption {
	return func(m *model) {
		m.renderOrder = order
	}
}
