package geometry

// GeometryBuilderOption is a functional option for configuring a Geometry via NewGeometry.
type GeometryBuilderOption func(*geometry)

// WithLabel sets the debug label of the geometry.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - GeometryBuilderOption: a function that applies the label option to a geometry
func WithLabel(label string) GeometryBuilderOption {
	return func(g *geometry) {
		g.label = label
	}
}

// WithAttribute attaches an attribute. Instanced attributes mark the geometry instanced.
//
// Parameters:
//   - attr: the attribute to attach
//
// Returns:
//   - GeometryBuilderOption: a function that applies the attribute option to a geometry
func WithAttribute(attr *Attribute) GeometryBuilderOption {
	return func(g *geometry) {
		g.SetAttribute(attr)
	}
}

// WithIndex sets the index buffer.
//
// Parameters:
//   - index: the triangle indices
//
// Returns:
//   - GeometryBuilderOption: a function that applies the index option to a geometry
func WithIndex(index []uint32) GeometryBuilderOption {
	return func(g *geometry) {
		g.index = index
	}
}

// WithInstanceCount sets the instance count explicitly.
// Without it the count is taken from the first instanced attribute.
//
// Parameters:
//   - count: the instance count
//
// Returns:
//   - GeometryBuilderOption: a function that applies the instance count option to a geometry
func WithInstanceCount(count int) GeometryBuilderOption {
	return func(g *geometry) {
		g.instanceCount = count
	}
}

// WithBoundingRadius overrides the bounding sphere radius.
//
// Parameters:
//   - radius: the radius
//
// Returns:
//   - GeometryBuilderOption: a function that applies the bounding radius option to a geometry
func WithBoundingRadius(radius float32) GeometryBuilderOption {
	return func(g *geometry) {
		g.boundingRadius = radius
	}
}
