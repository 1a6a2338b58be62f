package plot

import (
	"github.com/Carmen-Shannon/oxy-plot/engine/model"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/geometry"
)

// PlotBuilderOption is a functional option for configuring a Plot via NewPlot.
type PlotBuilderOption func(*plot)

// WithRebuildListener registers a function called after every geometry rebuild, once the
// old geometry has been disposed.
//
// Parameters:
//   - fn: receives the old and the replacement geometry
//
// Returns:
//   - PlotBuilderOption: a function that applies the listener option to a plot
func WithRebuildListener(fn func(old, replacement geometry.Geometry)) PlotBuilderOption {
	return func(p *plot) {
		p.onRebuild = fn
	}
}

// WithRenderOrder sets the draw order of the plot's model within its scene.
//
// Parameters:
//   - order: lower values draw first
//
// Returns:
//   - PlotBuilderOption: a function that applies the render order option to a plot
func WithRenderOrder(order int) PlotBuilderOption {
	return func(p *plot) {
		p.options = append(p.options, model.WithRenderOrder(order))
	}
}
