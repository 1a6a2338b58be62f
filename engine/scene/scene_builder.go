package scene

import (
	"github.com/Carmen-Shannon/oxy-plot/common"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithVisible sets whether the scene is drawn.
//
// Parameters:
//   - visible: whether the scene is visible
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithVisible(visible bool) SceneBuilderOption {
	return func(s *scene) {
		s.visible = visible
	}
}

// WithBackgroundColor sets the RGBA clear color.
//
// Parameters:
//   - color: RGBA components in [0, 1]
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBackgroundColor(color [4]float32) SceneBuilderOption {
	return func(s *scene) {
		s.backgroundColor = color
	}
}

// WithClear sets whether the scene area is cleared before drawing.
//
// Parameters:
//   - clear: true to clear
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithClear(clear bool) SceneBuilderOption {
	return func(s *scene) {
		s.clear = clear
	}
}

// WithPixelArea sets the screen rectangle the scene draws into.
//
// Parameters:
//   - area: the rectangle in pixels
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPixelArea(area common.Rect) SceneBuilderOption {
	return func(s *scene) {
		s.pixelArea = area
	}
}
