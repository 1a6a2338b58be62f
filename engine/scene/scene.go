package scene

import (
	"cogentcore.org/core/base/ordmap"

	"github.com/Carmen-Shannon/oxy-plot/common"
	"github.com/Carmen-Shannon/oxy-plot/engine/camera"
	"github.com/Carmen-Shannon/oxy-plot/engine/plot"
)

// Scene is a node of the host's scene tree: a camera, the plots drawn with it, the
// scene's screen area and its owned child scenes.
//
// A scene exclusively owns its camera and children. Plots are referenced by the scene
// container; their lifetime is managed by the registry, which removes them from the
// container before disposing them.
type Scene interface {
	// ID returns the host identifier of the scene.
	ID() string

	// Camera returns the scene camera.
	Camera() camera.Camera

	// Parent returns the owning scene, nil for a root scene.
	Parent() Scene

	// Children returns the owned child scenes in insertion order.
	Children() []Scene

	// AddChild records child as owned by this scene and sets its parent.
	//
	// Parameters:
	//   - child: the child scene
	AddChild(child Scene)

	// RemoveChild forgets an owned child.
	//
	// Parameters:
	//   - id: the child scene id
	//
	// Returns:
	//   - bool: true if the child was present
	RemoveChild(id string) bool

	// Plots returns the plots in the scene container in insertion order.
	Plots() []plot.Plot

	// Plot looks up a plot in the scene container.
	//
	// Parameters:
	//   - id: the plot id
	//
	// Returns:
	//   - plot.Plot: the plot
	//   - bool: false if the plot is not in this scene
	Plot(id string) (plot.Plot, bool)

	// AddPlot adds a plot to the scene container, replacing one with the same id.
	//
	// Parameters:
	//   - p: the plot
	AddPlot(p plot.Plot)

	// RemovePlot removes a plot from the scene container without disposing it.
	//
	// Parameters:
	//   - id: the plot id
	//
	// Returns:
	//   - bool: true if the plot was present
	RemovePlot(id string) bool

	// ClearContainer removes every plot from the scene container without disposing them.
	ClearContainer()

	// UpdateCamera applies a host camera update. Scenes driven by an interactive
	// controller ignore host updates.
	//
	// Parameters:
	//   - view, projection: column-major matrices
	//   - resolution: viewport size in pixels
	//   - eyePosition: eye position in data space
	//
	// Returns:
	//   - bool: false if the update was ignored
	UpdateCamera(view, projection [16]float32, resolution [2]float32, eyePosition [3]float32) bool

	// UsesController reports whether the camera is driven by an interactive controller.
	UsesController() bool

	// Visible reports whether the scene and its children are drawn.
	Visible() bool

	// SetVisible shows or hides the scene.
	//
	// Parameters:
	//   - visible: true to draw the scene
	SetVisible(visible bool)

	// BackgroundColor returns the RGBA clear color.
	BackgroundColor() [4]float32

	// SetBackgroundColor sets the RGBA clear color.
	//
	// Parameters:
	//   - color: RGBA components in [0, 1]
	SetBackgroundColor(color [4]float32)

	// Clear reports whether the scene area is cleared before drawing.
	Clear() bool

	// SetClear sets whether the scene area is cleared before drawing.
	//
	// Parameters:
	//   - clear: true to clear
	SetClear(clear bool)

	// PixelArea returns the screen rectangle the scene draws into.
	PixelArea() common.Rect

	// SetPixelArea moves or resizes the scene area. A controller-driven camera follows
	// the new size, since no host camera updates arrive for it.
	//
	// Parameters:
	//   - area: the new rectangle
	SetPixelArea(area common.Rect)
}

type scene struct {
	id     string
	camera camera.Camera
	parent Scene

	children *ordmap.Map[string, Scene]
	plots    *ordmap.Map[string, plot.Plot]

	visible         bool
	backgroundColor [4]float32
	clear           bool
	pixelArea       common.Rect
}

var _ Scene = &scene{}

// NewScene creates a new Scene with the given id and camera.
//
// Parameters:
//   - id: the host identifier
//   - cam: the scene camera, must not be nil
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(id string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: camera is required")
	}
	s := &scene{
		id:              id,
		camera:          cam,
		children:        ordmap.New[string, Scene](),
		plots:           ordmap.New[string, plot.Plot](),
		visible:         true,
		backgroundColor: [4]float32{1, 1, 1, 1},
		clear:           true,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) ID() string {
	return s.id
}

func (s *scene) Camera() camera.Camera {
	return s.camera
}

func (s *scene) Parent() Scene {
	return s.parent
}

func (s *scene) Children() []Scene {
	return s.children.Values()
}

func (s *scene) AddChild(child Scene) {
	if c, ok := child.(*scene); ok {
		c.parent = s
	}
	s.children.Add(child.ID(), child)
}

func (s *scene) RemoveChild(id string) bool {
	return s.children.DeleteKey(id)
}

func (s *scene) Plots() []plot.Plot {
	return s.plots.Values()
}

func (s *scene) Plot(id string) (plot.Plot, bool) {
	return s.plots.ValueByKeyTry(id)
}

func (s *scene) AddPlot(p plot.Plot) {
	s.plots.Add(p.ID(), p)
}

func (s *scene) RemovePlot(id string) bool {
	return s.plots.DeleteKey(id)
}

func (s *scene) ClearContainer() {
	s.plots.Reset()
}

func (s *scene) UpdateCamera(view, projection [16]float32, resolution [2]float32, eyePosition [3]float32) bool {
	if s.UsesController() {
		return false
	}
	s.camera.Update(view, projection, resolution, eyePosition)
	return true
}

func (s *scene) UsesController() bool {
	return s.camera.Controller() != nil
}

func (s *scene) Visible() bool {
	return s.visible
}

func (s *scene) SetVisible(visible bool) {
	s.visible = visible
}

func (s *scene) BackgroundColor() [4]float32 {
	return s.backgroundColor
}

func (s *scene) SetBackgroundColor(color [4]float32) {
	s.backgroundColor = color
}

func (s *scene) Clear() bool {
	return s.clear
}

func (s *scene) SetClear(clear bool) {
	s.clear = clear
}

func (s *scene) PixelArea() common.Rect {
	return s.pixelArea
}

func (s *scene) SetPixelArea(area common.Rect) {
	s.pixelArea = area
	if s.UsesController() && area.Width > 0 && area.Height > 0 {
		s.camera.Resize(float32(area.Width), float32(area.Height))
		s.camera.Tick()
	}
}
