package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-plot/common"
	"github.com/Carmen-Shannon/oxy-plot/engine/uniform"
)

// Depth range of the pixel and relative space projections.
const (
	spaceNear float32 = -10000
	spaceFar  float32 = 10000
)

type cameraImpl struct {
	mu *sync.Mutex

	up   [3]float32
	fov  float32
	near float32
	far  float32

	view           *uniform.Uniform
	projection     *uniform.Uniform
	projectionView *uniform.Uniform
	eyePosition    *uniform.Uniform
	resolution     *uniform.Uniform
	pixelSpace     *uniform.Uniform
	relativeSpace  *uniform.Uniform

	controller CameraController
}

// Camera owns the matrices a scene's plots are drawn with.
//
// Every matrix is exposed as a shared *uniform.Uniform handle. Plots in data space hold
// the same handles, so one Update reaches every material of the scene without touching
// them individually. Matrices come either from the host (Update) or, when a controller is
// attached, from the controller on every Tick.
type Camera interface {
	// View returns the view matrix handle (Matrix4).
	//
	// Returns:
	//   - *uniform.Uniform: the view handle
	View() *uniform.Uniform

	// Projection returns the projection matrix handle (Matrix4).
	//
	// Returns:
	//   - *uniform.Uniform: the projection handle
	Projection() *uniform.Uniform

	// ProjectionView returns the projection * view matrix handle (Matrix4).
	//
	// Returns:
	//   - *uniform.Uniform: the projectionview handle
	ProjectionView() *uniform.Uniform

	// EyePosition returns the eye position handle (Vector3).
	//
	// Returns:
	//   - *uniform.Uniform: the eyeposition handle
	EyePosition() *uniform.Uniform

	// Resolution returns the viewport resolution handle (Vector2, pixels).
	//
	// Returns:
	//   - *uniform.Uniform: the resolution handle
	Resolution() *uniform.Uniform

	// PixelSpace returns the handle of the orthographic projection over [0, width] x [0, height].
	//
	// Returns:
	//   - *uniform.Uniform: the pixel_space handle
	PixelSpace() *uniform.Uniform

	// RelativeSpace returns the handle of the orthographic projection over [0, 1] x [0, 1].
	//
	// Returns:
	//   - *uniform.Uniform: the relative_space handle
	RelativeSpace() *uniform.Uniform

	// Update replaces the camera state with values sent by the host and refreshes the
	// derived projectionview and pixel_space matrices in place.
	//
	// Parameters:
	//   - view: the view matrix, column-major
	//   - projection: the projection matrix, column-major
	//   - resolution: the viewport size in pixels
	//   - eyePosition: the eye position in data space
	Update(view, projection [16]float32, resolution [2]float32, eyePosition [3]float32)

	// Resize changes only the resolution, refreshing pixel_space.
	//
	// Parameters:
	//   - width, height: the viewport size in pixels
	Resize(width, height float32)

	// PreprojectionMatrix returns the matrix that maps positions given in space onto
	// markerspace: inverse(toClip(markerspace)) * toClip(space). Equal spaces give identity.
	//
	// Parameters:
	//   - space: the space the positions are given in
	//   - markerspace: the space markers are drawn in
	//
	// Returns:
	//   - [16]float32: the preprojection matrix, column-major
	PreprojectionMatrix(space, markerspace common.Space) [16]float32

	// Controller returns the attached interactive controller, or nil.
	//
	// Returns:
	//   - CameraController: the controller or nil
	Controller() CameraController

	// SetController attaches an interactive controller. From then on Tick derives the
	// view and projection from it.
	//
	// Parameters:
	//   - ctrl: the controller, nil to detach
	SetController(ctrl CameraController)

	// Tick recomputes the matrices from the attached controller. Without a controller it does nothing.
	Tick()

	// Fov returns the vertical field of view in radians used in controller mode.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// SetFov sets the vertical field of view in radians used in controller mode.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetClip sets the near and far planes used in controller mode.
	//
	// Parameters:
	//   - near, far: the clipping plane distances
	SetClip(near, far float32)

	// SetUp sets the up vector used in controller mode.
	//
	// Parameters:
	//   - x, y, z: up vector components
	SetUp(x, y, z float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with identity matrices and a 1x1 resolution.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	id := common.Identity4()
	res := uniform.Vector2{1, 1}
	eye := uniform.Vector3{}
	c := &cameraImpl{
		mu:             &sync.Mutex{},
		up:             [3]float32{0, 0, 1},
		fov:            45.0 * (math.Pi / 180.0),
		near:           0.1,
		far:            100.0,
		view:           uniform.NewMatrix4(id),
		projection:     uniform.NewMatrix4(id),
		projectionView: uniform.NewMatrix4(id),
		eyePosition:    uniform.New(&eye),
		resolution:     uniform.New(&res),
		pixelSpace:     uniform.NewMatrix4(id),
		relativeSpace:  uniform.NewMatrix4(id),
	}
	common.Ortho(uniform.Floats(c.relativeSpace.Value), 0, 1, 0, 1, spaceNear, spaceFar)
	common.Ortho(uniform.Floats(c.pixelSpace.Value), 0, 1, 0, 1, spaceNear, spaceFar)
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *cameraImpl) View() *uniform.Uniform {
	return c.view
}

func (c *cameraImpl) Projection() *uniform.Uniform {
	return c.projection
}

func (c *cameraImpl) ProjectionView() *uniform.Uniform {
	return c.projectionView
}

func (c *cameraImpl) EyePosition() *uniform.Uniform {
	return c.eyePosition
}

func (c *cameraImpl) Resolution() *uniform.Uniform {
	return c.resolution
}

func (c *cameraImpl) PixelSpace() *uniform.Uniform {
	return c.pixelSpace
}

func (c *cameraImpl) RelativeSpace() *uniform.Uniform {
	return c.relativeSpace
}

func (c *cameraImpl) Update(view, projection [16]float32, resolution [2]float32, eyePosition [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(view, projection, resolution, eyePosition)
}

func (c *cameraImpl) Resize(width, height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setResolution([2]float32{width, height})
}

func (c *cameraImpl) PreprojectionMatrix(space, markerspace common.Space) [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := common.Identity4()
	if space == markerspace {
		return out
	}
	from := c.toClip(space)
	to := c.toClip(markerspace)
	var inv [16]float32
	if !common.Invert4(inv[:], to[:]) {
		return from
	}
	common.Mul4(out[:], inv[:], from[:])
	return out
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateFromController()
}

func (c *cameraImpl) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateFromController()
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateFromController()
}

func (c *cameraImpl) SetClip(near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near, c.far = near, far
	c.updateFromController()
}

func (c *cameraImpl) SetUp(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = [3]float32{x, y, z}
	c.updateFromController()
}

// apply writes every matrix in place so handles held by materials stay valid.
// Caller must hold the mutex.
func (c *cameraImpl) apply(view, projection [16]float32, resolution [2]float32, eyePosition [3]float32) {
	copy(uniform.Floats(c.view.Value), view[:])
	copy(uniform.Floats(c.projection.Value), projection[:])
	common.Mul4(uniform.Floats(c.projectionView.Value), projection[:], view[:])
	copy(uniform.Floats(c.eyePosition.Value), eyePosition[:])
	c.view.MarkDirty()
	c.projection.MarkDirty()
	c.projectionView.MarkDirty()
	c.eyePosition.MarkDirty()
	c.setResolution(resolution)
}

// setResolution updates the resolution and the pixel space projection derived from it.
// Caller must hold the mutex.
func (c *cameraImpl) setResolution(resolution [2]float32) {
	copy(uniform.Floats(c.resolution.Value), resolution[:])
	common.Ortho(uniform.Floats(c.pixelSpace.Value), 0, resolution[0], 0, resolution[1], spaceNear, spaceFar)
	c.resolution.MarkDirty()
	c.pixelSpace.MarkDirty()
}

// toClip returns the matrix taking positions in space to clip space.
// Caller must hold the mutex.
func (c *cameraImpl) toClip(space common.Space) [16]float32 {
	var m [16]float32
	switch space {
	case common.SpaceData:
		copy(m[:], uniform.Floats(c.projectionView.Value))
	case common.SpacePixel:
		copy(m[:], uniform.Floats(c.pixelSpace.Value))
	case common.SpaceRelative:
		copy(m[:], uniform.Floats(c.relativeSpace.Value))
	default:
		m = common.Identity4()
	}
	return m
}

// updateFromController recomputes view and projection from the controller. This is a
// no-op when the controller is nil. Caller must hold the mutex.
func (c *cameraImpl) updateFromController() {
	if c.controller == nil {
		return
	}
	eye := c.controller.Position()
	target := c.controller.Target()

	var view, projection [16]float32
	common.LookAt(view[:], eye, target, c.up)

	res := uniform.Floats(c.resolution.Value)
	aspect := float32(1)
	if res[1] != 0 {
		aspect = res[0] / res[1]
	}
	common.Perspective(projection[:], c.fov, aspect, c.near, c.far)

	c.apply(view, projection, [2]float32{res[0], res[1]}, eye)
}
