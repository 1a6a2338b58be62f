package camera

import (
	"math"
	"sync"

	"github.com/chewxy/math32"
)

// cameraControllerImpl is the orbit implementation of CameraController.
// Eye position is kept in spherical coordinates relative to the target.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position [3]float32
	target   [3]float32

	radius    float32
	azimuth   float32
	elevation float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	mouseSensitivity float32
	zoomSpeed        float32
}

var _ CameraController = &cameraControllerImpl{}

// NewOrbitController creates an orbit controller looking at the origin from a distance of 10.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewOrbitController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:               &sync.Mutex{},
		radius:           10,
		azimuth:          math.Pi / 4,
		elevation:        math.Pi / 6,
		minRadius:        1e-4,
		maxRadius:        1e8,
		minElevation:     -math.Pi/2 + 0.01,
		maxElevation:     math.Pi/2 - 0.01,
		mouseSensitivity: 0.005,
		zoomSpeed:        0.1,
	}
	for _, option := range options {
		option(cc)
	}
	cc.updatePosition()
	return cc
}

// NewControllerFromState creates an orbit controller reproducing the eye and target of a
// scene's interactive camera state, and configures cam with its field of view, clip
// planes and up vector.
//
// Parameters:
//   - cam: the camera to configure
//   - state: the interactive camera state
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the controller, already attached to cam
func NewControllerFromState(cam Camera, state Cam3DState, options ...CameraControllerOption) CameraController {
	opts := append([]CameraControllerOption{WithEye(state.EyePosition, state.LookAt)}, options...)
	cc := NewOrbitController(opts...)
	if state.UpVector != [3]float32{} {
		cam.SetUp(state.UpVector[0], state.UpVector[1], state.UpVector[2])
	}
	if state.Fov > 0 {
		cam.SetFov(state.Fov * math.Pi / 180)
	}
	if state.Near > 0 && state.Far > state.Near {
		cam.SetClip(state.Near, state.Far)
	}
	cam.SetController(cc)
	return cc
}

// updatePosition recomputes the eye position from spherical coordinates.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) updatePosition() {
	cosElev, sinElev := math32.Cos(cc.elevation), math32.Sin(cc.elevation)
	cosAzim, sinAzim := math32.Cos(cc.azimuth), math32.Sin(cc.azimuth)

	cc.position[0] = cc.target[0] + cc.radius*cosElev*cosAzim
	cc.position[1] = cc.target[1] + cc.radius*cosElev*sinAzim
	cc.position[2] = cc.target[2] + cc.radius*sinElev
}

// setEye derives the spherical coordinates from an eye position. Caller must hold the mutex.
func (cc *cameraControllerImpl) setEye(eye [3]float32) {
	dx, dy, dz := eye[0]-cc.target[0], eye[1]-cc.target[1], eye[2]-cc.target[2]
	r := math32.Sqrt(dx*dx + dy*dy + dz*dz)
	if r == 0 {
		return
	}
	cc.radius = clamp(r, cc.minRadius, cc.maxRadius)
	cc.azimuth = math32.Atan2(dy, dx)
	cc.elevation = clamp(math32.Asin(dz/r), cc.minElevation, cc.maxElevation)
}

func (cc *cameraControllerImpl) Position() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) Target() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *cameraControllerImpl) SetTarget(target [3]float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Orbit(dAzimuth, dElevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth += dAzimuth
	cc.elevation = clamp(cc.elevation+dElevation, cc.minElevation, cc.maxElevation)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Drag(dx, dy float32) {
	cc.Orbit(-dx*cc.mouseSensitivity, dy*cc.mouseSensitivity)
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = clamp(cc.radius*math32.Pow(1-cc.zoomSpeed, delta), cc.minRadius, cc.maxRadius)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Pan(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	// right = (-sin az, cos az, 0); up = (-sin el cos az, -sin el sin az, cos el)
	sinAz, cosAz := math32.Sin(cc.azimuth), math32.Cos(cc.azimuth)
	sinEl, cosEl := math32.Sin(cc.elevation), math32.Cos(cc.elevation)
	sx, sy := dx*cc.radius, dy*cc.radius
	cc.target[0] += -sinAz*sx - sinEl*cosAz*sy
	cc.target[1] += cosAz*sx - sinEl*sinAz*sy
	cc.target[2] += cosEl * sy
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *cameraControllerImpl) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *cameraControllerImpl) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
