package camera

// CameraController drives a camera interactively. The controller owns the eye position
// and look-at target; the camera reads them on every Tick to rebuild its matrices.
// Orbiting is around the +Z axis, the up axis of 3D plot scenes.
type CameraController interface {
	// Position returns the eye position.
	//
	// Returns:
	//   - [3]float32: eye position
	Position() [3]float32

	// Target returns the look-at point.
	//
	// Returns:
	//   - [3]float32: look-at point
	Target() [3]float32

	// SetTarget moves the look-at point and recomputes the eye from the orbit state.
	//
	// Parameters:
	//   - target: the new look-at point
	SetTarget(target [3]float32)

	// Orbit rotates the eye around the target.
	//
	// Parameters:
	//   - dAzimuth: change of the horizontal angle in radians
	//   - dElevation: change of the vertical angle in radians, clamped to the elevation bounds
	Orbit(dAzimuth, dElevation float32)

	// Drag orbits by a mouse movement in pixels, scaled by the mouse sensitivity.
	//
	// Parameters:
	//   - dx, dy: cursor movement in pixels
	Drag(dx, dy float32)

	// Zoom moves the eye towards the target. Positive delta zooms in.
	// The distance is scaled multiplicatively so zoom speed is uniform across scales.
	//
	// Parameters:
	//   - delta: zoom steps, usually scroll wheel ticks
	Zoom(delta float32)

	// Pan translates eye and target together along the view plane.
	//
	// Parameters:
	//   - dx, dy: movement in units of the current orbit radius
	Pan(dx, dy float32)

	// Radius returns the distance from eye to target.
	//
	// Returns:
	//   - float32: orbit radius
	Radius() float32

	// Azimuth returns the horizontal angle around +Z.
	//
	// Returns:
	//   - float32: azimuth in radians
	Azimuth() float32

	// Elevation returns the angle above the XY plane.
	//
	// Returns:
	//   - float32: elevation in radians
	Elevation() float32
}

// Cam3DState is the interactive camera configuration a scene description may carry.
// A scene that sends one is driven by an orbit controller instead of host camera updates.
type Cam3DState struct {
	EyePosition [3]float32 `json:"eyeposition"`
	LookAt      [3]float32 `json:"lookat"`
	UpVector    [3]float32 `json:"upvector"`
	// Fov is the vertical field of view in degrees.
	Fov  float32 `json:"fov"`
	Near float32 `json:"near"`
	Far  float32 `json:"far"`
}
