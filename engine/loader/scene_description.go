package loader

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-plot/common"
	"github.com/Carmen-Shannon/oxy-plot/engine/camera"
	"github.com/Carmen-Shannon/oxy-plot/engine/plot"
)

// ErrMissingCamera is returned for a scene description carrying neither a host camera
// nor an interactive camera state.
var ErrMissingCamera = errors.New("scene description has no camera")

// SceneDescription is the nested host description of a scene tree.
type SceneDescription struct {
	UUID            string     `json:"uuid"`
	PixelArea       [4]int     `json:"pixelarea"`
	BackgroundColor [4]float32 `json:"backgroundcolor"`
	ClearScene      bool       `json:"clearscene"`
	Visible         *bool      `json:"visible,omitempty"`

	Camera     *CameraState       `json:"camera,omitempty"`
	Cam3DState *camera.Cam3DState `json:"cam3d_state,omitempty"`

	Plots    []plot.Spec        `json:"plots"`
	Children []SceneDescription `json:"children"`
}

// IsVisible returns the initial visibility, true when the host did not send one.
//
// Returns:
//   - bool: the initial visibility
func (d *SceneDescription) IsVisible() bool {
	return d.Visible == nil || *d.Visible
}

// Area returns the pixel area as a rectangle.
//
// Returns:
//   - common.Rect: the scene area
func (d *SceneDescription) Area() common.Rect {
	return common.Rect{X: d.PixelArea[0], Y: d.PixelArea[1], Width: d.PixelArea[2], Height: d.PixelArea[3]}
}

// CameraState is one host camera value: the matrices and viewport the host computed.
type CameraState struct {
	View        [16]float32 `json:"view"`
	Projection  [16]float32 `json:"projection"`
	Resolution  [2]float32  `json:"resolution"`
	EyePosition [3]float32  `json:"eyeposition"`
}

// UnmarshalJSON accepts both the object form and the positional
// [view, projection, resolution, eyeposition] form the host observable emits.
func (c *CameraState) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err == nil {
		if len(tuple) != 4 {
			return fmt.Errorf("camera state: expected 4 elements, got %d", len(tuple))
		}
		targets := []any{&c.View, &c.Projection, &c.Resolution, &c.EyePosition}
		for i, raw := range tuple {
			if err := json.Unmarshal(raw, targets[i]); err != nil {
				return fmt.Errorf("camera state element %d: %w", i, err)
			}
		}
		return nil
	}

	type object CameraState
	var o object
	if err := json.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("camera state: %w", err)
	}
	*c = CameraState(o)
	return nil
}

// Apply pushes the state into a camera.
//
// Parameters:
//   - cam: the camera to update
func (c *CameraState) Apply(cam camera.Camera) {
	cam.Update(c.View, c.Projection, c.Resolution, c.EyePosition)
}
