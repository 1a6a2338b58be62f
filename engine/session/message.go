package session

import (
	"github.com/Carmen-Shannon/oxy-plot/engine/loader"
	"github.com/Carmen-Shannon/oxy-plot/engine/plot"
)

// Kind names a host event.
type Kind string

const (
	KindScene        Kind = "scene"
	KindInsertPlots  Kind = "insert_plots"
	KindDeletePlots  Kind = "delete_plots"
	KindDeleteScenes Kind = "delete_scenes"
	KindAttribute    Kind = "attribute"
	KindUniform      Kind = "uniform"
	KindVisible      Kind = "visible"
	KindFaces        Kind = "faces"
	KindCamera       Kind = "camera"
	KindSceneUpdate  Kind = "scene_update"
	KindSnapshot     Kind = "snapshot"
)

// Message is one host event handled by the session loop.
type Message interface {
	// Kind returns the event name.
	Kind() Kind
}

// LoadScene builds a scene tree from a host description.
type LoadScene struct {
	Scene loader.SceneDescription `json:"scene"`
}

// InsertPlots adds plots to an existing scene.
type InsertPlots struct {
	SceneID string      `json:"scene"`
	Plots   []plot.Spec `json:"plots"`
}

// DeletePlots removes plots from a scene.
type DeletePlots struct {
	SceneID string   `json:"scene"`
	PlotIDs []string `json:"plots"`
}

// DeleteScenes removes plots and then scenes.
type DeleteScenes struct {
	SceneIDs []string `json:"scenes"`
	PlotIDs  []string `json:"plots"`
}

// AttributeUpdate carries new values for one attribute buffer of a plot. Length is the
// element count the buffer should have once every buffer of its class has been updated.
type AttributeUpdate struct {
	PlotID string    `json:"plot"`
	Name   string    `json:"name"`
	Values []float32 `json:"values"`
	Length int       `json:"length"`
}

// UniformUpdate carries a new value for one uniform of a plot.
type UniformUpdate struct {
	PlotID string `json:"plot"`
	Name   string `json:"name"`
	Value  any    `json:"value"`
}

// VisibleUpdate mirrors the host visibility of a plot.
type VisibleUpdate struct {
	PlotID  string `json:"plot"`
	Visible bool   `json:"visible"`
}

// FacesUpdate replaces the index buffer of a mesh plot.
type FacesUpdate struct {
	PlotID string   `json:"plot"`
	Faces  []uint32 `json:"faces"`
}

// CameraUpdate is a host camera value for a scene.
type CameraUpdate struct {
	SceneID string             `json:"scene"`
	Camera  loader.CameraState `json:"camera"`
}

// SceneUpdate changes scene properties. Nil fields are left unchanged.
type SceneUpdate struct {
	SceneID         string      `json:"scene"`
	Visible         *bool       `json:"visible,omitempty"`
	BackgroundColor *[4]float32 `json:"backgroundcolor,omitempty"`
	ClearScene      *bool       `json:"clearscene,omitempty"`
	PixelArea       *[4]int     `json:"pixelarea,omitempty"`
}

// Snapshot asks to be told when the next plot has been inserted. A Snapshot with Cancel
// set withdraws the pending request with the same ID.
type Snapshot struct {
	ID     string `json:"id"`
	Cancel bool   `json:"cancel,omitempty"`

	// Reply receives the request ID and the id of the inserted plot.
	Reply func(id, plotID string) `json:"-"`
}

func (LoadScene) Kind() Kind       { return KindScene }
func (InsertPlots) Kind() Kind     { return KindInsertPlots }
func (DeletePlots) Kind() Kind     { return KindDeletePlots }
func (DeleteScenes) Kind() Kind    { return KindDeleteScenes }
func (AttributeUpdate) Kind() Kind { return KindAttribute }
func (UniformUpdate) Kind() Kind   { return KindUniform }
func (VisibleUpdate) Kind() Kind   { return KindVisible }
func (FacesUpdate) Kind() Kind     { return KindFaces }
func (CameraUpdate) Kind() Kind    { return KindCamera }
func (SceneUpdate) Kind() Kind     { return KindSceneUpdate }
func (Snapshot) Kind() Kind        { return KindSnapshot }

// New returns an empty message of the given kind, ready to be decoded into.
//
// Parameters:
//   - kind: the event name
//
// Returns:
//   - Message: a pointer to the zero message
//   - bool: false for an unknown kind
func New(kind Kind) (Message, bool) {
	switch kind {
	case KindScene:
		return &LoadScene{}, true
	case KindInsertPlots:
		return &InsertPlots{}, true
	case KindDeletePlots:
		return &DeletePlots{}, true
	case KindDeleteScenes:
		return &DeleteScenes{}, true
	case KindAttribute:
		return &AttributeUpdate{}, true
	case KindUniform:
		return &UniformUpdate{}, true
	case KindVisible:
		return &VisibleUpdate{}, true
	case KindFaces:
		return &FacesUpdate{}, true
	case KindCamera:
		return &CameraUpdate{}, true
	case KindSceneUpdate:
		return &SceneUpdate{}, true
	case KindSnapshot:
		return &Snapshot{}, true
	}
	return nil, false
}
