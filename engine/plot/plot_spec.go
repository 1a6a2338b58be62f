package plot

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-plot/common"
)

// Plot type names as sent by the host.
const (
	TypeMesh  = "Mesh"
	TypeLines = "Lines"
)

// Buffer is a flat attribute array as sent by the host.
type Buffer struct {
	Flat     []float32 `json:"flat"`
	ItemSize int       `json:"type_length"`
}

// Spec is the host description of one plot.
type Spec struct {
	UUID     string       `json:"uuid"`
	Name     string       `json:"name"`
	PlotType string       `json:"plot_type"`
	Visible  *bool        `json:"visible,omitempty"`
	CamSpace common.Space `json:"cam_space"`

	Uniforms       map[string]any `json:"uniforms"`
	VertexShader   string         `json:"vertex_source"`
	FragmentShader string         `json:"fragment_source"`
	Transparent    bool           `json:"transparency"`

	// Mesh plots.
	VertexArrays       map[string]Buffer `json:"vertexarrays,omitempty"`
	Faces              []uint32          `json:"faces,omitempty"`
	InstanceAttributes map[string]Buffer `json:"instance_attributes,omitempty"`

	// Line plots: flat 2D points.
	Positions      []float32 `json:"positions,omitempty"`
	IsLineSegments bool      `json:"is_linesegments"`
}

// IsVisible returns the initial visibility, true when the host did not send one.
//
// Returns:
//   - bool: the initial visibility
func (s *Spec) IsVisible() bool {
	return s.Visible == nil || *s.Visible
}

// Space returns the coordinate space, data when the host did not send one.
//
// Returns:
//   - common.Space: the coordinate space
func (s *Spec) Space() common.Space {
	if s.CamSpace == "" {
		return common.SpaceData
	}
	return s.CamSpace
}

// sortedNames returns the keys of a buffer map in a stable order.
func sortedNames(m map[string]Buffer) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
