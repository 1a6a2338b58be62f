package plot

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/geometry"
)

const (
	// LinePointAttribute is the interleaved per-instance window of a line plot.
	LinePointAttribute = "linepoint"
	// LineVertexAttribute selects the quad corner in the line vertex shader.
	LineVertexAttribute = "position"
	// PositionsUpdate is the update name a line plot accepts for new points.
	PositionsUpdate = "positions"

	// windowStride is the float count of one line window: prev, start, end, next.
	windowStride = 8
	// quadVertices is the vertex count of the quad every line segment is drawn with.
	quadVertices = 6
)

// LineWindows builds the sliding window buffer of a line plot.
//
// points is a flat sequence of 2D points. For a polyline every consecutive pair is a
// segment and prev/next come from the neighbouring points, clamped to the first and last
// point. For independent segments (isSegments) points are taken in pairs and each window
// is (start, start, end, end). A trailing unpaired point is ignored.
//
// Parameters:
//   - points: flat 2D points
//   - isSegments: true if every pair of points is its own segment
//
// Returns:
//   - []float32: 8 floats per drawn segment
func LineWindows(points []float32, isSegments bool) []float32 {
	n := len(points) / 2
	pt := func(i int) (float32, float32) {
		return points[2*i], points[2*i+1]
	}

	if isSegments {
		segments := n / 2
		out := make([]float32, 0, segments*windowStride)
		for k := 0; k < segments; k++ {
			sx, sy := pt(2 * k)
			ex, ey := pt(2*k + 1)
			out = append(out, sx, sy, sx, sy, ex, ey, ex, ey)
		}
		return out
	}

	if n < 2 {
		return []float32{}
	}
	out := make([]float32, 0, (n-1)*windowStride)
	for i := 0; i < n-1; i++ {
		px, py := pt(max(i-1, 0))
		sx, sy := pt(i)
		ex, ey := pt(i + 1)
		nx, ny := pt(min(i+2, n-1))
		out = append(out, px, py, sx, sy, ex, ey, nx, ny)
	}
	return out
}

// SegmentCount returns the number of segments a window buffer draws.
//
// Parameters:
//   - windows: the buffer returned by LineWindows
//
// Returns:
//   - int: the segment count
func SegmentCount(windows []float32) int {
	return len(windows) / windowStride
}

// newLinePointAttribute wraps a window buffer in the interleaved linepoint attribute.
func newLinePointAttribute(windows []float32) *geometry.Attribute {
	return geometry.NewAttribute(LinePointAttribute, windows, windowStride, true,
		geometry.View{Name: LinePointAttribute + "_prev", Offset: 0, ItemSize: 2},
		geometry.View{Name: LinePointAttribute + "_start", Offset: 2, ItemSize: 2},
		geometry.View{Name: LinePointAttribute + "_end", Offset: 4, ItemSize: 2},
		geometry.View{Name: LinePointAttribute + "_next", Offset: 6, ItemSize: 2},
	)
}

// BuildLineGeometry creates the geometry of a line plot: a per-vertex quad corner index
// and one linepoint window per segment. Extra instance attributes (per-segment color,
// width) are attached alongside.
//
// Parameters:
//   - label: the geometry label
//   - points: flat 2D points
//   - isSegments: true if every pair of points is its own segment
//   - instance: optional extra per-instance buffers
//
// Returns:
//   - geometry.Geometry: the new geometry
//   - error: ErrInvalidBuffer for a malformed extra buffer
func BuildLineGeometry(label string, points []float32, isSegments bool, instance map[string]Buffer) (geometry.Geometry, error) {
	corners := make([]float32, quadVertices)
	for i := range corners {
		corners[i] = float32(i)
	}
	windows := LineWindows(points, isSegments)

	opts := []geometry.GeometryBuilderOption{
		geometry.WithLabel(label),
		geometry.WithAttribute(geometry.NewAttribute(LineVertexAttribute, corners, 1, false)),
		geometry.WithAttribute(newLinePointAttribute(windows)),
		geometry.WithInstanceCount(SegmentCount(windows)),
	}
	for _, name := range sortedNames(instance) {
		attr, err := newAttribute(name, instance[name], true)
		if err != nil {
			return nil, err
		}
		opts = append(opts, geometry.WithAttribute(attr))
	}
	return geometry.NewGeometry(opts...), nil
}

// BuildMeshGeometry creates the geometry of a mesh plot from named vertex buffers, an
// index buffer and optional per-instance buffers. With instance buffers present the
// geometry is instanced and the instance count is taken from the first of them.
//
// Parameters:
//   - label: the geometry label
//   - vertex: per-vertex buffers
//   - faces: triangle indices, nil for non-indexed drawing
//   - instance: optional per-instance buffers
//
// Returns:
//   - geometry.Geometry: the new geometry
//   - error: ErrInvalidBuffer for a malformed buffer
func BuildMeshGeometry(label string, vertex map[string]Buffer, faces []uint32, instance map[string]Buffer) (geometry.Geometry, error) {
	opts := []geometry.GeometryBuilderOption{geometry.WithLabel(label)}
	for _, name := range sortedNames(vertex) {
		attr, err := newAttribute(name, vertex[name], false)
		if err != nil {
			return nil, err
		}
		opts = append(opts, geometry.WithAttribute(attr))
	}
	for _, name := range sortedNames(instance) {
		attr, err := newAttribute(name, instance[name], true)
		if err != nil {
			return nil, err
		}
		opts = append(opts, geometry.WithAttribute(attr))
	}
	if faces != nil {
		opts = append(opts, geometry.WithIndex(faces))
	}
	return geometry.NewGeometry(opts...), nil
}

func newAttribute(name string, b Buffer, instanced bool) (*geometry.Attribute, error) {
	switch b.ItemSize {
	case 1, 2, 3, 4, 16:
	default:
		return nil, fmt.Errorf("attribute %q: item size %d: %w", name, b.ItemSize, ErrInvalidBuffer)
	}
	if len(b.Flat)%b.ItemSize != 0 {
		return nil, fmt.Errorf("attribute %q: %d values for item size %d: %w", name, len(b.Flat), b.ItemSize, ErrInvalidBuffer)
	}
	return geometry.NewAttribute(name, b.Flat, b.ItemSize, instanced), nil
}
