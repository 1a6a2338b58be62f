package plot

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-plot/common"
	"github.com/Carmen-Shannon/oxy-plot/engine/camera"
	"github.com/Carmen-Shannon/oxy-plot/engine/model"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/geometry"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-plot/engine/uniform"
)

// plot is the implementation of the Plot interface.
type plot struct {
	id             string
	name           string
	plotType       string
	space          common.Space
	isLineSegments bool

	model   model.Model
	updater *attributeUpdater

	onRebuild func(old, replacement geometry.Geometry)
	options   []model.ModelBuilderOption
}

// Plot is a live plot: a model mirroring one host plot, plus the update protocol that
// keeps its buffers and uniforms in step with the host.
type Plot interface {
	// ID returns the host identifier of the plot.
	//
	// Returns:
	//   - string: the plot id
	ID() string

	// Name returns the host plot name.
	//
	// Returns:
	//   - string: the plot name
	Name() string

	// Type returns the plot type, Mesh or Lines.
	//
	// Returns:
	//   - string: the plot type
	Type() string

	// Space returns the coordinate space the plot was created in.
	//
	// Returns:
	//   - common.Space: the coordinate space
	Space() common.Space

	// Model returns the renderable.
	//
	// Returns:
	//   - model.Model: the model
	Model() model.Model

	// Visible reports whether the plot is drawn.
	//
	// Returns:
	//   - bool: true if visible
	Visible() bool

	// SetVisible mirrors the host visibility onto the model.
	//
	// Parameters:
	//   - visible: true to draw the plot
	SetVisible(visible bool)

	// UpdateAttribute applies a host attribute update.
	// Line plots also accept "positions", which is converted to line windows and routed to
	// the linepoint buffer with the segment count as target length.
	//
	// Parameters:
	//   - name: the attribute name
	//   - values: the new values
	//   - targetLength: the element count the attribute should have
	//
	// Returns:
	//   - bool: true if the geometry was rebuilt
	//   - error: ErrUnknownAttribute, geometry.ErrBufferOverflow
	UpdateAttribute(name string, values []float32, targetLength int) (bool, error)

	// UpdateFaces replaces the index buffer.
	//
	// Parameters:
	//   - indices: the new triangle indices
	UpdateFaces(indices []uint32)

	// UpdateUniform routes a host uniform update to the plot's material.
	//
	// Parameters:
	//   - name: the uniform name
	//   - payload: the host value
	//
	// Returns:
	//   - error: a decode error
	UpdateUniform(name string, payload any) error

	// Dispose releases the model. Later calls are no-ops.
	Dispose()

	// Disposed reports whether Dispose has been called.
	//
	// Returns:
	//   - bool: true once disposed
	Disposed() bool
}

var _ Plot = &plot{}

// NewPlot builds a plot from a host spec. Camera matrices are injected into the
// material per coordinate space:
//   - data: the camera's live view, projection, projectionview and eyeposition
//   - pixel, relative: identity view with the pixel or relative space projection
//   - clip: identity view, projection and projectionview
//
// The camera's resolution is shared in every space. Building a plot touches no GPU
// state, so plots of one scene may be built concurrently.
//
// Parameters:
//   - spec: the host plot description
//   - cam: the camera of the owning scene, must not be nil
//   - options: functional options to configure the plot
//
// Returns:
//   - Plot: the new plot
//   - error: ErrUnknownPlotType, ErrUnknownSpace, ErrInvalidBuffer or a uniform decode error
func NewPlot(spec Spec, cam camera.Camera, options ...PlotBuilderOption) (Plot, error) {
	if cam == nil {
		panic("plot: camera is required")
	}
	p := &plot{
		id:             spec.UUID,
		name:           spec.Name,
		space:          spec.Space(),
		isLineSegments: spec.IsLineSegments,
	}
	for _, opt := range options {
		opt(p)
	}
	if !p.space.Valid() {
		return nil, fmt.Errorf("plot %s: %q: %w", spec.UUID, spec.CamSpace, ErrUnknownSpace)
	}

	var (
		g         geometry.Geometry
		primitive model.Primitive
		err       error
	)
	switch {
	case strings.EqualFold(spec.PlotType, TypeMesh):
		p.plotType = TypeMesh
		primitive = model.PrimitiveMesh
		g, err = BuildMeshGeometry(spec.UUID, spec.VertexArrays, spec.Faces, spec.InstanceAttributes)
	case strings.EqualFold(spec.PlotType, TypeLines):
		p.plotType = TypeLines
		primitive = model.PrimitiveLines
		g, err = BuildLineGeometry(spec.UUID, spec.Positions, spec.IsLineSegments, spec.InstanceAttributes)
	default:
		return nil, fmt.Errorf("plot %s: %q: %w", spec.UUID, spec.PlotType, ErrUnknownPlotType)
	}
	if err != nil {
		return nil, fmt.Errorf("plot %s: %w", spec.UUID, err)
	}

	uniforms, err := uniform.Deserialize(spec.Uniforms)
	if err != nil {
		return nil, fmt.Errorf("plot %s: %w", spec.UUID, err)
	}
	for name, u := range cameraUniforms(p.space, cam) {
		uniforms[name] = u
	}
	mat := material.NewMaterial(
		material.WithName(spec.Name),
		material.WithShaders(spec.VertexShader, spec.FragmentShader),
		material.WithUniforms(uniforms),
		material.WithTransparent(spec.Transparent),
	)

	opts := append([]model.ModelBuilderOption{
		model.WithName(spec.Name),
		model.WithPrimitive(primitive),
		model.WithVisible(spec.IsVisible()),
	}, p.options...)
	p.model = model.NewModel(g, mat, opts...)
	p.updater = newAttributeUpdater(p.model, p.onRebuild)
	return p, nil
}

// cameraUniforms returns the camera handles a plot in space reads.
func cameraUniforms(space common.Space, cam camera.Camera) map[string]*uniform.Uniform {
	out := map[string]*uniform.Uniform{
		"resolution": cam.Resolution(),
	}
	switch space {
	case common.SpaceData:
		out["view"] = cam.View()
		out["projection"] = cam.Projection()
		out["projectionview"] = cam.ProjectionView()
		out["eyeposition"] = cam.EyePosition()
	case common.SpacePixel:
		out["view"] = uniform.NewMatrix4(common.Identity4())
		out["projection"] = cam.PixelSpace()
		out["projectionview"] = cam.PixelSpace()
	case common.SpaceRelative:
		out["view"] = uniform.NewMatrix4(common.Identity4())
		out["projection"] = cam.RelativeSpace()
		out["projectionview"] = cam.RelativeSpace()
	default:
		out["view"] = uniform.NewMatrix4(common.Identity4())
		out["projection"] = uniform.NewMatrix4(common.Identity4())
		out["projectionview"] = uniform.NewMatrix4(common.Identity4())
	}
	return out
}

func (p *plot) ID() string {
	return p.id
}

func (p *plot) Name() string {
	return p.name
}

func (p *plot) Type() string {
	return p.plotType
}

func (p *plot) Space() common.Space {
	return p.space
}

func (p *plot) Model() model.Model {
	return p.model
}

func (p *plot) Visible() bool {
	return p.model.Visible()
}

func (p *plot) SetVisible(visible bool) {
	p.model.SetVisible(visible)
}

func (p *plot) UpdateAttribute(name string, values []float32, targetLength int) (bool, error) {
	if p.plotType == TypeLines && name == PositionsUpdate {
		windows := LineWindows(values, p.isLineSegments)
		return p.updater.update(LinePointAttribute, windows, SegmentCount(windows))
	}
	return p.updater.update(name, values, targetLength)
}

func (p *plot) UpdateFaces(indices []uint32) {
	p.updater.updateFaces(indices)
}

func (p *plot) UpdateUniform(name string, payload any) error {
	return p.model.Material().UpdateUniform(name, payload)
}

func (p *plot) Dispose() {
	p.model.Dispose()
}

func (p *plot) Disposed() bool {
	return p.model.Disposed()
}
