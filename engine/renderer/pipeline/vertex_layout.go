package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/geometry"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrUnboundInput is returned when the vertex shader declares an input no attribute provides.
var ErrUnboundInput = errors.New("pipeline: vertex input has no attribute")

// VertexBufferLayout describes how one attribute buffer feeds the vertex shader.
// Name is the geometry attribute bound to the slot.
type VertexBufferLayout struct {
	Name       string
	Stride     uint64
	StepMode   wgpu.VertexStepMode
	Attributes []wgpu.VertexAttribute
}

// floatFormats maps a float count to its vertex format.
var floatFormats = map[int]wgpu.VertexFormat{
	1: wgpu.VertexFormatFloat32,
	2: wgpu.VertexFormatFloat32x2,
	3: wgpu.VertexFormatFloat32x3,
	4: wgpu.VertexFormatFloat32x4,
}

// BindAttributes matches the attributes of g to the inputs vs declares, by name.
// Each attribute that feeds at least one input becomes a vertex buffer slot, in attribute order.
// Interleaved attributes bind each View by its own name. A 16 float attribute is a matrix and
// binds four consecutive vec4 locations starting at the input named after it (or after it with
// a "_0" suffix). Attributes the shader does not read are left unbound.
//
// Parameters:
//   - g: the geometry
//   - vs: the vertex shader
//
// Returns:
//   - []VertexBufferLayout: the layouts in slot order
//   - error: ErrUnboundInput naming every input left without an attribute
func BindAttributes(g geometry.Geometry, vs shader.Shader) ([]VertexBufferLayout, error) {
	bound := make(map[uint32]bool)
	var layouts []VertexBufferLayout

	for _, a := range g.Attributes() {
		var attrs []wgpu.VertexAttribute
		bind := func(name string, offset, floats int) {
			format, ok := floatFormats[floats]
			if !ok {
				return
			}
			in, ok := vs.Input(name)
			if !ok {
				return
			}
			attrs = append(attrs, wgpu.VertexAttribute{
				Format:         format,
				Offset:         uint64(offset * 4),
				ShaderLocation: in.Location,
			})
			bound[in.Location] = true
		}

		switch {
		case len(a.Views) > 0:
			for _, v := range a.Views {
				bind(v.Name, v.Offset, v.ItemSize)
			}
		case a.ItemSize == 16:
			base, ok := vs.Input(a.Name)
			if !ok {
				base, ok = vs.Input(a.Name + "_0")
			}
			if ok {
				for col := range 4 {
					loc := base.Location + uint32(col)
					attrs = append(attrs, wgpu.VertexAttribute{
						Format:         wgpu.VertexFormatFloat32x4,
						Offset:         uint64(col * 16),
						ShaderLocation: loc,
					})
					bound[loc] = true
				}
			}
		default:
			bind(a.Name, 0, a.ItemSize)
		}

		if len(attrs) == 0 {
			continue
		}
		step := wgpu.VertexStepModeVertex
		if a.Instanced {
			step = wgpu.VertexStepModeInstance
		}
		layouts = append(layouts, VertexBufferLayout{
			Name:       a.Name,
			Stride:     uint64(a.ItemSize * 4),
			StepMode:   step,
			Attributes: attrs,
		})
	}

	var missing []string
	for _, in := range vs.Inputs() {
		if !bound[in.Location] {
			missing = append(missing, fmt.Sprintf("%s@%d", in.Name, in.Location))
		}
	}
	if len(missing) > 0 {
		return layouts, fmt.Errorf("%w: %s", ErrUnboundInput, strings.Join(missing, ", "))
	}
	return layouts, nil
}
