package plot

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-plot/engine/model"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/geometry"
)

// attributeUpdater keeps a model's attribute buffers consistent with host updates.
//
// Updates arrive one attribute at a time. An update that fits in the current storage is
// written in place. A larger one is staged, and the geometry is rebuilt only once every
// buffer of the same class (per-vertex or per-instance) has staged values of the new
// length, whatever order the updates arrive in.
type attributeUpdater struct {
	model model.Model

	geometryBuffers       []string
	instanceBuffers       []string
	firstGeometryBuffer   string
	firstInstanceBuffer   string
	currentGeometryLength int
	currentInstanceLength int

	onRebuild func(old, replacement geometry.Geometry)
}

func newAttributeUpdater(m model.Model, onRebuild func(old, replacement geometry.Geometry)) *attributeUpdater {
	u := &attributeUpdater{model: m, onRebuild: onRebuild}
	u.recompute()
	return u
}

// recompute derives the buffer classification from the current geometry.
func (u *attributeUpdater) recompute() {
	u.geometryBuffers = u.geometryBuffers[:0]
	u.instanceBuffers = u.instanceBuffers[:0]
	u.firstGeometryBuffer, u.firstInstanceBuffer = "", ""
	u.currentGeometryLength, u.currentInstanceLength = 0, 0

	for _, a := range u.model.Geometry().Attributes() {
		if a.Instanced {
			if len(u.instanceBuffers) == 0 {
				u.firstInstanceBuffer = a.Name
				u.currentInstanceLength = a.Count()
			}
			u.instanceBuffers = append(u.instanceBuffers, a.Name)
		} else {
			if len(u.geometryBuffers) == 0 {
				u.firstGeometryBuffer = a.Name
				u.currentGeometryLength = a.Count()
			}
			u.geometryBuffers = append(u.geometryBuffers, a.Name)
		}
	}
}

// update applies one attribute update.
//
// Returns true when the update completed a resize and the geometry was replaced.
// A staged resize still waiting for other buffers returns false and no error.
func (u *attributeUpdater) update(name string, values []float32, targetLength int) (bool, error) {
	g := u.model.Geometry()
	attr := g.Attribute(name)
	if attr == nil {
		return false, fmt.Errorf("%q: %w", name, ErrUnknownAttribute)
	}

	current := u.currentGeometryLength
	if attr.Instanced {
		current = u.currentInstanceLength
	}

	if targetLength <= current {
		if err := attr.Write(values); err != nil {
			return false, err
		}
		// an older staged resize of this buffer must not overwrite this write
		attr.ClearStaged()
		if attr.Instanced {
			g.SetInstanceCount(targetLength)
		} else if g.Index() == nil {
			g.SetDrawCount(targetLength)
		}
		return false, nil
	}

	attr.Stage(values)
	class := u.geometryBuffers
	if attr.Instanced {
		class = u.instanceBuffers
	}
	for _, n := range class {
		if g.Attribute(n).StagedCount() != targetLength {
			return false, nil
		}
	}

	u.rebuild(attr.Instanced, targetLength)
	return true, nil
}

// rebuild replaces the geometry with one built from the staged values of the resized
// class and copies of every other buffer, then disposes the old geometry.
func (u *attributeUpdater) rebuild(instanced bool, targetLength int) {
	old := u.model.Geometry()

	opts := []geometry.GeometryBuilderOption{
		geometry.WithLabel(old.Label()),
		geometry.WithBoundingRadius(old.BoundingRadius()),
	}
	for _, a := range old.Attributes() {
		var array []float32
		if a.Instanced == instanced {
			array, _ = a.Staged()
		} else {
			array = append([]float32(nil), a.Array...)
		}
		opts = append(opts, geometry.WithAttribute(a.WithArray(array)))
	}
	if idx := old.Index(); idx != nil {
		opts = append(opts, geometry.WithIndex(append([]uint32(nil), idx...)))
	}
	if old.Instanced() {
		count := old.InstanceCount()
		if instanced {
			count = targetLength
		}
		opts = append(opts, geometry.WithInstanceCount(count))
	}

	replacement := geometry.NewGeometry(opts...)
	u.model.SetGeometry(replacement)
	old.Dispose()
	u.recompute()
	if instanced {
		u.currentInstanceLength = targetLength
	} else {
		u.currentGeometryLength = targetLength
	}
	if u.onRebuild != nil {
		u.onRebuild(old, replacement)
	}
}

// updateFaces replaces the index buffer. Index length is independent of the vertex
// buffers, so there is no resize barrier.
func (u *attributeUpdater) updateFaces(indices []uint32) {
	g := u.model.Geometry()
	g.SetIndex(indices)
	g.SetDrawCount(-1)
}
