package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/geometry"
	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/material"
	"github.com/stretchr/testify/assert"
)

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(geometry.NewGeometry(), material.NewMaterial(), WithName("lines"), WithPrimitive(PrimitiveLines))

	assert.Equal(t, "lines", m.Name())
	assert.Equal(t, PrimitiveLines, m.Primitive())
	assert.True(t, m.Visible())
}

func TestNewModelPanicsWithoutParts(t *testing.T) {
	assert.Panics(t, func() { NewModel(nil, material.NewMaterial()) })
}

func TestDisposeReleasesPartsOnce(t *testing.T) {
	g := geometry.NewGeometry()
	mat := material.NewMaterial()
	m := NewModel(g, mat)

	geomCalls, matCalls, modelCalls := 0, 0, 0
	g.OnDispose(func() { geomCalls++ })
	mat.OnDispose(func() { matCalls++ })
	m.OnDispose(func() { modelCalls++ })

	m.Dispose()
	m.Dispose()

	assert.Equal(t, 1, geomCalls)
	assert.Equal(t, 1, matCalls)
	assert.Equal(t, 1, modelCalls)
	assert.True(t, m.Disposed())
}
