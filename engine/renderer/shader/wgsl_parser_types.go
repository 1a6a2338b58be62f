package shader

import "github.com/cogentcore/webgpu/wgpu"

// vertexFormatInfo holds the wgpu vertex format of a WGSL vertex input type and its float count.
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	floats int
}

// parsedField represents a single field extracted from a WGSL struct or parameter list.
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing.
type parsedStruct struct {
	name   string
	fields []parsedField
}

// Input is a vertex stage input declared with @location.
type Input struct {
	// Name is the field or parameter name, matched against attribute and view names.
	Name string
	// Location is the shader location.
	Location uint32
	// Format is the vertex format of the declared type.
	Format wgpu.VertexFormat
	// Floats is the number of float32 components the input reads.
	Floats int
}
