package material

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-plot/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-plot/engine/uniform"
)

// UniformField describes where one numeric uniform lives inside the packed uniform block.
type UniformField struct {
	Name   string
	Offset int
	Size   int
}

// TextureBinding names a sampler uniform and the texture currently bound to it.
type TextureBinding struct {
	Name    string
	Texture texture.Texture
}

// UniformBlock is the GPU-aligned image of a material's numeric uniforms.
// Fields follow WGSL uniform address space alignment: f32 at 4, vec2 at 8, vec3/vec4/mat4x4 at 16.
// Textures are not part of the block and are listed separately in name order.
type UniformBlock struct {
	Fields   []UniformField
	Data     []byte
	Textures []TextureBinding
}

// Size returns the size of the packed block in bytes, always a multiple of 16.
//
// Returns:
//   - int: the size in bytes
func (b *UniformBlock) Size() int {
	return len(b.Data)
}

// PackUniforms lays out the material's uniforms in name order and serializes the numeric ones.
// Opaque uniforms have no GPU representation and are skipped.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - *UniformBlock: the packed block
func PackUniforms(m Material) *UniformBlock {
	b := &UniformBlock{}
	offset := 0
	type pending struct {
		field  UniformField
		values []float32
	}
	var fields []pending
	for _, name := range m.UniformNames() {
		u := m.Uniform(name)
		if u == nil {
			continue
		}
		var values []float32
		align := 16
		switch v := u.Value.(type) {
		case uniform.Scalar:
			values, align = []float32{float32(v)}, 4
		case *uniform.Vector2:
			values, align = v[:], 8
		case *uniform.Vector3, *uniform.Vector4, *uniform.Matrix4:
			values = uniform.Floats(v)
		case uniform.TextureValue:
			b.Textures = append(b.Textures, TextureBinding{Name: name, Texture: v.Texture})
			continue
		default:
			continue
		}
		offset = alignUp(offset, align)
		f := UniformField{Name: name, Offset: offset, Size: len(values) * 4}
		fields = append(fields, pending{field: f, values: values})
		offset += f.Size
	}

	b.Data = make([]byte, alignUp(max(offset, 16), 16))
	for _, p := range fields {
		b.Fields = append(b.Fields, p.field)
		for i, x := range p.values {
			binary.LittleEndian.PutUint32(b.Data[p.field.Offset+i*4:], math.Float32bits(x))
		}
	}
	return b
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}
