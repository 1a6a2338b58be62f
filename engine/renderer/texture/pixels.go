package texture

import (
	"encoding/binary"
	"math"
)

// Pixels is a texture's data expanded to four channels and encoded for upload.
type Pixels struct {
	Data                 []byte
	Width, Height, Depth int
	// BytesPerTexel is 16 for float textures and 4 for byte textures.
	BytesPerTexel int
	// Float is true when Data holds little endian float32 texels.
	Float bool
}

// BytesPerRow returns the byte length of one row of texels.
//
// Returns:
//   - int: Width * BytesPerTexel
func (p Pixels) BytesPerRow() int {
	return p.Width * p.BytesPerTexel
}

// Encode expands t to RGBA and encodes it for upload. Missing color channels are 0 and a
// missing alpha channel is opaque. FloatType data is kept as float32; UnsignedByteType data
// holds values in 0..255 and is rounded and clamped to bytes. Texels past the end of a short
// data array are left zero.
//
// Parameters:
//   - t: the texture
//
// Returns:
//   - Pixels: the encoded texels
func Encode(t Texture) Pixels {
	size := t.Size()
	p := Pixels{Width: size[0], Height: 1, Depth: 1, Float: t.Type() != TypeUnsignedByte}
	if len(size) > 1 {
		p.Height = size[1]
	}
	if len(size) > 2 {
		p.Depth = size[2]
	}
	p.BytesPerTexel = 4
	if p.Float {
		p.BytesPerTexel = 16
	}

	texels := p.Width * p.Height * p.Depth
	channels := ChannelCount(t.Format())
	data := t.Data()
	p.Data = make([]byte, texels*p.BytesPerTexel)

	for i := range texels {
		var rgba [4]float32
		if p.Float {
			rgba[3] = 1
		} else {
			rgba[3] = 255
		}
		for c := range channels {
			if idx := i*channels + c; idx < len(data) {
				rgba[c] = data[idx]
			}
		}
		base := i * p.BytesPerTexel
		for c, v := range rgba {
			if p.Float {
				binary.LittleEndian.PutUint32(p.Data[base+c*4:], math.Float32bits(v))
			} else {
				p.Data[base+c] = toByte(v)
			}
		}
	}
	return p
}

func toByte(v float32) byte {
	r := math.Round(float64(v))
	switch {
	case r <= 0 || math.IsNaN(r):
		return 0
	case r >= 255:
		return 255
	}
	return byte(r)
}
