// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Space is the coordinate-space tag of a plot. It selects which camera matrices are
// injected into the plot's uniforms when it is created.
type Space string

const (
	// SpaceData places the plot in data coordinates, transformed by the live camera.
	SpaceData Space = "data"
	// SpacePixel places the plot in screen pixel coordinates.
	SpacePixel Space = "pixel"
	// SpaceRelative places the plot in [0, 1] coordinates relative to the scene area.
	SpaceRelative Space = "relative"
	// SpaceClip places the plot directly in clip coordinates.
	SpaceClip Space = "clip"
)

// Valid reports whether s is one of the known coordinate spaces.
//
// Returns:
//   - bool: true if s is data, pixel, relative or clip
func (s Space) Valid() bool {
	switch s {
	case SpaceData, SpacePixel, SpaceRelative, SpaceClip:
		return true
	}
	return false
}

// Rect is an integer pixel rectangle, used for the pixel area a scene draws into.
type Rect struct {
	// X and Y are the origin of the rectangle in pixels.
	X, Y int
	// Width and Height are the extent of the rectangle in pixels.
	Width, Height int
}

// TextureStagingData holds pixel data for a texture binding pending GPU upload.
// The renderer converts host float pixel data into this form before creating the GPU texture.
type TextureStagingData struct {
	// Pixels is the raw pixel data in the layout described by Format.
	Pixels []byte
	// Width, Height and Depth are the texture extent in texels. Height and Depth are 1 for lower-dimensional textures.
	Width, Height, Depth uint32
	// BytesPerTexel is the number of bytes one texel occupies in Pixels.
	BytesPerTexel uint32
	// Format is the GPU texture format the pixels are uploaded as.
	Format wgpu.TextureFormat
	// Dimension is the GPU texture dimension (1D, 2D or 3D).
	Dimension wgpu.TextureDimension
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}
