package plot

import "errors"

var (
	// ErrUnknownAttribute is returned for an update naming an attribute the plot does not have.
	ErrUnknownAttribute = errors.New("plot: unknown attribute")
	// ErrUnknownPlotType is returned for a spec whose plot_type is neither Mesh nor Lines.
	ErrUnknownPlotType = errors.New("plot: unknown plot type")
	// ErrUnknownSpace is returned for a spec whose cam_space is not data, pixel, relative or clip.
	ErrUnknownSpace = errors.New("plot: unknown coordinate space")
	// ErrInvalidBuffer is returned for an attribute whose length is not a multiple of its item size.
	ErrInvalidBuffer = errors.New("plot: invalid attribute buffer")
)
