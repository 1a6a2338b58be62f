package registry

// ContextBuilderOption is a functional option for configuring a Context via NewContext.
type ContextBuilderOption func(*Context)

// WithSurface sets the drawing target deleted scenes are detached from.
//
// Parameters:
//   - s: the surface
//
// Returns:
//   - ContextBuilderOption: a function that applies the surface option to a context
func WithSurface(s Surface) ContextBuilderOption {
	return func(c *Context) {
		c.surface = s
	}
}
