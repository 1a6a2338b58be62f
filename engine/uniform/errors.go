package uniform

import (
	"errors"
	"fmt"
)

// ErrUnsupportedUniformType is matched by every UnsupportedUniformTypeError.
var ErrUnsupportedUniformType = errors.New("unsupported uniform type")

// UnsupportedUniformTypeError reports a uniform whose declared type is not recognised.
type UnsupportedUniformTypeError struct {
	// Name is the uniform name, empty when the value was decoded outside a uniform map.
	Name string
	// TypeName is the declared type.
	TypeName string
}

func (e *UnsupportedUniformTypeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %q", ErrUnsupportedUniformType, e.TypeName)
	}
	return fmt.Sprintf("uniform %q: %s: %q", e.Name, ErrUnsupportedUniformType, e.TypeName)
}

func (e *UnsupportedUniformTypeError) Is(target error) bool {
	return target == ErrUnsupportedUniformType
}
