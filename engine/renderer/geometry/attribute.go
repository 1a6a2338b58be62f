package geometry

import (
	"errors"
	"fmt"
)

// ErrBufferOverflow is returned when an in-place write carries more values than the attribute can hold.
var ErrBufferOverflow = errors.New("geometry: values exceed attribute capacity")

// View names a sub-range of an interleaved attribute. A shader reads ItemSize floats
// starting Offset floats into every element of the parent attribute.
type View struct {
	Name     string
	Offset   int
	ItemSize int
}

// Attribute is a named float32 buffer attached to a geometry.
// ItemSize is the number of floats per element; for interleaved attributes it is the
// stride and Views describe the fields inside each element.
type Attribute struct {
	Name      string
	Array     []float32
	ItemSize  int
	Instanced bool
	Views     []View

	version uint64

	staged    []float32
	hasStaged bool
}

// NewAttribute creates an Attribute over the given array.
// The array is owned by the attribute after this call.
//
// Parameters:
//   - name: the attribute name as referenced by the shader
//   - array: the backing values
//   - itemSize: floats per element (1, 2, 3, 4 or 16, or the stride of an interleaved buffer)
//   - instanced: true if the attribute advances per instance rather than per vertex
//   - views: optional interleaved field views
//
// Returns:
//   - *Attribute: the new attribute
func NewAttribute(name string, array []float32, itemSize int, instanced bool, views ...View) *Attribute {
	if itemSize <= 0 {
		panic(fmt.Sprintf("geometry: attribute %q must have a positive item size", name))
	}
	return &Attribute{
		Name:      name,
		Array:     array,
		ItemSize:  itemSize,
		Instanced: instanced,
		Views:     views,
		version:   1,
	}
}

// Count returns the number of elements in the attribute.
//
// Returns:
//   - int: len(Array) / ItemSize
func (a *Attribute) Count() int {
	return len(a.Array) / a.ItemSize
}

// Write overwrites the leading part of the attribute storage with values and marks the
// attribute dirty. The storage length never changes.
//
// Parameters:
//   - values: the new values
//
// Returns:
//   - error: ErrBufferOverflow if values is longer than the storage
func (a *Attribute) Write(values []float32) error {
	if len(values) > len(a.Array) {
		return fmt.Errorf("attribute %q: %d values into %d slots: %w", a.Name, len(values), len(a.Array), ErrBufferOverflow)
	}
	copy(a.Array, values)
	a.MarkDirty()
	return nil
}

// MarkDirty flags the attribute for re-upload.
func (a *Attribute) MarkDirty() {
	a.version++
}

// Version returns a counter that changes every time the attribute is marked dirty.
//
// Returns:
//   - uint64: the current version
func (a *Attribute) Version() uint64 {
	return a.version
}

// Stage holds values for a pending resize without touching the live array.
// A later Stage call replaces the earlier one.
//
// Parameters:
//   - values: the values the attribute will hold after the resize
func (a *Attribute) Stage(values []float32) {
	a.staged = values
	a.hasStaged = true
}

// Staged returns the values held for a pending resize.
//
// Returns:
//   - []float32: the staged values
//   - bool: false if nothing is staged
func (a *Attribute) Staged() ([]float32, bool) {
	return a.staged, a.hasStaged
}

// StagedCount returns the element count of the staged values, or -1 if nothing is staged.
//
// Returns:
//   - int: the staged element count
func (a *Attribute) StagedCount() int {
	if !a.hasStaged {
		return -1
	}
	return len(a.staged) / a.ItemSize
}

// ClearStaged drops any staged values.
func (a *Attribute) ClearStaged() {
	a.staged = nil
	a.hasStaged = false
}

// WithArray returns a new attribute with the same name and layout over a different array.
//
// Parameters:
//   - array: the backing values of the new attribute
//
// Returns:
//   - *Attribute: the new attribute
func (a *Attribute) WithArray(array []float32) *Attribute {
	views := append([]View(nil), a.Views...)
	return NewAttribute(a.Name, array, a.ItemSize, a.Instanced, views...)
}
