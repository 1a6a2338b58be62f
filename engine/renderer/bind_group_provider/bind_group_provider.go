package bind_group_provider

import (
	"sort"
)

// Resource is a GPU object owned by a provider. Backends wrap their buffers, textures and
// bind groups in a Resource so the renderer can manage them without knowing the backend.
type Resource interface {
	Release()
}

// Entry is one resource held by a provider together with the state it was last synced from.
type Entry struct {
	// Resource is the GPU object.
	Resource Resource
	// Version is the source version the resource was last written from.
	Version uint64
	// Size is the resource size in bytes, used to decide between an in-place write and a reallocation.
	Size int
	// Source is the CPU object the resource mirrors, used to detect a replaced source.
	Source any
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	entries   map[string]Entry
	bindGroup Resource
	released  bool
}

// BindGroupProvider owns the GPU resources backing one renderable object: the attribute and
// index buffers of a geometry, or the uniform buffer, textures and bind group of a material.
// Resources are keyed by name. Replacing an entry releases the resource it held, so every GPU
// object has exactly one owner and is released before its replacement is used.
type BindGroupProvider interface {
	// Release releases every resource and the bind group. Later calls are no-ops.
	Release()

	// Released reports whether Release has been called.
	//
	// Returns:
	//   - bool: true once released
	Released() bool

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Entry looks up a resource entry.
	//
	// Parameters:
	//   - key: the resource key, usually an attribute or uniform name
	//
	// Returns:
	//   - Entry: the entry
	//   - bool: false if the key has no entry
	Entry(key string) (Entry, bool)

	// SetEntry stores an entry, releasing the resource of the entry it replaces when that
	// resource differs from the new one.
	//
	// Parameters:
	//   - key: the resource key
	//   - e: the new entry
	SetEntry(key string, e Entry)

	// DeleteEntry releases and removes an entry.
	//
	// Parameters:
	//   - key: the resource key
	DeleteEntry(key string)

	// Keys returns the keys of all entries in sorted order.
	//
	// Returns:
	//   - []string: the keys
	Keys() []string

	// BindGroup returns the bind group built over the provider's resources, or nil.
	//
	// Returns:
	//   - Resource: the bind group or nil
	BindGroup() Resource

	// SetBindGroup replaces the bind group, releasing the previous one.
	//
	// Parameters:
	//   - bg: the new bind group, nil to drop it
	SetBindGroup(bg Resource)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider.
//
// Parameters:
//   - opts: variadic list of BindGroupProviderOption functions
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(opts ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Release() {
	if p.released {
		return
	}
	p.released = true
	for key, e := range p.entries {
		if e.Resource != nil {
			e.Resource.Release()
		}
		delete(p.entries, key)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
}

func (p *bindGroupProvider) Released() bool {
	return p.released
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Entry(key string) (Entry, bool) {
	e, ok := p.entries[key]
	return e, ok
}

func (p *bindGroupProvider) SetEntry(key string, e Entry) {
	if old, ok := p.entries[key]; ok && old.Resource != nil && old.Resource != e.Resource {
		old.Resource.Release()
	}
	p.entries[key] = e
}

func (p *bindGroupProvider) DeleteEntry(key string) {
	if old, ok := p.entries[key]; ok {
		if old.Resource != nil {
			old.Resource.Release()
		}
		delete(p.entries, key)
	}
}

func (p *bindGroupProvider) Keys() []string {
	keys := make([]string, 0, len(p.entries))
	for k := range p.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p *bindGroupProvider) BindGroup() Resource {
	return p.bindGroup
}

func (p *bindGroupProvider) SetBindGroup(bg Resource) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}
