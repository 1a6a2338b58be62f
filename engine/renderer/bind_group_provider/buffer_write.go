package bind_group_provider

// BufferWrite describes a single in-place GPU buffer write targeting the resource stored under
// Key on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Key      string
	Offset   uint64
	Data     []byte
}

// Resource returns the resource the write targets, or nil if the key has no entry.
//
// Returns:
//   - Resource: the target resource or nil
func (w BufferWrite) Resource() Resource {
	e, ok := w.Provider.Entry(w.Key)
	if !ok {
		return nil
	}
	return e.Resource
}
