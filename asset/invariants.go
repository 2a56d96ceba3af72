package asset

// IsFlattened evaluates spec invariant: exactly one buffer, |nodes| ==
// |meshes|, every mesh has exactly one primitive, every node's mesh
// reference is unique, and the asset's generator tag matches want.
func (a *Asset) IsFlattened(want string) bool {
	if len(a.Buffers) != 1 {
		return false
	}
	if len(a.Nodes) != len(a.Meshes) {
		return false
	}
	for i := range a.Meshes {
		if len(a.Meshes[i].Primitives) != 1 {
			return false
		}
	}
	seen := make(map[MeshIndex]bool, len(a.Nodes))
	for i := range a.Nodes {
		mesh := a.Nodes[i].Mesh
		if mesh == nil {
			return false
		}
		if seen[*mesh] {
			return false
		}
		seen[*mesh] = true
	}
	return a.Generator == want
}

// AccessorEnd returns the exclusive byte offset one past the last byte an
// accessor's data occupies within its buffer view's buffer: the start of
// the last element plus one element's size. For a packed accessor this is
// view.offset + accessor.offset + count*stride; for a strided one it is
// smaller by the stride's trailing padding after the last element.
func (a *Asset) AccessorEnd(acc *Accessor) int {
	view := &a.BufferViews[acc.View]
	if acc.Count == 0 {
		return view.ByteOffset + acc.ByteOffset
	}
	lastElementStart := acc.ByteOffset + (acc.Count-1)*acc.EffectiveStride()
	elementSize := acc.ElementType.NumComponents() * acc.ComponentType.Size()
	return view.ByteOffset + lastElementStart + elementSize
}

// CheckBounds verifies invariant 2 for every accessor in a.
func (a *Asset) CheckBounds() error {
	for i := range a.Accessors {
		acc := &a.Accessors[i]
		if int(acc.View) < 0 || int(acc.View) >= len(a.BufferViews) {
			return NewMalformedInput("accessor %d references out-of-range view %d", i, acc.View)
		}
		view := &a.BufferViews[acc.View]
		if int(view.Buffer) < 0 || int(view.Buffer) >= len(a.Buffers) {
			return NewMalformedInput("view %d references out-of-range buffer %d", acc.View, view.Buffer)
		}
		buf := &a.Buffers[view.Buffer]
		if end := a.AccessorEnd(acc); end > buf.Size() {
			return NewMalformedInput("accessor %d exceeds buffer bounds (end=%d, size=%d)", i, end, buf.Size())
		}
	}
	return nil
}
