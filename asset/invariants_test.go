package asset

import "testing"

func flatMesh(i int) MeshIndex { return MeshIndex(i) }

func TestIsFlattenedAcceptsWitness(t *testing.T) {
	m0, m1 := flatMesh(0), flatMesh(1)
	a := &Asset{
		Generator: "gltfio",
		Buffers:   []Buffer{{}},
		Meshes:    []Mesh{{Primitives: []Primitive{{}}}, {Primitives: []Primitive{{}}}},
		Nodes:     []Node{{Mesh: &m0}, {Mesh: &m1}},
	}
	if !a.IsFlattened("gltfio") {
		t.Error("IsFlattened = false, want true for a well-formed witness")
	}
}

func TestIsFlattenedRejectsWrongGenerator(t *testing.T) {
	m0 := flatMesh(0)
	a := &Asset{
		Generator: "other",
		Buffers:   []Buffer{{}},
		Meshes:    []Mesh{{Primitives: []Primitive{{}}}},
		Nodes:     []Node{{Mesh: &m0}},
	}
	if a.IsFlattened("gltfio") {
		t.Error("IsFlattened = true, want false for mismatched generator")
	}
}

func TestIsFlattenedRejectsSharedMesh(t *testing.T) {
	m0 := flatMesh(0)
	a := &Asset{
		Generator: "gltfio",
		Buffers:   []Buffer{{}},
		Meshes:    []Mesh{{Primitives: []Primitive{{}}}},
		Nodes:     []Node{{Mesh: &m0}, {Mesh: &m0}},
	}
	if a.IsFlattened("gltfio") {
		t.Error("IsFlattened = true, want false when two nodes share a mesh")
	}
}

func TestIsFlattenedRejectsMultiBuffer(t *testing.T) {
	a := &Asset{Generator: "gltfio", Buffers: []Buffer{{}, {}}}
	if a.IsFlattened("gltfio") {
		t.Error("IsFlattened = true, want false with more than one buffer")
	}
}

func TestCheckBoundsCatchesOverrun(t *testing.T) {
	a := &Asset{
		Buffers:     []Buffer{{Data: make([]byte, 8)}},
		BufferViews: []BufferView{{Buffer: 0, ByteOffset: 0, ByteLength: 8}},
		Accessors:   []Accessor{{View: 0, ComponentType: ComponentF32, ElementType: ElementVec3, Count: 1}},
	}
	if err := a.CheckBounds(); err == nil {
		t.Error("CheckBounds did not catch a vec3-f32 accessor reading past an 8-byte buffer")
	}
}

func TestCheckBoundsAcceptsExactFit(t *testing.T) {
	a := &Asset{
		Buffers:     []Buffer{{Data: make([]byte, 12)}},
		BufferViews: []BufferView{{Buffer: 0, ByteOffset: 0, ByteLength: 12}},
		Accessors:   []Accessor{{View: 0, ComponentType: ComponentF32, ElementType: ElementVec3, Count: 1}},
	}
	if err := a.CheckBounds(); err != nil {
		t.Errorf("CheckBounds = %v, want nil for an exact fit", err)
	}
}
